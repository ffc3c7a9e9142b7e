// Package archonvalidate holds the pure predicates used to accept or reject
// identity, binding, and gateway inputs before the Service acts on them.
package archonvalidate

import (
	"net"
	"net/url"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// IsHex reports whether s is exactly n characters, all of them hex digits.
func IsHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidNostrPubkey reports whether s is a 64-hex-char Nostr public key.
func IsValidNostrPubkey(s string) bool {
	return IsHex(s, 64)
}

// IsValidCLNPubkey reports whether s is a 66-hex-char compressed secp256k1
// public key prefixed with 02 or 03, and that it actually decodes to a point
// on the curve (a strengthening of the shape check spec.md requires).
func IsValidCLNPubkey(s string) bool {
	if len(s) != 66 {
		return false
	}
	if prefix := s[:2]; prefix != "02" && prefix != "03" {
		return false
	}
	if !IsHex(s, 66) {
		return false
	}
	raw := make([]byte, 33)
	if _, err := decodeHex(s, raw); err != nil {
		return false
	}
	_, err := secp256k1.ParsePubKey(raw)
	return err == nil
}

func decodeHex(s string, dst []byte) (int, error) {
	n := 0
	for i := 0; i+1 < len(s); i += 2 {
		hi, err := hexNibble(s[i])
		if err != nil {
			return n, err
		}
		lo, err := hexNibble(s[i+1])
		if err != nil {
			return n, err
		}
		dst[n] = hi<<4 | lo
		n++
	}
	return n, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, errInvalidHex
	}
}

var errInvalidHex = &hexError{}

type hexError struct{}

func (*hexError) Error() string { return "invalid hex digit" }

const (
	didPrefix    = "did:cid:"
	didMinLen    = 12
	didMaxLen    = 128
	didSuffixSet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._:-"
)

// IsValidDID reports whether s matches did:cid:<suffix> where suffix is
// 1-120 chars of [A-Za-z0-9._:-] and the total length is 12-128.
func IsValidDID(s string) bool {
	if len(s) < didMinLen || len(s) > didMaxLen {
		return false
	}
	if !strings.HasPrefix(s, didPrefix) {
		return false
	}
	suffix := s[len(didPrefix):]
	if len(suffix) == 0 || len(suffix) > 120 {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(didSuffixSet, rune(suffix[i])) {
			return false
		}
	}
	return true
}

// IsValidGatewayURL reports whether s is a well-formed gateway base URL:
// scheme http or https, non-empty host, and plaintext http restricted to
// localhost/127.0.0.1. This is the construction-time guard; GatewayClient
// re-checks the resolved DNS answer on every request (see archongateway).
func IsValidGatewayURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if u.Scheme == "http" && host != "localhost" && host != "127.0.0.1" {
		return false
	}
	return true
}

// IsUnsafeHostAddr reports whether addr (a resolved IP) must never be
// contacted by the gateway client: loopback, link-local, private (RFC1918),
// unique-local, or multicast.
func IsUnsafeHostAddr(addr net.IP) bool {
	if addr == nil {
		return true
	}
	switch {
	case addr.IsLoopback():
		return true
	case addr.IsLinkLocalUnicast():
		return true
	case addr.IsLinkLocalMulticast():
		return true
	case addr.IsMulticast():
		return true
	case addr.IsPrivate():
		return true
	case addr.IsUnspecified():
		return true
	}
	return false
}
