package archonvalidate

import (
	"net"
	"testing"
)

func TestIsValidNostrPubkey(t *testing.T) {
	valid := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	if !IsValidNostrPubkey(valid) {
		t.Fatalf("expected %q to be valid", valid)
	}
	if IsValidNostrPubkey(valid[:63]) {
		t.Fatalf("short key should be invalid")
	}
	if IsValidNostrPubkey("zz" + valid[2:]) {
		t.Fatalf("non-hex key should be invalid")
	}
}

func TestIsValidCLNPubkey(t *testing.T) {
	// A well-known secp256k1 generator-point-derived test pubkey (compressed).
	valid := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	if !IsValidCLNPubkey(valid) {
		t.Fatalf("expected %q to be valid", valid)
	}
	if IsValidCLNPubkey("04"+valid[2:]) {
		t.Fatalf("wrong prefix should be invalid")
	}
	if IsValidCLNPubkey(valid[:64]) {
		t.Fatalf("short key should be invalid")
	}
	// Right shape (66 hex, 02 prefix), but x=5 has no point on the curve.
	bogus := "02" + "0000000000000000000000000000000000000000000000000000000000000005"
	if IsValidCLNPubkey(bogus) {
		t.Fatalf("off-curve point should be rejected")
	}
}

func TestIsValidDID(t *testing.T) {
	if !IsValidDID("did:cid:abc123") {
		t.Fatalf("expected valid DID to pass")
	}
	if IsValidDID("did:cid:") {
		t.Fatalf("empty suffix should be invalid")
	}
	if IsValidDID("did:other:abc123") {
		t.Fatalf("wrong prefix should be invalid")
	}
}

func TestIsValidGatewayURL(t *testing.T) {
	cases := map[string]bool{
		"https://archon.example.com": true,
		"http://localhost:8080":      true,
		"http://127.0.0.1:8080":      true,
		"http://archon.example.com":  false,
		"ftp://archon.example.com":   false,
		"not-a-url":                  false,
	}
	for url, want := range cases {
		if got := IsValidGatewayURL(url); got != want {
			t.Errorf("IsValidGatewayURL(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestIsUnsafeHostAddr(t *testing.T) {
	unsafe := []string{"127.0.0.1", "169.254.169.254", "10.0.0.1", "192.168.1.1", "224.0.0.1", "::1", "fe80::1"}
	for _, addr := range unsafe {
		if !IsUnsafeHostAddr(net.ParseIP(addr)) {
			t.Errorf("IsUnsafeHostAddr(%q) = false, want true", addr)
		}
	}
	if IsUnsafeHostAddr(net.ParseIP("8.8.8.8")) {
		t.Fatalf("public address should not be flagged unsafe")
	}
}
