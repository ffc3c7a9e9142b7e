// Package archongateway is the HTTP client for the remote Archon gateway.
// It applies the SSRF guard and the canonical-JSON wire format, and never
// lets a raw network error escape: every failure surfaces as a typed *Error.
// The guard resolves the host and checks every address before each request;
// the HTTP transport resolves the host again when it dials, so the
// connection is not pinned to the addresses that were checked.
package archongateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lightning-goats/cl-hive-archon/internal/archoncanon"
	"github.com/lightning-goats/cl-hive-archon/internal/archonvalidate"
)

const requestTimeout = 10 * time.Second

// Error wraps any gateway failure (network, DNS, parse, non-2xx) so that no
// raw I/O error crosses the package boundary.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("archon gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// Resolver is the subset of net.Resolver the client needs; overridable in
// tests so SSRF behavior can be asserted without a real DNS round trip.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Client is a stateless HTTP client bound to a single gateway base URL.
type Client struct {
	baseURL    *url.URL
	authToken  string
	httpClient *http.Client
	resolver   Resolver
}

// New constructs a Client, validating the base URL up front (scheme/host
// shape only; per-request DNS resolution is re-checked on every call to
// defeat DNS rebinding, per spec.md §9).
func New(baseURL string, authToken string) (*Client, error) {
	if !archonvalidate.IsValidGatewayURL(baseURL) {
		return nil, fmt.Errorf("invalid gateway url %q", baseURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url %q: %w", baseURL, err)
	}
	return &Client{
		baseURL:   u,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		resolver: net.DefaultResolver,
	}, nil
}

// checkHost re-validates scheme/host and performs the per-request SSRF/DNS-
// rebinding guard: every resolved address for the host must be public.
func (c *Client) checkHost(ctx context.Context) error {
	host := c.baseURL.Hostname()
	if host == "" {
		return fmt.Errorf("empty host")
	}
	if c.baseURL.Scheme == "http" && host != "localhost" && host != "127.0.0.1" {
		return fmt.Errorf("plaintext http only allowed for localhost/127.0.0.1")
	}
	if ip := net.ParseIP(host); ip != nil {
		if archonvalidate.IsUnsafeHostAddr(ip) && host != "127.0.0.1" {
			return fmt.Errorf("host %s resolves to an unsafe address", host)
		}
		return nil
	}
	addrs, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("no addresses for host %s", host)
	}
	for _, addr := range addrs {
		if addr.IP.IsLoopback() && (host == "localhost" || host == "127.0.0.1") {
			continue
		}
		if archonvalidate.IsUnsafeHostAddr(addr.IP) {
			return fmt.Errorf("host %s resolves to unsafe address %s", host, addr.IP)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	if err := c.checkHost(ctx); err != nil {
		return wrap("ssrf guard", err)
	}

	body, err := archoncanon.Marshal(payload)
	if err != nil {
		return wrap("marshal request", err)
	}

	target := strings.TrimRight(c.baseURL.String(), "/") + path
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader([]byte(body)))
	if err != nil {
		return wrap("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrap("do request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return wrap("response status", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return wrap("decode response", err)
	}
	return nil
}

// ProvisionIdentity registers a new DID with the gateway, returning it when
// the response carries a well-formed did:cid:... string.
func (c *Client) ProvisionIdentity(ctx context.Context, nodePubkey, label string) (string, error) {
	payload := map[string]any{
		"type":    "create",
		"created": time.Now().UTC().Format(time.RFC3339),
		"registration": map[string]any{
			"version": 1,
			"type":    "agent",
		},
		"data": map[string]any{
			"node_pubkey": nodePubkey,
			"label":       label,
		},
	}
	var out struct {
		DID string `json:"did"`
	}
	if err := c.post(ctx, "/api/v1/did", payload, &out); err != nil {
		return "", err
	}
	if !archonvalidate.IsValidDID(out.DID) {
		return "", nil
	}
	return out.DID, nil
}

// CreatePoll registers a poll with the gateway, returning its opaque remote
// identifier when present.
func (c *Client) CreatePoll(ctx context.Context, pollType, title string, options []string, deadline int64, metadata map[string]any, creator string) (string, error) {
	payload := map[string]any{
		"poll": map[string]any{
			"version":  2,
			"name":     title,
			"options":  options,
			"deadline": time.Unix(deadline, 0).UTC().Format(time.RFC3339),
			"metadata": metadata,
			"creator":  creator,
		},
		"poll_type": pollType,
	}
	var out struct {
		PollID string `json:"poll_id"`
	}
	if err := c.post(ctx, "/api/v1/polls", payload, &out); err != nil {
		return "", err
	}
	if out.PollID == "" {
		return "", nil
	}
	return out.PollID, nil
}

// SubmitVote casts a ballot on the gateway's copy of a poll, by zero-based
// option index (spec.md §4.3, §9 open question). Returns true iff the
// response carries a ballot DID.
func (c *Client) SubmitVote(ctx context.Context, remotePollID string, voteIndex int, voterID string) (bool, error) {
	payload := map[string]any{
		"vote":     voteIndex,
		"voter_id": voterID,
	}
	var out struct {
		BallotDID string `json:"ballot_did"`
	}
	path := fmt.Sprintf("/api/v1/polls/%s/vote", url.PathEscape(remotePollID))
	if err := c.post(ctx, path, payload, &out); err != nil {
		return false, err
	}
	return out.BallotDID != "", nil
}
