package archongateway

import (
	"context"
	"net"
	"testing"
)

type stubResolver struct {
	addrs []net.IPAddr
	err   error
}

func (r stubResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return r.addrs, r.err
}

func TestCheckHostRejectsLinkLocal(t *testing.T) {
	client, err := New("https://metadata.internal/", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.resolver = stubResolver{addrs: []net.IPAddr{{IP: net.ParseIP("169.254.169.254")}}}

	if err := client.checkHost(context.Background()); err == nil {
		t.Fatalf("checkHost should reject a link-local resolved address")
	}
}

func TestCheckHostAllowsPublicAddress(t *testing.T) {
	client, err := New("https://archon.example.com/", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.resolver = stubResolver{addrs: []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}}

	if err := client.checkHost(context.Background()); err != nil {
		t.Fatalf("checkHost should allow a public resolved address, got %v", err)
	}
}

func TestNewRejectsPlaintextHTTPToLinkLocalIP(t *testing.T) {
	client, err := New("http://169.254.169.254/", "")
	if err == nil {
		t.Fatalf("New should reject plaintext http to a non-localhost host such as 169.254.169.254")
	}
	_ = client
}

func TestProvisionIdentityRejectsRebindingHost(t *testing.T) {
	client, err := New("https://archon.example.com/", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.resolver = stubResolver{addrs: []net.IPAddr{{IP: net.ParseIP("169.254.169.254")}}}

	did, gerr := client.ProvisionIdentity(context.Background(), "node-pubkey", "label")
	if gerr == nil {
		t.Fatalf("ProvisionIdentity should fail when the host resolves to a link-local address")
	}
	if did != "" {
		t.Fatalf("did = %q, want empty on SSRF rejection", did)
	}
	var gatewayErr *Error
	if !asError(gerr, &gatewayErr) {
		t.Fatalf("error should be a *archongateway.Error, got %T", gerr)
	}
}

func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
