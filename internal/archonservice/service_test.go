package archonservice

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lightning-goats/cl-hive-archon/internal/archonclock"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
	"github.com/lightning-goats/cl-hive-archon/internal/nodeport"
)

const testNodePubkey = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func newTestService(t *testing.T, gatewayURL string, networkEnabled bool) (*Service, *nodeport.Fake, *archonclock.Fake) {
	t.Helper()
	store, err := archonstore.Open(filepath.Join(t.TempDir(), "archon.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fakeNode := nodeport.NewFake(testNodePubkey)
	fakeClock := archonclock.NewFake(1_700_000_000)

	svc := New(Config{
		Store:                 store,
		Node:                  fakeNode,
		Logger:                func(string, string) {},
		GatewayURL:            gatewayURL,
		NetworkEnabled:        networkEnabled,
		MinGovernanceBondSats: 50_000,
		Clock:                 fakeClock.Now,
	})
	return svc, fakeNode, fakeClock
}

// S1: provision() twice returns the same did; the second call reports
// already_provisioned=true.
func TestProvisionIdempotence(t *testing.T) {
	svc, _, _ := newTestService(t, "", false)

	first, serr := svc.Provision(false, "node-a")
	if serr != nil {
		t.Fatalf("first Provision: %v", serr)
	}
	if first.AlreadyProvisioned {
		t.Fatalf("first Provision should not report already_provisioned")
	}

	second, serr := svc.Provision(false, "node-a")
	if serr != nil {
		t.Fatalf("second Provision: %v", serr)
	}
	if !second.AlreadyProvisioned {
		t.Fatalf("second Provision should report already_provisioned=true")
	}
	if second.DID != first.DID {
		t.Fatalf("DID changed across idempotent provisions: %q != %q", second.DID, first.DID)
	}
}

// S2: bond gate — insufficient local balance fails even when the claimed
// bond clears the minimum; sufficient balance succeeds.
func TestUpgradeBondGate(t *testing.T) {
	svc, fakeNode, _ := newTestService(t, "", false)
	if _, serr := svc.Provision(false, ""); serr != nil {
		t.Fatalf("Provision: %v", serr)
	}

	fakeNode.BalanceSats = 10_000
	_, serr := svc.Upgrade(archonstore.GovernanceTierGovernance, 100_000)
	if serr == nil {
		t.Fatalf("Upgrade should fail: local balance (10000) < claimed bond (100000)")
	}
	if serr.Message != "bond verification failed" {
		t.Fatalf("error = %q, want %q", serr.Message, "bond verification failed")
	}
	if serr.Context["local_balance_sats"] != int64(10_000) {
		t.Fatalf("local_balance_sats = %v, want 10000", serr.Context["local_balance_sats"])
	}

	fakeNode.BalanceSats = 500_000_000
	result, serr := svc.Upgrade(archonstore.GovernanceTierGovernance, 100_000)
	if serr != nil {
		t.Fatalf("Upgrade should succeed with sufficient balance: %v", serr)
	}
	if !result.OK || result.GovernanceTier != archonstore.GovernanceTierGovernance {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func provisionAndUpgrade(t *testing.T, svc *Service, fakeNode *nodeport.Fake) {
	t.Helper()
	if _, serr := svc.Provision(false, ""); serr != nil {
		t.Fatalf("Provision: %v", serr)
	}
	fakeNode.BalanceSats = 1_000_000_000
	if _, serr := svc.Upgrade(archonstore.GovernanceTierGovernance, 50_000); serr != nil {
		t.Fatalf("Upgrade: %v", serr)
	}
}

// S3: a second vote by the same voter on the same poll is rejected.
func TestVoteUniqueness(t *testing.T) {
	svc, fakeNode, fakeClock := newTestService(t, "", false)
	provisionAndUpgrade(t, svc, fakeNode)

	poll, serr := svc.PollCreate("parameter-change", "test poll", []string{"yes", "no"}, fakeClock.Now()+3600, nil)
	if serr != nil {
		t.Fatalf("PollCreate: %v", serr)
	}

	first, serr := svc.Vote(poll.PollID, "yes", "needed")
	if serr != nil {
		t.Fatalf("first Vote: %v", serr)
	}
	if !first.OK || first.VoterID != testNodePubkey {
		t.Fatalf("unexpected vote result: %+v", first)
	}

	_, serr = svc.Vote(poll.PollID, "yes", "")
	if serr == nil {
		t.Fatalf("second Vote should fail")
	}
	if serr.Message == "" || !contains(serr.Message, "already exists") {
		t.Fatalf("error = %q, want it to contain %q", serr.Message, "already exists")
	}
}

// S4: a poll whose deadline has passed auto-completes on read, and voting
// against it is rejected with the completed status surfaced.
func TestPollExpiryAutoComplete(t *testing.T) {
	svc, fakeNode, fakeClock := newTestService(t, "", false)
	provisionAndUpgrade(t, svc, fakeNode)

	poll, serr := svc.PollCreate("parameter-change", "test poll", []string{"yes", "no"}, fakeClock.Now()+1, nil)
	if serr != nil {
		t.Fatalf("PollCreate: %v", serr)
	}

	fakeClock.Advance(11 * time.Second)

	status, serr := svc.PollStatus(poll.PollID)
	if serr != nil {
		t.Fatalf("PollStatus: %v", serr)
	}
	if status.Poll.Status != archonstore.PollStatusCompleted {
		t.Fatalf("poll status = %q, want completed", status.Poll.Status)
	}

	_, serr = svc.Vote(poll.PollID, "yes", "")
	if serr == nil {
		t.Fatalf("Vote against a completed poll should fail")
	}
	if serr.Context["status"] != archonstore.PollStatusCompleted {
		t.Fatalf("error context status = %v, want completed", serr.Context["status"])
	}
}

// S5: binding to a DID this node does not own is rejected.
func TestBindForeignDIDRejected(t *testing.T) {
	svc, _, _ := newTestService(t, "", false)
	if _, serr := svc.Provision(false, ""); serr != nil {
		t.Fatalf("Provision: %v", serr)
	}

	foreignDID := "did:cid:b" + repeat("abcdefgh", 6)
	_, serr := svc.BindNostr(repeat("ab", 32), foreignDID)
	if serr == nil {
		t.Fatalf("BindNostr against a foreign DID should fail")
	}
	if serr.Message != "cannot bind to a DID not owned by this node" {
		t.Fatalf("error = %q", serr.Message)
	}
}

// S7: with an unreachable gateway, provision() falls back to local, and
// process_outbox retries the queued entry to exhaustion after 5 attempts.
func TestOutboxDrainToExhaustion(t *testing.T) {
	svc, _, fakeClock := newTestService(t, "http://localhost:9999", true)

	result, serr := svc.Provision(false, "unreachable-gateway-node")
	if serr != nil {
		t.Fatalf("Provision: %v", serr)
	}
	if result.Source != archonstore.SourceLocalFallback {
		t.Fatalf("source = %q, want local-fallback", result.Source)
	}

	var lastResult *ProcessOutboxResult
	for i := 0; i < 5; i++ {
		var serr *ServiceError
		lastResult, serr = svc.ProcessOutbox(10)
		if serr != nil {
			t.Fatalf("ProcessOutbox attempt %d: %v", i, serr)
		}
		if lastResult.Processed == 0 {
			t.Fatalf("attempt %d: expected at least one pending entry, got processed=0", i)
		}
		fakeClock.Advance(time.Duration(outboxMaxBackoff+1) * time.Second)
	}
	if lastResult.Exhausted == 0 {
		t.Fatalf("after 5 failed attempts, the entry should be exhausted, got %+v", lastResult)
	}
}

// S8: two bind_nostr calls with identical inputs and clock produce the same
// canonical attestation payload.
func TestCanonicalSigningIsStable(t *testing.T) {
	svc, fakeNode, _ := newTestService(t, "", false)
	if _, serr := svc.Provision(false, ""); serr != nil {
		t.Fatalf("Provision: %v", serr)
	}

	pubkey := repeat("cd", 32)
	if _, serr := svc.BindNostr(pubkey, ""); serr != nil {
		t.Fatalf("first BindNostr: %v", serr)
	}
	firstSigned := fakeNode.LastSignedText()

	if _, serr := svc.BindNostr(pubkey, ""); serr != nil {
		t.Fatalf("second BindNostr: %v", serr)
	}
	secondSigned := fakeNode.LastSignedText()

	if firstSigned == "" || firstSigned != secondSigned {
		t.Fatalf("canonical signed payload not stable: %q != %q", firstSigned, secondSigned)
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
