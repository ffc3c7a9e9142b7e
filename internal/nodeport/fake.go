package nodeport

import (
	"fmt"
	"sync"
)

// Fake is a deterministic, in-memory NodePort for tests, mirroring the
// teacher's preference for hand-written mock structs (e.g. mockTxPool,
// mockNetwork) over a generated or reflection-based mocking library.
type Fake struct {
	mu sync.Mutex

	Pubkey          string
	SignErr         bool
	BalanceSats     int64
	ActivePlugins   []string
	signCallCount   int
	lastSignedText  string
	pubkeyCallCount int
}

// NewFake returns a Fake seeded with a valid-shaped pubkey.
func NewFake(pubkey string) *Fake {
	return &Fake{Pubkey: pubkey}
}

// NodePubkey implements NodePort.
func (f *Fake) NodePubkey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubkeyCallCount++
	return f.Pubkey
}

// SignMessage implements NodePort. Returns "" when SignErr is set, a
// deterministic fixture signature otherwise.
func (f *Fake) SignMessage(text string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCallCount++
	f.lastSignedText = text
	if f.SignErr {
		return ""
	}
	return fmt.Sprintf("sig:%d:%s", f.signCallCount, text)
}

// ChannelBalanceSats implements NodePort.
func (f *Fake) ChannelBalanceSats() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BalanceSats
}

// ListActivePluginNames implements NodePort.
func (f *Fake) ListActivePluginNames() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ActivePlugins...), nil
}

// LastSignedText returns the most recent payload passed to SignMessage, for
// assertions about canonical-signing stability (spec.md §8 invariant 6/S8).
func (f *Fake) LastSignedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSignedText
}
