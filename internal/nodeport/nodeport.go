// Package nodeport defines the abstract interface the Service uses to talk
// to the host Lightning node, and the implementations that back it.
package nodeport

// NodePort is the abstract surface the Service needs from the host node.
// All operations are fallible and implementations must never panic.
// NodePubkey, SignMessage and ChannelBalanceSats surface failure as an
// empty (zero) return rather than an error, since the Service treats an
// empty NodePubkey/SignMessage as the failure signal (spec.md §4.2);
// ListActivePluginNames returns an error.
type NodePort interface {
	// NodePubkey returns a valid 66-hex compressed pubkey, or "" on failure.
	NodePubkey() string

	// SignMessage returns a non-empty signature on success, or "" on
	// failure. Hardware-signer failures must surface this way; the Service
	// treats an empty signature as fatal for attestation and vote paths.
	SignMessage(text string) string

	// ChannelBalanceSats returns the sum of outgoing channel capacity in
	// satoshis (msat/1000, truncated). Used only by tier upgrade.
	ChannelBalanceSats() int64

	// ListActivePluginNames returns the basenames of currently active
	// sibling plugins, best-effort. Used only by the process entrypoint
	// for a startup diagnostic (SPEC_FULL.md §10); the Service never calls
	// it. Implementations that cannot support this return (nil, nil)
	// rather than an error.
	ListActivePluginNames() ([]string, error)
}
