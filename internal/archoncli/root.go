package archoncli

import (
	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/lightning-goats/cl-hive-archon/internal/archonservice"
)

// NewRootCommand builds the full cl-hive-archon command tree bound to a
// single Service instance. clk drives process-outbox's --watch ticker; it
// is the same clock.Clock the Service's archonclock.Clock seam was built
// from, so watch-mode ticks and the Service's notion of "now" stay in sync.
func NewRootCommand(svc *archonservice.Service, clk clock.Clock) *cobra.Command {
	root := &cobra.Command{
		Use:           "cl-hive-archon",
		Short:         "Identity and governance companion for a core-lightning node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	IdentityController{Service: svc, Clock: clk}.Register(root)
	PollController{Service: svc}.Register(root)

	return root
}
