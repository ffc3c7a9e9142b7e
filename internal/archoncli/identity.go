// Package archoncli is the CommandFacade: a thin cobra command tree over
// archonservice.Service, following the teacher's cmd/cli/*.go idiom of one
// controller type per command group with flags bound via cmd.Flags() and
// JSON output via json.NewEncoder(cmd.OutOrStdout()).
package archoncli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/lightning-goats/cl-hive-archon/internal/archonservice"
)

// IdentityController wraps provisioning, binding, upgrade, and status.
type IdentityController struct {
	Service *archonservice.Service
	// Clock drives process-outbox's --watch ticker.
	Clock clock.Clock
}

func encode(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes a Service result or its *ServiceError to stdout verbatim,
// returning a plain Go error only so cobra sets a non-zero exit code — the
// error body itself is never printed a second time by cobra's default
// error path (archoncli disables cobra's own error printing, see root.go).
func emit(cmd *cobra.Command, result any, serr *archonservice.ServiceError) error {
	if serr != nil {
		if err := encode(cmd, serr); err != nil {
			return err
		}
		return fmt.Errorf("%s", serr.Error())
	}
	return encode(cmd, result)
}

func (c IdentityController) provisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or refresh this node's DID",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			label, _ := cmd.Flags().GetString("label")
			result, serr := c.Service.Provision(force, label)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().Bool("force", false, "re-provision even if already provisioned")
	cmd.Flags().String("label", "", "human-readable label for this identity")
	return cmd
}

func (c IdentityController) bindNostrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind-nostr",
		Short: "Attest ownership of a Nostr public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pubkey, _ := cmd.Flags().GetString("nostr-pubkey")
			did, _ := cmd.Flags().GetString("did")
			result, serr := c.Service.BindNostr(pubkey, did)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("nostr-pubkey", "", "64-char hex Nostr public key")
	cmd.Flags().String("did", "", "DID to bind to (defaults to this node's own)")
	cmd.MarkFlagRequired("nostr-pubkey")
	return cmd
}

func (c IdentityController) bindCLNCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind-cln",
		Short: "Attest ownership of a CLN public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pubkey, _ := cmd.Flags().GetString("cln-pubkey")
			did, _ := cmd.Flags().GetString("did")
			result, serr := c.Service.BindCLN(pubkey, did)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("cln-pubkey", "", "66-char compressed secp256k1 pubkey (defaults to this node's own)")
	cmd.Flags().String("did", "", "DID to bind to (defaults to this node's own)")
	return cmd
}

func (c IdentityController) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show identity, bindings, and poll/vote counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, serr := c.Service.Status()
			return emit(cmd, result, serr)
		},
	}
}

func (c IdentityController) upgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Move this node between governance tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, _ := cmd.Flags().GetString("target-tier")
			bond, _ := cmd.Flags().GetInt64("bond-sats")
			result, serr := c.Service.Upgrade(tier, bond)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("target-tier", "governance", "tier to move to: basic|governance")
	cmd.Flags().Int64("bond-sats", 0, "claimed bond in satoshis (governance tier only)")
	return cmd
}

func (c IdentityController) signMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-message",
		Short: "Sign arbitrary text with the node's key",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")
			result, serr := c.Service.SignMessage(message)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("message", "", "text to sign")
	cmd.MarkFlagRequired("message")
	return cmd
}

func (c IdentityController) pruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Complete expired polls and delete old settled state",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("retention-days")
			result, serr := c.Service.Prune(days)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().Int("retention-days", 90, "minimum age, in days, before completed polls/outbox entries are removed")
	return cmd
}

func (c IdentityController) processOutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-outbox",
		Short: "Drain pending outbox entries against the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			maxEntries, _ := cmd.Flags().GetInt("max-entries")
			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				result, serr := c.Service.ProcessOutbox(maxEntries)
				return emit(cmd, result, serr)
			}

			intervalSeconds, _ := cmd.Flags().GetInt("interval-seconds")
			return c.watchProcessOutbox(cmd, maxEntries, intervalSeconds)
		},
	}
	cmd.Flags().Int("max-entries", 10, "maximum pending entries to dispatch")
	cmd.Flags().Bool("watch", false, "keep draining the outbox on a fixed interval until interrupted")
	cmd.Flags().Int("interval-seconds", 60, "seconds between drains in --watch mode")
	return cmd
}

// watchProcessOutbox runs ProcessOutbox on a fixed interval until the
// process receives SIGINT/SIGTERM, using the same clock.Clock the Service's
// archonclock seam was built from so ticks and "now" never drift apart.
func (c IdentityController) watchProcessOutbox(cmd *cobra.Command, maxEntries, intervalSeconds int) error {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := c.Clock.Ticker(time.Duration(intervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		result, serr := c.Service.ProcessOutbox(maxEntries)
		if err := emit(cmd, result, serr); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Register adds every identity/admin-facing command to root.
func (c IdentityController) Register(root *cobra.Command) {
	root.AddCommand(
		c.provisionCmd(),
		c.bindNostrCmd(),
		c.bindCLNCmd(),
		c.statusCmd(),
		c.upgradeCmd(),
		c.signMessageCmd(),
		c.pruneCmd(),
		c.processOutboxCmd(),
	)
}
