package archoncli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lightning-goats/cl-hive-archon/internal/archonservice"
)

// PollController wraps poll creation, status, voting, and vote history.
// Argument parsing for the options/metadata JSON-encoded flags lives here,
// never in the Service, per SPEC_FULL.md §4.7.
type PollController struct {
	Service *archonservice.Service
}

func (c PollController) createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll-create",
		Short: "Create a governance-tier poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			pollType, _ := cmd.Flags().GetString("poll-type")
			title, _ := cmd.Flags().GetString("title")
			optionsRaw, _ := cmd.Flags().GetString("options")
			deadline, _ := cmd.Flags().GetInt64("deadline")
			metadataRaw, _ := cmd.Flags().GetString("metadata")

			var options []string
			if err := json.Unmarshal([]byte(optionsRaw), &options); err != nil {
				return fmt.Errorf("--options must be a JSON array of strings: %w", err)
			}

			metadata := map[string]any{}
			if metadataRaw != "" {
				if err := json.Unmarshal([]byte(metadataRaw), &metadata); err != nil {
					return fmt.Errorf("--metadata must be a JSON object: %w", err)
				}
			}

			result, serr := c.Service.PollCreate(pollType, title, options, deadline, metadata)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("poll-type", "", "poll category, e.g. parameter-change")
	cmd.Flags().String("title", "", "human-readable poll title")
	cmd.Flags().String("options", "", `JSON array of option strings, e.g. ["yes","no"]`)
	cmd.Flags().Int64("deadline", 0, "unix timestamp the poll closes at")
	cmd.Flags().String("metadata", "{}", "JSON object of arbitrary poll metadata")
	cmd.MarkFlagRequired("poll-type")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("options")
	cmd.MarkFlagRequired("deadline")
	return cmd
}

func (c PollController) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll-status",
		Short: "Show a poll's header, tally, and voters",
		RunE: func(cmd *cobra.Command, args []string) error {
			pollID, _ := cmd.Flags().GetString("poll-id")
			result, serr := c.Service.PollStatus(pollID)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("poll-id", "", "poll identifier")
	cmd.MarkFlagRequired("poll-id")
	return cmd
}

func (c PollController) voteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast this node's ballot on a poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			pollID, _ := cmd.Flags().GetString("poll-id")
			choice, _ := cmd.Flags().GetString("choice")
			reason, _ := cmd.Flags().GetString("reason")
			result, serr := c.Service.Vote(pollID, choice, reason)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().String("poll-id", "", "poll identifier")
	cmd.Flags().String("choice", "", "one of the poll's option strings")
	cmd.Flags().String("reason", "", "optional free-text rationale")
	cmd.MarkFlagRequired("poll-id")
	cmd.MarkFlagRequired("choice")
	return cmd
}

func (c PollController) myVotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "my-votes",
		Short: "List this node's own ballots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			result, serr := c.Service.MyVotes(limit)
			return emit(cmd, result, serr)
		},
	}
	cmd.Flags().Int("limit", 50, "maximum votes to return (1-500)")
	return cmd
}

// Register adds every poll/vote command to root.
func (c PollController) Register(root *cobra.Command) {
	root.AddCommand(c.createCmd(), c.statusCmd(), c.voteCmd(), c.myVotesCmd())
}
