package archonservice

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/lightning-goats/cl-hive-archon/internal/archoncanon"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
)

const (
	maxPollTypeLen     = 32
	maxPollTitleLen    = 200
	maxPollOptionLen   = 64
	minPollOptions     = 2
	maxPollOptions     = 10
	maxMetadataBytes   = 8192
)

// PollCreateResult is the shape returned by PollCreate.
type PollCreateResult struct {
	OK           bool   `json:"ok"`
	PollID       string `json:"poll_id"`
	RemotePollID string `json:"remote_poll_id"`
	Status       string `json:"status"`
	Deadline     int64  `json:"deadline"`
}

// PollCreate mints a new governance-tier poll, optionally mirroring it to
// the gateway.
func (s *Service) PollCreate(pollType, title string, options []string, deadline int64, metadata map[string]any) (*PollCreateResult, *ServiceError) {
	if serr := s.requireGovernance(); serr != nil {
		return nil, serr
	}

	total, err := s.store.CountTotalPolls()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if total >= archonstore.MaxTotalPolls {
		return nil, Err("poll capacity reached")
	}

	pollType = strings.TrimSpace(pollType)
	if pollType == "" || len(pollType) > maxPollTypeLen || !isPollTypeCharset(pollType) {
		return nil, Err("invalid poll_type")
	}

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" || len(trimmedTitle) > maxPollTitleLen {
		return nil, Err("invalid title")
	}

	now := s.nowSeconds()
	if deadline <= now {
		return nil, Err("invalid deadline (must be a future unix timestamp)")
	}

	cleanedOptions, ok := normalizePollOptions(options)
	if !ok {
		return nil, Err("invalid options (expected 2-10 unique non-empty strings)")
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := archoncanon.Marshal(metadata)
	if err != nil {
		return nil, Err("invalid metadata")
	}
	if len(metadataJSON) > maxMetadataBytes {
		return nil, Err("metadata too large (8192 bytes max)")
	}

	identity, err := s.store.GetIdentity()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	createdBy := "local-node"
	if identity != nil && identity.DID != "" {
		createdBy = identity.DID
	} else if pubkey := s.ourNodePubkey(); pubkey != "" {
		createdBy = pubkey
	}

	pollID := uuid.New().String()
	remotePollID := ""

	if s.networkEnabled && s.gateway != nil {
		remote, gerr := s.gateway.CreatePoll(backgroundCtx, pollType, trimmedTitle, cleanedOptions, deadline, metadata, createdBy)
		if gerr != nil {
			s.logger.log("archon: remote poll creation failed; keeping local poll only: "+gerr.Error(), "warn")
			s.queueOutbox(archonstore.OutboxOpCreatePoll, map[string]any{
				"poll_type": pollType,
				"title":     trimmedTitle,
				"options":   cleanedOptions,
				"deadline":  deadline,
				"metadata":  metadata,
				"creator":   createdBy,
			})
		} else if remote != "" {
			remotePollID = remote
		}
	}

	optionsJSON, err := archoncanon.Marshal(cleanedOptions)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	poll := archonstore.Poll{
		PollID:       pollID,
		RemotePollID: remotePollID,
		PollType:     pollType,
		Title:        trimmedTitle,
		OptionsJSON:  optionsJSON,
		MetadataJSON: metadataJSON,
		CreatedBy:    createdBy,
		Deadline:     deadline,
	}
	if err := s.store.CreatePoll(poll, now); err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	return &PollCreateResult{
		OK:           true,
		PollID:       pollID,
		RemotePollID: remotePollID,
		Status:       archonstore.PollStatusActive,
		Deadline:     deadline,
	}, nil
}

// PollStatusResult is the shape returned by PollStatus.
type PollStatusResult struct {
	OK        bool           `json:"ok"`
	Poll      PollHeader     `json:"poll"`
	Tally     map[string]int `json:"tally"`
	VoteCount int            `json:"vote_count"`
	Voters    []string       `json:"voters"`
}

// PollHeader is the public-facing summary of a poll.
type PollHeader struct {
	PollID       string `json:"poll_id"`
	RemotePollID string `json:"remote_poll_id"`
	PollType     string `json:"poll_type"`
	Title        string `json:"title"`
	CreatedBy    string `json:"created_by"`
	Deadline     int64  `json:"deadline"`
	Status       string `json:"status"`
}

// PollStatus refreshes expiry and tallies votes per option.
func (s *Service) PollStatus(pollID string) (*PollStatusResult, *ServiceError) {
	if pollID == "" {
		return nil, Err("poll_id is required")
	}

	poll, err := s.store.GetPoll(pollID)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if poll == nil {
		return nil, Err("poll not found")
	}

	poll, serr := s.refreshPollState(poll)
	if serr != nil {
		return nil, serr
	}

	options := decodeOptions(poll.OptionsJSON)
	votes, err := s.store.ListVotesForPoll(pollID)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	tally := make(map[string]int, len(options))
	for _, opt := range options {
		tally[opt] = 0
	}
	voters := make([]string, 0, len(votes))
	for _, v := range votes {
		tally[v.Choice]++
		voters = append(voters, v.VoterID)
	}

	return &PollStatusResult{
		OK: true,
		Poll: PollHeader{
			PollID:       poll.PollID,
			RemotePollID: poll.RemotePollID,
			PollType:     poll.PollType,
			Title:        poll.Title,
			CreatedBy:    poll.CreatedBy,
			Deadline:     poll.Deadline,
			Status:       poll.Status,
		},
		Tally:     tally,
		VoteCount: len(votes),
		Voters:    voters,
	}, nil
}

// refreshPollState transitions an active-but-expired poll to completed and
// returns the refreshed row, per spec.md invariant 2.
func (s *Service) refreshPollState(poll *archonstore.Poll) (*archonstore.Poll, *ServiceError) {
	if poll.Status == archonstore.PollStatusActive && poll.Deadline <= s.nowSeconds() {
		now := s.nowSeconds()
		if err := s.store.SetPollStatus(poll.PollID, archonstore.PollStatusCompleted, now); err != nil {
			return nil, Err("internal error: " + err.Error())
		}
		updated, err := s.store.GetPoll(poll.PollID)
		if err != nil {
			return nil, Err("internal error: " + err.Error())
		}
		if updated != nil {
			return updated, nil
		}
	}
	return poll, nil
}

func normalizePollOptions(options []string) ([]string, bool) {
	if options == nil {
		return nil, false
	}
	seen := make(map[string]bool, len(options))
	cleaned := make([]string, 0, len(options))
	for _, raw := range options {
		value := strings.TrimSpace(raw)
		if value == "" || len(value) > maxPollOptionLen {
			return nil, false
		}
		if seen[value] {
			return nil, false
		}
		seen[value] = true
		cleaned = append(cleaned, value)
	}
	if len(cleaned) < minPollOptions || len(cleaned) > maxPollOptions {
		return nil, false
	}
	return cleaned, true
}

func isPollTypeCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

func decodeOptions(optionsJSON string) []string {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil
	}
	return options
}
