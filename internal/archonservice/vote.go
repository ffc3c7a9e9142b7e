package archonservice

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/lightning-goats/cl-hive-archon/internal/archoncanon"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
)

const maxVoteReasonLen = 500

// VoteResult is the shape returned by Vote.
type VoteResult struct {
	OK             bool   `json:"ok"`
	VoteID         string `json:"vote_id"`
	PollID         string `json:"poll_id"`
	VoterID        string `json:"voter_id"`
	Choice         string `json:"choice"`
	RemoteVoteSent bool   `json:"remote_vote_sent"`
}

// Vote casts this node's ballot. voter_id is always the node's own pubkey
// (never the DID) — minting a fresh DID must never buy a second vote, the
// anti-sybil invariant spec.md §4.5 names as load-bearing. A node with no
// reachable signer (empty pubkey) cannot vote at all.
func (s *Service) Vote(pollID, choice, reason string) (*VoteResult, *ServiceError) {
	if serr := s.requireGovernance(); serr != nil {
		return nil, serr
	}

	voterID := s.voterID()
	if voterID == "" {
		return nil, Err("cannot determine voter identity").WithHint("node signer unavailable")
	}

	if pollID == "" {
		return nil, Err("poll_id is required")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > maxVoteReasonLen {
		return nil, Err("reason too long (500 characters max)")
	}

	total, err := s.store.CountTotalVotes()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if total >= archonstore.MaxTotalVotes {
		return nil, Err("vote capacity reached")
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
	if poll.Status != archonstore.PollStatusActive {
		return nil, Err("poll is not active").With("status", poll.Status)
	}

	options := decodeOptions(poll.OptionsJSON)
	voteIndex := indexOf(options, choice)
	if voteIndex < 0 {
		return nil, Err("invalid choice").With("valid_options", options)
	}

	now := s.nowSeconds()
	payload := map[string]any{
		"poll_id":  pollID,
		"choice":   choice,
		"voter_id": voterID,
		"reason":   reason,
		"voted_at": now,
	}
	canonicalPayload, err := archoncanon.Marshal(payload)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	signature := s.signMessage(canonicalPayload)
	if signature == "" {
		return nil, Err("signing failed").WithHint("check node signer availability")
	}

	voteID := voteDigest(pollID, voterID)
	inserted, err := s.store.AddVote(archonstore.Vote{
		VoteID:    voteID,
		PollID:    pollID,
		VoterID:   voterID,
		Choice:    choice,
		Reason:    reason,
		VotedAt:   now,
		Signature: signature,
	})
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if !inserted {
		return nil, Err("vote already exists for this poll and voter")
	}

	remoteVoteSent := false
	if s.networkEnabled && s.gateway != nil && poll.RemotePollID != "" {
		accepted, gerr := s.gateway.SubmitVote(backgroundCtx, poll.RemotePollID, voteIndex, voterID)
		if gerr != nil || !accepted {
			s.queueOutbox(archonstore.OutboxOpSubmitVote, map[string]any{
				"remote_poll_id": poll.RemotePollID,
				"vote_index":     voteIndex,
				"voter_id":       voterID,
			})
		} else {
			remoteVoteSent = true
		}
	}

	return &VoteResult{OK: true, VoteID: voteID, PollID: pollID, VoterID: voterID, Choice: choice, RemoteVoteSent: remoteVoteSent}, nil
}

// MyVotesResult is the shape returned by MyVotes.
type MyVotesResult struct {
	OK      bool                       `json:"ok"`
	VoterID string                     `json:"voter_id"`
	Count   int                        `json:"count"`
	Votes   []archonstore.VoteWithPoll `json:"votes"`
}

// MyVotes lists the ballots this node's own voter ID has cast, newest
// first. A non-positive limit falls back to 50; a limit above 500 is
// capped at 500.
func (s *Service) MyVotes(limit int) (*MyVotesResult, *ServiceError) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	voterID := s.voterID()
	if voterID == "" {
		return &MyVotesResult{OK: true, Votes: []archonstore.VoteWithPoll{}}, nil
	}
	votes, err := s.store.ListVotesForVoter(voterID, limit)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if votes == nil {
		votes = []archonstore.VoteWithPoll{}
	}
	return &MyVotesResult{OK: true, VoterID: voterID, Count: len(votes), Votes: votes}, nil
}

func indexOf(options []string, choice string) int {
	for i, opt := range options {
		if opt == choice {
			return i
		}
	}
	return -1
}

func voteDigest(pollID, voterID string) string {
	sum := sha256.Sum256([]byte(pollID + ":" + voterID))
	return hex.EncodeToString(sum[:])[:32]
}
