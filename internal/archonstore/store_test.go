package archonstore

import (
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "archon.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIdentitySingleton(t *testing.T) {
	store := newTestStore(t)

	if id, err := store.GetIdentity(); err != nil || id != nil {
		t.Fatalf("GetIdentity on empty store = %+v, %v; want nil, nil", id, err)
	}

	if err := store.UpsertIdentity("did:cid:aaa", GovernanceTierBasic, "active", SourceLocalFallback, "", 100); err != nil {
		t.Fatalf("UpsertIdentity: %v", err)
	}
	id, err := store.GetIdentity()
	if err != nil || id == nil {
		t.Fatalf("GetIdentity after upsert = %+v, %v", id, err)
	}
	if id.CreatedAt != 100 || id.UpdatedAt != 100 {
		t.Fatalf("unexpected timestamps: %+v", id)
	}

	if err := store.UpsertIdentity("did:cid:bbb", GovernanceTierBasic, "active", SourceLocalFallback, "", 200); err != nil {
		t.Fatalf("UpsertIdentity (re-provision): %v", err)
	}
	id, err = store.GetIdentity()
	if err != nil || id == nil {
		t.Fatalf("GetIdentity after re-provision = %+v, %v", id, err)
	}
	if id.DID != "did:cid:bbb" {
		t.Fatalf("DID = %q, want did:cid:bbb", id.DID)
	}
	if id.CreatedAt != 100 {
		t.Fatalf("created_at should survive re-provisioning, got %d", id.CreatedAt)
	}
	if id.UpdatedAt != 200 {
		t.Fatalf("updated_at = %d, want 200", id.UpdatedAt)
	}
}

func TestVoteUniquePerPollAndVoter(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreatePoll(Poll{
		PollID:      "poll-1",
		PollType:    "parameter-change",
		Title:       "test",
		OptionsJSON: `["yes","no"]`,
		CreatedBy:   "did:cid:aaa",
		Deadline:    1000,
	}, 100); err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}

	inserted, err := store.AddVote(Vote{VoteID: "v1", PollID: "poll-1", VoterID: "voter-a", Choice: "yes", VotedAt: 100})
	if err != nil || !inserted {
		t.Fatalf("first AddVote = %v, %v; want true, nil", inserted, err)
	}

	inserted, err = store.AddVote(Vote{VoteID: "v2", PollID: "poll-1", VoterID: "voter-a", Choice: "no", VotedAt: 101})
	if err != nil {
		t.Fatalf("second AddVote errored: %v", err)
	}
	if inserted {
		t.Fatalf("second AddVote for the same (poll, voter) should be ignored, not inserted")
	}

	votes, err := store.ListVotesForPoll("poll-1")
	if err != nil {
		t.Fatalf("ListVotesForPoll: %v", err)
	}
	want := []Vote{{VoteID: "v1", PollID: "poll-1", VoterID: "voter-a", Choice: "yes", VotedAt: 100}}
	if diff := deep.Equal(votes, want); diff != nil {
		t.Fatalf("surviving vote row mismatch: %v", diff)
	}
}

func TestPruneCompletedPollsRemovesVotesToo(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreatePoll(Poll{
		PollID:      "poll-old",
		PollType:    "t",
		Title:       "old",
		OptionsJSON: `["a","b"]`,
		CreatedBy:   "did:cid:aaa",
		Deadline:    500,
	}, 100); err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	if err := store.SetPollStatus("poll-old", PollStatusCompleted, 600); err != nil {
		t.Fatalf("SetPollStatus: %v", err)
	}
	if _, err := store.AddVote(Vote{VoteID: "v1", PollID: "poll-old", VoterID: "voter-a", Choice: "a", VotedAt: 200}); err != nil {
		t.Fatalf("AddVote: %v", err)
	}

	removed, err := store.PruneCompletedPolls(1000)
	if err != nil {
		t.Fatalf("PruneCompletedPolls: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	poll, err := store.GetPoll("poll-old")
	if err != nil {
		t.Fatalf("GetPoll: %v", err)
	}
	if poll != nil {
		t.Fatalf("poll-old should be gone after prune, got %+v", poll)
	}
	votes, err := store.ListVotesForPoll("poll-old")
	if err != nil {
		t.Fatalf("ListVotesForPoll: %v", err)
	}
	if len(votes) != 0 {
		t.Fatalf("votes for pruned poll should be gone, got %d", len(votes))
	}
}

func TestOutboxBackoffAndExhaustion(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddOutboxEntry("entry-1", OutboxOpProvision, `{}`, 100, 2); err != nil {
		t.Fatalf("AddOutboxEntry: %v", err)
	}

	pending, err := store.ListPendingOutbox(100, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListPendingOutbox = %v, %v; want 1 entry", pending, err)
	}

	if err := store.MarkOutboxFailed("entry-1", "boom", 130, 100); err != nil {
		t.Fatalf("MarkOutboxFailed (1st): %v", err)
	}
	pending, err = store.ListPendingOutbox(130, 10)
	if err != nil || len(pending) != 1 || pending[0].Status != OutboxStatusPending {
		t.Fatalf("after 1st failure, entry should still be pending: %v %v", pending, err)
	}

	if err := store.MarkOutboxFailed("entry-1", "boom again", 200, 130); err != nil {
		t.Fatalf("MarkOutboxFailed (2nd): %v", err)
	}
	pending, err = store.ListPendingOutbox(200, 10)
	if err != nil {
		t.Fatalf("ListPendingOutbox: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("entry should be exhausted (max_retries=2) and no longer pending, got %+v", pending)
	}
}
