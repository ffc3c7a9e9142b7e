package archonstore

import (
	"fmt"
)

// AddVote inserts a vote using INSERT OR IGNORE on (poll_id, voter_id). The
// ON CONFLICT clause means SQLite never raises for a duplicate; the
// duplicate case is detected purely from RowsAffected == 0, which is the
// signal the Service turns into "vote already exists".
func (s *Store) AddVote(v Vote) (bool, error) {
	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO archon_votes (vote_id, poll_id, voter_id, choice, reason, voted_at, signature)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.VoteID, v.PollID, v.VoterID, v.Choice, v.Reason, v.VotedAt, v.Signature,
	)
	if err != nil {
		return false, fmt.Errorf("add vote: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add vote: rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListVotesForPoll returns every vote cast on a poll, oldest first.
func (s *Store) ListVotesForPoll(pollID string) ([]Vote, error) {
	rows, err := s.db.Query(`
		SELECT vote_id, poll_id, voter_id, choice, reason, voted_at, signature
		FROM archon_votes WHERE poll_id = ? ORDER BY voted_at ASC`, pollID)
	if err != nil {
		return nil, fmt.Errorf("list votes for poll: %w", err)
	}
	defer rows.Close()

	var out []Vote
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.VoteID, &v.PollID, &v.VoterID, &v.Choice, &v.Reason, &v.VotedAt, &v.Signature); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListVotesForVoter returns up to limit votes cast by voterID, joined with
// poll metadata, newest first.
func (s *Store) ListVotesForVoter(voterID string, limit int) ([]VoteWithPoll, error) {
	rows, err := s.db.Query(`
		SELECT v.vote_id, v.poll_id, v.voter_id, v.choice, v.reason, v.voted_at, v.signature,
		       p.title, p.poll_type, p.status, p.deadline
		FROM archon_votes v
		JOIN archon_polls p ON p.poll_id = v.poll_id
		WHERE v.voter_id = ?
		ORDER BY v.voted_at DESC
		LIMIT ?`, voterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list votes for voter: %w", err)
	}
	defer rows.Close()

	var out []VoteWithPoll
	for rows.Next() {
		var v VoteWithPoll
		if err := rows.Scan(&v.VoteID, &v.PollID, &v.VoterID, &v.Choice, &v.Reason, &v.VotedAt, &v.Signature,
			&v.PollTitle, &v.PollType, &v.PollStatus, &v.PollDeadline); err != nil {
			return nil, fmt.Errorf("scan vote with poll: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountTotalVotes returns the number of votes currently stored; votes
// removed with their polls by PruneCompletedPolls are not counted.
func (s *Store) CountTotalVotes() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM archon_votes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count total votes: %w", err)
	}
	return count, nil
}
