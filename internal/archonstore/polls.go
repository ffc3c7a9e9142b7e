package archonstore

import (
	"database/sql"
	"errors"
	"fmt"
)

// CreatePoll inserts a new active poll.
func (s *Store) CreatePoll(p Poll, now int64) error {
	_, err := s.db.Exec(`
		INSERT INTO archon_polls (poll_id, remote_poll_id, poll_type, title, options_json, metadata_json, created_by, deadline, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'active', ?, ?)`,
		p.PollID, p.RemotePollID, p.PollType, p.Title, p.OptionsJSON, p.MetadataJSON, p.CreatedBy, p.Deadline, now, now,
	)
	if err != nil {
		return fmt.Errorf("create poll: %w", err)
	}
	return nil
}

// GetPoll returns a poll by ID, or nil if absent.
func (s *Store) GetPoll(pollID string) (*Poll, error) {
	row := s.db.QueryRow(`
		SELECT poll_id, remote_poll_id, poll_type, title, options_json, metadata_json, created_by, deadline, status, created_at, updated_at
		FROM archon_polls WHERE poll_id = ?`, pollID)
	var p Poll
	err := row.Scan(&p.PollID, &p.RemotePollID, &p.PollType, &p.Title, &p.OptionsJSON, &p.MetadataJSON, &p.CreatedBy, &p.Deadline, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get poll: %w", err)
	}
	return &p, nil
}

// SetPollStatus transitions a poll's status field.
func (s *Store) SetPollStatus(pollID, status string, now int64) error {
	_, err := s.db.Exec(`UPDATE archon_polls SET status = ?, updated_at = ? WHERE poll_id = ?`, status, now, pollID)
	if err != nil {
		return fmt.Errorf("set poll status: %w", err)
	}
	return nil
}

// CompleteExpiredPolls transitions every active poll whose deadline has
// passed to completed, returning the count transitioned.
func (s *Store) CompleteExpiredPolls(now int64) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE archon_polls SET status = 'completed', updated_at = ?
		WHERE status = 'active' AND deadline <= ?`, now, now)
	if err != nil {
		return 0, fmt.Errorf("complete expired polls: %w", err)
	}
	return res.RowsAffected()
}

// CountPollsByStatus returns the number of polls in the given status.
func (s *Store) CountPollsByStatus(status string) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM archon_polls WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count polls by status: %w", err)
	}
	return count, nil
}

// CountTotalPolls returns the number of polls currently stored; polls
// removed by PruneCompletedPolls are not counted.
func (s *Store) CountTotalPolls() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM archon_polls`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count total polls: %w", err)
	}
	return count, nil
}

// PruneCompletedPolls deletes completed polls (and their votes, first, to
// respect the foreign key) whose deadline is older than beforeTS. The whole
// operation runs in a single transaction.
func (s *Store) PruneCompletedPolls(beforeTS int64) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("prune completed polls: begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT poll_id FROM archon_polls WHERE status = 'completed' AND deadline < ?`, beforeTS)
	if err != nil {
		return 0, fmt.Errorf("prune completed polls: select candidates: %w", err)
	}
	var pollIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("prune completed polls: scan candidate: %w", err)
		}
		pollIDs = append(pollIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("prune completed polls: iterate candidates: %w", err)
	}
	rows.Close()

	for _, id := range pollIDs {
		if _, err := tx.Exec(`DELETE FROM archon_votes WHERE poll_id = ?`, id); err != nil {
			return 0, fmt.Errorf("prune completed polls: delete votes for %s: %w", id, err)
		}
	}

	res, err := tx.Exec(`DELETE FROM archon_polls WHERE status = 'completed' AND deadline < ?`, beforeTS)
	if err != nil {
		return 0, fmt.Errorf("prune completed polls: delete polls: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune completed polls: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("prune completed polls: commit: %w", err)
	}
	return removed, nil
}
