package archonstore

import "fmt"

// AddOutboxEntry queues a remote operation for retry.
func (s *Store) AddOutboxEntry(entryID, operation, payloadJSON string, now int64, maxRetries int) error {
	_, err := s.db.Exec(`
		INSERT INTO archon_outbox (entry_id, operation, payload_json, status, retry_count, max_retries, next_retry_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', 0, ?, ?, '', ?, ?)`,
		entryID, operation, payloadJSON, maxRetries, now, now, now,
	)
	if err != nil {
		return fmt.Errorf("add outbox entry: %w", err)
	}
	return nil
}

// ListPendingOutbox returns up to limit pending entries due now, oldest
// first.
func (s *Store) ListPendingOutbox(now int64, limit int) ([]OutboxEntry, error) {
	rows, err := s.db.Query(`
		SELECT entry_id, operation, payload_json, status, retry_count, max_retries, next_retry_at, last_error, created_at, updated_at
		FROM archon_outbox
		WHERE status = 'pending' AND next_retry_at <= ?
		ORDER BY created_at ASC
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.EntryID, &e.Operation, &e.PayloadJSON, &e.Status, &e.RetryCount, &e.MaxRetries, &e.NextRetryAt, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkOutboxSuccess transitions an entry to succeeded.
func (s *Store) MarkOutboxSuccess(entryID string, now int64) error {
	_, err := s.db.Exec(`UPDATE archon_outbox SET status = 'succeeded', updated_at = ? WHERE entry_id = ?`, now, entryID)
	if err != nil {
		return fmt.Errorf("mark outbox success: %w", err)
	}
	return nil
}

// MarkOutboxFailed bumps retry_count, records the truncated error, and
// either reschedules the entry (status stays pending) or exhausts it once
// retry_count reaches max_retries.
func (s *Store) MarkOutboxFailed(entryID, errMsg string, nextRetryAt int64, now int64) error {
	if len(errMsg) > 200 {
		errMsg = errMsg[:200]
	}
	_, err := s.db.Exec(`
		UPDATE archon_outbox
		SET retry_count = retry_count + 1,
		    last_error = ?,
		    next_retry_at = ?,
		    updated_at = ?,
		    status = CASE WHEN retry_count + 1 >= max_retries THEN 'exhausted' ELSE 'pending' END
		WHERE entry_id = ?`,
		errMsg, nextRetryAt, now, entryID,
	)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

// PruneOutbox removes non-pending entries older than beforeTS.
func (s *Store) PruneOutbox(beforeTS int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM archon_outbox WHERE status != 'pending' AND created_at < ?`, beforeTS)
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	return res.RowsAffected()
}
