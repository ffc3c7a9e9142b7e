package archonservice

// PruneResult is the shape returned by Prune.
type PruneResult struct {
	OK             bool  `json:"ok"`
	PollsCompleted int64 `json:"polls_completed"`
	PollsRemoved   int64 `json:"polls_removed"`
	RetentionDays  int   `json:"retention_days"`
}

const minRetentionDays = 1

// Prune first transitions any expired-but-still-active polls to completed,
// then deletes completed polls (and their votes) and settled outbox
// entries older than retentionDays, per spec.md §4.5.
func (s *Service) Prune(retentionDays int) (*PruneResult, *ServiceError) {
	if retentionDays < minRetentionDays {
		return nil, Err("retention_days must be at least 1")
	}

	now := s.nowSeconds()
	pollsCompleted, err := s.store.CompleteExpiredPolls(now)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	cutoff := now - int64(retentionDays)*86400

	pollsRemoved, err := s.store.PruneCompletedPolls(cutoff)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if _, err := s.store.PruneOutbox(cutoff); err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	return &PruneResult{OK: true, PollsCompleted: pollsCompleted, PollsRemoved: pollsRemoved, RetentionDays: retentionDays}, nil
}
