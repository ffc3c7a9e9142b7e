package archonstore

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetIdentity returns the singleton identity row, or nil if unprovisioned.
func (s *Store) GetIdentity() (*Identity, error) {
	row := s.db.QueryRow(`
		SELECT did, governance_tier, status, source, gateway_url, created_at, updated_at
		FROM archon_identity WHERE singleton_id = 1`)
	var id Identity
	err := row.Scan(&id.DID, &id.GovernanceTier, &id.Status, &id.Source, &id.GatewayURL, &id.CreatedAt, &id.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &id, nil
}

// UpsertIdentity creates or replaces the singleton identity row, preserving
// the original created_at across re-provisioning.
func (s *Store) UpsertIdentity(did, governanceTier, status, source, gatewayURL string, now int64) error {
	existing, err := s.GetIdentity()
	if err != nil {
		return err
	}
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}
	_, err = s.db.Exec(`
		INSERT INTO archon_identity (singleton_id, did, governance_tier, status, source, gateway_url, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(singleton_id) DO UPDATE SET
			did = excluded.did,
			governance_tier = excluded.governance_tier,
			status = excluded.status,
			source = excluded.source,
			gateway_url = excluded.gateway_url,
			updated_at = excluded.updated_at`,
		did, governanceTier, status, source, gatewayURL, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

// UpdateGovernanceTier bumps the identity's tier in place.
func (s *Store) UpdateGovernanceTier(tier string, now int64) error {
	_, err := s.db.Exec(`UPDATE archon_identity SET governance_tier = ?, updated_at = ? WHERE singleton_id = 1`, tier, now)
	if err != nil {
		return fmt.Errorf("update governance tier: %w", err)
	}
	return nil
}
