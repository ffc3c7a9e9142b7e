package archonstore

import "fmt"

// UpsertBinding inserts a binding or, when (binding_type, subject) already
// exists, overwrites its DID/attestation/signature and bumps updated_at.
func (s *Store) UpsertBinding(bindingID, did, bindingType, subject, attestationJSON, signature string, now int64) error {
	_, err := s.db.Exec(`
		INSERT INTO archon_bindings (binding_id, did, binding_type, subject, attestation_json, signature, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(binding_type, subject) DO UPDATE SET
			binding_id = excluded.binding_id,
			did = excluded.did,
			attestation_json = excluded.attestation_json,
			signature = excluded.signature,
			updated_at = excluded.updated_at`,
		bindingID, did, bindingType, subject, attestationJSON, signature, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert binding: %w", err)
	}
	return nil
}

// DeleteBindingsByDID removes every binding owned by did, returning the
// count removed. Used when re-provisioning mints a new DID and the old
// one's bindings must be purged (spec.md §4.5 provision()).
func (s *Store) DeleteBindingsByDID(did string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM archon_bindings WHERE did = ?`, did)
	if err != nil {
		return 0, fmt.Errorf("delete bindings by did: %w", err)
	}
	return res.RowsAffected()
}

// ListBindings returns every binding, most recently updated first.
func (s *Store) ListBindings() ([]Binding, error) {
	rows, err := s.db.Query(`
		SELECT binding_id, did, binding_type, subject, attestation_json, signature, created_at, updated_at
		FROM archon_bindings ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	var out []Binding
	for rows.Next() {
		var b Binding
		if err := rows.Scan(&b.BindingID, &b.DID, &b.BindingType, &b.Subject, &b.AttestationJSON, &b.Signature, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
