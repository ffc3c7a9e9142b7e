package archonstore

const schema = `
CREATE TABLE IF NOT EXISTS archon_identity (
	singleton_id INTEGER PRIMARY KEY CHECK(singleton_id = 1),
	did TEXT NOT NULL,
	governance_tier TEXT NOT NULL DEFAULT 'basic',
	status TEXT NOT NULL DEFAULT 'active',
	source TEXT NOT NULL DEFAULT 'local-fallback',
	gateway_url TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS archon_bindings (
	binding_id TEXT PRIMARY KEY,
	did TEXT NOT NULL,
	binding_type TEXT NOT NULL,
	subject TEXT NOT NULL,
	attestation_json TEXT NOT NULL,
	signature TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(binding_type, subject)
);
CREATE INDEX IF NOT EXISTS idx_archon_bindings_did ON archon_bindings(did, binding_type);

CREATE TABLE IF NOT EXISTS archon_polls (
	poll_id TEXT PRIMARY KEY,
	remote_poll_id TEXT NOT NULL DEFAULT '',
	poll_type TEXT NOT NULL,
	title TEXT NOT NULL,
	options_json TEXT NOT NULL,
	metadata_json TEXT NOT NULL DEFAULT '{}',
	created_by TEXT NOT NULL,
	deadline INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archon_polls_status_deadline ON archon_polls(status, deadline);

CREATE TABLE IF NOT EXISTS archon_votes (
	vote_id TEXT PRIMARY KEY,
	poll_id TEXT NOT NULL REFERENCES archon_polls(poll_id),
	voter_id TEXT NOT NULL,
	choice TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	voted_at INTEGER NOT NULL,
	signature TEXT NOT NULL,
	UNIQUE(poll_id, voter_id)
);
CREATE INDEX IF NOT EXISTS idx_archon_votes_voter ON archon_votes(voter_id, voted_at DESC);

CREATE TABLE IF NOT EXISTS archon_outbox (
	entry_id TEXT PRIMARY KEY,
	operation TEXT NOT NULL,
	payload_json TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	retry_count INTEGER NOT NULL DEFAULT 0,
	max_retries INTEGER NOT NULL DEFAULT 5,
	next_retry_at INTEGER NOT NULL,
	last_error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archon_outbox_status_retry ON archon_outbox(status, next_retry_at);
`
