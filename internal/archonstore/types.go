package archonstore

// Identity is the singleton row describing this node's DID.
type Identity struct {
	DID             string
	GovernanceTier  string
	Status          string
	Source          string
	GatewayURL      string
	CreatedAt       int64
	UpdatedAt       int64
}

// Binding attests that a DID owns an external identifier.
type Binding struct {
	BindingID       string
	DID             string
	BindingType     string
	Subject         string
	AttestationJSON string
	Signature       string
	CreatedAt       int64
	UpdatedAt       int64
}

// Poll is a governance-tier ballot.
type Poll struct {
	PollID        string
	RemotePollID  string
	PollType      string
	Title         string
	OptionsJSON   string
	MetadataJSON  string
	CreatedBy     string
	Deadline      int64
	Status        string
	CreatedAt     int64
	UpdatedAt     int64
}

// Vote is a single ballot cast by this node.
type Vote struct {
	VoteID    string
	PollID    string
	VoterID   string
	Choice    string
	Reason    string
	VotedAt   int64
	Signature string
}

// VoteWithPoll is a Vote joined with the poll metadata it belongs to, as
// returned by ListVotesForVoter.
type VoteWithPoll struct {
	Vote
	PollTitle    string
	PollType     string
	PollStatus   string
	PollDeadline int64
}

// OutboxEntry is a queued remote operation awaiting retry or exhaustion.
type OutboxEntry struct {
	EntryID     string
	Operation   string
	PayloadJSON string
	Status      string
	RetryCount  int
	MaxRetries  int
	NextRetryAt int64
	LastError   string
	CreatedAt   int64
	UpdatedAt   int64
}

const (
	GovernanceTierBasic      = "basic"
	GovernanceTierGovernance = "governance"

	BindingTypeNostr = "nostr"
	BindingTypeCLN   = "cln"

	PollStatusActive    = "active"
	PollStatusCompleted = "completed"

	OutboxOpProvision   = "provision"
	OutboxOpCreatePoll  = "create_poll"
	OutboxOpSubmitVote  = "submit_vote"

	OutboxStatusPending   = "pending"
	OutboxStatusSucceeded = "succeeded"
	OutboxStatusExhausted = "exhausted"

	SourceLocalFallback = "local-fallback"
	SourceArchonGateway = "archon-gateway"

	MaxTotalPolls = 5000
	MaxTotalVotes = 50000
)
