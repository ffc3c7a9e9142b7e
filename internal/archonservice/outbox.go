package archonservice

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lightning-goats/cl-hive-archon/internal/archoncanon"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
)

const (
	outboxMaxRetries  = 5
	outboxBaseBackoff = 30
	outboxMaxBackoff  = 600
)

// queueOutbox persists a failed remote call for later retry. Marshal
// failures are swallowed with a log line rather than propagated: queuing is
// already the fallback path, so a second failure here must not also fail
// the caller's primary operation.
func (s *Service) queueOutbox(operation string, payload map[string]any) {
	payloadJSON, err := archoncanon.Marshal(payload)
	if err != nil {
		s.logger.log("archon: failed to marshal outbox payload for "+operation+": "+err.Error(), "error")
		return
	}
	now := s.nowSeconds()
	if err := s.store.AddOutboxEntry(uuid.New().String(), operation, payloadJSON, now, outboxMaxRetries); err != nil {
		s.logger.log("archon: failed to queue outbox entry for "+operation+": "+err.Error(), "error")
	}
}

// ProcessOutboxResult is the shape returned by ProcessOutbox.
type ProcessOutboxResult struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Exhausted int  `json:"exhausted"`
}

// ProcessOutbox drains up to maxEntries due pending entries, dispatching
// each by operation to the gateway and applying exponential backoff
// (30 * 2^retry_count, capped at 600s) on failure, per spec.md §4.4.
func (s *Service) ProcessOutbox(maxEntries int) (*ProcessOutboxResult, *ServiceError) {
	if maxEntries <= 0 {
		maxEntries = 20
	}
	if !s.networkEnabled || s.gateway == nil {
		return &ProcessOutboxResult{OK: true}, nil
	}

	now := s.nowSeconds()
	entries, err := s.store.ListPendingOutbox(now, maxEntries)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	result := &ProcessOutboxResult{OK: true}
	for _, entry := range entries {
		result.Processed++
		if s.dispatchOutboxEntry(entry) {
			if err := s.store.MarkOutboxSuccess(entry.EntryID, s.nowSeconds()); err != nil {
				return nil, Err("internal error: " + err.Error())
			}
			result.Succeeded++
			continue
		}

		nextRetry := outboxBaseBackoff << uint(entry.RetryCount)
		if nextRetry > outboxMaxBackoff || nextRetry <= 0 {
			nextRetry = outboxMaxBackoff
		}
		if err := s.store.MarkOutboxFailed(entry.EntryID, "dispatch failed", s.nowSeconds()+int64(nextRetry), s.nowSeconds()); err != nil {
			return nil, Err("internal error: " + err.Error())
		}
		if entry.RetryCount+1 >= entry.MaxRetries {
			result.Exhausted++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

// dispatchOutboxEntry replays a queued operation against the gateway,
// reporting whether it succeeded.
func (s *Service) dispatchOutboxEntry(entry archonstore.OutboxEntry) bool {
	var payload map[string]any
	if err := json.Unmarshal([]byte(entry.PayloadJSON), &payload); err != nil {
		s.logger.log("archon: corrupt outbox payload for entry "+entry.EntryID+": "+err.Error(), "error")
		return false
	}

	switch entry.Operation {
	case archonstore.OutboxOpProvision:
		return s.dispatchProvision(payload)
	case archonstore.OutboxOpCreatePoll:
		return s.dispatchCreatePoll(payload)
	case archonstore.OutboxOpSubmitVote:
		return s.dispatchSubmitVote(payload)
	default:
		s.logger.log("archon: unknown outbox operation "+entry.Operation, "error")
		return false
	}
}

func (s *Service) dispatchProvision(payload map[string]any) bool {
	nodePubkey, _ := payload["node_pubkey"].(string)
	label, _ := payload["label"].(string)

	remoteDID, err := s.gateway.ProvisionIdentity(backgroundCtx, nodePubkey, label)
	if err != nil || remoteDID == "" {
		return false
	}

	identity, err := s.store.GetIdentity()
	if err != nil || identity == nil {
		return false
	}
	if identity.DID != remoteDID {
		if _, err := s.store.DeleteBindingsByDID(identity.DID); err != nil {
			return false
		}
	}
	if err := s.store.UpsertIdentity(remoteDID, identity.GovernanceTier, "active", archonstore.SourceArchonGateway, s.gatewayURL, s.nowSeconds()); err != nil {
		return false
	}
	return true
}

func (s *Service) dispatchCreatePoll(payload map[string]any) bool {
	pollType, _ := payload["poll_type"].(string)
	title, _ := payload["title"].(string)
	creator, _ := payload["creator"].(string)
	deadline, _ := payload["deadline"].(float64)
	metadata, _ := payload["metadata"].(map[string]any)

	rawOptions, _ := payload["options"].([]any)
	options := make([]string, 0, len(rawOptions))
	for _, o := range rawOptions {
		if str, ok := o.(string); ok {
			options = append(options, str)
		}
	}

	remotePollID, err := s.gateway.CreatePoll(backgroundCtx, pollType, title, options, int64(deadline), metadata, creator)
	return err == nil && remotePollID != ""
}

func (s *Service) dispatchSubmitVote(payload map[string]any) bool {
	remotePollID, _ := payload["remote_poll_id"].(string)
	voterID, _ := payload["voter_id"].(string)
	voteIndex, _ := payload["vote_index"].(float64)

	accepted, err := s.gateway.SubmitVote(backgroundCtx, remotePollID, int(voteIndex), voterID)
	return err == nil && accepted
}
