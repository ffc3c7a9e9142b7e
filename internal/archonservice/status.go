package archonservice

import "github.com/lightning-goats/cl-hive-archon/internal/archonstore"

// IdentitySummary is the identity view embedded in StatusResult.
type IdentitySummary struct {
	DID            string `json:"did"`
	GovernanceTier string `json:"governance_tier"`
	Source         string `json:"source"`
}

// BindingCounts tallies bindings per type.
type BindingCounts struct {
	Nostr int `json:"nostr"`
	CLN   int `json:"cln"`
}

// StatusResult is the shape returned by Status.
type StatusResult struct {
	OK                    bool             `json:"ok"`
	Identity              *IdentitySummary `json:"identity"`
	Bindings              BindingCounts    `json:"bindings"`
	ActivePolls           int64            `json:"active_polls"`
	CompletedPolls        int64            `json:"completed_polls"`
	TotalPolls            int64            `json:"total_polls"`
	TotalVotes            int64            `json:"total_votes"`
	NetworkEnabled        bool             `json:"network_enabled"`
	GatewayURL            string           `json:"gateway_url"`
	MinGovernanceBondSats int64            `json:"min_governance_bond_sats"`
}

// Status summarizes the node's current identity, bindings, and poll
// activity in one call, per spec.md §4.5.
func (s *Service) Status() (*StatusResult, *ServiceError) {
	identity, err := s.store.GetIdentity()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	bindings, err := s.store.ListBindings()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	var counts BindingCounts
	for _, b := range bindings {
		switch b.BindingType {
		case archonstore.BindingTypeNostr:
			counts.Nostr++
		case archonstore.BindingTypeCLN:
			counts.CLN++
		}
	}

	activePolls, err := s.store.CountPollsByStatus(archonstore.PollStatusActive)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	completedPolls, err := s.store.CountPollsByStatus(archonstore.PollStatusCompleted)
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	totalPolls, err := s.store.CountTotalPolls()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	totalVotes, err := s.store.CountTotalVotes()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	result := &StatusResult{
		OK:                    true,
		Bindings:              counts,
		ActivePolls:           activePolls,
		CompletedPolls:        completedPolls,
		TotalPolls:            totalPolls,
		TotalVotes:            totalVotes,
		NetworkEnabled:        s.networkEnabled,
		GatewayURL:            s.gatewayURL,
		MinGovernanceBondSats: s.minGovernanceBondSats,
	}
	if identity != nil {
		result.Identity = &IdentitySummary{
			DID:            identity.DID,
			GovernanceTier: identity.GovernanceTier,
			Source:         identity.Source,
		}
	}
	return result, nil
}
