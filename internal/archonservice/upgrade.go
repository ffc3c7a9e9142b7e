package archonservice

import "github.com/lightning-goats/cl-hive-archon/internal/archonstore"

// UpgradeResult is the shape returned by Upgrade.
type UpgradeResult struct {
	OK             bool   `json:"ok"`
	DID            string `json:"did"`
	GovernanceTier string `json:"governance_tier"`
}

var validGovernanceTiers = map[string]bool{
	archonstore.GovernanceTierBasic:      true,
	archonstore.GovernanceTierGovernance: true,
}

// Upgrade moves the node between governance tiers. Upgrading to governance
// requires both a claimed bond meeting the configured minimum and the
// node's actual channel balance (via NodePort) to cover that claimed bond
// — the bond-verification check spec.md §4.5 requires.
func (s *Service) Upgrade(targetTier string, bondSats int64) (*UpgradeResult, *ServiceError) {
	if !validGovernanceTiers[targetTier] {
		return nil, Err("invalid target_tier").With("valid_tiers", []string{archonstore.GovernanceTierBasic, archonstore.GovernanceTierGovernance})
	}

	identity, err := s.store.GetIdentity()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if identity == nil {
		return nil, Err("identity not provisioned").WithHint("run provision")
	}

	if targetTier == archonstore.GovernanceTierGovernance {
		if bondSats < s.minGovernanceBondSats {
			return nil, Err("insufficient bond for governance tier").With("required_bond_sats", s.minGovernanceBondSats)
		}
		balance := s.node.ChannelBalanceSats()
		if balance < bondSats {
			return nil, Err("bond verification failed").With("local_balance_sats", balance)
		}
	}

	now := s.nowSeconds()
	if err := s.store.UpdateGovernanceTier(targetTier, now); err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	return &UpgradeResult{OK: true, DID: identity.DID, GovernanceTier: targetTier}, nil
}
