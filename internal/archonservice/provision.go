package archonservice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
)

// ProvisionResult is the shape returned by Provision.
type ProvisionResult struct {
	OK                bool   `json:"ok"`
	DID               string `json:"did"`
	Source            string `json:"source"`
	GovernanceTier    string `json:"governance_tier"`
	GatewayURL        string `json:"gateway_url"`
	AlreadyProvisioned bool  `json:"already_provisioned,omitempty"`
}

// Provision creates (or, with force, re-creates) this node's DID.
func (s *Service) Provision(force bool, label string) (*ProvisionResult, *ServiceError) {
	if len(label) > 120 {
		return nil, Err("invalid label (must be 120 characters or fewer)")
	}

	identity, err := s.store.GetIdentity()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	if identity != nil && !force {
		return &ProvisionResult{
			OK:                 true,
			AlreadyProvisioned: true,
			DID:                identity.DID,
			GovernanceTier:     identity.GovernanceTier,
			Source:             identity.Source,
			GatewayURL:         identity.GatewayURL,
		}, nil
	}

	nodePubkey := s.ourNodePubkey()
	source := archonstore.SourceLocalFallback
	did := ""

	if s.networkEnabled && s.gateway != nil {
		remoteDID, gerr := s.gateway.ProvisionIdentity(backgroundCtx, nodePubkey, label)
		if gerr != nil {
			s.logger.log("archon: gateway provisioning failed, using local fallback: "+gerr.Error(), "warn")
			s.queueOutbox(archonstore.OutboxOpProvision, map[string]any{
				"node_pubkey": nodePubkey,
				"label":       label,
			})
		} else if remoteDID != "" {
			did = remoteDID
			source = archonstore.SourceArchonGateway
		}
	}

	if did == "" {
		did = s.generateLocalDID(nodePubkey, label)
	}

	governanceTier := archonstore.GovernanceTierBasic
	if identity != nil {
		governanceTier = identity.GovernanceTier
	}

	now := s.nowSeconds()
	gatewayURL := ""
	if source == archonstore.SourceArchonGateway {
		gatewayURL = s.gatewayURL
	}
	if identity != nil && did != identity.DID {
		if _, derr := s.store.DeleteBindingsByDID(identity.DID); derr != nil {
			return nil, Err("internal error: " + derr.Error())
		}
	}

	if err := s.store.UpsertIdentity(did, governanceTier, "active", source, gatewayURL, now); err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	return &ProvisionResult{
		OK:             true,
		DID:            did,
		Source:         source,
		GovernanceTier: governanceTier,
		GatewayURL:     gatewayURL,
	}, nil
}

func (s *Service) generateLocalDID(nodePubkey, label string) string {
	material := fmt.Sprintf("%s:%s:%d:%s", nodePubkey, label, s.nowSeconds(), uuid.New().String())
	digest := sha256.Sum256([]byte(material))
	return "did:cid:" + hex.EncodeToString(digest[:])[:48]
}
