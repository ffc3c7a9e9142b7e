package archonservice

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/lightning-goats/cl-hive-archon/internal/archoncanon"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
	"github.com/lightning-goats/cl-hive-archon/internal/archonvalidate"
)

// BindResult is the shape returned by BindNostr and BindCLN.
type BindResult struct {
	OK          bool   `json:"ok"`
	BindingID   string `json:"binding_id"`
	DID         string `json:"did"`
	BindingType string `json:"binding_type"`
	Subject     string `json:"subject"`
}

// BindNostr attests that the node's DID owns the given Nostr public key.
func (s *Service) BindNostr(nostrPubkey, did string) (*BindResult, *ServiceError) {
	if !archonvalidate.IsValidNostrPubkey(nostrPubkey) {
		return nil, Err("invalid nostr_pubkey (expected 64 hex chars)")
	}
	return s.bind(archonstore.BindingTypeNostr, nostrPubkey, did)
}

// BindCLN attests that the node's DID owns the given CLN compressed pubkey,
// defaulting to the node's own pubkey when cln_pubkey is empty.
func (s *Service) BindCLN(clnPubkey, did string) (*BindResult, *ServiceError) {
	subject := clnPubkey
	if subject == "" {
		subject = s.ourNodePubkey()
	}
	if !archonvalidate.IsValidCLNPubkey(subject) {
		return nil, Err("invalid cln_pubkey (expected 66-char compressed secp256k1 pubkey)")
	}
	return s.bind(archonstore.BindingTypeCLN, subject, did)
}

func (s *Service) bind(bindingType, subject, did string) (*BindResult, *ServiceError) {
	identity, err := s.store.GetIdentity()
	if err != nil {
		return nil, Err("internal error: " + err.Error())
	}
	if identity == nil {
		return nil, Err("identity not provisioned").WithHint("run provision")
	}

	if did != "" {
		if !archonvalidate.IsValidDID(did) {
			return nil, Err("invalid did")
		}
		if did != identity.DID {
			return nil, Err("cannot bind to a DID not owned by this node")
		}
	}
	resolvedDID := identity.DID

	attestationCanonical, signature, serr := s.buildAttestation(bindingType, resolvedDID, subject)
	if serr != nil {
		return nil, serr
	}

	bindingID := bindingDigest(resolvedDID, bindingType, subject)
	now := s.nowSeconds()
	if err := s.store.UpsertBinding(bindingID, resolvedDID, bindingType, subject, attestationCanonical, signature, now); err != nil {
		return nil, Err("internal error: " + err.Error())
	}

	return &BindResult{
		OK:          true,
		BindingID:   bindingID,
		DID:         resolvedDID,
		BindingType: bindingType,
		Subject:     subject,
	}, nil
}

// buildAttestation canonicalizes {binding_type, did, subject, node_pubkey,
// timestamp} and signs it, failing hard when NodePort returns an empty
// signature (spec.md §4.5: signing failure is fatal for attestation paths).
func (s *Service) buildAttestation(bindingType, did, subject string) (attestationJSON string, signature string, serr *ServiceError) {
	payload := map[string]any{
		"binding_type": bindingType,
		"did":          did,
		"subject":      subject,
		"node_pubkey":  s.ourNodePubkey(),
		"timestamp":    s.nowSeconds(),
	}
	canonicalPayload, err := archoncanon.Marshal(payload)
	if err != nil {
		return "", "", Err("internal error: " + err.Error())
	}

	signature = s.signMessage(canonicalPayload)
	if signature == "" {
		return "", "", Err("signing failed").WithHint("check node signer availability")
	}

	return canonicalPayload, signature, nil
}

func bindingDigest(did, bindingType, subject string) string {
	sum := sha256.Sum256([]byte(did + ":" + bindingType + ":" + subject))
	return hex.EncodeToString(sum[:])[:32]
}
