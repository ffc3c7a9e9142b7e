package archonservice

// SignMessageResult is the shape returned by SignMessage.
type SignMessageResult struct {
	OK        bool   `json:"ok"`
	Signature string `json:"signature"`
	NodePubkey string `json:"node_pubkey"`
}

// SignMessage exposes the node's raw signer for arbitrary text, bounded so
// a caller can't push an unbounded payload through to the lightning-rpc
// socket.
func (s *Service) SignMessage(message string) (*SignMessageResult, *ServiceError) {
	if message == "" {
		return nil, Err("message is required")
	}
	if len(message) > MaxSignMessageLen {
		return nil, Err("message too long (10240 bytes max)")
	}

	signature := s.signMessage(message)
	if signature == "" {
		return nil, Err("signing failed").WithHint("check node signer availability")
	}

	return &SignMessageResult{OK: true, Signature: signature, NodePubkey: s.ourNodePubkey()}, nil
}
