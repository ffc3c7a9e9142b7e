// Package archonservice is the orchestration core of cl-hive-archon: the
// only component that coordinates across the Store, NodePort, and
// GatewayClient. Every cross-cutting invariant in spec.md (binding
// ownership, bonded tier upgrades, poll lifecycle, single-ballot voting,
// outbox reconciliation) lives here.
package archonservice

import (
	"context"
	"strings"

	"github.com/lightning-goats/cl-hive-archon/internal/archonclock"
	"github.com/lightning-goats/cl-hive-archon/internal/archongateway"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
	"github.com/lightning-goats/cl-hive-archon/internal/nodeport"
)

// MaxSignMessageLen bounds the sign-message facade's input size.
const MaxSignMessageLen = 10 * 1024

// Logger matches the shape the teacher's plugin.log/ArchonStore._logger
// expect: a message plus a level string ("info", "warn", ...).
type Logger func(message string, level string)

func (l Logger) log(message, level string) {
	if l != nil {
		l(message, level)
	}
}

// Service is the stateful orchestration core described in spec.md §4.5.
type Service struct {
	store      *archonstore.Store
	node       nodeport.NodePort
	gateway    *archongateway.Client
	logger     Logger
	gatewayURL string

	networkEnabled        bool
	minGovernanceBondSats  int64
	now                    archonclock.Clock
}

// Config carries the constructor's dependencies and options.
type Config struct {
	Store                 *archonstore.Store
	Node                   nodeport.NodePort
	Logger                 Logger
	GatewayURL             string
	NetworkEnabled         bool
	MinGovernanceBondSats  int64
	Clock                  archonclock.Clock
}

// New builds a Service. If NetworkEnabled is true but GatewayURL fails
// validation, the Service silently downgrades to offline and logs a
// warning (spec.md §4.5).
func New(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = archonclock.Wall
	}
	if cfg.MinGovernanceBondSats < 1 {
		cfg.MinGovernanceBondSats = 1
	}

	s := &Service{
		store:                 cfg.Store,
		node:                  cfg.Node,
		logger:                cfg.Logger,
		gatewayURL:            strings.TrimSpace(cfg.GatewayURL),
		networkEnabled:        cfg.NetworkEnabled,
		minGovernanceBondSats: cfg.MinGovernanceBondSats,
		now:                   cfg.Clock,
	}

	if s.networkEnabled && s.gatewayURL != "" {
		client, err := archongateway.New(s.gatewayURL, "")
		if err != nil {
			s.logger.log("archon: invalid gateway url, downgrading to offline: "+err.Error(), "warn")
			s.networkEnabled = false
		} else {
			s.gateway = client
		}
	} else if s.networkEnabled && s.gatewayURL == "" {
		s.logger.log("archon: network enabled but no gateway url configured, downgrading to offline", "warn")
		s.networkEnabled = false
	}

	return s
}

// WithAuthToken rebuilds the gateway client with a bearer token configured.
// Exposed separately from Config so archongateway.New's auth-token plumbing
// stays in one place.
func (s *Service) WithAuthToken(token string) *Service {
	if s.gatewayURL == "" {
		return s
	}
	client, err := archongateway.New(s.gatewayURL, token)
	if err != nil {
		s.logger.log("archon: invalid gateway url, downgrading to offline: "+err.Error(), "warn")
		s.networkEnabled = false
		return s
	}
	s.gateway = client
	return s
}

func (s *Service) nowSeconds() int64 {
	return s.now()
}

func (s *Service) ourNodePubkey() string {
	if s.node == nil {
		return ""
	}
	return s.node.NodePubkey()
}

func (s *Service) signMessage(payload string) string {
	if s.node == nil {
		return ""
	}
	return s.node.SignMessage(payload)
}

func (s *Service) resolveDID(did string) string {
	if did != "" {
		return did
	}
	identity, err := s.store.GetIdentity()
	if err != nil || identity == nil {
		return ""
	}
	return identity.DID
}

func (s *Service) requireGovernance() *ServiceError {
	identity, err := s.store.GetIdentity()
	if err != nil {
		return Err("internal error: " + err.Error())
	}
	if identity == nil {
		return Err("identity not provisioned").WithHint("run provision first")
	}
	if identity.GovernanceTier != archonstore.GovernanceTierGovernance {
		return Err("governance tier required").WithHint("run upgrade target_tier=governance bond_sats=50000")
	}
	return nil
}

func (s *Service) voterID() string {
	return s.ourNodePubkey()
}

var backgroundCtx = context.Background()
