// Command cl-hive-archon is the process entrypoint: it loads configuration,
// wires the SQLite store, the host-node RPC port, the gateway client, and
// the orchestration Service, then dispatches one cobra command per
// invocation. In the original Python plugin this same wiring lived in a
// long-running @plugin.init() handler backing a JSON-RPC method dispatcher;
// here each CLI invocation performs the equivalent one-shot wiring.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/lightning-goats/cl-hive-archon/internal/archonclock"
	"github.com/lightning-goats/cl-hive-archon/internal/archoncli"
	"github.com/lightning-goats/cl-hive-archon/internal/archonconfig"
	"github.com/lightning-goats/cl-hive-archon/internal/archonlog"
	"github.com/lightning-goats/cl-hive-archon/internal/archonservice"
	"github.com/lightning-goats/cl-hive-archon/internal/archonstore"
	"github.com/lightning-goats/cl-hive-archon/internal/nodeport"
)

// companionPlugin is the sibling plugin the original Python implementation
// warned about when absent; cl-hive-archon has no hard dependency on it.
const companionPlugin = "cl-hive-comms"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	lightningDir := archonconfig.EnvOrDefault("LIGHTNING_DIR", "")
	cfg, err := archonconfig.Load(lightningDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := archonlog.New(cfg.LogLevel)
	logFn := archonlog.Adapt(logger)

	store, err := archonstore.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	socketPath := archonconfig.EnvOrDefault("LIGHTNING_RPC_SOCKET", "lightning-rpc")
	node := nodeport.NewRPCNodePort(socketPath, logger)

	if names, err := node.ListActivePluginNames(); err != nil {
		logger.WithError(err).Debug("archon: could not list active plugins")
	} else if !contains(names, companionPlugin) {
		logger.Warnf("archon: companion plugin %q not detected among active plugins", companionPlugin)
	}

	realClock := clock.New()
	svc := archonservice.New(archonservice.Config{
		Store:                 store,
		Node:                  node,
		Logger:                archonservice.Logger(logFn),
		GatewayURL:            cfg.GatewayURL,
		NetworkEnabled:        cfg.NetworkEnabled,
		MinGovernanceBondSats: cfg.MinGovernanceBondSats,
		Clock:                 archonclock.FromBenbjohnsonClock(realClock),
	})
	if cfg.GatewayAuthToken != "" {
		svc = svc.WithAuthToken(cfg.GatewayAuthToken)
	}

	root := archoncli.NewRootCommand(svc, realClock)
	return root.Execute()
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
