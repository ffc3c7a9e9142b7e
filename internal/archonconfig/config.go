// Package archonconfig loads cl-hive-archon's runtime configuration from
// environment variables, a .env file, and CLN plugin options, the way the
// teacher's pkg/config and cmd/cli/gateway_node.go load theirs: godotenv for
// local overrides, viper for precedence and type coercion.
package archonconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDBFile            = "cl_hive_archon.db"
	defaultGatewayURL        = "https://archon.technology"
	defaultNetworkEnabled    = false
	defaultMinGovernanceBond = 50000
	defaultLogLevel          = "info"
)

// Config is the unified runtime configuration for the plugin process.
type Config struct {
	DBPath                string `mapstructure:"db_path"`
	GatewayURL            string `mapstructure:"gateway_url"`
	NetworkEnabled        bool   `mapstructure:"network_enabled"`
	MinGovernanceBondSats int64  `mapstructure:"min_governance_bond_sats"`
	GatewayAuthToken      string `mapstructure:"gateway_auth_token"`
	LightningDir          string `mapstructure:"lightning_dir"`
	LogLevel              string `mapstructure:"log_level"`
}

// Load reads ARCHON_* environment variables (optionally populated from a
// .env file in the working directory) into a Config, resolving a relative
// db path against lightningDir.
func Load(lightningDir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("archon")
	v.AutomaticEnv()
	v.SetDefault("db_path", defaultDBFile)
	v.SetDefault("gateway_url", defaultGatewayURL)
	v.SetDefault("network_enabled", defaultNetworkEnabled)
	v.SetDefault("min_governance_bond_sats", defaultMinGovernanceBond)
	v.SetDefault("log_level", defaultLogLevel)

	cfg := &Config{
		DBPath:                v.GetString("db_path"),
		GatewayURL:            v.GetString("gateway_url"),
		NetworkEnabled:        v.GetBool("network_enabled"),
		MinGovernanceBondSats: v.GetInt64("min_governance_bond_sats"),
		GatewayAuthToken:      v.GetString("gateway_auth_token"),
		LightningDir:          lightningDir,
		LogLevel:              v.GetString("log_level"),
	}

	if !filepath.IsAbs(cfg.DBPath) && cfg.LightningDir != "" {
		cfg.DBPath = filepath.Join(cfg.LightningDir, cfg.DBPath)
	}

	if cfg.MinGovernanceBondSats < 1 {
		return nil, fmt.Errorf("min_governance_bond_sats must be positive, got %d", cfg.MinGovernanceBondSats)
	}

	return cfg, nil
}

// ApplyOption overrides a single field from a CLN plugin option string,
// matching the option names spec.md §6 registers.
func (c *Config) ApplyOption(name, value string) error {
	switch name {
	case "db-path":
		if value != "" {
			c.DBPath = value
		}
	case "gateway":
		c.GatewayURL = value
	case "network-enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid network-enabled %q: %w", value, err)
		}
		c.NetworkEnabled = enabled
	case "governance-min-bond":
		bond, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid governance-min-bond %q: %w", value, err)
		}
		c.MinGovernanceBondSats = bond
	case "gateway-auth-token":
		c.GatewayAuthToken = value
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	return nil
}

// EnvOrDefault returns the named environment variable, or def if unset or
// empty — a small helper mirroring the teacher's pkg/utils convenience.
func EnvOrDefault(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
