// Package mcp parses MCP command flags and starts the stdio bridge.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/duality-engine/internal/platform/cmd"
	"github.com/louisbranch/duality-engine/internal/platform/config"
	"github.com/louisbranch/duality-engine/internal/platform/discovery"
	mcpservice "github.com/louisbranch/duality-engine/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	RulesAddr string `env:"DUALITY_ENGINE_RULES_GRPC_ADDR"`
	UserID    string `env:"DUALITY_ENGINE_MCP_USER_ID"     envDefault:"mcp"`
	Locale    string `env:"DUALITY_ENGINE_LOCALE"          envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config. environ replaces
// the process environment when non-nil.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.RulesAddr, "addr", cfg.RulesAddr, "rules server address")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "user id owning targets and undo records")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for rules error messages")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.RulesAddr = discovery.OrDefaultGRPCAddr(cfg.RulesAddr, discovery.ServiceRules)
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			GRPCAddr: cfg.RulesAddr,
			UserID:   cfg.UserID,
			Locale:   cfg.Locale,
		})
	})
}
