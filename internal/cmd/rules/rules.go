// Package rules parses rules command flags and starts the rules service.
package rules

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/duality-engine/internal/platform/cmd"
	"github.com/louisbranch/duality-engine/internal/platform/discovery"
	server "github.com/louisbranch/duality-engine/internal/services/rules/app"
)

// Config holds rules command configuration.
type Config struct {
	Port   int    `env:"DUALITY_ENGINE_RULES_PORT"`
	Addr   string `env:"DUALITY_ENGINE_RULES_ADDR"`
	DBPath string `env:"DUALITY_ENGINE_RULES_DB_PATH" envDefault:"data/rules.db"`
	Locale string `env:"DUALITY_ENGINE_LOCALE"        envDefault:"en-US"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port == 0 {
		cfg.Port = discovery.GRPCPort(discovery.ServiceRules)
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The rules server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The rules server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the rules SQLite database")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for notices and default error copy")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr returns Addr when set, otherwise all interfaces on Port.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the rules gRPC service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRules, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ListenAddr(), server.Options{
			DBPath: cfg.DBPath,
			Locale: cfg.Locale,
		})
	})
}
