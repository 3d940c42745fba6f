// Package scenario parses scenario command flags and runs a script.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	entrypoint "github.com/louisbranch/duality-engine/internal/platform/cmd"
	"github.com/louisbranch/duality-engine/internal/platform/config"
	"github.com/louisbranch/duality-engine/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string        `env:"DUALITY_ENGINE_SCENARIO_FILE"`
	Seed       *int64        `env:"DUALITY_ENGINE_SCENARIO_SEED"`
	Assertions bool          `env:"DUALITY_ENGINE_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool          `env:"DUALITY_ENGINE_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"DUALITY_ENGINE_SCENARIO_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config. environ replaces
// the process environment when non-nil.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.Func("seed", "roller seed for reproducible runs", func(value string) error {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q", value)
		}
		cfg.Seed = &seed
		return nil
	})
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	logger := log.New(errOut, "", 0)
	runner, err := scenario.NewRunner(scenario.Config{
		Seed:       cfg.Seed,
		Timeout:    cfg.Timeout,
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	loaded, err := scenario.LoadScenarioFromFile(cfg.Scenario)
	if err != nil {
		return err
	}
	if err := runner.RunScenario(ctx, loaded); err != nil {
		return fmt.Errorf("%w (seed %d)", err, runner.Seed())
	}
	fmt.Fprintf(out, "ok %s (%d steps, seed %d)\n", loaded.Name, len(loaded.Steps), runner.Seed())
	return nil
}
