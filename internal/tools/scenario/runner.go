package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/random"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/duality"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/notify"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage/memory"
)

// DefaultUserID is the user scenario mutations are recorded under.
const DefaultUserID = "scenario"

// Config controls scenario execution.
type Config struct {
	// Seed fixes the roller seed. A random seed is used when nil.
	Seed       *int64
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	UserID     string
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
		UserID:     DefaultUserID,
	}
}

// Runner executes scenarios against an in-process rules engine.
type Runner struct {
	store      *memory.Store
	ledger     *ledger.Ledger
	engine     *duality.Engine
	roller     dice.Roller
	notices    *notify.Recorder
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	userID     string
	seed       int64
}

type scenarioState struct {
	actors     map[string]storage.ActorRecord
	tokens     map[string]actor.Ref
	undoLabels map[string]string
	lastUndoID string
	// lastDamage is the total of the most recent damage_roll.
	lastDamage *int
	lastCrit   bool
}

// NewRunner prepares a runner with an empty store.
func NewRunner(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	userID := cfg.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	roller, seed, err := random.NewRoller(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("seed roller: %w", err)
	}
	return newRunnerWithRoller(cfg, roller, seed, logger, timeout, userID), nil
}

func newRunnerWithRoller(cfg Config, roller dice.Roller, seed int64, logger *log.Logger, timeout time.Duration, userID string) *Runner {
	store := memory.NewStore()
	notices := &notify.Recorder{}
	return &Runner{
		store: store,
		ledger: ledger.New(store, store, store,
			ledger.WithNotifier(notices),
			ledger.WithLogger(logger),
		),
		engine:     duality.NewEngine(roller, &duality.CriticalOverride{}),
		roller:     roller,
		notices:    notices,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		userID:     userID,
		seed:       seed,
	}
}

// Seed returns the seed the runner's roller was created with.
func (r *Runner) Seed() int64 {
	return r.seed
}

// Notices returns the player-facing notices emitted so far.
func (r *Runner) Notices() []notify.Notice {
	return r.notices.Notices()
}

// RunFile loads and executes a scenario file with a fresh runner.
func RunFile(ctx context.Context, cfg Config, path string) error {
	runner, err := NewRunner(cfg)
	if err != nil {
		return err
	}
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps, seed %d)", scenario.Name, len(scenario.Steps), r.seed)
	state := &scenarioState{
		actors:     map[string]storage.ActorRecord{},
		tokens:     map[string]actor.Ref{},
		undoLabels: map[string]string{},
	}
	ctx = requestctx.WithUserID(ctx, r.userID)

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) failf(format string, args ...any) error {
	return r.assertions.Failf(format, args...)
}

func (r *Runner) assertf(format string, args ...any) error {
	return r.assertions.Assertf(format, args...)
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
