package scenario

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	"github.com/louisbranch/duality-engine/internal/random"
)

func newTestRunner(t *testing.T, mode AssertionMode, values ...int) (*Runner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	cfg := Config{Assertions: mode, Verbose: true, Logger: logger}
	return newRunnerWithRoller(cfg, dice.NewSequenceRoller(values...), 7, logger, time.Second, DefaultUserID), &buf
}

func runSource(t *testing.T, runner *Runner, source string) error {
	t.Helper()
	scenario, err := LoadScenario("test", source)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	return runner.RunScenario(context.Background(), scenario)
}

const skirmish = `
local s = Scenario.new("skirmish")
s:actor("hero", {type = "character", hp_max = 6, major = 5, severe = 10, armor_max = 3})
s:actor("goblin", {type = "adversary", hp_max = 3, major = 4, severe = 8})
s:scene("cave")
s:token("cave", "gob1", {actor = "goblin", linked = false})

s:roll({modifier = 2, expect = "hope", expect_total = 13})
s:damage({targets = {"hero"}, amount = 6, armor = 1, undo = "hit", expect_severity = "major", expect_applied = 1})
s:expect_hp("hero", 1)
s:expect_armor("hero", 1)

s:damage({targets = {"gob1"}, amount = 9, expect_severity = "severe"})
s:expect_hp("gob1", 3)
s:expect_hp("goblin", 0)

s:undo("hit")
s:expect_hp("hero", 0)
s:expect_armor("hero", 0)

s:heal({targets = {"gob1"}, amount = 1})
s:expect_hp("gob1", 2)
s:direct_damage({targets = {"goblin"}, amount = 2})
s:expect_hp("goblin", 2)

s:arm_critical()
s:roll({expect = "crit", expect_forced = true})
s:damage_roll({dice = {{sides = 6, count = 2}}, modifier = 1, expect_total = 19})
s:target("hero")
s:damage({})
s:expect_hp("hero", 3)
s:undo()
s:expect_hp("hero", 0)
return s
`

func TestRunScenarioSkirmish(t *testing.T) {
	// hope 8, fear 3; forced roll 5, 2; damage dice 4, 2.
	runner, logs := newTestRunner(t, AssertionStrict, 8, 3, 5, 2, 4, 2)
	if err := runSource(t, runner, skirmish); err != nil {
		t.Fatalf("RunScenario: %v\n%s", err, logs.String())
	}
	if !strings.Contains(logs.String(), "scenario done: skirmish") {
		t.Fatalf("logs missing completion line:\n%s", logs.String())
	}
	if len(runner.Notices()) == 0 {
		t.Fatal("expected ledger notices")
	}
}

func TestRunScenarioStrictAssertionFails(t *testing.T) {
	runner, _ := newTestRunner(t, AssertionStrict)
	err := runSource(t, runner, `
local s = Scenario.new()
s:actor("hero", {hp_max = 6, major = 5, severe = 10})
s:expect_hp("hero", 2)
return s
`)
	if !errors.Is(err, ErrAssertionFailed) {
		t.Fatalf("err = %v, want ErrAssertionFailed", err)
	}
	if !strings.Contains(err.Error(), "step 2 (expect_hp)") {
		t.Fatalf("err = %v, want step context", err)
	}
}

func TestRunScenarioLogOnlyContinues(t *testing.T) {
	runner, logs := newTestRunner(t, AssertionLogOnly, 1, 2)
	err := runSource(t, runner, `
local s = Scenario.new()
s:actor("hero", {hp_max = 6, major = 5, severe = 10})
s:expect_hp("hero", 2)
s:roll({expect = "hope"})
return s
`)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	out := logs.String()
	if !strings.Contains(out, "assertion: hero hp = 0, want 2") {
		t.Fatalf("logs missing hp assertion:\n%s", out)
	}
	if !strings.Contains(out, "assertion: roll category = fear, want hope") {
		t.Fatalf("logs missing roll assertion:\n%s", out)
	}
}

func TestRunScenarioSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "unknown target",
			source: `local s = Scenario.new(); s:expect_hp("ghost", 0); return s`,
			want:   `unknown target "ghost"`,
		},
		{
			name:   "undo without record",
			source: `local s = Scenario.new(); s:undo(); return s`,
			want:   "no undo record",
		},
		{
			name:   "unknown undo label",
			source: `local s = Scenario.new(); s:undo("nope"); return s`,
			want:   `unknown undo label "nope"`,
		},
		{
			name:   "damage without amount",
			source: `local s = Scenario.new(); s:actor("hero", {hp_max = 6}); s:damage({targets = {"hero"}}); return s`,
			want:   "amount is required",
		},
		{
			name:   "token for unknown actor",
			source: `local s = Scenario.new(); s:scene("cave"); s:token("cave", "t1", {actor = "ghost"}); return s`,
			want:   "unknown actor ghost",
		},
		{
			name:   "bad pool",
			source: `local s = Scenario.new(); s:roll({advantage = {d7 = 1}}); return s`,
			want:   "step 1 (roll)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, _ := newTestRunner(t, AssertionLogOnly)
			err := runSource(t, runner, tt.source)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRunScenarioSeededRollIsRepeatable(t *testing.T) {
	source := `
local s = Scenario.new()
s:adversary_roll({seed = 99, advantage = 1})
return s
`
	for range 2 {
		runner, logs := newTestRunner(t, AssertionStrict)
		if err := runSource(t, runner, source); err != nil {
			t.Fatalf("RunScenario: %v", err)
		}
		if !strings.Contains(logs.String(), "adversary roll") {
			t.Fatalf("logs missing adversary roll:\n%s", logs.String())
		}
	}
}

func TestNewRunnerSeed(t *testing.T) {
	seed := int64(42)
	runner, err := NewRunner(Config{Seed: &seed})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if runner.Seed() != 42 {
		t.Fatalf("seed = %d, want 42", runner.Seed())
	}

	bad := random.MaxSeed + 1
	if _, err := NewRunner(Config{Seed: &bad}); err == nil {
		t.Fatal("expected out-of-range seed error")
	}
}

func TestRunFile(t *testing.T) {
	path := writeScenarioFixture(t, `
local s = Scenario.new()
s:actor("hero", {hp_max = 6, major = 5, severe = 10})
s:direct_damage({targets = {"hero"}, amount = 2})
s:expect_hp("hero", 2)
return s
`)
	if err := RunFile(context.Background(), DefaultConfig(), path); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
}

func TestParseAssertionMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AssertionMode
		wantErr bool
	}{
		{in: "", want: AssertionStrict},
		{in: "strict", want: AssertionStrict},
		{in: "LOG", want: AssertionLogOnly},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAssertionMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseAssertionMode(%q) err = %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseAssertionMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
