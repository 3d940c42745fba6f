package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCatalogFromFixture(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/fixture\n")
	writeFile(t, filepath.Join(root, eventsPackageDir, "events.go"), `package events

const (
	// Applied is emitted after damage lands.
	Applied = "rules.applied"
	Unused  = "rules.unused"
	internal = "rules.internal"
)
`)
	writeFile(t, filepath.Join(root, emitterScanDir, "ledger", "apply.go"), `package ledger

import "example.com/fixture/internal/services/rules/observability/audit/events"

func name() string {
	return events.Applied
}
`)
	writeFile(t, filepath.Join(root, emitterScanDir, "ledger", "apply_test.go"), `package ledger

import "example.com/fixture/internal/services/rules/observability/audit/events"

var _ = events.Unused
`)

	defs, err := parseEvents(filepath.Join(root, eventsPackageDir), root)
	if err != nil {
		t.Fatalf("parseEvents: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("defs = %+v, want 2 exported events", defs)
	}
	if defs[0].Value != "rules.applied" || defs[0].Doc != "Applied is emitted after damage lands." {
		t.Fatalf("first def = %+v", defs[0])
	}

	emitters, err := scanEmitters(filepath.Join(root, emitterScanDir), root)
	if err != nil {
		t.Fatalf("scanEmitters: %v", err)
	}
	if got := emitters["Applied"]; len(got) != 1 || got[0] != "internal/services/rules/ledger/apply.go:6" {
		t.Fatalf("emitters = %v", got)
	}
	if _, ok := emitters["Unused"]; ok {
		t.Fatal("test files must not count as emitters")
	}

	content := renderCatalog(defs, emitters)
	for _, want := range []string{"## `rules.applied` (`Applied`)", "## Unreferenced Events", "- `Unused`"} {
		if !strings.Contains(content, want) {
			t.Fatalf("catalog missing %q:\n%s", want, content)
		}
	}
}

func TestCatalogForRepository(t *testing.T) {
	root, err := resolveRoot("")
	if err != nil {
		t.Fatalf("resolveRoot: %v", err)
	}
	defs, err := parseEvents(filepath.Join(root, eventsPackageDir), root)
	if err != nil {
		t.Fatalf("parseEvents: %v", err)
	}
	found := false
	for _, def := range defs {
		if def.Value == "rules.damage.applied" {
			found = true
		}
	}
	if !found {
		t.Fatalf("defs = %+v, want rules.damage.applied", defs)
	}
}
