package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"DUALITY_ENGINE_TEST_PORT" envDefault:"123"`
}

type prefixedTestConfig struct {
	Seed int64  `env:"TEST_SEED" envDefault:"7"`
	Path string `env:"TEST_PATH"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("DUALITY_ENGINE_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithPrefixUsesDefaultPrefix(t *testing.T) {
	t.Setenv("DUALITY_ENGINE_TEST_PATH", "data/test.db")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, ""); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Path != "data/test.db" {
		t.Fatalf("path = %q, want data/test.db", cfg.Path)
	}
	if cfg.Seed != 7 {
		t.Fatalf("seed = %d, want 7", cfg.Seed)
	}
}

func TestParseEnvWithPrefixCustom(t *testing.T) {
	t.Setenv("OTHER_TEST_SEED", "99")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, "OTHER_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Seed != 99 {
		t.Fatalf("seed = %d, want 99", cfg.Seed)
	}
}

func TestParseEnvFromMap(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnvFrom(&cfg, map[string]string{"DUALITY_ENGINE_TEST_PORT": "456"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 456 {
		t.Fatalf("port = %d, want 456", cfg.Port)
	}

	var defaults envTestConfig
	if err := ParseEnvFrom(&defaults, map[string]string{}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if defaults.Port != 123 {
		t.Fatalf("port = %d, want default 123", defaults.Port)
	}
}
