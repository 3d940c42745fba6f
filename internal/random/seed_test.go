package random

import (
	"testing"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
)

func TestNewSeedWithinRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		seed, err := NewSeed()
		if err != nil {
			t.Fatalf("new seed: %v", err)
		}
		if seed < 0 || seed > MaxSeed {
			t.Fatalf("seed = %d, out of range", seed)
		}
	}
}

func TestResolveSeed(t *testing.T) {
	explicit := int64(99)
	got, err := ResolveSeed(&explicit)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != 99 {
		t.Fatalf("seed = %d, want 99", got)
	}

	negative := int64(-1)
	if _, err := ResolveSeed(&negative); apperrors.CodeOf(err) != apperrors.CodeSeedOutOfRange {
		t.Fatalf("code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeSeedOutOfRange)
	}
	tooLarge := MaxSeed + 1
	if _, err := ResolveSeed(&tooLarge); apperrors.CodeOf(err) != apperrors.CodeSeedOutOfRange {
		t.Fatalf("code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeSeedOutOfRange)
	}
}

func TestNewRollerReplays(t *testing.T) {
	seed := int64(1234)
	first, gotSeed, err := NewRoller(&seed)
	if err != nil {
		t.Fatalf("new roller: %v", err)
	}
	if gotSeed != seed {
		t.Fatalf("seed = %d, want %d", gotSeed, seed)
	}
	second, _, err := NewRoller(&seed)
	if err != nil {
		t.Fatalf("new roller: %v", err)
	}
	for i := 0; i < 10; i++ {
		if a, b := first.Roll(12), second.Roll(12); a != b {
			t.Fatalf("roll %d = %d/%d, want identical", i, a, b)
		}
	}
}
