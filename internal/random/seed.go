// Package random provides roll seeds.
//
// Seeds are drawn from crypto/rand and kept within the range a JSON number
// represents exactly, so a seed reported to a client can be sent back to
// replay the same roll.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
)

// MaxSeed is the largest seed accepted for replay (2^53 - 1).
const MaxSeed int64 = 1<<53 - 1

// NewSeed generates a random seed in [0, MaxSeed] using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & uint64(MaxSeed)), nil
}

// ResolveSeed returns the explicit seed when set, otherwise a new one.
func ResolveSeed(explicit *int64) (int64, error) {
	if explicit == nil {
		return NewSeed()
	}
	if *explicit < 0 || *explicit > MaxSeed {
		return 0, apperrors.WithMetadata(apperrors.CodeSeedOutOfRange,
			fmt.Sprintf("seed must be between 0 and %d", MaxSeed),
			map[string]string{"Seed": fmt.Sprint(*explicit)})
	}
	return *explicit, nil
}

// NewRoller resolves a seed and returns a roller seeded with it.
func NewRoller(explicit *int64) (*dice.RandRoller, int64, error) {
	seed, err := ResolveSeed(explicit)
	if err != nil {
		return nil, 0, err
	}
	return dice.NewRandRoller(seed), seed, nil
}
