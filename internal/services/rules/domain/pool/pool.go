// Package pool implements the advantage/disadvantage dice pool algebra.
//
// A pool is a multiset of bonus (advantage) or penalty (disadvantage) dice
// keyed by face size. Opposing pools cancel each other before a roll: same
// faces first, then across faces, until at most one side has dice left.
package pool

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
)

// Face is a die face size allowed in a pool.
type Face int

const (
	D4  Face = 4
	D6  Face = 6
	D8  Face = 8
	D10 Face = 10
)

// Faces lists the allowed faces, smallest first. Cross-face cancellation
// removes dice in this order.
var Faces = [...]Face{D4, D6, D8, D10}

// Valid reports whether f is an allowed pool face.
func (f Face) Valid() bool {
	switch f {
	case D4, D6, D8, D10:
		return true
	default:
		return false
	}
}

// String renders the face as "d6".
func (f Face) String() string {
	return "d" + strconv.Itoa(int(f))
}

// ParseFace parses "d6", "D6" or "6".
func ParseFace(value string) (Face, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "d")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse face %q: %w", value, err)
	}
	face := Face(n)
	if !face.Valid() {
		return 0, fmt.Errorf("face %q is not one of d4, d6, d8, d10", value)
	}
	return face, nil
}

// Pool maps a face to a die count.
//
// A nil Pool is an empty pool. Functions in this package never mutate
// their Pool arguments.
type Pool map[Face]int

// Count returns the number of dice of face f.
func (p Pool) Count(f Face) int {
	return p[f]
}

// Total returns the number of dice across all faces.
func (p Pool) Total() int {
	total := 0
	for _, face := range Faces {
		if count := p[face]; count > 0 {
			total += count
		}
	}
	return total
}

// IsEmpty reports whether the pool holds no dice.
func (p Pool) IsEmpty() bool {
	return p.Total() == 0
}

// Validate rejects unknown faces and negative counts.
func (p Pool) Validate() error {
	for face, count := range p {
		if !face.Valid() {
			return apperrors.WithMetadata(apperrors.CodeDiceInvalidPool,
				fmt.Sprintf("pool face %d is not allowed", int(face)),
				map[string]string{"Face": strconv.Itoa(int(face))})
		}
		if count < 0 {
			return apperrors.WithMetadata(apperrors.CodeDiceInvalidPool,
				fmt.Sprintf("pool count for %s must be non-negative", face),
				map[string]string{"Face": face.String()})
		}
	}
	return nil
}

// Normalize returns a copy holding only allowed faces with positive counts.
func (p Pool) Normalize() Pool {
	out := make(Pool, len(Faces))
	for _, face := range Faces {
		if count := p[face]; count > 0 {
			out[face] = count
		}
	}
	return out
}

// String renders the pool as "1d4 + 2d8", faces ascending.
func (p Pool) String() string {
	parts := make([]string, 0, len(Faces))
	for _, face := range Faces {
		if count := p[face]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", count, face))
		}
	}
	return strings.Join(parts, " + ")
}

// FromLabels builds a pool from a label-keyed map such as {"d6": 2}.
func FromLabels(labels map[string]int) (Pool, error) {
	out := make(Pool, len(labels))
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		face, err := ParseFace(key)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDiceInvalidPool, err.Error(), err)
		}
		out[face] += labels[key]
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Labels returns the pool keyed by face label, omitting empty faces.
func (p Pool) Labels() map[string]int {
	out := make(map[string]int, len(Faces))
	for _, face := range Faces {
		if count := p[face]; count > 0 {
			out[face.String()] = count
		}
	}
	return out
}
