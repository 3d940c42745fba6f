package dice

import "math/rand"

// RandRoller rolls dice from a seeded math/rand source.
//
// Given the same seed and the same sequence of Roll calls, a RandRoller
// always produces the same results, which makes rolls replayable.
type RandRoller struct {
	rng *rand.Rand
}

// NewRandRoller creates a roller seeded with seed.
func NewRandRoller(seed int64) *RandRoller {
	return &RandRoller{rng: rand.New(rand.NewSource(seed))}
}

// Roll implements Roller.
func (r *RandRoller) Roll(sides int) int {
	return r.rng.Intn(sides) + 1
}

// RollSpecs rolls each spec in order using roller.
//
// Rolls in the result appear in the same order as specs. The returned total
// is the sum of every die rolled.
//
//   - At least one Spec must be provided, otherwise ErrMissingDice is returned.
//   - Each Spec must have Sides > 0 and Count > 0, otherwise
//     ErrInvalidDiceSpec is returned.
func RollSpecs(roller Roller, specs []Spec) ([]Roll, int, error) {
	if len(specs) == 0 {
		return nil, 0, ErrMissingDice
	}
	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return nil, 0, ErrInvalidDiceSpec
		}
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0
	for _, spec := range specs {
		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := roller.Roll(spec.Sides)
			results[i] = value
			rollTotal += value
		}
		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}
	return rolls, total, nil
}

// SequenceRoller returns scripted values in order, clamped to [1, sides].
// Once the script is exhausted it falls back to Fallback, or to 1 when
// Fallback is nil.
type SequenceRoller struct {
	Values   []int
	Fallback Roller
	next     int
}

// NewSequenceRoller creates a roller that returns values in order.
func NewSequenceRoller(values ...int) *SequenceRoller {
	return &SequenceRoller{Values: values}
}

// Roll implements Roller.
func (r *SequenceRoller) Roll(sides int) int {
	if r.next >= len(r.Values) {
		if r.Fallback != nil {
			return r.Fallback.Roll(sides)
		}
		return 1
	}
	value := r.Values[r.next]
	r.next++
	if value < 1 {
		return 1
	}
	if value > sides {
		return sides
	}
	return value
}

// Remaining returns how many scripted values have not been consumed.
func (r *SequenceRoller) Remaining() int {
	return len(r.Values) - r.next
}
