// Package dice rolls small, fixed dice formulas.
//
// It is not a general dice-expression parser: callers assemble a Formula
// out of Terms and the package evaluates it against a Roller, reporting
// every individual die alongside the aggregate total.
package dice

import "errors"

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")

// Spec describes Count dice with Sides faces each.
type Spec struct {
	Sides int
	Count int
}

// Roll captures the results of a single Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Keep selects which dice of a group count toward a term value.
type Keep int

const (
	// KeepAll sums every die in the term.
	KeepAll Keep = iota
	// KeepHighest keeps only the single highest die in the term.
	KeepHighest
	// KeepLowest keeps only the single lowest die in the term.
	KeepLowest
)

// Suffix returns the dice-notation suffix for the keep mode.
func (k Keep) Suffix() string {
	switch k {
	case KeepHighest:
		return "kh"
	case KeepLowest:
		return "kl"
	default:
		return ""
	}
}

// Roller is the random die primitive. Roll returns a value in [1, sides].
type Roller interface {
	Roll(sides int) int
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func(sides int) int

// Roll implements Roller.
func (fn RollerFunc) Roll(sides int) int {
	return fn(sides)
}

// DieResult is one die rolled while evaluating a formula.
type DieResult struct {
	// Term is the index of the term that rolled this die.
	Term  int
	Sides int
	Value int
	// Kept reports whether the die counted toward its term value.
	Kept bool
}
