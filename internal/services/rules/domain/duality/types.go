package duality

import (
	"github.com/louisbranch/duality-engine/internal/core/dice"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/pool"
)

// DefaultFace is the Hope and Fear die size when a request leaves it unset.
const DefaultFace = 12

// DefaultAdversaryFace is the adversary base die size.
const DefaultAdversaryFace = 20

// Category classifies a duality roll by comparing the Hope and Fear dice.
type Category int

const (
	CategoryCrit Category = iota + 1
	CategoryHope
	CategoryFear
	// CategoryNeutral is only reported for reaction rolls.
	CategoryNeutral
)

func (c Category) String() string {
	switch c {
	case CategoryCrit:
		return "crit"
	case CategoryHope:
		return "hope"
	case CategoryFear:
		return "fear"
	case CategoryNeutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Result combines the roll category with the difficulty check.
type Result int

const (
	ResultUnspecified Result = iota
	ResultRollWithHope
	ResultRollWithFear
	ResultSuccessWithHope
	ResultSuccessWithFear
	ResultFailureWithHope
	ResultFailureWithFear
	ResultCriticalSuccess
	ResultSuccess
	ResultFailure
)

func (r Result) String() string {
	switch r {
	case ResultRollWithHope:
		return "Roll with hope"
	case ResultRollWithFear:
		return "Roll with fear"
	case ResultSuccessWithHope:
		return "Success with hope"
	case ResultSuccessWithFear:
		return "Success with fear"
	case ResultFailureWithHope:
		return "Failure with hope"
	case ResultFailureWithFear:
		return "Failure with fear"
	case ResultCriticalSuccess:
		return "Critical success"
	case ResultSuccess:
		return "Success"
	case ResultFailure:
		return "Failure"
	default:
		return "Unspecified"
	}
}

// RollRequest describes a duality roll.
type RollRequest struct {
	// HopeFace and FearFace default to DefaultFace when zero.
	HopeFace     int
	FearFace     int
	Advantage    pool.Pool
	Disadvantage pool.Pool
	Modifier     int
	// Reaction rolls never report Hope or Fear.
	Reaction   bool
	Difficulty *int
}

// Outcome is the immutable result of a duality roll.
type Outcome struct {
	Hope     int
	Fear     int
	Total    int
	Category Category
	Formula  string
	// Forced reports that a critical override equalized the dice.
	Forced bool
	// Advantage and Disadvantage are the pools after cancellation.
	Advantage       pool.Pool
	Disadvantage    pool.Pool
	Modifier        int
	Dice            []dice.DieResult
	Difficulty      *int
	MeetsDifficulty bool
	Result          Result
}

// IsCrit reports whether the roll was a critical.
func (o Outcome) IsCrit() bool {
	return o.Category == CategoryCrit
}

// AdversaryRequest describes a single-die opposition roll.
type AdversaryRequest struct {
	// Face defaults to DefaultAdversaryFace when zero.
	Face         int
	Advantage    int
	Disadvantage int
	Modifier     int
	Difficulty   *int
}

// AdversaryOutcome is the result of an adversary roll.
type AdversaryOutcome struct {
	Face int
	// Rolls lists the base dice; two when net advantage is non-zero.
	Rolls           []int
	Kept            int
	Keep            dice.Keep
	Modifier        int
	Total           int
	Formula         string
	Critical        bool
	Dice            []dice.DieResult
	Difficulty      *int
	MeetsDifficulty bool
}
