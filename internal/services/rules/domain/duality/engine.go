package duality

import (
	"fmt"
	"strconv"

	"github.com/louisbranch/duality-engine/internal/core/check"
	"github.com/louisbranch/duality-engine/internal/core/dice"
	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/pool"
)

// Engine rolls duality and adversary dice.
type Engine struct {
	roller   dice.Roller
	override *CriticalOverride
}

// NewEngine creates an engine. A nil override disables forced criticals.
func NewEngine(roller dice.Roller, override *CriticalOverride) *Engine {
	return &Engine{roller: roller, override: override}
}

// Override returns the critical override the engine consumes.
func (e *Engine) Override() *CriticalOverride {
	return e.override
}

// ValidFace reports whether sides is an allowed Hope, Fear or adversary die.
func ValidFace(sides int) bool {
	switch sides {
	case 4, 6, 8, 10, 12, 20:
		return true
	default:
		return false
	}
}

// Roll resolves a duality roll.
//
// The advantage and disadvantage pools are cancelled first; whichever side
// survives is added or subtracted as a keep-highest group. If the critical
// override is armed it is consumed by this roll and the Fear die is set to
// the Hope die value.
func (e *Engine) Roll(request RollRequest) (Outcome, error) {
	hopeFace := faceOrDefault(request.HopeFace, DefaultFace)
	fearFace := faceOrDefault(request.FearFace, DefaultFace)
	if err := validateFace(hopeFace); err != nil {
		return Outcome{}, err
	}
	if err := validateFace(fearFace); err != nil {
		return Outcome{}, err
	}
	if err := request.Advantage.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := request.Disadvantage.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := validateDifficulty(request.Difficulty); err != nil {
		return Outcome{}, err
	}

	advantage, disadvantage := pool.Cancel(request.Advantage, request.Disadvantage)
	formula := dice.Formula{dice.Die(hopeFace), dice.Die(fearFace)}
	if term, ok := pool.Term(advantage, pool.Add); ok {
		formula = append(formula, term)
	}
	if term, ok := pool.Term(disadvantage, pool.Subtract); ok {
		formula = append(formula, term)
	}
	if request.Modifier != 0 {
		formula = append(formula, dice.Constant(request.Modifier))
	}

	eval, err := dice.Evaluate(formula, e.roller)
	if err != nil {
		return Outcome{}, fmt.Errorf("evaluate duality formula: %w", err)
	}

	outcome := Outcome{
		Hope:         eval.Dice[0].Value,
		Fear:         eval.Dice[1].Value,
		Total:        eval.Total,
		Formula:      eval.Formula,
		Advantage:    advantage,
		Disadvantage: disadvantage,
		Modifier:     request.Modifier,
		Dice:         eval.Dice,
		Difficulty:   request.Difficulty,
	}
	if e.override.consume() {
		outcome.Total += outcome.Hope - outcome.Fear
		outcome.Fear = outcome.Hope
		outcome.Dice[1].Value = outcome.Hope
		outcome.Forced = true
	}

	outcome.Category = Categorize(outcome.Hope, outcome.Fear, request.Reaction)
	outcome.MeetsDifficulty = MeetsDifficulty(outcome.Total, outcome.Category, request.Difficulty)
	outcome.Result = ResultFor(outcome.Category, request.Difficulty, outcome.MeetsDifficulty)
	return outcome, nil
}

// Categorize compares the Hope and Fear dice. Matching dice are always a
// critical; reaction rolls report Neutral instead of Hope or Fear.
func Categorize(hope, fear int, reaction bool) Category {
	switch {
	case hope == fear:
		return CategoryCrit
	case reaction:
		return CategoryNeutral
	case hope > fear:
		return CategoryHope
	default:
		return CategoryFear
	}
}

// MeetsDifficulty reports whether a roll succeeds. A critical always
// succeeds and a nil difficulty never fails.
func MeetsDifficulty(total int, category Category, difficulty *int) bool {
	return category == CategoryCrit || check.Against(total, difficulty).Success
}

// ResultFor combines the category with the difficulty check.
func ResultFor(category Category, difficulty *int, meets bool) Result {
	if category == CategoryCrit {
		return ResultCriticalSuccess
	}
	if difficulty == nil {
		switch category {
		case CategoryHope:
			return ResultRollWithHope
		case CategoryFear:
			return ResultRollWithFear
		default:
			return ResultUnspecified
		}
	}
	switch category {
	case CategoryHope:
		if meets {
			return ResultSuccessWithHope
		}
		return ResultFailureWithHope
	case CategoryFear:
		if meets {
			return ResultSuccessWithFear
		}
		return ResultFailureWithFear
	default:
		if meets {
			return ResultSuccess
		}
		return ResultFailure
	}
}

// RollAdversary resolves a single-die opposition roll. A non-zero net
// advantage rolls two base dice and keeps the higher one when positive or
// the lower one when negative. A natural maximum on the kept die is a
// critical and always meets the difficulty.
func (e *Engine) RollAdversary(request AdversaryRequest) (AdversaryOutcome, error) {
	face := faceOrDefault(request.Face, DefaultAdversaryFace)
	if err := validateFace(face); err != nil {
		return AdversaryOutcome{}, err
	}
	if request.Advantage < 0 || request.Disadvantage < 0 {
		return AdversaryOutcome{}, apperrors.New(apperrors.CodeDiceInvalidPool, "advantage and disadvantage must be non-negative")
	}
	if err := validateDifficulty(request.Difficulty); err != nil {
		return AdversaryOutcome{}, err
	}

	base := dice.Die(face)
	net := request.Advantage - request.Disadvantage
	switch {
	case net > 0:
		base = dice.Term{Dice: []dice.Spec{{Sides: face, Count: 2}}, Keep: dice.KeepHighest}
	case net < 0:
		base = dice.Term{Dice: []dice.Spec{{Sides: face, Count: 2}}, Keep: dice.KeepLowest}
	}
	formula := dice.Formula{base}
	if request.Modifier != 0 {
		formula = append(formula, dice.Constant(request.Modifier))
	}

	eval, err := dice.Evaluate(formula, e.roller)
	if err != nil {
		return AdversaryOutcome{}, fmt.Errorf("evaluate adversary formula: %w", err)
	}

	outcome := AdversaryOutcome{
		Face:       face,
		Keep:       base.Keep,
		Modifier:   request.Modifier,
		Total:      eval.Total,
		Formula:    eval.Formula,
		Dice:       eval.Dice,
		Difficulty: request.Difficulty,
	}
	for _, die := range eval.Dice {
		if die.Term != 0 {
			continue
		}
		outcome.Rolls = append(outcome.Rolls, die.Value)
		if die.Kept {
			outcome.Kept = die.Value
		}
	}
	outcome.Critical = outcome.Kept == face
	outcome.MeetsDifficulty = outcome.Critical || check.Against(outcome.Total, request.Difficulty).Success
	return outcome, nil
}

func faceOrDefault(face, fallback int) int {
	if face == 0 {
		return fallback
	}
	return face
}

func validateFace(face int) error {
	if ValidFace(face) {
		return nil
	}
	return apperrors.WithMetadata(apperrors.CodeDiceInvalidFace,
		fmt.Sprintf("die face d%d is not allowed", face),
		map[string]string{"Face": strconv.Itoa(face)})
}

func validateDifficulty(difficulty *int) error {
	if difficulty != nil && *difficulty < 0 {
		return apperrors.New(apperrors.CodeDiceInvalidSpec, "difficulty must be non-negative")
	}
	return nil
}
