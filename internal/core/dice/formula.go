package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is one signed element of a formula: either a dice group or a
// flat constant when Dice is empty.
type Term struct {
	// Negative subtracts the term value from the total.
	Negative bool
	Dice     []Spec
	Keep     Keep
	Constant int
}

// Constant returns a flat term. Negative values render as subtraction.
func Constant(value int) Term {
	if value < 0 {
		return Term{Negative: true, Constant: -value}
	}
	return Term{Constant: value}
}

// Die returns a term rolling one die with the given sides.
func Die(sides int) Term {
	return Term{Dice: []Spec{{Sides: sides, Count: 1}}}
}

// IsConstant reports whether the term rolls no dice.
func (t Term) IsConstant() bool {
	return len(t.Dice) == 0
}

// String renders the term without its sign.
func (t Term) String() string {
	if t.IsConstant() {
		return strconv.Itoa(t.Constant)
	}
	parts := make([]string, 0, len(t.Dice))
	for _, spec := range t.Dice {
		parts = append(parts, fmt.Sprintf("%dd%d", spec.Count, spec.Sides))
	}
	if len(parts) == 1 {
		return parts[0] + t.Keep.Suffix()
	}
	return "{" + strings.Join(parts, ", ") + "}" + t.Keep.Suffix()
}

// Formula is an ordered sum of terms.
type Formula []Term

// String renders the formula in dice notation, e.g. "1d12 + 1d12 + 2d6kh - 1".
func (f Formula) String() string {
	var b strings.Builder
	for i, term := range f {
		switch {
		case i == 0 && term.Negative:
			b.WriteString("-")
		case i > 0 && term.Negative:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		b.WriteString(term.String())
	}
	return b.String()
}

// TermResult captures the evaluation of a single term.
type TermResult struct {
	Term  Term
	Rolls []Roll
	// Value is the unsigned contribution of the term.
	Value int
}

// Evaluation is the result of evaluating a formula.
type Evaluation struct {
	Formula string
	Terms   []TermResult
	// Dice lists every die rolled, in roll order.
	Dice  []DieResult
	Total int
}

// Evaluate rolls every dice term of the formula in order and sums the
// signed term values. Keep-highest and keep-lowest groups contribute only
// their single selected die.
func Evaluate(formula Formula, roller Roller) (Evaluation, error) {
	if roller == nil {
		return Evaluation{}, fmt.Errorf("roller is required")
	}
	rolled := false
	for _, term := range formula {
		if !term.IsConstant() {
			rolled = true
			break
		}
	}
	if !rolled {
		return Evaluation{}, ErrMissingDice
	}

	eval := Evaluation{
		Formula: formula.String(),
		Terms:   make([]TermResult, 0, len(formula)),
	}
	for index, term := range formula {
		result := TermResult{Term: term}
		if term.IsConstant() {
			result.Value = term.Constant
		} else {
			rolls, sum, err := RollSpecs(roller, term.Dice)
			if err != nil {
				return Evaluation{}, err
			}
			result.Rolls = rolls
			start := len(eval.Dice)
			for _, roll := range rolls {
				for _, value := range roll.Results {
					eval.Dice = append(eval.Dice, DieResult{Term: index, Sides: roll.Sides, Value: value, Kept: term.Keep == KeepAll})
				}
			}
			if term.Keep == KeepAll {
				result.Value = sum
			} else {
				kept := selectKept(eval.Dice[start:], term.Keep)
				eval.Dice[start+kept].Kept = true
				result.Value = eval.Dice[start+kept].Value
			}
		}
		if term.Negative {
			eval.Total -= result.Value
		} else {
			eval.Total += result.Value
		}
		eval.Terms = append(eval.Terms, result)
	}
	return eval, nil
}

// selectKept returns the index of the kept die; ties keep the first one rolled.
func selectKept(rolled []DieResult, keep Keep) int {
	best := 0
	for i := 1; i < len(rolled); i++ {
		switch keep {
		case KeepHighest:
			if rolled[i].Value > rolled[best].Value {
				best = i
			}
		case KeepLowest:
			if rolled[i].Value < rolled[best].Value {
				best = i
			}
		}
	}
	return best
}
