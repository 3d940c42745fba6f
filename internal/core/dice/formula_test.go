package dice

import (
	"errors"
	"testing"
)

func TestFormulaString(t *testing.T) {
	tests := []struct {
		name    string
		formula Formula
		want    string
	}{
		{"duality", Formula{Die(12), Die(12)}, "1d12 + 1d12"},
		{"modifier", Formula{Die(12), Die(12), Constant(3)}, "1d12 + 1d12 + 3"},
		{"negative modifier", Formula{Die(12), Die(12), Constant(-2)}, "1d12 + 1d12 - 2"},
		{"keep highest", Formula{Die(12), {Dice: []Spec{{Sides: 6, Count: 2}}, Keep: KeepHighest}}, "1d12 + 2d6kh"},
		{
			"grouped keep highest",
			Formula{Die(12), {Negative: true, Dice: []Spec{{Sides: 4, Count: 1}, {Sides: 8, Count: 2}}, Keep: KeepHighest}},
			"1d12 - {1d4, 2d8}kh",
		},
		{"keep lowest", Formula{{Dice: []Spec{{Sides: 20, Count: 2}}, Keep: KeepLowest}}, "2d20kl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.formula.String(); got != tt.want {
				t.Fatalf("formula = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluateSumsSignedTerms(t *testing.T) {
	formula := Formula{
		Die(12),
		Die(12),
		{Dice: []Spec{{Sides: 6, Count: 2}}, Keep: KeepHighest},
		Constant(-1),
	}
	eval, err := Evaluate(formula, NewSequenceRoller(7, 4, 2, 5))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.Total != 7+4+5-1 {
		t.Fatalf("total = %d, want %d", eval.Total, 7+4+5-1)
	}
	if len(eval.Dice) != 4 {
		t.Fatalf("dice = %d, want 4", len(eval.Dice))
	}
	if eval.Dice[0].Value != 7 || eval.Dice[1].Value != 4 {
		t.Fatalf("leading dice = %d,%d, want 7,4", eval.Dice[0].Value, eval.Dice[1].Value)
	}
	if eval.Dice[2].Kept || !eval.Dice[3].Kept {
		t.Fatalf("kept flags = %v,%v, want false,true", eval.Dice[2].Kept, eval.Dice[3].Kept)
	}
	if eval.Formula != "1d12 + 1d12 + 2d6kh - 1" {
		t.Fatalf("formula = %q", eval.Formula)
	}
}

func TestEvaluateKeepLowestSubtracts(t *testing.T) {
	formula := Formula{{Dice: []Spec{{Sides: 20, Count: 2}}, Keep: KeepLowest}, Constant(2)}
	eval, err := Evaluate(formula, NewSequenceRoller(15, 6))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.Total != 8 {
		t.Fatalf("total = %d, want 8", eval.Total)
	}
	if eval.Terms[0].Value != 6 {
		t.Fatalf("kept = %d, want 6", eval.Terms[0].Value)
	}
}

func TestEvaluateRequiresDice(t *testing.T) {
	if _, err := Evaluate(Formula{Constant(3)}, NewSequenceRoller()); !errors.Is(err, ErrMissingDice) {
		t.Fatalf("error = %v, want %v", err, ErrMissingDice)
	}
	if _, err := Evaluate(Formula{Die(12)}, nil); err == nil {
		t.Fatal("expected error for nil roller")
	}
}
