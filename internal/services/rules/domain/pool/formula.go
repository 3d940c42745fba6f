package pool

import "github.com/louisbranch/duality-engine/internal/core/dice"

// Sign selects whether a pool adds to or subtracts from a roll.
type Sign int

const (
	Add Sign = iota
	Subtract
)

// Term converts a pool into a keep-highest dice term. The bool is false
// for an empty pool.
func Term(p Pool, sign Sign) (dice.Term, bool) {
	specs := make([]dice.Spec, 0, len(Faces))
	for _, face := range Faces {
		if count := p[face]; count > 0 {
			specs = append(specs, dice.Spec{Sides: int(face), Count: count})
		}
	}
	if len(specs) == 0 {
		return dice.Term{}, false
	}
	return dice.Term{Negative: sign == Subtract, Dice: specs, Keep: dice.KeepHighest}, true
}

// Suffix renders the pool as a dice-notation suffix: "+ 2d6kh" for one
// face type, "- {1d4, 2d8}kh" for several, and "" for an empty pool.
func Suffix(p Pool, sign Sign) string {
	term, ok := Term(p, sign)
	if !ok {
		return ""
	}
	if term.Negative {
		return "- " + term.String()
	}
	return "+ " + term.String()
}
