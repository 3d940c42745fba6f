package damage

import "github.com/louisbranch/duality-engine/internal/core/dice"

// RollRequest describes a damage roll.
type RollRequest struct {
	Dice     []dice.Spec
	Modifier int
	Critical bool
}

// RollResult captures damage roll details.
type RollResult struct {
	Rolls         []dice.Roll
	BaseTotal     int
	Modifier      int
	CriticalBonus int
	Total         int
}

// Roll rolls damage dice and adds the critical bonus when requested. A
// critical adds the maximum value of every damage die.
func Roll(roller dice.Roller, request RollRequest) (RollResult, error) {
	if len(request.Dice) == 0 {
		return RollResult{}, dice.ErrMissingDice
	}

	criticalBonus := 0
	if request.Critical {
		for _, spec := range request.Dice {
			criticalBonus += spec.Sides * spec.Count
		}
	}

	rolls, sum, err := dice.RollSpecs(roller, request.Dice)
	if err != nil {
		return RollResult{}, err
	}

	baseTotal := sum + request.Modifier
	return RollResult{
		Rolls:         rolls,
		BaseTotal:     baseTotal,
		Modifier:      request.Modifier,
		CriticalBonus: criticalBonus,
		Total:         baseTotal + criticalBonus,
	}, nil
}
