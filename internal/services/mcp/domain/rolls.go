package domain

import (
	"context"

	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DieResult is one rolled die.
type DieResult struct {
	Term  int  `json:"term" jsonschema:"index of the formula term the die belongs to"`
	Sides int  `json:"sides" jsonschema:"number of faces"`
	Value int  `json:"value" jsonschema:"face rolled"`
	Kept  bool `json:"kept" jsonschema:"whether the die counts toward the total"`
}

func diceFromWire(dice []rules.Die) []DieResult {
	out := make([]DieResult, len(dice))
	for i, d := range dice {
		out[i] = DieResult{Term: d.Term, Sides: d.Sides, Value: d.Value, Kept: d.Kept}
	}
	return out
}

// CancelDiceInput is the cancel_dice tool input.
type CancelDiceInput struct {
	Advantage    map[string]int `json:"advantage,omitempty" jsonschema:"advantage dice by face, e.g. {\"d6\": 2}"`
	Disadvantage map[string]int `json:"disadvantage,omitempty" jsonschema:"disadvantage dice by face"`
}

// CancelDiceResult is the cancel_dice tool output.
type CancelDiceResult struct {
	Advantage    map[string]int `json:"advantage" jsonschema:"advantage dice left after cancellation"`
	Disadvantage map[string]int `json:"disadvantage" jsonschema:"disadvantage dice left after cancellation"`
	Net          int            `json:"net" jsonschema:"advantage count minus disadvantage count"`
	Formula      string         `json:"formula" jsonschema:"formula suffix for the remaining dice"`
}

// DualityRollInput is the duality_roll tool input.
type DualityRollInput struct {
	HopeFace     int            `json:"hope_face,omitempty" jsonschema:"hope die faces, default 12"`
	FearFace     int            `json:"fear_face,omitempty" jsonschema:"fear die faces, default 12"`
	Advantage    map[string]int `json:"advantage,omitempty" jsonschema:"advantage dice by face"`
	Disadvantage map[string]int `json:"disadvantage,omitempty" jsonschema:"disadvantage dice by face"`
	Modifier     int            `json:"modifier,omitempty" jsonschema:"flat modifier added to the total"`
	Reaction     bool           `json:"reaction,omitempty" jsonschema:"reaction rolls never carry hope or fear"`
	Difficulty   *int           `json:"difficulty,omitempty" jsonschema:"optional difficulty target"`
	Seed         *int64         `json:"seed,omitempty" jsonschema:"optional seed for a replayable roll"`
}

// DualityRollResult is the duality_roll tool output.
type DualityRollResult struct {
	Hope            int         `json:"hope" jsonschema:"hope die value"`
	Fear            int         `json:"fear" jsonschema:"fear die value"`
	Total           int         `json:"total" jsonschema:"dice plus modifier"`
	Category        string      `json:"category" jsonschema:"crit, hope, fear or neutral for reactions"`
	Crit            bool        `json:"crit" jsonschema:"whether the roll is a critical success"`
	Forced          bool        `json:"forced" jsonschema:"whether an armed critical override forced the roll"`
	Formula         string      `json:"formula" jsonschema:"rolled formula"`
	Modifier        int         `json:"modifier" jsonschema:"modifier applied"`
	Dice            []DieResult `json:"dice" jsonschema:"every die rolled"`
	Difficulty      *int        `json:"difficulty,omitempty" jsonschema:"difficulty target, if provided"`
	MeetsDifficulty bool        `json:"meets_difficulty" jsonschema:"whether the total meets the difficulty"`
	Result          string      `json:"result" jsonschema:"narrative outcome label"`
	Seed            int64       `json:"seed" jsonschema:"seed used, for replay"`
}

// AdversaryRollInput is the adversary_roll tool input.
type AdversaryRollInput struct {
	Face         int    `json:"face,omitempty" jsonschema:"adversary die faces, default 20"`
	Advantage    int    `json:"advantage,omitempty" jsonschema:"advantage count"`
	Disadvantage int    `json:"disadvantage,omitempty" jsonschema:"disadvantage count"`
	Modifier     int    `json:"modifier,omitempty" jsonschema:"flat modifier added to the total"`
	Difficulty   *int   `json:"difficulty,omitempty" jsonschema:"optional difficulty target"`
	Seed         *int64 `json:"seed,omitempty" jsonschema:"optional seed for a replayable roll"`
}

// AdversaryRollResult is the adversary_roll tool output.
type AdversaryRollResult struct {
	Rolls           []int  `json:"rolls" jsonschema:"every die rolled"`
	Kept            int    `json:"kept" jsonschema:"die kept"`
	Keep            string `json:"keep" jsonschema:"keep rule applied: highest or lowest"`
	Total           int    `json:"total" jsonschema:"kept die plus modifier"`
	Formula         string `json:"formula" jsonschema:"rolled formula"`
	Critical        bool   `json:"critical" jsonschema:"whether the kept die shows its top face"`
	Difficulty      *int   `json:"difficulty,omitempty" jsonschema:"difficulty target, if provided"`
	MeetsDifficulty bool   `json:"meets_difficulty" jsonschema:"whether the total meets the difficulty"`
	Seed            int64  `json:"seed" jsonschema:"seed used, for replay"`
}

// DamageDiceInput is one dice group of a damage roll.
type DamageDiceInput struct {
	Sides int `json:"sides" jsonschema:"number of faces"`
	Count int `json:"count" jsonschema:"number of dice"`
}

// DamageRollInput is the damage_roll tool input.
type DamageRollInput struct {
	Dice     []DamageDiceInput `json:"dice" jsonschema:"dice groups to roll"`
	Modifier int               `json:"modifier,omitempty" jsonschema:"flat modifier added to the total"`
	Critical bool              `json:"critical,omitempty" jsonschema:"adds the maximum of every die on a critical"`
	Seed     *int64            `json:"seed,omitempty" jsonschema:"optional seed for a replayable roll"`
}

// DamageDiceRoll is the result of one dice group.
type DamageDiceRoll struct {
	Sides   int   `json:"sides" jsonschema:"number of faces"`
	Results []int `json:"results" jsonschema:"individual results"`
	Total   int   `json:"total" jsonschema:"sum of the results"`
}

// DamageRollResult is the damage_roll tool output.
type DamageRollResult struct {
	Rolls         []DamageDiceRoll `json:"rolls" jsonschema:"results per dice group"`
	BaseTotal     int              `json:"base_total" jsonschema:"sum of every die"`
	CriticalBonus int              `json:"critical_bonus" jsonschema:"bonus added on a critical"`
	Total         int              `json:"total" jsonschema:"damage dealt before thresholds"`
	Seed          int64            `json:"seed" jsonschema:"seed used, for replay"`
}

// ArmCriticalInput is the arm_critical_override tool input.
type ArmCriticalInput struct {
	Disarm bool `json:"disarm,omitempty" jsonschema:"clear the override instead of arming it"`
}

// ArmCriticalResult is the arm_critical_override tool output.
type ArmCriticalResult struct {
	Armed bool `json:"armed" jsonschema:"whether the next duality roll will be a critical"`
}

// CancelDiceTool defines the cancel_dice tool.
func CancelDiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cancel_dice",
		Description: "Cancels advantage against disadvantage dice one for one and reports what remains",
	}
}

// DualityRollTool defines the duality_roll tool.
func DualityRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "duality_roll",
		Description: "Rolls hope and fear dice with advantage, disadvantage and a modifier",
	}
}

// AdversaryRollTool defines the adversary_roll tool.
func AdversaryRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "adversary_roll",
		Description: "Rolls a single adversary die, keeping the best or worst under advantage",
	}
}

// DamageRollTool defines the damage_roll tool.
func DamageRollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "damage_roll",
		Description: "Rolls damage dice with an optional critical bonus",
	}
}

// ArmCriticalTool defines the arm_critical_override tool.
func ArmCriticalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "arm_critical_override",
		Description: "Forces the next duality roll to be a critical success",
	}
}

// CancelDiceHandler cancels dice pools.
func CancelDiceHandler(client RulesClient) mcp.ToolHandlerFor[CancelDiceInput, CancelDiceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CancelDiceInput) (*mcp.CallToolResult, CancelDiceResult, error) {
		resp, err := call(ctx, "cancel dice", func(ctx context.Context) (rules.CancelDiceResponse, error) {
			return client.CancelDice(ctx, rules.CancelDiceRequest{
				Advantage:    input.Advantage,
				Disadvantage: input.Disadvantage,
			})
		})
		if err != nil {
			return nil, CancelDiceResult{}, err
		}
		return nil, CancelDiceResult{
			Advantage:    resp.Advantage,
			Disadvantage: resp.Disadvantage,
			Net:          resp.Net,
			Formula:      resp.Formula,
		}, nil
	}
}

// DualityRollHandler executes a duality roll.
func DualityRollHandler(client RulesClient) mcp.ToolHandlerFor[DualityRollInput, DualityRollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DualityRollInput) (*mcp.CallToolResult, DualityRollResult, error) {
		resp, err := call(ctx, "duality roll", func(ctx context.Context) (rules.DualityRollResponse, error) {
			return client.DualityRoll(ctx, rules.DualityRollRequest{
				HopeFace:     input.HopeFace,
				FearFace:     input.FearFace,
				Advantage:    input.Advantage,
				Disadvantage: input.Disadvantage,
				Modifier:     input.Modifier,
				Reaction:     input.Reaction,
				Difficulty:   input.Difficulty,
				Seed:         input.Seed,
			})
		})
		if err != nil {
			return nil, DualityRollResult{}, err
		}
		return nil, DualityRollResult{
			Hope:            resp.Hope,
			Fear:            resp.Fear,
			Total:           resp.Total,
			Category:        resp.Category,
			Crit:            resp.Crit,
			Forced:          resp.Forced,
			Formula:         resp.Formula,
			Modifier:        resp.Modifier,
			Dice:            diceFromWire(resp.Dice),
			Difficulty:      resp.Difficulty,
			MeetsDifficulty: resp.MeetsDifficulty,
			Result:          resp.Result,
			Seed:            resp.Seed,
		}, nil
	}
}

// AdversaryRollHandler executes an adversary roll.
func AdversaryRollHandler(client RulesClient) mcp.ToolHandlerFor[AdversaryRollInput, AdversaryRollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AdversaryRollInput) (*mcp.CallToolResult, AdversaryRollResult, error) {
		resp, err := call(ctx, "adversary roll", func(ctx context.Context) (rules.AdversaryRollResponse, error) {
			return client.AdversaryRoll(ctx, rules.AdversaryRollRequest{
				Face:         input.Face,
				Advantage:    input.Advantage,
				Disadvantage: input.Disadvantage,
				Modifier:     input.Modifier,
				Difficulty:   input.Difficulty,
				Seed:         input.Seed,
			})
		})
		if err != nil {
			return nil, AdversaryRollResult{}, err
		}
		return nil, AdversaryRollResult{
			Rolls:           resp.Rolls,
			Kept:            resp.Kept,
			Keep:            resp.Keep,
			Total:           resp.Total,
			Formula:         resp.Formula,
			Critical:        resp.Critical,
			Difficulty:      resp.Difficulty,
			MeetsDifficulty: resp.MeetsDifficulty,
			Seed:            resp.Seed,
		}, nil
	}
}

// DamageRollHandler rolls damage dice.
func DamageRollHandler(client RulesClient) mcp.ToolHandlerFor[DamageRollInput, DamageRollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DamageRollInput) (*mcp.CallToolResult, DamageRollResult, error) {
		dice := make([]rules.DiceSpec, len(input.Dice))
		for i, spec := range input.Dice {
			dice[i] = rules.DiceSpec{Sides: spec.Sides, Count: spec.Count}
		}
		resp, err := call(ctx, "damage roll", func(ctx context.Context) (rules.DamageRollResponse, error) {
			return client.DamageRoll(ctx, rules.DamageRollRequest{
				Dice:     dice,
				Modifier: input.Modifier,
				Critical: input.Critical,
				Seed:     input.Seed,
			})
		})
		if err != nil {
			return nil, DamageRollResult{}, err
		}
		rolls := make([]DamageDiceRoll, len(resp.Rolls))
		for i, roll := range resp.Rolls {
			rolls[i] = DamageDiceRoll{Sides: roll.Sides, Results: roll.Results, Total: roll.Total}
		}
		return nil, DamageRollResult{
			Rolls:         rolls,
			BaseTotal:     resp.BaseTotal,
			CriticalBonus: resp.CriticalBonus,
			Total:         resp.Total,
			Seed:          resp.Seed,
		}, nil
	}
}

// ArmCriticalHandler arms or clears the critical override.
func ArmCriticalHandler(client RulesClient) mcp.ToolHandlerFor[ArmCriticalInput, ArmCriticalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ArmCriticalInput) (*mcp.CallToolResult, ArmCriticalResult, error) {
		resp, err := call(ctx, "arm critical override", func(ctx context.Context) (rules.ArmCriticalOverrideResponse, error) {
			return client.ArmCriticalOverride(ctx, rules.ArmCriticalOverrideRequest{Disarm: input.Disarm})
		})
		if err != nil {
			return nil, ArmCriticalResult{}, err
		}
		return nil, ArmCriticalResult{Armed: resp.Armed}, nil
	}
}
