package domain

import (
	"context"

	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SetTargetsInput is the set_targets tool input.
type SetTargetsInput struct {
	Targets []RefInput `json:"targets" jsonschema:"targets for the calling user; empty clears them"`
}

// SetTargetsResult is the set_targets tool output.
type SetTargetsResult struct {
	Count int `json:"count" jsonschema:"number of targets recorded"`
}

// ApplyDamageInput is the apply_damage tool input.
type ApplyDamageInput struct {
	Targets        []RefInput     `json:"targets,omitempty" jsonschema:"explicit targets; defaults to the user's targets then selection"`
	Amount         int            `json:"amount" jsonschema:"raw damage before thresholds, at least 1"`
	Source         *RefInput      `json:"source,omitempty" jsonschema:"who dealt the damage"`
	SkipUndo       bool           `json:"skip_undo,omitempty" jsonschema:"do not record an undo entry"`
	ArmorSlots     int            `json:"armor_slots,omitempty" jsonschema:"armor slots to spend on every target"`
	ArmorPerTarget map[string]int `json:"armor_per_target,omitempty" jsonschema:"armor slots keyed by target key"`
}

// ApplyAmountInput is the apply_healing and apply_direct_damage tool input.
type ApplyAmountInput struct {
	Targets  []RefInput `json:"targets,omitempty" jsonschema:"explicit targets; defaults to the user's targets then selection"`
	Amount   int        `json:"amount" jsonschema:"hit points to change, at least 1"`
	Source   *RefInput  `json:"source,omitempty" jsonschema:"who caused the change"`
	SkipUndo bool       `json:"skip_undo,omitempty" jsonschema:"do not record an undo entry"`
}

// TargetOutcome is the change applied to one target.
type TargetOutcome struct {
	Target       RefInput `json:"target" jsonschema:"target reference"`
	Name         string   `json:"name" jsonschema:"target display name"`
	HealthBefore int      `json:"health_before" jsonschema:"damage marked before"`
	HealthAfter  int      `json:"health_after" jsonschema:"damage marked after"`
	HealthMax    int      `json:"health_max" jsonschema:"hit point maximum"`
	Severity     string   `json:"severity,omitempty" jsonschema:"damage tier after armor"`
	Marks        int      `json:"marks,omitempty" jsonschema:"hit points marked by the tier"`
	ArmorApplied int      `json:"armor_applied,omitempty" jsonschema:"armor slots spent"`
}

// SkippedOutcome is a target the operation left alone.
type SkippedOutcome struct {
	Target RefInput `json:"target" jsonschema:"target reference"`
	Name   string   `json:"name" jsonschema:"target display name"`
	Reason string   `json:"reason" jsonschema:"why the target was skipped"`
}

// LedgerResult is the output of the apply tools.
type LedgerResult struct {
	Success bool             `json:"success" jsonschema:"whether any target changed"`
	UndoID  string           `json:"undo_id,omitempty" jsonschema:"id to pass to undo_damage"`
	Applied []TargetOutcome  `json:"applied" jsonschema:"targets changed"`
	Skipped []SkippedOutcome `json:"skipped" jsonschema:"targets skipped"`
}

// UndoInput is the undo_damage tool input.
type UndoInput struct {
	UndoID string `json:"undo_id" jsonschema:"undo id returned by an apply tool"`
}

// RestoredOutcome is one target put back by an undo.
type RestoredOutcome struct {
	Target        RefInput `json:"target" jsonschema:"target reference"`
	Name          string   `json:"name" jsonschema:"target display name"`
	ResolvedBy    string   `json:"resolved_by" jsonschema:"how the target was found"`
	Action        string   `json:"action" jsonschema:"healed, damaged or unchanged"`
	HealthAfter   int      `json:"health_after" jsonschema:"damage marked after the restore"`
	ArmorRestored bool     `json:"armor_restored" jsonschema:"whether spent armor was returned"`
}

// UndoResult is the undo_damage tool output.
type UndoResult struct {
	Success    bool              `json:"success" jsonschema:"whether any target was restored"`
	Kind       string            `json:"kind" jsonschema:"operation undone"`
	Restored   []RestoredOutcome `json:"restored" jsonschema:"targets restored"`
	Unresolved []RefInput        `json:"unresolved" jsonschema:"targets that could not be found"`
}

// ListUndoInput is the list_undo_records tool input.
type ListUndoInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"AIP-160 filter over kind, user_id, source, entries and created_at"`
}

// UndoRecordSummary describes a pending undo record.
type UndoRecordSummary struct {
	ID        string `json:"id" jsonschema:"undo id"`
	Kind      string `json:"kind" jsonschema:"operation kind"`
	UserID    string `json:"user_id,omitempty" jsonschema:"user who applied it"`
	Entries   int    `json:"entries" jsonschema:"number of targets recorded"`
	CreatedAt string `json:"created_at" jsonschema:"RFC 3339 creation time"`
}

// ListUndoResult is the list_undo_records tool output.
type ListUndoResult struct {
	Records []UndoRecordSummary `json:"records" jsonschema:"matching undo records, oldest first"`
}

// SetTargetsTool defines the set_targets tool.
func SetTargetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_targets",
		Description: "Sets the calling user's current targets",
	}
}

// ApplyDamageTool defines the apply_damage tool.
func ApplyDamageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "apply_damage",
		Description: "Applies damage through thresholds and armor and records an undo entry",
	}
}

// ApplyHealingTool defines the apply_healing tool.
func ApplyHealingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "apply_healing",
		Description: "Clears marked hit points and records an undo entry",
	}
}

// ApplyDirectDamageTool defines the apply_direct_damage tool.
func ApplyDirectDamageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "apply_direct_damage",
		Description: "Marks hit points directly, ignoring thresholds and armor",
	}
}

// UndoDamageTool defines the undo_damage tool.
func UndoDamageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "undo_damage",
		Description: "Restores targets to their state before a recorded damage or healing",
	}
}

// ListUndoTool defines the list_undo_records tool.
func ListUndoTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_undo_records",
		Description: "Lists pending undo records",
	}
}

// SetTargetsHandler records targets for the calling user.
func SetTargetsHandler(client RulesClient) mcp.ToolHandlerFor[SetTargetsInput, SetTargetsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetTargetsInput) (*mcp.CallToolResult, SetTargetsResult, error) {
		resp, err := call(ctx, "set targets", func(ctx context.Context) (rules.SetTargetsResponse, error) {
			return client.SetTargets(ctx, rules.SetTargetsRequest{Targets: refsToWire(input.Targets)})
		})
		if err != nil {
			return nil, SetTargetsResult{}, err
		}
		return nil, SetTargetsResult{Count: resp.Count}, nil
	}
}

// ApplyDamageHandler applies threshold damage.
func ApplyDamageHandler(client RulesClient) mcp.ToolHandlerFor[ApplyDamageInput, LedgerResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplyDamageInput) (*mcp.CallToolResult, LedgerResult, error) {
		resp, err := call(ctx, "apply damage", func(ctx context.Context) (rules.LedgerResponse, error) {
			return client.ApplyDamage(ctx, rules.ApplyDamageRequest{
				Targets:        refsToWire(input.Targets),
				Amount:         input.Amount,
				Source:         optionalRef(input.Source),
				SkipUndo:       input.SkipUndo,
				ArmorSlots:     input.ArmorSlots,
				ArmorPerTarget: input.ArmorPerTarget,
			})
		})
		if err != nil {
			return nil, LedgerResult{}, err
		}
		return nil, ledgerResult(resp), nil
	}
}

// ApplyHealingHandler heals marked hit points.
func ApplyHealingHandler(client RulesClient) mcp.ToolHandlerFor[ApplyAmountInput, LedgerResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplyAmountInput) (*mcp.CallToolResult, LedgerResult, error) {
		resp, err := call(ctx, "apply healing", func(ctx context.Context) (rules.LedgerResponse, error) {
			return client.ApplyHealing(ctx, amountRequest(input))
		})
		if err != nil {
			return nil, LedgerResult{}, err
		}
		return nil, ledgerResult(resp), nil
	}
}

// ApplyDirectDamageHandler marks hit points directly.
func ApplyDirectDamageHandler(client RulesClient) mcp.ToolHandlerFor[ApplyAmountInput, LedgerResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplyAmountInput) (*mcp.CallToolResult, LedgerResult, error) {
		resp, err := call(ctx, "apply direct damage", func(ctx context.Context) (rules.LedgerResponse, error) {
			return client.ApplyDirectDamage(ctx, amountRequest(input))
		})
		if err != nil {
			return nil, LedgerResult{}, err
		}
		return nil, ledgerResult(resp), nil
	}
}

// UndoDamageHandler restores an undo record.
func UndoDamageHandler(client RulesClient) mcp.ToolHandlerFor[UndoInput, UndoResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UndoInput) (*mcp.CallToolResult, UndoResult, error) {
		resp, err := call(ctx, "undo damage", func(ctx context.Context) (rules.UndoResponse, error) {
			return client.Undo(ctx, rules.UndoRequest{UndoID: input.UndoID})
		})
		if err != nil {
			return nil, UndoResult{}, err
		}
		result := UndoResult{
			Success:    resp.Success,
			Kind:       resp.Kind,
			Restored:   make([]RestoredOutcome, len(resp.Restored)),
			Unresolved: make([]RefInput, len(resp.Unresolved)),
		}
		for i, r := range resp.Restored {
			result.Restored[i] = RestoredOutcome{
				Target:        refFromWire(r.Target),
				Name:          r.Name,
				ResolvedBy:    r.ResolvedBy,
				Action:        r.Action,
				HealthAfter:   r.HealthAfter,
				ArmorRestored: r.ArmorRestored,
			}
		}
		for i, ref := range resp.Unresolved {
			result.Unresolved[i] = refFromWire(ref)
		}
		return nil, result, nil
	}
}

// ListUndoHandler lists pending undo records.
func ListUndoHandler(client RulesClient) mcp.ToolHandlerFor[ListUndoInput, ListUndoResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListUndoInput) (*mcp.CallToolResult, ListUndoResult, error) {
		resp, err := call(ctx, "list undo records", func(ctx context.Context) (rules.ListUndoRecordsResponse, error) {
			return client.ListUndoRecords(ctx, rules.ListUndoRecordsRequest{Filter: input.Filter})
		})
		if err != nil {
			return nil, ListUndoResult{}, err
		}
		result := ListUndoResult{Records: make([]UndoRecordSummary, len(resp.Records))}
		for i, record := range resp.Records {
			result.Records[i] = UndoRecordSummary{
				ID:        record.ID,
				Kind:      record.Kind,
				UserID:    record.UserID,
				Entries:   len(record.Entries),
				CreatedAt: record.CreatedAt,
			}
		}
		return nil, result, nil
	}
}

func optionalRef(ref *RefInput) *rules.Ref {
	if ref == nil {
		return nil
	}
	wire := refToWire(*ref)
	return &wire
}

func amountRequest(input ApplyAmountInput) rules.ApplyHealingRequest {
	return rules.ApplyHealingRequest{
		Targets:  refsToWire(input.Targets),
		Amount:   input.Amount,
		Source:   optionalRef(input.Source),
		SkipUndo: input.SkipUndo,
	}
}

func ledgerResult(resp rules.LedgerResponse) LedgerResult {
	result := LedgerResult{
		Success: resp.Success,
		UndoID:  resp.UndoID,
		Applied: make([]TargetOutcome, len(resp.Applied)),
		Skipped: make([]SkippedOutcome, len(resp.Skipped)),
	}
	for i, a := range resp.Applied {
		result.Applied[i] = TargetOutcome{
			Target:       refFromWire(a.Target),
			Name:         a.Name,
			HealthBefore: a.HealthBefore,
			HealthAfter:  a.HealthAfter,
			HealthMax:    a.HealthMax,
			Severity:     a.Severity,
			Marks:        a.Marks,
			ArmorApplied: a.ArmorApplied,
		}
	}
	for i, s := range resp.Skipped {
		result.Skipped[i] = SkippedOutcome{Target: refFromWire(s.Target), Name: s.Name, Reason: s.Reason}
	}
	return result
}
