package domain

import (
	"context"
	"fmt"

	"github.com/louisbranch/duality-engine/internal/platform/timeouts"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RulesClient is the part of the rules service the MCP tools call.
type RulesClient interface {
	CancelDice(ctx context.Context, req rules.CancelDiceRequest, opts ...grpc.CallOption) (rules.CancelDiceResponse, error)
	DualityRoll(ctx context.Context, req rules.DualityRollRequest, opts ...grpc.CallOption) (rules.DualityRollResponse, error)
	AdversaryRoll(ctx context.Context, req rules.AdversaryRollRequest, opts ...grpc.CallOption) (rules.AdversaryRollResponse, error)
	DamageRoll(ctx context.Context, req rules.DamageRollRequest, opts ...grpc.CallOption) (rules.DamageRollResponse, error)
	ArmCriticalOverride(ctx context.Context, req rules.ArmCriticalOverrideRequest, opts ...grpc.CallOption) (rules.ArmCriticalOverrideResponse, error)
	SetTargets(ctx context.Context, req rules.SetTargetsRequest, opts ...grpc.CallOption) (rules.SetTargetsResponse, error)
	ApplyDamage(ctx context.Context, req rules.ApplyDamageRequest, opts ...grpc.CallOption) (rules.LedgerResponse, error)
	ApplyHealing(ctx context.Context, req rules.ApplyHealingRequest, opts ...grpc.CallOption) (rules.LedgerResponse, error)
	ApplyDirectDamage(ctx context.Context, req rules.ApplyDirectDamageRequest, opts ...grpc.CallOption) (rules.LedgerResponse, error)
	Undo(ctx context.Context, req rules.UndoRequest, opts ...grpc.CallOption) (rules.UndoResponse, error)
	ListUndoRecords(ctx context.Context, req rules.ListUndoRecordsRequest, opts ...grpc.CallOption) (rules.ListUndoRecordsResponse, error)
}

var _ RulesClient = (*rules.Client)(nil)

// call runs fn under the per-call timeout and turns gRPC failures into
// tool errors carrying the server's message.
func call[Resp any](ctx context.Context, op string, fn func(context.Context) (Resp, error)) (Resp, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	resp, err := fn(runCtx)
	if err != nil {
		var zero Resp
		if st, ok := status.FromError(err); ok {
			return zero, fmt.Errorf("%s failed (%s): %s", op, st.Code(), st.Message())
		}
		return zero, fmt.Errorf("%s failed: %w", op, err)
	}
	return resp, nil
}

// RefInput identifies a damage target.
type RefInput struct {
	ActorID string `json:"actor_id,omitempty" jsonschema:"persistent actor id; with scene_id and token_id it is the token's actor"`
	SceneID string `json:"scene_id,omitempty" jsonschema:"scene holding the token"`
	TokenID string `json:"token_id,omitempty" jsonschema:"placed token id; set for token targets"`
	Name    string `json:"name,omitempty" jsonschema:"display name used when the token must be re-resolved"`
	Type    string `json:"type,omitempty" jsonschema:"actor type: character, adversary or environment"`
}

func refsToWire(refs []RefInput) []rules.Ref {
	if len(refs) == 0 {
		return nil
	}
	out := make([]rules.Ref, len(refs))
	for i, ref := range refs {
		out[i] = refToWire(ref)
	}
	return out
}

func refToWire(ref RefInput) rules.Ref {
	return rules.Ref{
		ActorID: ref.ActorID,
		SceneID: ref.SceneID,
		TokenID: ref.TokenID,
		Name:    ref.Name,
		Type:    ref.Type,
	}
}

func refFromWire(ref rules.Ref) RefInput {
	return RefInput{
		ActorID: ref.ActorID,
		SceneID: ref.SceneID,
		TokenID: ref.TokenID,
		Name:    ref.Name,
		Type:    ref.Type,
	}
}
