package ledger

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/platform/i18n"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/notify"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit/events"
)

// ApplyDamage classifies request.Amount against each target's thresholds,
// spends requested armor slots and marks the resulting hit points.
//
// Invalid amounts or armor requests, an empty target set and permission
// denials are returned as errors before any target is touched. Per-target
// problems are reported in Result.Skipped.
func (l *Ledger) ApplyDamage(ctx context.Context, request DamageRequest) (Result, error) {
	if err := validateAmount(request.Amount); err != nil {
		return Result{}, err
	}
	if err := validateArmor(request.Armor); err != nil {
		return Result{}, err
	}

	return l.run(ctx, operation{
		kind:     KindDamage,
		name:     "ApplyDamage",
		amount:   request.Amount,
		targets:  request.Targets,
		source:   request.Source,
		skipUndo: request.SkipUndo,
		plan: func(ctx context.Context, state actor.State) (mutation, SkipReason) {
			if state.Health == nil {
				return mutation{}, SkipMissingHealth
			}
			if state.Thresholds == nil {
				return mutation{}, SkipMissingThresholds
			}
			current := state.Health.Value

			var armor damage.ArmorState
			requested := 0
			if state.HasArmor() {
				armor = *state.Armor
				requested = l.armorSlotsFor(ctx, request.Armor, state)
			}
			eval := damage.Evaluate(request.Amount, *state.Thresholds, requested, armor)

			next := min(state.Health.Max, current+eval.FinalMarks)
			if next < current {
				next = current
			}
			if next == current && eval.ArmorApplied == 0 {
				return mutation{}, SkipSaturated
			}

			m := mutation{
				patch: actor.Patch{actor.FieldHitPoints: next},
				result: TargetResult{
					HealthBefore: current,
					HealthAfter:  next,
					HealthMax:    state.Health.Max,
					Severity:     eval.Severity,
					Marks:        eval.Marks,
					ArmorApplied: eval.ArmorApplied,
				},
				snapshot: Snapshot{OriginalHealth: current},
			}
			if eval.ArmorApplied > 0 {
				original := armor.Current
				m.patch[actor.FieldArmor] = armor.Current + eval.ArmorApplied
				m.result.ArmorBefore = armor.Current
				m.result.ArmorAfter = armor.Current + eval.ArmorApplied
				m.snapshot.OriginalArmor = &original
				m.snapshot.ArmorApplied = eval.ArmorApplied
			}
			return m, ""
		},
	})
}

// ApplyHealing clears up to request.Amount marked hit points on each
// target. Targets with nothing marked are skipped.
func (l *Ledger) ApplyHealing(ctx context.Context, request HealRequest) (Result, error) {
	if err := validateAmount(request.Amount); err != nil {
		return Result{}, err
	}
	return l.run(ctx, healOperation(request))
}

func healOperation(request HealRequest) operation {
	return operation{
		kind:     KindHeal,
		name:     "ApplyHealing",
		amount:   request.Amount,
		targets:  request.Targets,
		source:   request.Source,
		skipUndo: request.SkipUndo,
		plan: func(_ context.Context, state actor.State) (mutation, SkipReason) {
			if state.Health == nil {
				return mutation{}, SkipMissingHealth
			}
			current := state.Health.Value
			if current <= 0 {
				return mutation{}, SkipUnharmed
			}
			next := max(0, current-request.Amount)
			return mutation{
				patch: actor.Patch{actor.FieldHitPoints: next},
				result: TargetResult{
					HealthBefore: current,
					HealthAfter:  next,
					HealthMax:    state.Health.Max,
				},
				snapshot: Snapshot{OriginalHealth: current},
			}, ""
		},
	}
}

// ApplyDirectDamage marks request.Amount hit points on each target,
// bypassing thresholds and armor.
func (l *Ledger) ApplyDirectDamage(ctx context.Context, request DirectDamageRequest) (Result, error) {
	if err := validateAmount(request.Amount); err != nil {
		return Result{}, err
	}
	return l.run(ctx, directDamageOperation(request))
}

func directDamageOperation(request DirectDamageRequest) operation {
	return operation{
		kind:     KindDirectDamage,
		name:     "ApplyDirectDamage",
		amount:   request.Amount,
		targets:  request.Targets,
		source:   request.Source,
		skipUndo: request.SkipUndo,
		plan: func(_ context.Context, state actor.State) (mutation, SkipReason) {
			if state.Health == nil {
				return mutation{}, SkipMissingHealth
			}
			current := state.Health.Value
			next := min(state.Health.Max, current+request.Amount)
			if next <= current {
				return mutation{}, SkipSaturated
			}
			return mutation{
				patch: actor.Patch{actor.FieldHitPoints: next},
				result: TargetResult{
					HealthBefore: current,
					HealthAfter:  next,
					HealthMax:    state.Health.Max,
				},
				snapshot: Snapshot{OriginalHealth: current},
			}, ""
		},
	}
}

func validateArmor(request ArmorRequest) error {
	invalid := func(message string) error {
		return apperrors.New(apperrors.CodeRulesInvalidArmorRequest, message)
	}
	if request.Slots < 0 {
		return invalid(fmt.Sprintf("armor slots must be non-negative, got %d", request.Slots))
	}
	if request.Slots > 0 && request.IsMap() {
		return invalid("armor slots must be a single count or a per-target map, not both")
	}
	for key, slots := range request.PerTarget {
		if slots < 0 {
			return invalid(fmt.Sprintf("armor slots for %s must be non-negative", key))
		}
	}
	for name, slots := range request.ByName {
		if slots < 0 {
			return invalid(fmt.Sprintf("armor slots for %s must be non-negative", name))
		}
	}
	return nil
}

// armorSlotsFor looks up the slots requested for one target: the single
// count, else the per-target map by key, else the deprecated name map.
func (l *Ledger) armorSlotsFor(ctx context.Context, request ArmorRequest, state actor.State) int {
	if !request.IsMap() {
		return request.Slots
	}
	if slots, ok := request.PerTarget[state.Ref.Key()]; ok {
		return slots
	}
	if slots, ok := request.ByName[state.Name]; ok {
		l.logger.Printf("ledger damage: armor slots for %s matched by name", state.Name)
		l.notifier.Notify(ctx, notify.LevelWarn, i18n.KeyArmorByNameDeprecated, state.Name)
		return slots
	}
	return 0
}

func auditEventName(kind Kind) string {
	switch kind {
	case KindHeal:
		return events.HealingApplied
	case KindDirectDamage:
		return events.DirectDamageApplied
	default:
		return events.DamageApplied
	}
}
