package ledger

import (
	"time"

	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
)

// Kind is the ledger operation an undo record reverses.
type Kind string

const (
	KindDamage       Kind = "damage"
	KindHeal         Kind = "heal"
	KindDirectDamage Kind = "direct_damage"
)

// ArmorRequest asks for armor slots to be spent against damage. It is
// either a single Slots count applied to every armor-capable target or a
// per-target map, never both.
type ArmorRequest struct {
	Slots int
	// PerTarget is keyed by actor.Ref.Key.
	PerTarget map[string]int
	// ByName is keyed by display name. Deprecated: names are not unique.
	ByName map[string]int
}

// IsMap reports whether the request uses per-target counts.
func (a ArmorRequest) IsMap() bool {
	return len(a.PerTarget) > 0 || len(a.ByName) > 0
}

// DamageRequest applies threshold-classified damage.
type DamageRequest struct {
	// Targets overrides the caller's current targets and selection.
	Targets  []actor.Ref
	Amount   int
	Source   *actor.Ref
	SkipUndo bool
	Armor    ArmorRequest
}

// HealRequest clears marked hit points.
type HealRequest struct {
	Targets  []actor.Ref
	Amount   int
	Source   *actor.Ref
	SkipUndo bool
}

// DirectDamageRequest marks hit points without thresholds or armor.
type DirectDamageRequest struct {
	Targets  []actor.Ref
	Amount   int
	Source   *actor.Ref
	SkipUndo bool
}

// TargetResult describes one mutated target.
type TargetResult struct {
	Ref          actor.Ref
	Name         string
	HealthBefore int
	HealthAfter  int
	HealthMax    int
	// Severity and Marks are set for threshold damage only.
	Severity     damage.Severity
	Marks        int
	ArmorApplied int
	ArmorBefore  int
	ArmorAfter   int
}

// SkipReason explains why a target was left untouched.
type SkipReason string

const (
	SkipLoadFailed        SkipReason = "load_failed"
	SkipMissingHealth     SkipReason = "missing_health"
	SkipMissingThresholds SkipReason = "missing_thresholds"
	SkipSaturated         SkipReason = "saturated"
	SkipUnharmed          SkipReason = "unharmed"
	SkipPersistFailed     SkipReason = "persist_failed"
)

// SkippedTarget is a target the batch passed over.
type SkippedTarget struct {
	Ref    actor.Ref
	Name   string
	Reason SkipReason
	Err    error
}

// Result is the outcome of a ledger operation. Success is true when at
// least one target changed.
type Result struct {
	Success bool
	Kind    Kind
	// UndoID is empty when nothing changed or undo was skipped.
	UndoID  string
	Applied []TargetResult
	Skipped []SkippedTarget
}

// Snapshot is a target's state before an operation touched it.
type Snapshot struct {
	Ref            actor.Ref
	Name           string
	OriginalHealth int
	// OriginalArmor is set only when the operation marked armor slots.
	OriginalArmor *int
	ArmorApplied  int
}

// Record is a stored undo record.
type Record struct {
	ID        string
	Kind      Kind
	UserID    string
	Source    *actor.Ref
	Entries   []Snapshot
	CreatedAt time.Time
}

// Resolution names how an undo entry found its live target.
type Resolution string

const (
	ResolvedPersistent Resolution = "persistent"
	ResolvedToken      Resolution = "token"
	ResolvedByActor    Resolution = "actor"
	ResolvedByName     Resolution = "name"
)

// RestoreAction is what restore did to a target's hit points.
type RestoreAction string

const (
	RestoreHealed    RestoreAction = "healed"
	RestoreDamaged   RestoreAction = "damaged"
	RestoreUnchanged RestoreAction = "unchanged"
)

// RestoredTarget is an undo entry that was put back.
type RestoredTarget struct {
	Ref           actor.Ref
	Name          string
	ResolvedBy    Resolution
	Action        RestoreAction
	HealthBefore  int
	HealthAfter   int
	ArmorRestored bool
}

// RestoreResult is the outcome of Restore. Success is true when at least
// one entry was restored, in which case the record was deleted.
type RestoreResult struct {
	Success    bool
	Kind       Kind
	Restored   []RestoredTarget
	Unresolved []Snapshot
}
