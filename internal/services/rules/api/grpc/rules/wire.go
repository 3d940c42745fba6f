package rules

import (
	"time"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
)

// Ref names a damage target. A non-empty TokenID makes it a token ref.
type Ref struct {
	ActorID string `json:"actor_id,omitempty"`
	SceneID string `json:"scene_id,omitempty"`
	TokenID string `json:"token_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Die is one rolled die.
type Die struct {
	Term  int  `json:"term"`
	Sides int  `json:"sides"`
	Value int  `json:"value"`
	Kept  bool `json:"kept"`
}

// DiceSpec is a group of same-sided dice.
type DiceSpec struct {
	Sides int `json:"sides"`
	Count int `json:"count"`
}

// DiceRoll is a rolled dice group.
type DiceRoll struct {
	Sides   int   `json:"sides"`
	Results []int `json:"results"`
	Total   int   `json:"total"`
}

// Health is a hit point track.
type Health struct {
	Value int `json:"value"`
	Max   int `json:"max"`
}

// Thresholds are damage breakpoints.
type Thresholds struct {
	Major  int `json:"major"`
	Severe int `json:"severe"`
}

// Armor is an armor slot track.
type Armor struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

type CancelDiceRequest struct {
	Advantage    map[string]int `json:"advantage,omitempty"`
	Disadvantage map[string]int `json:"disadvantage,omitempty"`
}

type CancelDiceResponse struct {
	Advantage    map[string]int `json:"advantage"`
	Disadvantage map[string]int `json:"disadvantage"`
	Net          int            `json:"net"`
	Formula      string         `json:"formula"`
}

type DualityRollRequest struct {
	HopeFace     int            `json:"hope_face,omitempty"`
	FearFace     int            `json:"fear_face,omitempty"`
	Advantage    map[string]int `json:"advantage,omitempty"`
	Disadvantage map[string]int `json:"disadvantage,omitempty"`
	Modifier     int            `json:"modifier,omitempty"`
	Reaction     bool           `json:"reaction,omitempty"`
	Difficulty   *int           `json:"difficulty,omitempty"`
	Seed         *int64         `json:"seed,omitempty"`
}

type DualityRollResponse struct {
	Hope            int            `json:"hope"`
	Fear            int            `json:"fear"`
	Total           int            `json:"total"`
	Category        string         `json:"category"`
	Crit            bool           `json:"crit"`
	Forced          bool           `json:"forced"`
	Formula         string         `json:"formula"`
	Advantage       map[string]int `json:"advantage"`
	Disadvantage    map[string]int `json:"disadvantage"`
	Modifier        int            `json:"modifier"`
	Dice            []Die          `json:"dice"`
	Difficulty      *int           `json:"difficulty,omitempty"`
	MeetsDifficulty bool           `json:"meets_difficulty"`
	Result          string         `json:"result"`
	Seed            int64          `json:"seed"`
}

type AdversaryRollRequest struct {
	Face         int    `json:"face,omitempty"`
	Advantage    int    `json:"advantage,omitempty"`
	Disadvantage int    `json:"disadvantage,omitempty"`
	Modifier     int    `json:"modifier,omitempty"`
	Difficulty   *int   `json:"difficulty,omitempty"`
	Seed         *int64 `json:"seed,omitempty"`
}

type AdversaryRollResponse struct {
	Face            int    `json:"face"`
	Rolls           []int  `json:"rolls"`
	Kept            int    `json:"kept"`
	Keep            string `json:"keep"`
	Modifier        int    `json:"modifier"`
	Total           int    `json:"total"`
	Formula         string `json:"formula"`
	Critical        bool   `json:"critical"`
	Dice            []Die  `json:"dice"`
	Difficulty      *int   `json:"difficulty,omitempty"`
	MeetsDifficulty bool   `json:"meets_difficulty"`
	Seed            int64  `json:"seed"`
}

type DamageRollRequest struct {
	Dice     []DiceSpec `json:"dice"`
	Modifier int        `json:"modifier,omitempty"`
	Critical bool       `json:"critical,omitempty"`
	Seed     *int64     `json:"seed,omitempty"`
}

type DamageRollResponse struct {
	Rolls         []DiceRoll `json:"rolls"`
	BaseTotal     int        `json:"base_total"`
	Modifier      int        `json:"modifier"`
	CriticalBonus int        `json:"critical_bonus"`
	Total         int        `json:"total"`
	Seed          int64      `json:"seed"`
}

type ArmCriticalOverrideRequest struct {
	Disarm bool `json:"disarm,omitempty"`
}

type ArmCriticalOverrideResponse struct {
	Armed bool `json:"armed"`
}

type SetTargetsRequest struct {
	Targets []Ref `json:"targets"`
}

type SetTargetsResponse struct {
	Count int `json:"count"`
}

type ApplyDamageRequest struct {
	Targets        []Ref          `json:"targets,omitempty"`
	Amount         int            `json:"amount"`
	Source         *Ref           `json:"source,omitempty"`
	SkipUndo       bool           `json:"skip_undo,omitempty"`
	ArmorSlots     int            `json:"armor_slots,omitempty"`
	ArmorPerTarget map[string]int `json:"armor_per_target,omitempty"`
	// ArmorByName is keyed by display name. Deprecated: use ArmorPerTarget.
	ArmorByName map[string]int `json:"armor_by_name,omitempty"`
}

type ApplyHealingRequest struct {
	Targets  []Ref `json:"targets,omitempty"`
	Amount   int   `json:"amount"`
	Source   *Ref  `json:"source,omitempty"`
	SkipUndo bool  `json:"skip_undo,omitempty"`
}

type ApplyDirectDamageRequest = ApplyHealingRequest

// TargetResult is one mutated target.
type TargetResult struct {
	Target       Ref    `json:"target"`
	Name         string `json:"name"`
	HealthBefore int    `json:"health_before"`
	HealthAfter  int    `json:"health_after"`
	HealthMax    int    `json:"health_max"`
	Severity     string `json:"severity,omitempty"`
	Marks        int    `json:"marks,omitempty"`
	ArmorApplied int    `json:"armor_applied,omitempty"`
	ArmorBefore  int    `json:"armor_before,omitempty"`
	ArmorAfter   int    `json:"armor_after,omitempty"`
}

// SkippedTarget is a target left untouched.
type SkippedTarget struct {
	Target Ref    `json:"target"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type LedgerResponse struct {
	Success bool            `json:"success"`
	Kind    string          `json:"kind"`
	UndoID  string          `json:"undo_id,omitempty"`
	Applied []TargetResult  `json:"applied"`
	Skipped []SkippedTarget `json:"skipped"`
}

type UndoRequest struct {
	UndoID string `json:"undo_id"`
}

// RestoredTarget is an undo entry that was put back.
type RestoredTarget struct {
	Target        Ref    `json:"target"`
	Name          string `json:"name"`
	ResolvedBy    string `json:"resolved_by"`
	Action        string `json:"action"`
	HealthBefore  int    `json:"health_before"`
	HealthAfter   int    `json:"health_after"`
	ArmorRestored bool   `json:"armor_restored"`
}

type UndoResponse struct {
	Success    bool             `json:"success"`
	Kind       string           `json:"kind"`
	Restored   []RestoredTarget `json:"restored"`
	Unresolved []Ref            `json:"unresolved"`
}

type ListUndoRecordsRequest struct {
	Filter string `json:"filter,omitempty"`
}

// Snapshot is a target's state before an operation.
type Snapshot struct {
	Target         Ref    `json:"target"`
	Name           string `json:"name"`
	OriginalHealth int    `json:"original_health"`
	OriginalArmor  *int   `json:"original_armor,omitempty"`
	ArmorApplied   int    `json:"armor_applied,omitempty"`
}

// UndoRecord is a stored undo record.
type UndoRecord struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	UserID    string     `json:"user_id,omitempty"`
	Source    *Ref       `json:"source,omitempty"`
	Entries   []Snapshot `json:"entries"`
	CreatedAt string     `json:"created_at"`
}

type ListUndoRecordsResponse struct {
	Records []UndoRecord `json:"records"`
}

type PutActorRequest struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Health     *Health     `json:"health,omitempty"`
	Thresholds *Thresholds `json:"thresholds,omitempty"`
	Armor      *Armor      `json:"armor,omitempty"`
}

type PutSceneRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type PutTokenRequest struct {
	SceneID    string      `json:"scene_id"`
	ID         string      `json:"id"`
	ActorID    string      `json:"actor_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	Type       string      `json:"type,omitempty"`
	Linked     bool        `json:"linked,omitempty"`
	Health     *Health     `json:"health,omitempty"`
	Thresholds *Thresholds `json:"thresholds,omitempty"`
	Armor      *Armor      `json:"armor,omitempty"`
}

type DeleteTokenRequest struct {
	SceneID string `json:"scene_id"`
	TokenID string `json:"token_id"`
}

type ActivateSceneRequest struct {
	SceneID string `json:"scene_id"`
}

// Empty is the response of calls that return nothing.
type Empty struct{}

// Domain returns the actor ref for r.
func (r Ref) Domain() actor.Ref {
	if r.TokenID != "" {
		return actor.TokenInstance(r.SceneID, r.TokenID, r.ActorID, r.Name, actor.Type(r.Type))
	}
	return actor.Persistent(r.ActorID)
}

func refFromDomain(ref actor.Ref) Ref {
	return Ref{
		ActorID: ref.ActorID,
		SceneID: ref.SceneID,
		TokenID: ref.TokenID,
		Name:    ref.Name,
		Type:    string(ref.Type),
	}
}

func refsToDomain(refs []Ref) []actor.Ref {
	if len(refs) == 0 {
		return nil
	}
	out := make([]actor.Ref, len(refs))
	for i, ref := range refs {
		out[i] = ref.Domain()
	}
	return out
}

func optionalRef(ref *Ref) *actor.Ref {
	if ref == nil {
		return nil
	}
	domain := ref.Domain()
	return &domain
}

func diceFromDomain(results []dice.DieResult) []Die {
	out := make([]Die, len(results))
	for i, r := range results {
		out[i] = Die{Term: r.Term, Sides: r.Sides, Value: r.Value, Kept: r.Kept}
	}
	return out
}

func keepName(keep dice.Keep) string {
	switch keep {
	case dice.KeepHighest:
		return "highest"
	case dice.KeepLowest:
		return "lowest"
	default:
		return "all"
	}
}

func (h *Health) domain() *actor.Health {
	if h == nil {
		return nil
	}
	return &actor.Health{Value: h.Value, Max: h.Max}
}

func (t *Thresholds) domain() *damage.Thresholds {
	if t == nil {
		return nil
	}
	return &damage.Thresholds{Major: t.Major, Severe: t.Severe}
}

func (a *Armor) domain() *damage.ArmorState {
	if a == nil {
		return nil
	}
	return &damage.ArmorState{Current: a.Current, Max: a.Max}
}

func ledgerResponse(result ledger.Result) LedgerResponse {
	resp := LedgerResponse{
		Success: result.Success,
		Kind:    string(result.Kind),
		UndoID:  result.UndoID,
		Applied: make([]TargetResult, 0, len(result.Applied)),
		Skipped: make([]SkippedTarget, 0, len(result.Skipped)),
	}
	for _, applied := range result.Applied {
		item := TargetResult{
			Target:       refFromDomain(applied.Ref),
			Name:         applied.Name,
			HealthBefore: applied.HealthBefore,
			HealthAfter:  applied.HealthAfter,
			HealthMax:    applied.HealthMax,
			Marks:        applied.Marks,
			ArmorApplied: applied.ArmorApplied,
			ArmorBefore:  applied.ArmorBefore,
			ArmorAfter:   applied.ArmorAfter,
		}
		if result.Kind == ledger.KindDamage {
			item.Severity = applied.Severity.String()
		}
		resp.Applied = append(resp.Applied, item)
	}
	for _, skipped := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedTarget{
			Target: refFromDomain(skipped.Ref),
			Name:   skipped.Name,
			Reason: string(skipped.Reason),
		})
	}
	return resp
}

func undoResponse(result ledger.RestoreResult) UndoResponse {
	resp := UndoResponse{
		Success:    result.Success,
		Kind:       string(result.Kind),
		Restored:   make([]RestoredTarget, 0, len(result.Restored)),
		Unresolved: make([]Ref, 0, len(result.Unresolved)),
	}
	for _, restored := range result.Restored {
		resp.Restored = append(resp.Restored, RestoredTarget{
			Target:        refFromDomain(restored.Ref),
			Name:          restored.Name,
			ResolvedBy:    string(restored.ResolvedBy),
			Action:        string(restored.Action),
			HealthBefore:  restored.HealthBefore,
			HealthAfter:   restored.HealthAfter,
			ArmorRestored: restored.ArmorRestored,
		})
	}
	for _, entry := range result.Unresolved {
		resp.Unresolved = append(resp.Unresolved, refFromDomain(entry.Ref))
	}
	return resp
}

func undoRecord(record ledger.Record) UndoRecord {
	out := UndoRecord{
		ID:        record.ID,
		Kind:      string(record.Kind),
		UserID:    record.UserID,
		Entries:   make([]Snapshot, len(record.Entries)),
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if record.Source != nil {
		source := refFromDomain(*record.Source)
		out.Source = &source
	}
	for i, entry := range record.Entries {
		out.Entries[i] = Snapshot{
			Target:         refFromDomain(entry.Ref),
			Name:           entry.Name,
			OriginalHealth: entry.OriginalHealth,
			OriginalArmor:  entry.OriginalArmor,
			ArmorApplied:   entry.ArmorApplied,
		}
	}
	return out
}
