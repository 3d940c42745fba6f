package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/duality"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/pool"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "actor":
		return r.runActorStep(ctx, state, step.Args)
	case "scene":
		return r.runSceneStep(ctx, step.Args)
	case "token":
		return r.runTokenStep(ctx, state, step.Args)
	case "delete_token":
		return r.runDeleteTokenStep(ctx, state, step.Args)
	case "target":
		return r.runTargetStep(ctx, state, step.Args)
	case "roll":
		return r.runRollStep(state, step.Args, false)
	case "reaction":
		return r.runRollStep(state, step.Args, true)
	case "adversary_roll":
		return r.runAdversaryRollStep(step.Args)
	case "damage_roll":
		return r.runDamageRollStep(state, step.Args)
	case "arm_critical":
		return r.runArmCriticalStep(step.Args)
	case "damage":
		return r.runDamageStep(ctx, state, step.Args)
	case "heal":
		return r.runHealStep(ctx, state, step.Args)
	case "direct_damage":
		return r.runDirectDamageStep(ctx, state, step.Args)
	case "undo":
		return r.runUndoStep(ctx, state, step.Args)
	case "expect_hp":
		return r.runExpectHPStep(ctx, state, step.Args)
	case "expect_armor":
		return r.runExpectArmorStep(ctx, state, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runActorStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	id := requiredString(args, "id")
	if id == "" {
		return r.failf("actor id is required")
	}
	record := storage.ActorRecord{
		ID:   id,
		Name: optionalString(args, "name", id),
		Type: actor.Type(optionalString(args, "type", string(actor.TypeCharacter))),
	}
	record.Health, record.Thresholds, record.Armor = readActorParts(args)
	if err := r.store.PutActor(ctx, record); err != nil {
		return fmt.Errorf("put actor %s: %w", id, err)
	}
	state.actors[id] = record
	return nil
}

// readActorParts reads hp/hp_max, major/severe and armor/armor_max. A part
// is nil when none of its keys are present.
func readActorParts(args map[string]any) (*actor.Health, *damage.Thresholds, *damage.ArmorState) {
	var health *actor.Health
	if maxHP, ok := readInt(args, "hp_max"); ok {
		health = &actor.Health{Value: optionalInt(args, "hp", 0), Max: maxHP}
	}
	var thresholds *damage.Thresholds
	_, hasMajor := readInt(args, "major")
	_, hasSevere := readInt(args, "severe")
	if hasMajor || hasSevere {
		thresholds = &damage.Thresholds{
			Major:  optionalInt(args, "major", 0),
			Severe: optionalInt(args, "severe", 0),
		}
	}
	var armor *damage.ArmorState
	if maxArmor, ok := readInt(args, "armor_max"); ok {
		armor = &damage.ArmorState{Current: optionalInt(args, "armor", 0), Max: maxArmor}
	}
	return health, thresholds, armor
}

func (r *Runner) runSceneStep(ctx context.Context, args map[string]any) error {
	id := requiredString(args, "id")
	if id == "" {
		return r.failf("scene id is required")
	}
	if err := r.store.PutScene(ctx, storage.SceneRecord{ID: id, Name: optionalString(args, "name", id)}); err != nil {
		return fmt.Errorf("put scene %s: %w", id, err)
	}
	if optionalBool(args, "active", true) {
		if err := r.store.ActivateScene(ctx, id); err != nil {
			return fmt.Errorf("activate scene %s: %w", id, err)
		}
	}
	return nil
}

func (r *Runner) runTokenStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	sceneID := requiredString(args, "scene")
	tokenID := requiredString(args, "id")
	actorID := optionalString(args, "actor", "")
	record := storage.TokenRecord{
		SceneID: sceneID,
		ID:      tokenID,
		ActorID: actorID,
		Name:    optionalString(args, "name", ""),
		Type:    actor.Type(optionalString(args, "type", "")),
		Linked:  optionalBool(args, "linked", actorID != ""),
	}
	if base, ok := state.actors[actorID]; ok {
		if record.Name == "" {
			record.Name = base.Name
		}
		if record.Type == "" {
			record.Type = base.Type
		}
	} else if actorID != "" {
		return r.failf("token %s references unknown actor %s", tokenID, actorID)
	}
	if record.Name == "" {
		record.Name = tokenID
	}
	if !record.Linked {
		record.Health, record.Thresholds, record.Armor = readActorParts(args)
	}
	if err := r.store.PutToken(ctx, record); err != nil {
		return fmt.Errorf("put token %s: %w", tokenID, err)
	}
	state.tokens[tokenID] = record.Ref()
	return nil
}

func (r *Runner) runDeleteTokenStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	sceneID := requiredString(args, "scene")
	tokenID := requiredString(args, "id")
	if err := r.store.DeleteToken(ctx, sceneID, tokenID); err != nil {
		return fmt.Errorf("delete token %s: %w", tokenID, err)
	}
	// The ref stays known so later steps can still name the removed token.
	return nil
}

func (r *Runner) runTargetStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	refs, err := r.resolveRefs(state, readStringSlice(args, "targets"))
	if err != nil {
		return err
	}
	return r.store.SetTargets(ctx, r.userID, refs)
}

func (r *Runner) runRollStep(state *scenarioState, args map[string]any, reaction bool) error {
	advantage, err := readPool(args, "advantage")
	if err != nil {
		return r.failf("%v", err)
	}
	disadvantage, err := readPool(args, "disadvantage")
	if err != nil {
		return r.failf("%v", err)
	}
	outcome, err := r.engineFor(args).Roll(duality.RollRequest{
		HopeFace:     optionalInt(args, "hope_face", 0),
		FearFace:     optionalInt(args, "fear_face", 0),
		Advantage:    advantage,
		Disadvantage: disadvantage,
		Modifier:     optionalInt(args, "modifier", 0),
		Reaction:     reaction,
		Difficulty:   optionalIntPtr(args, "difficulty"),
	})
	if err != nil {
		return fmt.Errorf("duality roll: %w", err)
	}
	state.lastCrit = outcome.IsCrit()
	r.logf("roll %s: hope %d fear %d total %d (%s)", outcome.Formula, outcome.Hope, outcome.Fear, outcome.Total, outcome.Category)

	if expected := optionalString(args, "expect", ""); expected != "" && !strings.EqualFold(expected, outcome.Category.String()) {
		if err := r.assertf("roll category = %s, want %s", outcome.Category, expected); err != nil {
			return err
		}
	}
	if expected, ok := readInt(args, "expect_total"); ok && expected != outcome.Total {
		if err := r.assertf("roll total = %d, want %d", outcome.Total, expected); err != nil {
			return err
		}
	}
	if expected, ok := readBool(args, "expect_forced"); ok && expected != outcome.Forced {
		if err := r.assertf("roll forced = %t, want %t", outcome.Forced, expected); err != nil {
			return err
		}
	}
	if expected, ok := readBool(args, "expect_success"); ok && expected != outcome.MeetsDifficulty {
		if err := r.assertf("roll meets difficulty = %t, want %t", outcome.MeetsDifficulty, expected); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runAdversaryRollStep(args map[string]any) error {
	outcome, err := r.engineFor(args).RollAdversary(duality.AdversaryRequest{
		Face:         optionalInt(args, "face", 0),
		Advantage:    optionalInt(args, "advantage", 0),
		Disadvantage: optionalInt(args, "disadvantage", 0),
		Modifier:     optionalInt(args, "modifier", 0),
		Difficulty:   optionalIntPtr(args, "difficulty"),
	})
	if err != nil {
		return fmt.Errorf("adversary roll: %w", err)
	}
	r.logf("adversary roll %s: %v kept %d total %d", outcome.Formula, outcome.Rolls, outcome.Kept, outcome.Total)

	if expected, ok := readInt(args, "expect_total"); ok && expected != outcome.Total {
		if err := r.assertf("adversary total = %d, want %d", outcome.Total, expected); err != nil {
			return err
		}
	}
	if expected, ok := readInt(args, "expect_kept"); ok && expected != outcome.Kept {
		if err := r.assertf("adversary kept = %d, want %d", outcome.Kept, expected); err != nil {
			return err
		}
	}
	if expected, ok := readBool(args, "expect_critical"); ok && expected != outcome.Critical {
		if err := r.assertf("adversary critical = %t, want %t", outcome.Critical, expected); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runDamageRollStep(state *scenarioState, args map[string]any) error {
	specs, err := readDiceSpecs(args, "dice")
	if err != nil {
		return r.failf("%v", err)
	}
	critical := state.lastCrit
	if value, ok := readBool(args, "critical"); ok {
		critical = value
	}
	roller := r.roller
	if seed, ok := readInt(args, "seed"); ok {
		roller = dice.NewRandRoller(int64(seed))
	}
	result, err := damage.Roll(roller, damage.RollRequest{
		Dice:     specs,
		Modifier: optionalInt(args, "modifier", 0),
		Critical: critical,
	})
	if err != nil {
		return fmt.Errorf("damage roll: %w", err)
	}
	total := result.Total
	state.lastDamage = &total
	r.logf("damage roll: total %d (crit bonus %d)", result.Total, result.CriticalBonus)

	if expected, ok := readInt(args, "expect_total"); ok && expected != result.Total {
		if err := r.assertf("damage total = %d, want %d", result.Total, expected); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runArmCriticalStep(args map[string]any) error {
	if optionalBool(args, "disarm", false) {
		r.engine.Override().Disarm()
		return nil
	}
	r.engine.Override().Arm()
	return nil
}

func (r *Runner) runDamageStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	refs, err := r.resolveRefs(state, readStringSlice(args, "targets"))
	if err != nil {
		return err
	}
	amount, err := r.damageAmount(state, args)
	if err != nil {
		return err
	}
	armor, err := r.readArmor(state, args)
	if err != nil {
		return err
	}
	result, err := r.ledger.ApplyDamage(ctx, ledger.DamageRequest{
		Targets:  refs,
		Amount:   amount,
		SkipUndo: optionalBool(args, "skip_undo", false),
		Armor:    armor,
	})
	if err != nil {
		return fmt.Errorf("apply damage: %w", err)
	}
	if expected := optionalString(args, "expect_severity", ""); expected != "" {
		for _, applied := range result.Applied {
			if applied.Severity.String() != expected {
				if err := r.assertf("%s severity = %s, want %s", applied.Name, applied.Severity, expected); err != nil {
					return err
				}
			}
		}
	}
	return r.finishLedgerStep(state, args, result)
}

func (r *Runner) runHealStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	refs, err := r.resolveRefs(state, readStringSlice(args, "targets"))
	if err != nil {
		return err
	}
	result, err := r.ledger.ApplyHealing(ctx, ledger.HealRequest{
		Targets:  refs,
		Amount:   optionalInt(args, "amount", 0),
		SkipUndo: optionalBool(args, "skip_undo", false),
	})
	if err != nil {
		return fmt.Errorf("apply healing: %w", err)
	}
	return r.finishLedgerStep(state, args, result)
}

func (r *Runner) runDirectDamageStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	refs, err := r.resolveRefs(state, readStringSlice(args, "targets"))
	if err != nil {
		return err
	}
	amount, err := r.damageAmount(state, args)
	if err != nil {
		return err
	}
	result, err := r.ledger.ApplyDirectDamage(ctx, ledger.DirectDamageRequest{
		Targets:  refs,
		Amount:   amount,
		SkipUndo: optionalBool(args, "skip_undo", false),
	})
	if err != nil {
		return fmt.Errorf("apply direct damage: %w", err)
	}
	return r.finishLedgerStep(state, args, result)
}

// finishLedgerStep records the undo id and checks applied/skipped counts.
func (r *Runner) finishLedgerStep(state *scenarioState, args map[string]any, result ledger.Result) error {
	if result.UndoID != "" {
		state.lastUndoID = result.UndoID
		if label := optionalString(args, "undo", ""); label != "" {
			state.undoLabels[label] = result.UndoID
		}
	}
	r.logf("%s: %d applied, %d skipped", result.Kind, len(result.Applied), len(result.Skipped))
	if expected, ok := readInt(args, "expect_applied"); ok && expected != len(result.Applied) {
		if err := r.assertf("%s applied = %d, want %d", result.Kind, len(result.Applied), expected); err != nil {
			return err
		}
	}
	if expected, ok := readInt(args, "expect_skipped"); ok && expected != len(result.Skipped) {
		if err := r.assertf("%s skipped = %d, want %d", result.Kind, len(result.Skipped), expected); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runUndoStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	undoID := state.lastUndoID
	if label := requiredString(args, "label"); label != "" {
		id, ok := state.undoLabels[label]
		if !ok {
			return r.failf("unknown undo label %q", label)
		}
		undoID = id
	}
	if undoID == "" {
		return r.failf("no undo record to restore")
	}
	result, err := r.ledger.Restore(ctx, undoID)
	if err != nil {
		return fmt.Errorf("restore %s: %w", undoID, err)
	}
	if !result.Success {
		return r.assertf("undo %s restored nothing (%d unresolved)", undoID, len(result.Unresolved))
	}
	if undoID == state.lastUndoID {
		state.lastUndoID = ""
	}
	return nil
}

func (r *Runner) runExpectHPStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	current, err := r.loadTarget(ctx, state, args)
	if err != nil {
		return err
	}
	if current.Health == nil {
		return r.failf("%s has no hit points", current.Name)
	}
	expected := optionalInt(args, "value", 0)
	if current.Health.Value != expected {
		return r.assertf("%s hp = %d, want %d", current.Name, current.Health.Value, expected)
	}
	return nil
}

func (r *Runner) runExpectArmorStep(ctx context.Context, state *scenarioState, args map[string]any) error {
	current, err := r.loadTarget(ctx, state, args)
	if err != nil {
		return err
	}
	if current.Armor == nil {
		return r.failf("%s has no armor", current.Name)
	}
	expected := optionalInt(args, "value", 0)
	if current.Armor.Current != expected {
		return r.assertf("%s armor = %d, want %d", current.Name, current.Armor.Current, expected)
	}
	return nil
}

func (r *Runner) loadTarget(ctx context.Context, state *scenarioState, args map[string]any) (actor.State, error) {
	ref, err := r.resolveRef(state, requiredString(args, "target"))
	if err != nil {
		return actor.State{}, err
	}
	current, err := r.store.LoadActor(ctx, ref)
	if err != nil {
		return actor.State{}, fmt.Errorf("load %s: %w", ref, err)
	}
	return current, nil
}

// engineFor returns an engine rolling from args.seed when given. The
// critical override is shared with the runner's engine.
func (r *Runner) engineFor(args map[string]any) *duality.Engine {
	seed, ok := readInt(args, "seed")
	if !ok {
		return r.engine
	}
	return duality.NewEngine(dice.NewRandRoller(int64(seed)), r.engine.Override())
}

// damageAmount reads args.amount, falling back to the last damage roll.
func (r *Runner) damageAmount(state *scenarioState, args map[string]any) (int, error) {
	if amount, ok := readInt(args, "amount"); ok {
		return amount, nil
	}
	if state.lastDamage == nil {
		return 0, r.failf("amount is required without a prior damage_roll")
	}
	return *state.lastDamage, nil
}

// readArmor accepts armor=N or armor={target=N}.
func (r *Runner) readArmor(state *scenarioState, args map[string]any) (ledger.ArmorRequest, error) {
	if slots, ok := readInt(args, "armor"); ok {
		return ledger.ArmorRequest{Slots: slots}, nil
	}
	perTarget, err := readIntMap(args, "armor")
	if err != nil {
		return ledger.ArmorRequest{}, r.failf("%v", err)
	}
	if len(perTarget) == 0 {
		return ledger.ArmorRequest{}, nil
	}
	request := ledger.ArmorRequest{PerTarget: make(map[string]int, len(perTarget))}
	for name, slots := range perTarget {
		ref, err := r.resolveRef(state, name)
		if err != nil {
			return ledger.ArmorRequest{}, err
		}
		request.PerTarget[ref.Key()] = slots
	}
	return request, nil
}

func (r *Runner) resolveRefs(state *scenarioState, names []string) ([]actor.Ref, error) {
	refs := make([]actor.Ref, 0, len(names))
	for _, name := range names {
		ref, err := r.resolveRef(state, name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// resolveRef prefers a token with the given id over an actor.
func (r *Runner) resolveRef(state *scenarioState, name string) (actor.Ref, error) {
	if name == "" {
		return actor.Ref{}, r.failf("target is required")
	}
	if ref, ok := state.tokens[name]; ok {
		return ref, nil
	}
	if _, ok := state.actors[name]; ok {
		return actor.Persistent(name), nil
	}
	return actor.Ref{}, r.failf("unknown target %q", name)
}

func readPool(args map[string]any, key string) (pool.Pool, error) {
	labels, err := readIntMap(args, key)
	if err != nil || len(labels) == 0 {
		return nil, err
	}
	return pool.FromLabels(labels)
}

// readDiceSpecs reads a list of {sides=N, count=M} tables. count defaults
// to 1.
func readDiceSpecs(args map[string]any, key string) ([]dice.Spec, error) {
	value, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	specs := make([]dice.Spec, 0, len(list))
	for i, item := range list {
		table, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a table", key, i+1)
		}
		sides, ok := readInt(table, "sides")
		if !ok {
			return nil, fmt.Errorf("%s[%d].sides is required", key, i+1)
		}
		specs = append(specs, dice.Spec{Sides: sides, Count: optionalInt(table, "count", 1)})
	}
	return specs, nil
}
