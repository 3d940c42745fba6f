package ledger

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/platform/i18n"
	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/notify"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit/events"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

// Restore puts every target in the undo record back to its snapshotted
// hit points and armor.
//
// Entries are restored newest first, so a target snapshotted more than once
// in one call ends at its earliest value. Hit points are set by exact value
// through a heal or direct damage that records no undo, notice or audit
// event of its own. Entries whose target can no
// longer be found are reported in RestoreResult.Unresolved. The record is
// deleted once any entry is restored; otherwise it is kept for a retry.
func (l *Ledger) Restore(ctx context.Context, undoID string) (RestoreResult, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Restore", trace.WithAttributes(
		attribute.String("rules.undo_id", undoID),
	))
	defer span.End()

	record, ok := l.undo.Get(undoID)
	if !ok {
		err := apperrors.WithMetadata(apperrors.CodeRulesUndoNotFound,
			fmt.Sprintf("undo record %q not found", undoID),
			map[string]string{"UndoID": undoID})
		span.SetStatus(codes.Error, err.Error())
		return RestoreResult{}, err
	}

	result := RestoreResult{Kind: record.Kind}
	for _, entry := range slices.Backward(record.Entries) {
		restored, err := l.restoreEntry(ctx, entry)
		if err != nil {
			l.logger.Printf("ledger undo %s: %s: %v", undoID, entry.Name, err)
			l.notifier.Notify(ctx, notify.LevelWarn, i18n.KeyUndoUnresolved, entry.Name)
			result.Unresolved = append(result.Unresolved, entry)
			continue
		}
		result.Restored = append(result.Restored, restored)
	}

	if len(result.Restored) == 0 {
		l.notifier.Notify(ctx, notify.LevelWarn, i18n.KeyUndoNothingRestored)
		span.SetAttributes(attribute.Bool("rules.success", false))
		return result, nil
	}

	result.Success = true
	l.undo.Delete(undoID)
	l.notifier.Notify(ctx, notify.LevelInfo, i18n.KeyUndoRestored, len(result.Restored))
	if err := l.audit.Emit(ctx, storage.AuditEvent{
		EventName: events.UndoRestored,
		UserID:    requestctx.UserIDFromContext(ctx),
		UndoID:    undoID,
		Attributes: map[string]any{
			"kind":       string(record.Kind),
			"restored":   len(result.Restored),
			"unresolved": len(result.Unresolved),
		},
	}); err != nil {
		l.logger.Printf("ledger undo %s: audit: %v", undoID, err)
	}
	span.SetAttributes(
		attribute.Bool("rules.success", true),
		attribute.Int("rules.restored", len(result.Restored)),
	)
	return result, nil
}

func (l *Ledger) restoreEntry(ctx context.Context, entry Snapshot) (RestoredTarget, error) {
	ref, resolvedBy, err := l.resolveEntry(ctx, entry)
	if err != nil {
		return RestoredTarget{}, err
	}
	if err := l.checkPermission(ctx, []actor.Ref{ref}); err != nil {
		return RestoredTarget{}, err
	}
	state, err := l.actors.LoadActor(ctx, ref)
	if err != nil {
		return RestoredTarget{}, fmt.Errorf("load %s: %w", ref, err)
	}
	if state.Health == nil {
		return RestoredTarget{}, fmt.Errorf("%s has no hit point track", ref)
	}

	restored := RestoredTarget{
		Ref:          ref,
		Name:         displayName(ref, state),
		ResolvedBy:   resolvedBy,
		Action:       RestoreUnchanged,
		HealthBefore: state.Health.Value,
		HealthAfter:  state.Health.Value,
	}

	targets := []actor.Ref{ref}
	switch delta := state.Health.Value - entry.OriginalHealth; {
	case delta > 0:
		op := healOperation(HealRequest{Targets: targets, Amount: delta, SkipUndo: true})
		op.quiet = true
		res, err := l.run(ctx, op)
		if err != nil {
			return RestoredTarget{}, err
		}
		if !res.Success {
			return RestoredTarget{}, fmt.Errorf("heal %s by %d had no effect", ref, delta)
		}
		restored.Action = RestoreHealed
		restored.HealthAfter = res.Applied[0].HealthAfter
	case delta < 0:
		op := directDamageOperation(DirectDamageRequest{Targets: targets, Amount: -delta, SkipUndo: true})
		op.quiet = true
		res, err := l.run(ctx, op)
		if err != nil {
			return RestoredTarget{}, err
		}
		if !res.Success {
			return RestoredTarget{}, fmt.Errorf("damage %s by %d had no effect", ref, -delta)
		}
		restored.Action = RestoreDamaged
		restored.HealthAfter = res.Applied[0].HealthAfter
	}

	if entry.OriginalArmor != nil && state.HasArmor() {
		if err := l.actors.UpdateActor(ctx, ref, actor.Patch{actor.FieldArmor: *entry.OriginalArmor}); err != nil {
			l.logger.Printf("ledger undo: restore armor on %s: %v", ref, err)
			l.notifier.Notify(ctx, notify.LevelError, i18n.KeyTargetPersistFailed, restored.Name)
		} else {
			restored.ArmorRestored = true
		}
	}
	return restored, nil
}

// resolveEntry finds the live target for a snapshot. Token entries try the
// exact token in the current scene, then any token of the same actor, then
// a token with the same name and type.
func (l *Ledger) resolveEntry(ctx context.Context, entry Snapshot) (actor.Ref, Resolution, error) {
	ref := entry.Ref
	if !ref.IsToken() {
		if ref.ActorID == "" {
			return actor.Ref{}, "", fmt.Errorf("snapshot has no actor id")
		}
		return ref, ResolvedPersistent, nil
	}
	if l.scenes == nil {
		return actor.Ref{}, "", fmt.Errorf("no scene store to resolve %s", ref)
	}

	sceneID, err := l.scenes.CurrentSceneID(ctx)
	if err != nil {
		return actor.Ref{}, "", fmt.Errorf("current scene: %w", err)
	}
	if sceneID == "" {
		return actor.Ref{}, "", fmt.Errorf("no active scene to resolve %s", ref)
	}

	if ref.SceneID == sceneID {
		found, ok, err := l.scenes.FindToken(ctx, sceneID, ref.TokenID)
		if err != nil {
			return actor.Ref{}, "", fmt.Errorf("find token %s: %w", ref, err)
		}
		if ok {
			return found, ResolvedToken, nil
		}
	}

	if ref.ActorID != "" {
		refs, err := l.scenes.FindTokensByActor(ctx, sceneID, ref.ActorID)
		if err != nil {
			return actor.Ref{}, "", fmt.Errorf("find tokens of actor %s: %w", ref.ActorID, err)
		}
		if len(refs) > 0 {
			return refs[0], ResolvedByActor, nil
		}
	}

	name := entry.Name
	if ref.Name != "" {
		name = ref.Name
	}
	if name != "" {
		refs, err := l.scenes.FindTokensByName(ctx, sceneID, name, ref.Type)
		if err != nil {
			return actor.Ref{}, "", fmt.Errorf("find tokens named %s: %w", name, err)
		}
		if len(refs) > 0 {
			l.logger.Printf("ledger undo: %s matched by name", name)
			l.notifier.Notify(ctx, notify.LevelWarn, i18n.KeyUndoResolvedByName, name)
			return refs[0], ResolvedByName, nil
		}
	}
	return actor.Ref{}, "", fmt.Errorf("%s not found in scene %s", ref, sceneID)
}
