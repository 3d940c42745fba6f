package ledger

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/platform/i18n"
	"github.com/louisbranch/duality-engine/internal/platform/id"
	platformotel "github.com/louisbranch/duality-engine/internal/platform/otel"
	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/notify"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

// PermissionGate reports whether the caller in ctx may change ref. A false
// result for any target rejects the whole call before mutation.
type PermissionGate func(ctx context.Context, ref actor.Ref) bool

// AllowAll is a gate that permits every target.
func AllowAll(context.Context, actor.Ref) bool { return true }

// Ledger applies damage and healing and restores undo records.
type Ledger struct {
	actors   storage.ActorStore
	scenes   storage.SceneStore
	targets  storage.TargetResolver
	undo     *UndoStore
	notifier notify.Notifier
	audit    *audit.Emitter
	logger   *log.Logger
	gate     PermissionGate
	clock    func() time.Time
	newID    func() (string, error)
	tracer   trace.Tracer
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithUndoStore shares an undo store between ledgers.
func WithUndoStore(store *UndoStore) Option {
	return func(l *Ledger) { l.undo = store }
}

// WithNotifier sets the user-facing notice sink.
func WithNotifier(n notify.Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithAudit sets the audit emitter.
func WithAudit(emitter *audit.Emitter) Option {
	return func(l *Ledger) { l.audit = emitter }
}

// WithLogger sets the operational logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithPermissionGate sets the permission gate.
func WithPermissionGate(gate PermissionGate) Option {
	return func(l *Ledger) { l.gate = gate }
}

// WithClock overrides the record timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithIDGenerator overrides undo record ids.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithTracer overrides the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Ledger) { l.tracer = tracer }
}

// New creates a ledger over the given collaborators.
func New(actors storage.ActorStore, scenes storage.SceneStore, targets storage.TargetResolver, opts ...Option) *Ledger {
	l := &Ledger{
		actors:   actors,
		scenes:   scenes,
		targets:  targets,
		notifier: notify.Nop{},
		logger:   log.Default(),
		gate:     AllowAll,
		clock:    time.Now,
		newID:    id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.undo == nil {
		l.undo = NewUndoStore()
	}
	if l.notifier == nil {
		l.notifier = notify.Nop{}
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.gate == nil {
		l.gate = AllowAll
	}
	if l.tracer == nil {
		l.tracer = platformotel.Tracer("github.com/louisbranch/duality-engine/internal/services/rules/ledger")
	}
	return l
}

// UndoStore returns the ledger's undo store.
func (l *Ledger) UndoStore() *UndoStore {
	return l.undo
}

// mutation is the planned change to one target.
type mutation struct {
	patch    actor.Patch
	result   TargetResult
	snapshot Snapshot
}

// planFunc plans a mutation for a loaded target. A non-empty SkipReason
// leaves the target untouched.
type planFunc func(ctx context.Context, state actor.State) (mutation, SkipReason)

type operation struct {
	kind     Kind
	name     string
	amount   int
	targets  []actor.Ref
	source   *actor.Ref
	skipUndo bool
	// quiet suppresses per-target notices and audit events. Restore uses it
	// so an undo is reported once, under its own event.
	quiet bool
	plan  planFunc
}

func validateAmount(amount int) error {
	if amount <= 0 {
		return apperrors.WithMetadata(apperrors.CodeRulesInvalidAmount,
			fmt.Sprintf("amount must be a positive integer, got %d", amount),
			map[string]string{"Amount": fmt.Sprint(amount)})
	}
	return nil
}

// resolveTargets returns explicit targets, else the caller's current
// targets, else the caller's selection. Repeated explicit refs are dropped.
func (l *Ledger) resolveTargets(ctx context.Context, explicit []actor.Ref) ([]actor.Ref, error) {
	if len(explicit) > 0 {
		refs := make([]actor.Ref, 0, len(explicit))
		for _, ref := range explicit {
			if err := ref.Validate(); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeRulesNoTargets, fmt.Sprintf("invalid target: %v", err), err)
			}
			if !slices.Contains(refs, ref) {
				refs = append(refs, ref)
			}
		}
		return refs, nil
	}
	if l.targets != nil {
		refs, err := l.targets.CurrentTargets(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current targets: %w", err)
		}
		if len(refs) > 0 {
			return refs, nil
		}
		refs, err = l.targets.CurrentSelection(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current selection: %w", err)
		}
		if len(refs) > 0 {
			return refs, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeRulesNoTargets, "no targets or selection")
}

func (l *Ledger) checkPermission(ctx context.Context, refs []actor.Ref) error {
	for _, ref := range refs {
		if !l.gate(ctx, ref) {
			return apperrors.WithMetadata(apperrors.CodeRulesPermissionDenied,
				fmt.Sprintf("permission denied for %s", ref),
				map[string]string{"Target": ref.String()})
		}
	}
	return nil
}

// run executes op against every resolved target and records undo state
// for the targets that changed.
func (l *Ledger) run(ctx context.Context, op operation) (Result, error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+op.name, trace.WithAttributes(
		attribute.String("rules.kind", string(op.kind)),
		attribute.Int("rules.amount", op.amount),
	))
	defer span.End()

	refs, err := l.resolveTargets(ctx, op.targets)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	if err := l.checkPermission(ctx, refs); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("rules.targets", len(refs)))

	result := Result{Kind: op.kind}
	var entries []Snapshot
	for _, ref := range refs {
		state, err := l.actors.LoadActor(ctx, ref)
		if err != nil {
			l.logger.Printf("ledger %s: load %s: %v", op.kind, ref, err)
			l.notifier.Notify(ctx, notify.LevelError, i18n.KeyTargetPersistFailed, displayName(ref, actor.State{}))
			result.Skipped = append(result.Skipped, SkippedTarget{Ref: ref, Name: ref.Name, Reason: SkipLoadFailed, Err: err})
			continue
		}
		if state.Ref.Kind == 0 {
			state.Ref = ref
		}
		name := displayName(ref, state)

		planned, reason := op.plan(ctx, state)
		if reason != "" {
			if op.quiet {
				l.logger.Printf("ledger %s: skip %s: %s", op.kind, name, reason)
			} else {
				l.warnSkip(ctx, op.kind, name, reason)
			}
			result.Skipped = append(result.Skipped, SkippedTarget{Ref: state.Ref, Name: name, Reason: reason})
			continue
		}

		if err := l.actors.UpdateActor(ctx, state.Ref, planned.patch); err != nil {
			l.logger.Printf("ledger %s: update %s: %v", op.kind, state.Ref, err)
			l.notifier.Notify(ctx, notify.LevelError, i18n.KeyTargetPersistFailed, name)
			result.Skipped = append(result.Skipped, SkippedTarget{Ref: state.Ref, Name: name, Reason: SkipPersistFailed, Err: err})
			continue
		}

		planned.result.Ref = state.Ref
		planned.result.Name = name
		planned.snapshot.Ref = state.Ref
		planned.snapshot.Name = name
		result.Applied = append(result.Applied, planned.result)
		entries = append(entries, planned.snapshot)
	}

	if len(result.Applied) == 0 {
		if !op.quiet {
			l.notifier.Notify(ctx, notify.LevelWarn, i18n.KeyNoTargetsAffected)
		}
		span.SetAttributes(attribute.Bool("rules.success", false))
		return result, nil
	}
	result.Success = true

	if !op.skipUndo && len(entries) > 0 {
		undoID, err := l.newID()
		if err != nil {
			// The mutation already happened; report it without an undo handle.
			l.logger.Printf("ledger %s: generate undo id: %v", op.kind, err)
		} else {
			l.undo.Put(Record{
				ID:        undoID,
				Kind:      op.kind,
				UserID:    requestctx.UserIDFromContext(ctx),
				Source:    op.source,
				Entries:   entries,
				CreatedAt: l.clock().UTC(),
			})
			result.UndoID = undoID
		}
	}

	if !op.quiet {
		l.announce(ctx, op.kind, result)
	}
	span.SetAttributes(
		attribute.Bool("rules.success", true),
		attribute.Int("rules.applied", len(result.Applied)),
		attribute.String("rules.undo_id", result.UndoID),
	)
	return result, nil
}

func (l *Ledger) warnSkip(ctx context.Context, kind Kind, name string, reason SkipReason) {
	var key string
	switch reason {
	case SkipMissingHealth:
		key = i18n.KeyTargetMissingHealth
	case SkipMissingThresholds:
		key = i18n.KeyTargetMissingThresholds
	case SkipSaturated:
		key = i18n.KeyTargetSaturated
	case SkipUnharmed:
		key = i18n.KeyTargetUnharmed
	default:
		key = i18n.KeyTargetPersistFailed
	}
	l.logger.Printf("ledger %s: skip %s: %s", kind, name, reason)
	l.notifier.Notify(ctx, notify.LevelWarn, key, name)
}

func (l *Ledger) announce(ctx context.Context, kind Kind, result Result) {
	eventName := auditEventName(kind)
	for _, applied := range result.Applied {
		switch kind {
		case KindDamage:
			l.notifier.Notify(ctx, notify.LevelInfo, i18n.KeyDamageApplied,
				applied.Name, applied.HealthAfter-applied.HealthBefore, applied.Severity.String())
		case KindHeal:
			l.notifier.Notify(ctx, notify.LevelInfo, i18n.KeyHealingApplied,
				applied.Name, applied.HealthBefore-applied.HealthAfter)
		case KindDirectDamage:
			l.notifier.Notify(ctx, notify.LevelInfo, i18n.KeyDirectDamageApplied,
				applied.Name, applied.HealthAfter-applied.HealthBefore)
		}
		evt := storage.AuditEvent{
			EventName: eventName,
			UserID:    requestctx.UserIDFromContext(ctx),
			TargetKey: applied.Ref.Key(),
			UndoID:    result.UndoID,
			Attributes: map[string]any{
				"health_before": applied.HealthBefore,
				"health_after":  applied.HealthAfter,
				"armor_applied": applied.ArmorApplied,
			},
		}
		if kind == KindDamage {
			evt.Attributes["severity"] = applied.Severity.String()
		}
		if err := l.audit.Emit(ctx, evt); err != nil {
			l.logger.Printf("ledger %s: audit: %v", kind, err)
		}
	}
}

func displayName(ref actor.Ref, state actor.State) string {
	switch {
	case state.Name != "":
		return state.Name
	case ref.Name != "":
		return ref.Name
	default:
		return ref.String()
	}
}
