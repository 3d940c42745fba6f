package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

const (
	kindTargets   = "target"
	kindSelection = "selection"
)

// SetTargets implements storage.TargetStore.
func (s *Store) SetTargets(ctx context.Context, userID string, refs []actor.Ref) error {
	return s.replaceRefs(ctx, userID, kindTargets, refs)
}

// SetSelection implements storage.TargetStore.
func (s *Store) SetSelection(ctx context.Context, userID string, refs []actor.Ref) error {
	return s.replaceRefs(ctx, userID, kindSelection, refs)
}

// CurrentTargets implements storage.TargetResolver for the user in ctx.
func (s *Store) CurrentTargets(ctx context.Context) ([]actor.Ref, error) {
	return s.listRefs(ctx, requestctx.UserIDFromContext(ctx), kindTargets)
}

// CurrentSelection implements storage.TargetResolver for the user in ctx.
func (s *Store) CurrentSelection(ctx context.Context) ([]actor.Ref, error) {
	return s.listRefs(ctx, requestctx.UserIDFromContext(ctx), kindSelection)
}

func (s *Store) replaceRefs(ctx context.Context, userID, kind string, refs []actor.Ref) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set %s: %w", kind, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_targets WHERE user_id = ? AND kind = ?", userID, kind); err != nil {
		return fmt.Errorf("clear %s: %w", kind, err)
	}
	for i, ref := range refs {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO user_targets (user_id, kind, position, ref_kind, actor_id, scene_id, token_id, name, type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, kind, i, int(ref.Kind), ref.ActorID, ref.SceneID, ref.TokenID, ref.Name, string(ref.Type),
		); err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}
	}
	return tx.Commit()
}

func (s *Store) listRefs(ctx context.Context, userID, kind string) ([]actor.Ref, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT ref_kind, actor_id, scene_id, token_id, name, type
FROM user_targets WHERE user_id = ? AND kind = ? ORDER BY position`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var refs []actor.Ref
	for rows.Next() {
		var (
			ref     actor.Ref
			refKind int
			typ     string
		)
		if err := rows.Scan(&refKind, &ref.ActorID, &ref.SceneID, &ref.TokenID, &ref.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		ref.Kind = actor.RefKind(refKind)
		ref.Type = actor.Type(typ)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return refs, nil
}

// AppendAuditEvent implements storage.AuditEventStore.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	if strings.TrimSpace(evt.Severity) == "" {
		return fmt.Errorf("severity is required")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = s.clock()
	}
	var attributes []byte
	if len(evt.Attributes) > 0 {
		payload, err := json.Marshal(evt.Attributes)
		if err != nil {
			return fmt.Errorf("marshal audit attributes: %w", err)
		}
		attributes = payload
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_events (timestamp, event_name, severity, user_id, target_key, undo_id, attributes_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		toMillis(evt.Timestamp), evt.EventName, evt.Severity,
		toNullString(evt.UserID), toNullString(evt.TargetKey), toNullString(evt.UndoID), attributes,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns events named eventName, oldest first. An empty
// name lists every event.
func (s *Store) ListAuditEvents(ctx context.Context, eventName string, limit int) ([]storage.AuditEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT timestamp, event_name, severity, COALESCE(user_id, ''), COALESCE(target_key, ''), COALESCE(undo_id, ''), attributes_json
FROM audit_events
WHERE ? = '' OR event_name = ?
ORDER BY id
LIMIT ?`, eventName, eventName, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []storage.AuditEvent
	for rows.Next() {
		var (
			evt        storage.AuditEvent
			millis     int64
			attributes []byte
		)
		if err := rows.Scan(&millis, &evt.EventName, &evt.Severity, &evt.UserID, &evt.TargetKey, &evt.UndoID, &attributes); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		evt.Timestamp = fromMillis(millis)
		if len(attributes) > 0 {
			if err := json.Unmarshal(attributes, &evt.Attributes); err != nil {
				return nil, fmt.Errorf("decode audit attributes: %w", err)
			}
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}
	return events, nil
}
