package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

const tokenColumns = "scene_id, id, actor_id, name, type, linked, hp_value, hp_max, major_threshold, severe_threshold, armor_value, armor_max"

const actorColumns = "id, name, type, hp_value, hp_max, major_threshold, severe_threshold, armor_value, armor_max"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (storage.TokenRecord, error) {
	var (
		record  storage.TokenRecord
		actorID sql.NullString
		typ     string
		linked  int
		parts   [6]sql.NullInt64
	)
	if err := row.Scan(&record.SceneID, &record.ID, &actorID, &record.Name, &typ, &linked,
		&parts[0], &parts[1], &parts[2], &parts[3], &parts[4], &parts[5]); err != nil {
		return storage.TokenRecord{}, err
	}
	record.ActorID = actorID.String
	record.Type = actor.Type(typ)
	record.Linked = linked != 0
	record.Health, record.Thresholds, record.Armor = decodeParts(parts)
	return record, nil
}

func scanActor(row rowScanner) (storage.ActorRecord, error) {
	var (
		record storage.ActorRecord
		typ    string
		parts  [6]sql.NullInt64
	)
	if err := row.Scan(&record.ID, &record.Name, &typ,
		&parts[0], &parts[1], &parts[2], &parts[3], &parts[4], &parts[5]); err != nil {
		return storage.ActorRecord{}, err
	}
	record.Type = actor.Type(typ)
	record.Health, record.Thresholds, record.Armor = decodeParts(parts)
	return record, nil
}

func (s *Store) loadActorRecord(ctx context.Context, actorID string) (storage.ActorRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+actorColumns+" FROM actors WHERE id = ?", actorID)
	record, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ActorRecord{}, fmt.Errorf("actor %s: %w", actorID, storage.ErrNotFound)
	}
	if err != nil {
		return storage.ActorRecord{}, fmt.Errorf("load actor %s: %w", actorID, err)
	}
	return record, nil
}

func (s *Store) loadToken(ctx context.Context, sceneID, tokenID string) (storage.TokenRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+tokenColumns+" FROM tokens WHERE scene_id = ? AND id = ?", sceneID, tokenID)
	record, err := scanToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.TokenRecord{}, fmt.Errorf("token %s: %w", tokenID, storage.ErrNotFound)
	}
	if err != nil {
		return storage.TokenRecord{}, fmt.Errorf("load token %s: %w", tokenID, err)
	}
	return record, nil
}

// FindToken implements storage.SceneStore.
func (s *Store) FindToken(ctx context.Context, sceneID, tokenID string) (actor.Ref, bool, error) {
	if err := s.ready(ctx); err != nil {
		return actor.Ref{}, false, err
	}
	record, err := s.loadToken(ctx, sceneID, tokenID)
	if errors.Is(err, storage.ErrNotFound) {
		return actor.Ref{}, false, nil
	}
	if err != nil {
		return actor.Ref{}, false, err
	}
	return record.Ref(), true, nil
}

// FindTokensByActor implements storage.SceneStore.
func (s *Store) FindTokensByActor(ctx context.Context, sceneID, actorID string) ([]actor.Ref, error) {
	if actorID == "" {
		return nil, nil
	}
	return s.queryTokens(ctx, "WHERE scene_id = ? AND actor_id = ?", sceneID, actorID)
}

// FindTokensByName implements storage.SceneStore.
func (s *Store) FindTokensByName(ctx context.Context, sceneID, name string, typ actor.Type) ([]actor.Ref, error) {
	if name == "" {
		return nil, nil
	}
	return s.queryTokens(ctx, "WHERE scene_id = ? AND name = ? AND type = ?", sceneID, name, string(typ))
}

func (s *Store) queryTokens(ctx context.Context, where string, args ...any) ([]actor.Ref, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+tokenColumns+" FROM tokens "+where+" ORDER BY placed_at, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var refs []actor.Ref
	for rows.Next() {
		record, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		refs = append(refs, record.Ref())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	return refs, nil
}

// LoadActor implements storage.ActorStore.
func (s *Store) LoadActor(ctx context.Context, ref actor.Ref) (actor.State, error) {
	if err := s.ready(ctx); err != nil {
		return actor.State{}, err
	}
	if !ref.IsToken() {
		record, err := s.loadActorRecord(ctx, ref.ActorID)
		if err != nil {
			return actor.State{}, err
		}
		return actor.State{
			Ref:        ref,
			Name:       record.Name,
			Type:       record.Type,
			Health:     record.Health,
			Thresholds: record.Thresholds,
			Armor:      record.Armor,
		}, nil
	}

	token, err := s.loadToken(ctx, ref.SceneID, ref.TokenID)
	if err != nil {
		return actor.State{}, err
	}
	state := actor.State{
		Ref:        token.Ref(),
		Name:       token.Name,
		Type:       token.Type,
		Health:     token.Health,
		Thresholds: token.Thresholds,
		Armor:      token.Armor,
	}
	if token.Linked {
		record, err := s.loadActorRecord(ctx, token.ActorID)
		if err != nil {
			return actor.State{}, err
		}
		state.Type = record.Type
		state.Health, state.Thresholds, state.Armor = record.Health, record.Thresholds, record.Armor
	}
	return state, nil
}

// UpdateActor implements storage.ActorStore.
func (s *Store) UpdateActor(ctx context.Context, ref actor.Ref, patch actor.Patch) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	table, where, args := "actors", "id = ?", []any{ref.ActorID}
	var current actor.State
	if ref.IsToken() {
		token, err := s.loadToken(ctx, ref.SceneID, ref.TokenID)
		if err != nil {
			return err
		}
		if token.Linked {
			args = []any{token.ActorID}
			record, err := s.loadActorRecord(ctx, token.ActorID)
			if err != nil {
				return err
			}
			current = actor.State{Ref: ref, Health: record.Health, Armor: record.Armor}
		} else {
			table, where, args = "tokens", "scene_id = ? AND id = ?", []any{ref.SceneID, ref.TokenID}
			current = actor.State{Ref: ref, Health: token.Health, Armor: token.Armor}
		}
	} else {
		record, err := s.loadActorRecord(ctx, ref.ActorID)
		if err != nil {
			return err
		}
		current = actor.State{Ref: ref, Health: record.Health, Armor: record.Armor}
	}

	if _, err := patch.Apply(current); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	assignments, values := patchAssignments(patch)
	query := "UPDATE " + table + " SET " + assignments + " WHERE " + where
	if _, err := s.sqlDB.ExecContext(ctx, query, append(values, args...)...); err != nil {
		return fmt.Errorf("update %s: %w", ref, err)
	}
	return nil
}

// patchAssignments returns the SET clause and its values for the columns
// named in patch. Columns outside the patch are never written, so a
// concurrent update to them is kept.
func patchAssignments(patch actor.Patch) (string, []any) {
	var (
		columns []string
		values  []any
	)
	if v, ok := patch.HitPoints(); ok {
		columns = append(columns, "hp_value = ?")
		values = append(values, v)
	}
	if v, ok := patch.Armor(); ok {
		columns = append(columns, "armor_value = ?")
		values = append(values, v)
	}
	return strings.Join(columns, ", "), values
}

// encodeParts flattens optional target parts into nullable columns in
// table order: hp value, hp max, major, severe, armor value, armor max.
func encodeParts(health *actor.Health, thresholds *damage.Thresholds, armor *damage.ArmorState) [6]sql.NullInt64 {
	var parts [6]sql.NullInt64
	if health != nil {
		parts[0] = sql.NullInt64{Int64: int64(health.Value), Valid: true}
		parts[1] = sql.NullInt64{Int64: int64(health.Max), Valid: true}
	}
	if thresholds != nil {
		parts[2] = sql.NullInt64{Int64: int64(thresholds.Major), Valid: true}
		parts[3] = sql.NullInt64{Int64: int64(thresholds.Severe), Valid: true}
	}
	if armor != nil {
		parts[4] = sql.NullInt64{Int64: int64(armor.Current), Valid: true}
		parts[5] = sql.NullInt64{Int64: int64(armor.Max), Valid: true}
	}
	return parts
}

func decodeParts(parts [6]sql.NullInt64) (*actor.Health, *damage.Thresholds, *damage.ArmorState) {
	var (
		health     *actor.Health
		thresholds *damage.Thresholds
		armor      *damage.ArmorState
	)
	if parts[0].Valid && parts[1].Valid {
		health = &actor.Health{Value: int(parts[0].Int64), Max: int(parts[1].Int64)}
	}
	if parts[2].Valid && parts[3].Valid {
		thresholds = &damage.Thresholds{Major: int(parts[2].Int64), Severe: int(parts[3].Int64)}
	}
	if parts[4].Valid && parts[5].Valid {
		armor = &damage.ArmorState{Current: int(parts[4].Int64), Max: int(parts[5].Int64)}
	}
	return health, thresholds, armor
}

func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
