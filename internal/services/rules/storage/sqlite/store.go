// Package sqlite implements the rules storage contracts on SQLite.
//
// Actors, scenes, placed tokens, per-user targets and audit events live in
// one database file. Optional target parts (hit points, thresholds, armor)
// are nullable column pairs: both set or both NULL.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/duality-engine/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides a SQLite-backed store implementing storage.Store.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open opens the rules store at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.RulesFS, "rules"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutActor inserts or replaces an actor.
func (s *Store) PutActor(ctx context.Context, record storage.ActorRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("actor id is required")
	}
	if !record.Type.Valid() {
		return fmt.Errorf("actor type %q is invalid", record.Type)
	}
	parts := encodeParts(record.Health, record.Thresholds, record.Armor)
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO actors (id, name, type, hp_value, hp_max, major_threshold, severe_threshold, armor_value, armor_max, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    hp_value = excluded.hp_value,
    hp_max = excluded.hp_max,
    major_threshold = excluded.major_threshold,
    severe_threshold = excluded.severe_threshold,
    armor_value = excluded.armor_value,
    armor_max = excluded.armor_max,
    updated_at = excluded.updated_at`,
		record.ID, record.Name, string(record.Type),
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5],
		toMillis(s.clock()),
	)
	if err != nil {
		return fmt.Errorf("put actor %s: %w", record.ID, err)
	}
	return nil
}

// PutScene inserts or renames a scene.
func (s *Store) PutScene(ctx context.Context, record storage.SceneRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("scene id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO scenes (id, name) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name`, record.ID, record.Name)
	if err != nil {
		return fmt.Errorf("put scene %s: %w", record.ID, err)
	}
	return nil
}

// PutToken places or replaces a token. Unlinked tokens placed without
// state copy their actor's state.
func (s *Store) PutToken(ctx context.Context, record storage.TokenRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.SceneID) == "" || strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("scene id and token id are required")
	}
	if err := s.sceneExists(ctx, record.SceneID); err != nil {
		return err
	}
	if record.ActorID != "" {
		base, err := s.loadActorRecord(ctx, record.ActorID)
		if err != nil {
			return err
		}
		if record.Name == "" {
			record.Name = base.Name
		}
		if record.Type == "" {
			record.Type = base.Type
		}
		if !record.Linked && record.Health == nil && record.Thresholds == nil && record.Armor == nil {
			record.Health, record.Thresholds, record.Armor = base.Health, base.Thresholds, base.Armor
		}
	} else if record.Linked {
		return fmt.Errorf("linked token %s requires an actor", record.ID)
	}
	if !record.Type.Valid() {
		return fmt.Errorf("token type %q is invalid", record.Type)
	}

	parts := encodeParts(record.Health, record.Thresholds, record.Armor)
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO tokens (scene_id, id, actor_id, name, type, linked, hp_value, hp_max, major_threshold, severe_threshold, armor_value, armor_max, placed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(scene_id, id) DO UPDATE SET
    actor_id = excluded.actor_id,
    name = excluded.name,
    type = excluded.type,
    linked = excluded.linked,
    hp_value = excluded.hp_value,
    hp_max = excluded.hp_max,
    major_threshold = excluded.major_threshold,
    severe_threshold = excluded.severe_threshold,
    armor_value = excluded.armor_value,
    armor_max = excluded.armor_max`,
		record.SceneID, record.ID, toNullString(record.ActorID), record.Name, string(record.Type), boolToInt(record.Linked),
		parts[0], parts[1], parts[2], parts[3], parts[4], parts[5],
		toMillis(s.clock()),
	)
	if err != nil {
		return fmt.Errorf("put token %s: %w", record.ID, err)
	}
	return nil
}

// DeleteToken removes a token from its scene.
func (s *Store) DeleteToken(ctx context.Context, sceneID, tokenID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM tokens WHERE scene_id = ? AND id = ?", sceneID, tokenID)
	if err != nil {
		return fmt.Errorf("delete token %s: %w", tokenID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("token %s: %w", tokenID, storage.ErrNotFound)
	}
	return nil
}

// ActivateScene makes sceneID the current scene.
func (s *Store) ActivateScene(ctx context.Context, sceneID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := s.sceneExists(ctx, sceneID); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate scene: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, "UPDATE scenes SET active = CASE WHEN id = ? THEN 1 ELSE 0 END", sceneID); err != nil {
		return fmt.Errorf("activate scene %s: %w", sceneID, err)
	}
	return tx.Commit()
}

// CurrentSceneID implements storage.SceneStore.
func (s *Store) CurrentSceneID(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var id string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT id FROM scenes WHERE active = 1 LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("current scene: %w", err)
	}
	return id, nil
}

func (s *Store) sceneExists(ctx context.Context, sceneID string) error {
	var found int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1 FROM scenes WHERE id = ?", sceneID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scene %s: %w", sceneID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check scene %s: %w", sceneID, err)
	}
	return nil
}
