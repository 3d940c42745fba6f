package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ActorStore loads and persists damage targets.
//
// UpdateActor applies a field-path patch to whatever backs ref: the actor
// for persistent refs and linked tokens, or the token's own state for
// unlinked tokens.
type ActorStore interface {
	LoadActor(ctx context.Context, ref actor.Ref) (actor.State, error)
	UpdateActor(ctx context.Context, ref actor.Ref, patch actor.Patch) error
}

// SceneStore finds placed tokens. Lookups that find nothing return an
// empty result rather than ErrNotFound.
type SceneStore interface {
	// CurrentSceneID returns "" when no scene is active.
	CurrentSceneID(ctx context.Context) (string, error)
	FindToken(ctx context.Context, sceneID, tokenID string) (actor.Ref, bool, error)
	FindTokensByActor(ctx context.Context, sceneID, actorID string) ([]actor.Ref, error)
	FindTokensByName(ctx context.Context, sceneID, name string, typ actor.Type) ([]actor.Ref, error)
}

// TargetResolver answers what the calling user is pointing at. The user
// is read from ctx.
type TargetResolver interface {
	CurrentTargets(ctx context.Context) ([]actor.Ref, error)
	CurrentSelection(ctx context.Context) ([]actor.Ref, error)
}

// TargetStore records per-user targets and selection.
type TargetStore interface {
	SetTargets(ctx context.Context, userID string, refs []actor.Ref) error
	SetSelection(ctx context.Context, userID string, refs []actor.Ref) error
}

// AuditEvent is an operational record of a rules mutation or API call.
type AuditEvent struct {
	Timestamp  time.Time
	EventName  string
	Severity   string
	UserID     string
	TargetKey  string
	UndoID     string
	Attributes map[string]any
}

// AuditEventStore appends audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
}

// ActorRecord is a persistent actor.
type ActorRecord struct {
	ID         string
	Name       string
	Type       actor.Type
	Health     *actor.Health
	Thresholds *damage.Thresholds
	Armor      *damage.ArmorState
}

// SceneRecord is a scene tokens are placed in.
type SceneRecord struct {
	ID   string
	Name string
}

// TokenRecord is a token placed in a scene.
//
// A linked token shares its actor's state. An unlinked token carries its
// own copy, seeded from the actor when placed without explicit state.
type TokenRecord struct {
	SceneID    string
	ID         string
	ActorID    string
	Name       string
	Type       actor.Type
	Linked     bool
	Health     *actor.Health
	Thresholds *damage.Thresholds
	Armor      *damage.ArmorState
}

// Ref returns the token ref for the record.
func (r TokenRecord) Ref() actor.Ref {
	return actor.TokenInstance(r.SceneID, r.ID, r.ActorID, r.Name, r.Type)
}

// Catalog places actors, scenes and tokens.
type Catalog interface {
	PutActor(ctx context.Context, record ActorRecord) error
	PutScene(ctx context.Context, record SceneRecord) error
	PutToken(ctx context.Context, record TokenRecord) error
	DeleteToken(ctx context.Context, sceneID, tokenID string) error
	ActivateScene(ctx context.Context, sceneID string) error
}

// Store is everything the rules service persists.
type Store interface {
	ActorStore
	SceneStore
	TargetResolver
	TargetStore
	AuditEventStore
	Catalog
}
