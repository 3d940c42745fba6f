// Package memory implements the rules storage contracts in process memory.
//
// It backs tests and the scenario runner. All methods are safe for
// concurrent use and never hand out pointers into stored state.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

type scene struct {
	record storage.SceneRecord
	tokens map[string]storage.TokenRecord
	order  []string
}

// Store is an in-memory rules store.
type Store struct {
	mu           sync.Mutex
	actors       map[string]storage.ActorRecord
	scenes       map[string]*scene
	currentScene string
	targets      map[string][]actor.Ref
	selection    map[string][]actor.Ref
	audit        []storage.AuditEvent
}

var _ storage.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		actors:    make(map[string]storage.ActorRecord),
		scenes:    make(map[string]*scene),
		targets:   make(map[string][]actor.Ref),
		selection: make(map[string][]actor.Ref),
	}
}

// PutActor inserts or replaces an actor.
func (s *Store) PutActor(ctx context.Context, record storage.ActorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("actor id is required")
	}
	if !record.Type.Valid() {
		return fmt.Errorf("actor type %q is invalid", record.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors[record.ID] = cloneActor(record)
	return nil
}

// PutScene inserts or renames a scene. Existing tokens are kept.
func (s *Store) PutScene(ctx context.Context, record storage.SceneRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("scene id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.scenes[record.ID]; ok {
		existing.record = record
		return nil
	}
	s.scenes[record.ID] = &scene{record: record, tokens: make(map[string]storage.TokenRecord)}
	return nil
}

// PutToken places or replaces a token. Unlinked tokens placed without
// state copy their actor's state.
func (s *Store) PutToken(ctx context.Context, record storage.TokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.SceneID) == "" || strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("scene id and token id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[record.SceneID]
	if !ok {
		return fmt.Errorf("scene %s: %w", record.SceneID, storage.ErrNotFound)
	}
	if record.ActorID != "" {
		base, ok := s.actors[record.ActorID]
		if !ok {
			return fmt.Errorf("actor %s: %w", record.ActorID, storage.ErrNotFound)
		}
		if record.Name == "" {
			record.Name = base.Name
		}
		if record.Type == "" {
			record.Type = base.Type
		}
		if !record.Linked && record.Health == nil && record.Thresholds == nil && record.Armor == nil {
			record.Health, record.Thresholds, record.Armor = cloneParts(base.Health, base.Thresholds, base.Armor)
		}
	} else if record.Linked {
		return fmt.Errorf("linked token %s requires an actor", record.ID)
	}
	if !record.Type.Valid() {
		return fmt.Errorf("token type %q is invalid", record.Type)
	}
	if _, exists := sc.tokens[record.ID]; !exists {
		sc.order = append(sc.order, record.ID)
	}
	sc.tokens[record.ID] = cloneToken(record)
	return nil
}

// DeleteToken removes a token from its scene.
func (s *Store) DeleteToken(ctx context.Context, sceneID, tokenID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[sceneID]
	if !ok {
		return fmt.Errorf("scene %s: %w", sceneID, storage.ErrNotFound)
	}
	if _, ok := sc.tokens[tokenID]; !ok {
		return fmt.Errorf("token %s: %w", tokenID, storage.ErrNotFound)
	}
	delete(sc.tokens, tokenID)
	sc.order = slices.DeleteFunc(sc.order, func(id string) bool { return id == tokenID })
	return nil
}

// ActivateScene makes sceneID the current scene.
func (s *Store) ActivateScene(ctx context.Context, sceneID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenes[sceneID]; !ok {
		return fmt.Errorf("scene %s: %w", sceneID, storage.ErrNotFound)
	}
	s.currentScene = sceneID
	return nil
}

// CurrentSceneID implements storage.SceneStore.
func (s *Store) CurrentSceneID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentScene, nil
}

// FindToken implements storage.SceneStore.
func (s *Store) FindToken(ctx context.Context, sceneID, tokenID string) (actor.Ref, bool, error) {
	if err := ctx.Err(); err != nil {
		return actor.Ref{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[sceneID]
	if !ok {
		return actor.Ref{}, false, nil
	}
	token, ok := sc.tokens[tokenID]
	if !ok {
		return actor.Ref{}, false, nil
	}
	return token.Ref(), true, nil
}

// FindTokensByActor implements storage.SceneStore.
func (s *Store) FindTokensByActor(ctx context.Context, sceneID, actorID string) ([]actor.Ref, error) {
	return s.findTokens(ctx, sceneID, func(token storage.TokenRecord) bool {
		return actorID != "" && token.ActorID == actorID
	})
}

// FindTokensByName implements storage.SceneStore.
func (s *Store) FindTokensByName(ctx context.Context, sceneID, name string, typ actor.Type) ([]actor.Ref, error) {
	return s.findTokens(ctx, sceneID, func(token storage.TokenRecord) bool {
		return name != "" && token.Name == name && token.Type == typ
	})
}

func (s *Store) findTokens(ctx context.Context, sceneID string, match func(storage.TokenRecord) bool) ([]actor.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scenes[sceneID]
	if !ok {
		return nil, nil
	}
	var refs []actor.Ref
	for _, id := range sc.order {
		if token := sc.tokens[id]; match(token) {
			refs = append(refs, token.Ref())
		}
	}
	return refs, nil
}

// LoadActor implements storage.ActorStore.
func (s *Store) LoadActor(ctx context.Context, ref actor.Ref) (actor.State, error) {
	if err := ctx.Err(); err != nil {
		return actor.State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ref.IsToken() {
		record, ok := s.actors[ref.ActorID]
		if !ok {
			return actor.State{}, fmt.Errorf("actor %s: %w", ref.ActorID, storage.ErrNotFound)
		}
		return actorState(ref, record), nil
	}

	token, err := s.tokenLocked(ref)
	if err != nil {
		return actor.State{}, err
	}
	if token.Linked {
		record, ok := s.actors[token.ActorID]
		if !ok {
			return actor.State{}, fmt.Errorf("actor %s: %w", token.ActorID, storage.ErrNotFound)
		}
		state := actorState(token.Ref(), record)
		state.Name = token.Name
		return state, nil
	}
	health, thresholds, armor := cloneParts(token.Health, token.Thresholds, token.Armor)
	return actor.State{
		Ref:        token.Ref(),
		Name:       token.Name,
		Type:       token.Type,
		Health:     health,
		Thresholds: thresholds,
		Armor:      armor,
	}, nil
}

// UpdateActor implements storage.ActorStore.
func (s *Store) UpdateActor(ctx context.Context, ref actor.Ref, patch actor.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	actorID := ref.ActorID
	if ref.IsToken() {
		token, err := s.tokenLocked(ref)
		if err != nil {
			return err
		}
		if !token.Linked {
			state, err := patch.Apply(actor.State{Ref: token.Ref(), Health: token.Health, Armor: token.Armor})
			if err != nil {
				return err
			}
			token.Health, token.Armor = state.Health, state.Armor
			s.scenes[ref.SceneID].tokens[ref.TokenID] = token
			return nil
		}
		actorID = token.ActorID
	}

	record, ok := s.actors[actorID]
	if !ok {
		return fmt.Errorf("actor %s: %w", actorID, storage.ErrNotFound)
	}
	state, err := patch.Apply(actor.State{Ref: actor.Persistent(actorID), Health: record.Health, Armor: record.Armor})
	if err != nil {
		return err
	}
	record.Health, record.Armor = state.Health, state.Armor
	s.actors[actorID] = record
	return nil
}

func (s *Store) tokenLocked(ref actor.Ref) (storage.TokenRecord, error) {
	sc, ok := s.scenes[ref.SceneID]
	if !ok {
		return storage.TokenRecord{}, fmt.Errorf("scene %s: %w", ref.SceneID, storage.ErrNotFound)
	}
	token, ok := sc.tokens[ref.TokenID]
	if !ok {
		return storage.TokenRecord{}, fmt.Errorf("token %s: %w", ref.TokenID, storage.ErrNotFound)
	}
	return cloneToken(token), nil
}

// SetTargets implements storage.TargetStore.
func (s *Store) SetTargets(ctx context.Context, userID string, refs []actor.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[userID] = slices.Clone(refs)
	return nil
}

// SetSelection implements storage.TargetStore.
func (s *Store) SetSelection(ctx context.Context, userID string, refs []actor.Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection[userID] = slices.Clone(refs)
	return nil
}

// CurrentTargets implements storage.TargetResolver for the user in ctx.
func (s *Store) CurrentTargets(ctx context.Context) ([]actor.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.targets[requestctx.UserIDFromContext(ctx)]), nil
}

// CurrentSelection implements storage.TargetResolver for the user in ctx.
func (s *Store) CurrentSelection(ctx context.Context) ([]actor.Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selection[requestctx.UserIDFromContext(ctx)]), nil
}

// AppendAuditEvent implements storage.AuditEventStore.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(evt.EventName) == "" {
		return fmt.Errorf("event name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, evt)
	return nil
}

// AuditEvents returns a copy of the recorded audit events.
func (s *Store) AuditEvents() []storage.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audit)
}

func actorState(ref actor.Ref, record storage.ActorRecord) actor.State {
	health, thresholds, armor := cloneParts(record.Health, record.Thresholds, record.Armor)
	return actor.State{
		Ref:        ref,
		Name:       record.Name,
		Type:       record.Type,
		Health:     health,
		Thresholds: thresholds,
		Armor:      armor,
	}
}

func cloneActor(record storage.ActorRecord) storage.ActorRecord {
	record.Health, record.Thresholds, record.Armor = cloneParts(record.Health, record.Thresholds, record.Armor)
	return record
}

func cloneToken(record storage.TokenRecord) storage.TokenRecord {
	record.Health, record.Thresholds, record.Armor = cloneParts(record.Health, record.Thresholds, record.Armor)
	return record
}

func cloneParts(health *actor.Health, thresholds *damage.Thresholds, armor *damage.ArmorState) (*actor.Health, *damage.Thresholds, *damage.ArmorState) {
	var h *actor.Health
	if health != nil {
		copied := *health
		h = &copied
	}
	var th *damage.Thresholds
	if thresholds != nil {
		copied := *thresholds
		th = &copied
	}
	var a *damage.ArmorState
	if armor != nil {
		copied := *armor
		a = &copied
	}
	return h, th, a
}
