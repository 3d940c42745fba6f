// Package actor models damage targets and how they are referenced.
package actor

import (
	"fmt"

	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
)

// Type is the actor category. Only characters carry armor.
type Type string

const (
	TypeCharacter   Type = "character"
	TypeAdversary   Type = "adversary"
	TypeCompanion   Type = "companion"
	TypeEnvironment Type = "environment"
)

// HasArmor reports whether actors of this type can mark armor slots.
func (t Type) HasArmor() bool {
	return t == TypeCharacter
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeCharacter, TypeAdversary, TypeCompanion, TypeEnvironment:
		return true
	default:
		return false
	}
}

// RefKind distinguishes persistent actors from token instances.
type RefKind int

const (
	RefPersistent RefKind = iota + 1
	RefToken
)

// Ref identifies a damage target.
//
// A persistent ref names an actor by id. A token ref names a placed token
// instance and keeps the display name and type so the token can be found
// again after it has been removed and re-placed.
type Ref struct {
	Kind    RefKind
	ActorID string
	SceneID string
	TokenID string
	Name    string
	Type    Type
}

// Persistent returns a ref to an actor by id.
func Persistent(actorID string) Ref {
	return Ref{Kind: RefPersistent, ActorID: actorID}
}

// TokenInstance returns a ref to a placed token. actorID is the underlying
// actor and may be empty for tokens without one.
func TokenInstance(sceneID, tokenID, actorID, name string, typ Type) Ref {
	return Ref{
		Kind:    RefToken,
		ActorID: actorID,
		SceneID: sceneID,
		TokenID: tokenID,
		Name:    name,
		Type:    typ,
	}
}

// IsToken reports whether the ref names a token instance.
func (r Ref) IsToken() bool {
	return r.Kind == RefToken
}

// Key identifies the target within a request: the token id for token refs
// and the actor id otherwise.
func (r Ref) Key() string {
	if r.IsToken() {
		return r.TokenID
	}
	return r.ActorID
}

// Validate checks the ref carries the ids its kind needs.
func (r Ref) Validate() error {
	switch r.Kind {
	case RefPersistent:
		if r.ActorID == "" {
			return fmt.Errorf("persistent ref requires an actor id")
		}
	case RefToken:
		if r.SceneID == "" || r.TokenID == "" {
			return fmt.Errorf("token ref requires scene and token ids")
		}
	default:
		return fmt.Errorf("unknown ref kind %d", r.Kind)
	}
	return nil
}

func (r Ref) String() string {
	if r.IsToken() {
		return fmt.Sprintf("token:%s/%s", r.SceneID, r.TokenID)
	}
	return "actor:" + r.ActorID
}

// Health is a marked-damage counter: Value 0 is unharmed and Value == Max
// is downed. Damage raises Value and healing lowers it.
type Health struct {
	Value int
	Max   int
}

// Saturated reports whether no further damage can be marked.
func (h Health) Saturated() bool {
	return h.Value >= h.Max
}

// State is the live view of a target read through the actor store.
// Optional parts are nil when the target does not track them.
type State struct {
	Ref        Ref
	Name       string
	Type       Type
	Health     *Health
	Thresholds *damage.Thresholds
	Armor      *damage.ArmorState
}

// HasArmor reports whether the target can spend armor slots.
func (s State) HasArmor() bool {
	return s.Type.HasArmor() && s.Armor != nil
}

// Field paths accepted in a Patch.
const (
	FieldHitPoints = "system.resources.hitPoints.value"
	FieldArmor     = "system.resources.armor.value"
)

// Patch sets field paths to new values.
type Patch map[string]int

// HitPoints returns the patched hit point value, if present.
func (p Patch) HitPoints() (int, bool) {
	v, ok := p[FieldHitPoints]
	return v, ok
}

// Armor returns the patched armor value, if present.
func (p Patch) Armor() (int, bool) {
	v, ok := p[FieldArmor]
	return v, ok
}

// Apply returns a copy of s with the patch applied.
func (p Patch) Apply(s State) (State, error) {
	for field := range p {
		if field != FieldHitPoints && field != FieldArmor {
			return State{}, fmt.Errorf("unsupported patch field %q", field)
		}
	}
	out := s
	if v, ok := p.HitPoints(); ok {
		if s.Health == nil {
			return State{}, fmt.Errorf("target %s has no hit points", s.Ref)
		}
		health := *s.Health
		health.Value = v
		out.Health = &health
	}
	if v, ok := p.Armor(); ok {
		if s.Armor == nil {
			return State{}, fmt.Errorf("target %s has no armor", s.Ref)
		}
		armor := *s.Armor
		armor.Current = v
		out.Armor = &armor
	}
	return out, nil
}
