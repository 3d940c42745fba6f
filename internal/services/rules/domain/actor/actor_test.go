package actor

import (
	"testing"

	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
)

func TestTypeHasArmor(t *testing.T) {
	tests := []struct {
		typ  Type
		want bool
	}{
		{TypeCharacter, true},
		{TypeAdversary, false},
		{TypeCompanion, false},
		{TypeEnvironment, false},
	}
	for _, tt := range tests {
		if got := tt.typ.HasArmor(); got != tt.want {
			t.Fatalf("%s has armor = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestRefKey(t *testing.T) {
	if got := Persistent("a1").Key(); got != "a1" {
		t.Fatalf("key = %q, want %q", got, "a1")
	}
	ref := TokenInstance("s1", "t1", "a1", "Goblin", TypeAdversary)
	if got := ref.Key(); got != "t1" {
		t.Fatalf("key = %q, want %q", got, "t1")
	}
	if !ref.IsToken() {
		t.Fatal("expected token ref")
	}
}

func TestRefValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     Ref
		wantErr bool
	}{
		{"persistent", Persistent("a1"), false},
		{"persistent missing id", Persistent(""), true},
		{"token", TokenInstance("s1", "t1", "", "Goblin", TypeAdversary), false},
		{"token missing scene", TokenInstance("", "t1", "", "Goblin", TypeAdversary), true},
		{"zero ref", Ref{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	state := State{
		Ref:    Persistent("a1"),
		Type:   TypeCharacter,
		Health: &Health{Value: 1, Max: 6},
		Armor:  &damage.ArmorState{Current: 0, Max: 3},
	}
	got, err := Patch{FieldHitPoints: 3, FieldArmor: 2}.Apply(state)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Health.Value != 3 || got.Armor.Current != 2 {
		t.Fatalf("state = %+v/%+v, want 3 hp and 2 armor", *got.Health, *got.Armor)
	}
	if state.Health.Value != 1 || state.Armor.Current != 0 {
		t.Fatal("apply mutated the original state")
	}

	if _, err := (Patch{"system.other": 1}).Apply(state); err == nil {
		t.Fatal("expected error for unsupported field")
	}
	if _, err := (Patch{FieldArmor: 1}).Apply(State{Ref: Persistent("a2")}); err == nil {
		t.Fatal("expected error for missing armor")
	}
}
