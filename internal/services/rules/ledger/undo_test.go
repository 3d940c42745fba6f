package ledger

import (
	"testing"
	"time"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
)

func seededUndoStore() *UndoStore {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	armor := 1
	store := NewUndoStore()
	store.Put(Record{ID: "a", Kind: KindDamage, UserID: "u1", CreatedAt: base,
		Entries: []Snapshot{{Ref: actor.Persistent("hero"), OriginalArmor: &armor}}})
	store.Put(Record{ID: "b", Kind: KindHeal, UserID: "u2", CreatedAt: base.Add(time.Minute),
		Entries: []Snapshot{{Ref: actor.Persistent("hero")}, {Ref: actor.Persistent("goblin")}}})
	store.Put(Record{ID: "c", Kind: KindDamage, UserID: "u2", CreatedAt: base.Add(2 * time.Minute),
		Source:  &actor.Ref{Kind: actor.RefPersistent, ActorID: "hero"},
		Entries: []Snapshot{{Ref: actor.Persistent("goblin")}}})
	return store
}

func TestUndoStoreList(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "empty", filter: "", want: []string{"a", "b", "c"}},
		{name: "kind", filter: `kind = "damage"`, want: []string{"a", "c"}},
		{name: "user and kind", filter: `user_id = "u2" AND kind = "damage"`, want: []string{"c"}},
		{name: "or", filter: `user_id = "u1" OR entries >= 2`, want: []string{"a", "b"}},
		{name: "source", filter: `source = "hero"`, want: []string{"c"}},
		{name: "created after", filter: `created_at > timestamp("2026-03-01T12:00:30Z")`, want: []string{"b", "c"}},
		{name: "not", filter: `NOT kind = "heal"`, want: []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := seededUndoStore().List(tt.filter)
			if err != nil {
				t.Fatalf("List(%q): %v", tt.filter, err)
			}
			var got []string
			for _, record := range records {
				got = append(got, record.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestUndoStoreListInvalidFilter(t *testing.T) {
	for _, filter := range []string{`kind = `, `color = "red"`} {
		_, err := seededUndoStore().List(filter)
		if got := apperrors.CodeOf(err); got != apperrors.CodeRulesInvalidFilter {
			t.Fatalf("List(%q) code = %s, want %s", filter, got, apperrors.CodeRulesInvalidFilter)
		}
	}
}

func TestUndoStoreClonesRecords(t *testing.T) {
	store := seededUndoStore()
	record, ok := store.Get("a")
	if !ok {
		t.Fatal("expected record a")
	}
	*record.Entries[0].OriginalArmor = 9
	record.Entries[0].OriginalHealth = 7

	again, _ := store.Get("a")
	if *again.Entries[0].OriginalArmor != 1 || again.Entries[0].OriginalHealth != 0 {
		t.Fatalf("stored record mutated: %+v", again.Entries[0])
	}
}

func TestUndoStoreDelete(t *testing.T) {
	store := seededUndoStore()
	store.Delete("b")
	if _, ok := store.Get("b"); ok {
		t.Fatal("expected b deleted")
	}
	if got := store.Len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
}
