package audit

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

type fakeAuditStore struct {
	last  storage.AuditEvent
	count int
}

func (s *fakeAuditStore) AppendAuditEvent(_ context.Context, evt storage.AuditEvent) error {
	s.last = evt
	s.count++
	return nil
}

func TestEmitterNoopWhenNil(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), storage.AuditEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := (&Emitter{}).Emit(context.Background(), storage.AuditEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestEmitterFillsDefaults(t *testing.T) {
	store := &fakeAuditStore{}
	clockTime := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	emitter := &Emitter{store: store, clock: func() time.Time { return clockTime }}

	if err := emitter.Emit(context.Background(), storage.AuditEvent{EventName: "rules.undo.restored"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if store.count != 1 {
		t.Fatalf("events = %d, want 1", store.count)
	}
	if !store.last.Timestamp.Equal(clockTime) {
		t.Fatalf("timestamp = %v, want %v", store.last.Timestamp, clockTime)
	}
	if store.last.Severity != string(SeverityInfo) {
		t.Fatalf("severity = %q, want %q", store.last.Severity, SeverityInfo)
	}
}

func TestEmitterKeepsProvidedValues(t *testing.T) {
	store := &fakeAuditStore{}
	emitter := NewEmitter(store)
	at := time.Date(2025, 12, 24, 8, 0, 0, 0, time.UTC)

	if err := emitter.Emit(context.Background(), storage.AuditEvent{EventName: "x", Timestamp: at, Severity: string(SeverityWarn)}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !store.last.Timestamp.Equal(at) || store.last.Severity != string(SeverityWarn) {
		t.Fatalf("event = %+v", store.last)
	}
}
