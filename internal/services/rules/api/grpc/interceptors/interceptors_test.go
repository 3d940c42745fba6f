package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit/events"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

type fakeAuditStore struct {
	last  storage.AuditEvent
	count int
	err   error
}

func (s *fakeAuditStore) AppendAuditEvent(_ context.Context, evt storage.AuditEvent) error {
	s.last = evt
	s.count++
	return s.err
}

func TestClassifyMethodKind(t *testing.T) {
	if got := classifyMethodKind(rules.RulesService_ListUndoRecords_FullMethodName); got != "read" {
		t.Fatalf("list undo records kind = %q, want read", got)
	}
	if got := classifyMethodKind(rules.RulesService_ApplyDamage_FullMethodName); got != "write" {
		t.Fatalf("apply damage kind = %q, want write", got)
	}
	if got := classifyMethodKind(rules.RulesService_DualityRoll_FullMethodName); got != "write" {
		t.Fatalf("duality roll kind = %q, want write", got)
	}
}

func TestAuditInterceptorNoStore(t *testing.T) {
	interceptor := AuditInterceptor(nil)
	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: rules.RulesService_Undo_FullMethodName},
		func(context.Context, any) (any, error) { return "ok", nil })
	if err != nil || resp != "ok" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
}

func TestAuditInterceptorRecordsWrite(t *testing.T) {
	store := &fakeAuditStore{}
	interceptor := AuditInterceptor(store)
	ctx := requestctx.WithUserID(context.Background(), "user-1")

	_, err := interceptor(ctx, "req", &grpc.UnaryServerInfo{FullMethod: rules.RulesService_ApplyDamage_FullMethodName},
		func(context.Context, any) (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.count != 1 {
		t.Fatalf("events = %d, want 1", store.count)
	}
	if store.last.EventName != events.GRPCWrite || store.last.UserID != "user-1" {
		t.Fatalf("event = %+v", store.last)
	}
	if store.last.Attributes["code"] != codes.OK.String() {
		t.Fatalf("code = %v, want OK", store.last.Attributes["code"])
	}
}

func TestAuditInterceptorRecordsErrorCode(t *testing.T) {
	store := &fakeAuditStore{}
	interceptor := AuditInterceptor(store)

	_, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: rules.RulesService_CancelDice_FullMethodName},
		func(context.Context, any) (any, error) { return nil, status.Error(codes.InvalidArgument, "bad pool") })
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want InvalidArgument", status.Code(err))
	}
	if store.last.EventName != events.GRPCRead || store.last.Severity != "ERROR" {
		t.Fatalf("event = %+v", store.last)
	}
	if store.last.Attributes["code"] != codes.InvalidArgument.String() {
		t.Fatalf("code = %v", store.last.Attributes["code"])
	}
}

func TestAuditInterceptorIgnoresStoreFailure(t *testing.T) {
	store := &fakeAuditStore{err: errors.New("boom")}
	interceptor := AuditInterceptor(store)
	resp, err := interceptor(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: rules.RulesService_Undo_FullMethodName},
		func(context.Context, any) (any, error) { return "ok", nil })
	if err != nil || resp != "ok" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
}

func TestUserInterceptor(t *testing.T) {
	interceptor := UserInterceptor()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestctx.UserIDHeader, "user-7"))

	var got string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		got = requestctx.UserIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user-7" {
		t.Fatalf("user id = %q, want user-7", got)
	}
}
