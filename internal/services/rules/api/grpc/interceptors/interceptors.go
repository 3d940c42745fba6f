package interceptors

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit/events"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

// UserInterceptor copies the x-user-id metadata header into the request
// context so per-user targets and undo records see the caller.
func UserInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if userID := requestctx.UserIDFromIncoming(ctx); userID != "" {
			ctx = requestctx.WithUserID(ctx, userID)
		}
		return handler(ctx, req)
	}
}

// AuditInterceptor emits an audit event for each unary gRPC call handled by the rules service.
func AuditInterceptor(store storage.AuditEventStore) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if store == nil {
			return resp, err
		}

		methodType := classifyMethodKind(info.FullMethod)
		eventName := events.GRPCWrite
		if methodType == "read" {
			eventName = events.GRPCRead
		}

		severity := audit.SeverityInfo
		code := codes.OK
		if err != nil {
			severity = audit.SeverityError
			if st, ok := status.FromError(err); ok {
				code = st.Code()
			}
		}

		attributes := map[string]any{
			"method":      info.FullMethod,
			"method_kind": methodType,
			"code":        code.String(),
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			attributes["trace_id"] = sc.TraceID().String()
			attributes["span_id"] = sc.SpanID().String()
		}

		emitErr := audit.NewEmitter(store).Emit(ctx, storage.AuditEvent{
			EventName:  eventName,
			Severity:   string(severity),
			UserID:     requestctx.UserIDFromContext(ctx),
			Attributes: attributes,
		})
		if emitErr != nil {
			log.Printf("audit emit %s: %v", info.FullMethod, emitErr)
		}

		return resp, err
	}
}

func classifyMethodKind(fullMethod string) string {
	switch fullMethod {
	case rules.RulesService_CancelDice_FullMethodName,
		rules.RulesService_AdversaryRoll_FullMethodName,
		rules.RulesService_DamageRoll_FullMethodName,
		rules.RulesService_ListUndoRecords_FullMethodName:
		return "read"
	default:
		return "write"
	}
}
