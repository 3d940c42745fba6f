// Package requestctx carries the calling user through request contexts.
package requestctx

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// UserIDHeader is the gRPC metadata key naming the calling user.
const UserIDHeader = "x-user-id"

type userIDContextKey struct{}

// WithUserID stores a user identifier in context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDContextKey{}, userID)
}

// UserIDFromContext returns the user identifier stored in context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(userIDContextKey{}).(string)
	return value
}

// UserIDFromIncoming reads the x-user-id header from incoming gRPC metadata.
func UserIDFromIncoming(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(UserIDHeader)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// WithOutgoingUserID attaches userID to outgoing gRPC metadata. An empty
// userID leaves ctx unchanged.
func WithOutgoingUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, UserIDHeader, userID)
}
