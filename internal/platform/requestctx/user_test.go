package requestctx

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestUserIDFromContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	got := UserIDFromContext(ctx)
	if got != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-42")
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	got := UserIDFromContext(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestUserIDFromContextNil(t *testing.T) {
	got := UserIDFromContext(nil)
	if got != "" {
		t.Fatalf("expected empty string for nil context, got %q", got)
	}
}

func TestWithUserIDNilContext(t *testing.T) {
	ctx := WithUserID(nil, "user-99")
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := UserIDFromContext(ctx); got != "user-99" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-99")
	}
}

func TestUserIDFromIncoming(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDHeader, " gm-1 "))
	if got := UserIDFromIncoming(ctx); got != "gm-1" {
		t.Fatalf("UserIDFromIncoming = %q, want %q", got, "gm-1")
	}
	if got := UserIDFromIncoming(context.Background()); got != "" {
		t.Fatalf("expected empty user without metadata, got %q", got)
	}
}

func TestWithOutgoingUserID(t *testing.T) {
	ctx := WithOutgoingUserID(context.Background(), "player-2")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	if got := md.Get(UserIDHeader); len(got) != 1 || got[0] != "player-2" {
		t.Fatalf("metadata = %v, want player-2", got)
	}

	plain := WithOutgoingUserID(context.Background(), "  ")
	if _, ok := metadata.FromOutgoingContext(plain); ok {
		t.Fatal("expected no metadata for empty user")
	}
}
