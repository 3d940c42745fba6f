package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/duality-engine/internal/services/mcp/domain"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/interceptors"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage/memory"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// startRulesServer serves the rules service over a memory store.
func startRulesServer(t *testing.T) (string, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.PutActor(ctx, storage.ActorRecord{
		ID: "hero", Name: "Marlowe", Type: actor.TypeCharacter,
		Health:     &actor.Health{Value: 0, Max: 6},
		Thresholds: &damage.Thresholds{Major: 5, Severe: 10},
	}); err != nil {
		t.Fatalf("put actor: %v", err)
	}

	l := ledger.New(store, store, store, ledger.WithLogger(log.New(io.Discard, "", 0)))
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors.UserInterceptor()))
	rules.RegisterRulesServiceServer(server, rules.NewService(rules.Deps{Ledger: l, Catalog: store, Targets: store}))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(rules.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)
	return listener.Addr().String(), store
}

func connect(t *testing.T, ctx context.Context, cfg Config) (*mcp.ClientSession, <-chan error) {
	t.Helper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- runWithTransport(ctx, cfg, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	return session, serveErr
}

func callTool[Out any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) Out {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("call %s returned tool error: %+v", name, res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s output: %v", name, err)
	}
	var out Out
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
	return out
}

// TestRunWithTransportServesTools drives the tools end to end against a
// live rules service.
func TestRunWithTransportServesTools(t *testing.T) {
	addr, _ := startRulesServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, serveErr := connect(t, ctx, Config{GRPCAddr: addr, UserID: "gm"})
	defer session.Close()

	listCtx, listCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer listCancel()
	tools, err := session.ListTools(listCtx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"duality_roll", "adversary_roll", "damage_roll", "apply_damage", "apply_healing", "undo_damage", "arm_critical_override", "cancel_dice"} {
		if !names[want] {
			t.Fatalf("tool %q not registered; have %v", want, names)
		}
	}

	armed := callTool[domain.ArmCriticalResult](t, session, "arm_critical_override", map[string]any{})
	if !armed.Armed {
		t.Fatal("expected override armed")
	}
	roll := callTool[domain.DualityRollResult](t, session, "duality_roll", map[string]any{"modifier": 1})
	if !roll.Crit || !roll.Forced {
		t.Fatalf("roll = %+v, want forced critical", roll)
	}

	applied := callTool[domain.LedgerResult](t, session, "apply_damage", map[string]any{
		"targets": []any{map[string]any{"actor_id": "hero"}},
		"amount":  6,
	})
	if applied.UndoID == "" || len(applied.Applied) != 1 || applied.Applied[0].HealthAfter != 2 {
		t.Fatalf("applied = %+v, want major damage with undo id", applied)
	}

	records := callTool[domain.ListUndoResult](t, session, "list_undo_records", map[string]any{"filter": `user_id = "gm"`})
	if len(records.Records) != 1 || records.Records[0].ID != applied.UndoID {
		t.Fatalf("records = %+v, want the gm record", records.Records)
	}

	undone := callTool[domain.UndoResult](t, session, "undo_damage", map[string]any{"undo_id": applied.UndoID})
	if !undone.Success || len(undone.Restored) != 1 || undone.Restored[0].HealthAfter != 0 {
		t.Fatalf("undo = %+v", undone)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestToolErrorsAreReported(t *testing.T) {
	addr, _ := startRulesServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, _ := connect(t, ctx, Config{GRPCAddr: addr})
	defer session.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	res, err := session.CallTool(callCtx, &mcp.CallToolParams{
		Name:      "apply_damage",
		Arguments: map[string]any{"targets": []any{map[string]any{"actor_id": "hero"}}, "amount": 0},
	})
	if err == nil && (res == nil || !res.IsError) {
		t.Fatalf("expected tool error, got %+v", res)
	}
	if err == nil {
		text, _ := res.Content[0].(*mcp.TextContent)
		if text == nil || !strings.Contains(text.Text, "InvalidArgument") {
			t.Fatalf("content = %+v, want InvalidArgument message", res.Content)
		}
	}
}

func TestDialRulesRequiresAddress(t *testing.T) {
	if _, err := dialRules(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestServeWithTransportRequiresServer(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
	if err := nilServer.Close(); err != nil {
		t.Fatalf("close nil server: %v", err)
	}
}
