package server

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	rulesgrpc "github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New("127.0.0.1:0", Options{
		DBPath: filepath.Join(t.TempDir(), "nested", "rules.db"),
		Locale: "en-US",
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func dial(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		t.Fatalf("dial server: %v", err)
	}
	return conn
}

// TestServeStopsOnContext verifies the server serves and stops on cancel.
func TestServeStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer(t)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	conn := dial(t, srv.Addr())
	defer conn.Close()

	client := rulesgrpc.NewClient(conn)
	callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
	defer callCancel()
	if _, err := client.CancelDice(callCtx, rulesgrpc.CancelDiceRequest{Advantage: map[string]int{"d6": 1}}); err != nil {
		t.Fatalf("cancel dice: %v", err)
	}

	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

// TestHealthCheckReportsServing ensures gRPC health checks report SERVING
// for both the server and the rules service.
func TestHealthCheckReportsServing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer(t)
	go func() { _ = srv.Serve(ctx) }()

	conn := dial(t, srv.Addr())
	defer conn.Close()

	health := grpc_health_v1.NewHealthClient(conn)
	for _, service := range []string{"", rulesgrpc.ServiceName} {
		callCtx, callCancel := context.WithTimeout(context.Background(), time.Second)
		resp, err := health.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		callCancel()
		if err != nil {
			t.Fatalf("health check %q: %v", service, err)
		}
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			t.Fatalf("health %q = %s, want SERVING", service, resp.GetStatus())
		}
	}
}

// TestServerPersistsDamage drives a damage and undo round trip against
// the SQLite-backed server.
func TestServerPersistsDamage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer(t)
	go func() { _ = srv.Serve(ctx) }()

	conn := dial(t, srv.Addr())
	defer conn.Close()
	client := rulesgrpc.NewClient(conn)

	callCtx, callCancel := context.WithTimeout(requestctx.WithOutgoingUserID(context.Background(), "gm"), 2*time.Second)
	defer callCancel()

	if err := client.PutActor(callCtx, rulesgrpc.PutActorRequest{
		ID: "brute", Name: "Bandit Brute", Type: "adversary",
		Health:     &rulesgrpc.Health{Value: 0, Max: 6},
		Thresholds: &rulesgrpc.Thresholds{Major: 7, Severe: 14},
	}); err != nil {
		t.Fatalf("put actor: %v", err)
	}

	target := []rulesgrpc.Ref{{ActorID: "brute"}}
	applied, err := client.ApplyDamage(callCtx, rulesgrpc.ApplyDamageRequest{Targets: target, Amount: 15})
	if err != nil {
		t.Fatalf("apply damage: %v", err)
	}
	if len(applied.Applied) != 1 || applied.Applied[0].Severity != "severe" || applied.Applied[0].HealthAfter != 3 {
		t.Fatalf("applied = %+v, want severe to 3", applied.Applied)
	}

	undone, err := client.Undo(callCtx, rulesgrpc.UndoRequest{UndoID: applied.UndoID})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(undone.Restored) != 1 || undone.Restored[0].HealthAfter != 0 {
		t.Fatalf("undo = %+v, want health back to 0", undone)
	}
}

func TestNewFailsOnBusyAddress(t *testing.T) {
	srv := newTestServer(t)
	defer srv.listener.Close()
	defer srv.closeStore()

	if _, err := New(srv.Addr(), Options{DBPath: filepath.Join(t.TempDir(), "rules.db")}); err == nil {
		t.Fatal("expected listen error")
	}
}
