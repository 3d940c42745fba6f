package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/duality-engine/internal/platform/i18n"
	"github.com/louisbranch/duality-engine/internal/platform/timeouts"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/interceptors"
	rulesgrpc "github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/duality"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/notify"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit"
	storagesqlite "github.com/louisbranch/duality-engine/internal/services/rules/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultDBPath is used when Options.DBPath is empty.
var DefaultDBPath = filepath.Join("data", "rules.db")

// Options configures a rules server.
type Options struct {
	// DBPath is the SQLite file backing actors, scenes, targets and audit.
	DBPath string
	// Locale renders notices and is the fallback for error copy.
	Locale string
	// Logger receives notices; nil uses the standard logger.
	Logger *log.Logger
}

// Server hosts the rules gRPC service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *storagesqlite.Store
	ledger     *ledger.Ledger
}

// New creates a rules server listening on addr. Use ":0" for an ephemeral
// port.
func New(addr string, opts Options) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	store, err := openStore(opts.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	locale := i18n.ResolveTag(opts.Locale).String()
	emitter := audit.NewEmitter(store)
	l := ledger.New(store, store, store,
		ledger.WithNotifier(notify.NewLogNotifier(opts.Logger, locale)),
		ledger.WithAudit(emitter),
		ledger.WithLogger(opts.Logger),
	)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UserInterceptor(),
			interceptors.AuditInterceptor(store),
		),
	)
	rulesService := rulesgrpc.NewService(rulesgrpc.Deps{
		Ledger:   l,
		Catalog:  store,
		Targets:  store,
		Override: &duality.CriticalOverride{},
		Audit:    emitter,
		Locale:   locale,
	})
	healthServer := health.NewServer()
	rulesgrpc.RegisterRulesServiceServer(grpcServer, rulesService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(rulesgrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		ledger:     l,
	}, nil
}

// Addr returns the listener address for the rules server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a rules server until the context ends.
func Run(ctx context.Context, addr string, opts Options) error {
	srv, err := New(addr, opts)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the rules server and blocks until it stops or the context
// ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("rules server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.stopGracefully(timeouts.Shutdown)
		err := <-serveErr
		if pending := s.ledger.UndoStore().Len(); pending > 0 {
			log.Printf("discarding %d undo records on shutdown", pending)
		}
		return handleErr(err)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openStore(path string) (*storagesqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := storagesqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close rules store: %v", err)
	}
}

// stopGracefully drains in-flight calls, forcing a hard stop after limit.
func (s *Server) stopGracefully(limit time.Duration) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		log.Printf("graceful stop exceeded %s, forcing stop", limit)
		s.grpcServer.Stop()
		<-done
	}
}
