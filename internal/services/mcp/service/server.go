package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	platformgrpc "github.com/louisbranch/duality-engine/internal/platform/grpc"
	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/platform/timeouts"
	"github.com/louisbranch/duality-engine/internal/services/mcp/domain"
	"github.com/louisbranch/duality-engine/internal/services/rules/api/grpc/rules"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	serverName    = "duality-engine-rules"
	serverVersion = "0.1.0"
	// DefaultUserID is the caller identity stamped on rules calls when
	// Config.UserID is empty.
	DefaultUserID = "mcp"
)

// Config configures the MCP bridge.
type Config struct {
	// GRPCAddr is the rules service address.
	GRPCAddr string
	// UserID owns the targets and undo records the bridge creates.
	UserID string
	// Locale selects the language of rules error messages.
	Locale string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// newServer registers every rules tool against client. conn may be nil
// when client is not backed by a connection.
func newServer(conn *grpc.ClientConn, client domain.RulesClient) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(mcpServer, client)
	return &Server{mcpServer: mcpServer, conn: conn}
}

func registerTools(server *mcp.Server, client domain.RulesClient) {
	mcp.AddTool(server, domain.DualityRollTool(), domain.DualityRollHandler(client))
	mcp.AddTool(server, domain.AdversaryRollTool(), domain.AdversaryRollHandler(client))
	mcp.AddTool(server, domain.DamageRollTool(), domain.DamageRollHandler(client))
	mcp.AddTool(server, domain.CancelDiceTool(), domain.CancelDiceHandler(client))
	mcp.AddTool(server, domain.ArmCriticalTool(), domain.ArmCriticalHandler(client))
	mcp.AddTool(server, domain.SetTargetsTool(), domain.SetTargetsHandler(client))
	mcp.AddTool(server, domain.ApplyDamageTool(), domain.ApplyDamageHandler(client))
	mcp.AddTool(server, domain.ApplyHealingTool(), domain.ApplyHealingHandler(client))
	mcp.AddTool(server, domain.ApplyDirectDamageTool(), domain.ApplyDirectDamageHandler(client))
	mcp.AddTool(server, domain.UndoDamageTool(), domain.UndoDamageHandler(client))
	mcp.AddTool(server, domain.ListUndoTool(), domain.ListUndoHandler(client))
}

// Run dials the rules service and serves MCP over stdio until the context
// ends.
func Run(ctx context.Context, cfg Config) error {
	return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
}

func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	conn, err := dialRules(ctx, cfg)
	if err != nil {
		return err
	}
	server := newServer(conn, rules.NewClient(conn))
	return server.serveWithTransport(ctx, transport)
}

func dialRules(ctx context.Context, cfg Config) (*grpc.ClientConn, error) {
	addr := strings.TrimSpace(cfg.GRPCAddr)
	if addr == "" {
		return nil, errors.New("rules address is required")
	}
	userID := strings.TrimSpace(cfg.UserID)
	if userID == "" {
		userID = DefaultUserID
	}
	logf := func(format string, args ...any) {
		log.Printf("rules %s", fmt.Sprintf(format, args...))
	}
	dialOpts := append(
		platformgrpc.DefaultClientDialOptions(),
		grpc.WithChainUnaryInterceptor(platformgrpc.MetadataInterceptor(map[string]string{
			requestctx.UserIDHeader: userID,
			rules.LocaleHeader:      cfg.Locale,
		})),
	)
	conn, err := platformgrpc.DialWithHealth(ctx, platformgrpc.DialConfig{
		Addr:    addr,
		Service: rules.ServiceName,
		Timeout: timeouts.HealthWait,
		Logf:    logf,
	}, dialOpts...)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to rules server at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}

// Close releases the gRPC connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return err
	}
	s.conn = nil
	return nil
}

// serveWithTransport runs the MCP server on transport and closes the gRPC
// connection on the way out.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
