// Package grpc holds client-side helpers for reaching the rules service:
// dialing with a health gate and stamping caller metadata on every call.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Dialer creates a client connection for addr.
type Dialer interface {
	Dial(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)
}

// DialerFunc adapts a dial function to the Dialer interface.
type DialerFunc func(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error)

// Dial implements Dialer for DialerFunc.
func (fn DialerFunc) Dial(addr string, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	return fn(addr, opts...)
}

// DialStage describes where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the client could not be created.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the health check never reported SERVING.
	DialStageHealth DialStage = "health"
)

// DialError wraps dial and health check failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Addr  string
	Err   error
}

// Error implements the error interface.
func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error for %s: %v", e.Stage, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DialConfig describes a health-gated dial.
type DialConfig struct {
	Addr string
	// Service is the health service to wait on; "" checks the whole server.
	Service string
	// Timeout bounds the health wait. Zero waits until ctx ends.
	Timeout time.Duration
	Dialer  Dialer
	Logf    func(string, ...any)
}

// DefaultClientDialOptions returns insecure transport plus OTel client
// instrumentation, so outbound calls propagate trace context whenever a
// TracerProvider is registered.
func DefaultClientDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// DialWithHealth creates a client for cfg.Addr and waits for the health
// check to report SERVING. It closes the connection if the wait fails.
func DialWithHealth(ctx context.Context, cfg DialConfig, opts ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, &DialError{Stage: DialStageConnect, Err: errors.New("address is required")}
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = DialerFunc(gogrpc.NewClient)
	}

	conn, err := dialer.Dial(addr, opts...)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Addr: addr, Err: err}
	}

	waitCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := WaitForHealth(waitCtx, conn, cfg.Service, cfg.Logf); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Addr: addr, Err: err}
	}
	return conn, nil
}

// MetadataInterceptor appends fixed key/value pairs to the outgoing
// metadata of every unary call. Pairs with an empty value are dropped and
// values already present on the call are left alone.
func MetadataInterceptor(pairs map[string]string) gogrpc.UnaryClientInterceptor {
	kv := make([]string, 0, len(pairs)*2)
	for key, value := range pairs {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		kv = append(kv, strings.ToLower(key), value)
	}
	return func(ctx context.Context, method string, req, reply any, cc *gogrpc.ClientConn, invoker gogrpc.UnaryInvoker, opts ...gogrpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		for i := 0; i < len(kv); i += 2 {
			if len(md.Get(kv[i])) > 0 {
				continue
			}
			ctx = metadata.AppendToOutgoingContext(ctx, kv[i], kv[i+1])
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
