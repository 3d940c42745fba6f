package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const (
	healthMinBackoff  = 200 * time.Millisecond
	healthMaxBackoff  = time.Second
	healthCallTimeout = time.Second
)

// ErrUnknownService is returned when the server does not register the
// requested health service, which waiting will not fix.
var ErrUnknownService = errors.New("health service unknown")

// WaitForHealth blocks until the health check for service reports SERVING
// or the context ends.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	healthClient := grpc_health_v1.NewHealthClient(conn)
	backoff := healthMinBackoff
	for {
		callCtx, cancel := context.WithTimeout(ctx, healthCallTimeout)
		response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		switch {
		case err == nil && response.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING:
			if logf != nil {
				logf("gRPC health for %q is SERVING", service)
			}
			return nil
		case status.Code(err) == codes.NotFound:
			return fmt.Errorf("%w: %q", ErrUnknownService, service)
		case logf != nil && err != nil:
			logf("waiting for gRPC health: %v", err)
		case logf != nil:
			logf("waiting for gRPC health: status %s", response.GetStatus().String())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, healthMaxBackoff)
	}
}
