// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GRPCRequest caps a single gRPC call made on behalf of an MCP tool.
const GRPCRequest = 5 * time.Second

// HealthWait caps how long a client waits for a peer to report SERVING.
const HealthWait = 10 * time.Second

// Shutdown limits how long a server waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second
