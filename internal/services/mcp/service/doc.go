// Package service runs the MCP bridge: it dials the rules gRPC service,
// registers the rules tools and serves them over stdio.
package service
