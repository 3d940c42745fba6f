// Package server wires the rules gRPC service to its SQLite store,
// notices, audit trail and health endpoint, and runs it until the context
// ends.
package server
