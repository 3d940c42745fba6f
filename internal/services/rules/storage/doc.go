// Package storage defines the collaborator contracts the rules ledger
// reads and writes through.
//
// The ledger never owns actor state. It loads a target, computes a patch
// and hands the patch back through ActorStore. Scene and target lookups
// answer "what is the user pointing at" and "where did that token go".
// Implementations live in subpackages: memory for tests and scenarios,
// sqlite for the server.
//
// Common error types:
//   - ErrNotFound: requested record is missing
package storage
