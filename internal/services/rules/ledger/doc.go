// Package ledger applies damage and healing to targets and records how to
// undo it.
//
// Every mutation is read-modify-write through storage.ActorStore: the
// ledger loads a target, computes the new hit point and armor values and
// persists one combined patch. Targets are mutated independently, so a
// failure part way through a batch leaves earlier targets changed. That is
// why an undo record is kept as soon as one target succeeds.
//
// Undo records live in a process-local UndoStore. A record is removed only
// by a successful Restore; records that are never restored stay for the
// life of the process.
package ledger
