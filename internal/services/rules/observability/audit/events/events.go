// Package events defines rules audit event names.
package events

const (
	// GRPCRead captures audit events for read-only gRPC handlers.
	GRPCRead = "telemetry.grpc.read"
	// GRPCWrite captures audit events for mutating gRPC handlers.
	GRPCWrite = "telemetry.grpc.write"

	DamageApplied       = "rules.damage.applied"
	HealingApplied      = "rules.healing.applied"
	DirectDamageApplied = "rules.direct_damage.applied"
	UndoRestored        = "rules.undo.restored"
	CriticalArmed       = "rules.critical.armed"
)
