package i18n

// Notification keys emitted by the damage/heal ledger.
const (
	KeyTargetMissingHealth     = "notify.target_missing_health"
	KeyTargetMissingThresholds = "notify.target_missing_thresholds"
	KeyTargetSaturated         = "notify.target_saturated"
	KeyTargetUnharmed          = "notify.target_unharmed"
	KeyTargetPersistFailed     = "notify.target_persist_failed"
	KeyDamageApplied           = "notify.damage_applied"
	KeyHealingApplied          = "notify.healing_applied"
	KeyDirectDamageApplied     = "notify.direct_damage_applied"
	KeyNoTargetsAffected       = "notify.no_targets_affected"
	KeyArmorByNameDeprecated   = "notify.armor_by_name_deprecated"
	KeyUndoResolvedByName      = "notify.undo_resolved_by_name"
	KeyUndoUnresolved          = "notify.undo_unresolved"
	KeyUndoRestored            = "notify.undo_restored"
	KeyUndoNothingRestored     = "notify.undo_nothing_restored"
)

// Error copy keys, one per platform error code.
const (
	KeyErrorUnknown             = "error.UNKNOWN"
	KeyErrorNotFound            = "error.NOT_FOUND"
	KeyErrorDiceMissing         = "error.DICE_MISSING"
	KeyErrorDiceInvalidSpec     = "error.DICE_INVALID_SPEC"
	KeyErrorDiceInvalidPool     = "error.DICE_INVALID_POOL"
	KeyErrorDiceInvalidFace     = "error.DICE_INVALID_FACE"
	KeyErrorSeedOutOfRange      = "error.SEED_OUT_OF_RANGE"
	KeyErrorInvalidAmount       = "error.RULES_INVALID_AMOUNT"
	KeyErrorInvalidArmorRequest = "error.RULES_INVALID_ARMOR_REQUEST"
	KeyErrorNoTargets           = "error.RULES_NO_TARGETS"
	KeyErrorPermissionDenied    = "error.RULES_PERMISSION_DENIED"
	KeyErrorUndoNotFound        = "error.RULES_UNDO_NOT_FOUND"
	KeyErrorInvalidFilter       = "error.RULES_INVALID_FILTER"
)
