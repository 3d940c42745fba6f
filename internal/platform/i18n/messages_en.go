package i18n

var messagesEN = map[string]string{
	KeyTargetMissingHealth:     "%s has no hit point track and was skipped.",
	KeyTargetMissingThresholds: "%s has no damage thresholds and was skipped.",
	KeyTargetSaturated:         "%s cannot take more damage.",
	KeyTargetUnharmed:          "%s has no damage to heal.",
	KeyTargetPersistFailed:     "Could not update %s.",
	KeyDamageApplied:           "%s marks %d hit points (%s).",
	KeyHealingApplied:          "%s clears %d hit points.",
	KeyDirectDamageApplied:     "%s marks %d hit points.",
	KeyNoTargetsAffected:       "No targets were affected.",
	KeyArmorByNameDeprecated:   "Armor slots for %s were matched by name; names are not unique.",
	KeyUndoResolvedByName:      "Undo matched %s by name; names are not unique.",
	KeyUndoUnresolved:          "Could not find %s to undo.",
	KeyUndoRestored:            "Restored %d targets.",
	KeyUndoNothingRestored:     "Nothing could be restored.",

	KeyErrorUnknown:             "Something went wrong.",
	KeyErrorNotFound:            "The requested record was not found.",
	KeyErrorDiceMissing:         "At least one die is required.",
	KeyErrorDiceInvalidSpec:     "Dice must have positive sides and count.",
	KeyErrorDiceInvalidPool:     "Advantage and disadvantage dice must be d4, d6, d8 or d10 with non-negative counts.",
	KeyErrorDiceInvalidFace:     "That die size is not allowed here.",
	KeyErrorSeedOutOfRange:      "The roll seed is out of range.",
	KeyErrorInvalidAmount:       "The amount must be a positive whole number.",
	KeyErrorInvalidArmorRequest: "Armor slots must be a non-negative number or a per-target map.",
	KeyErrorNoTargets:           "Select or target at least one token.",
	KeyErrorPermissionDenied:    "You do not have permission to change that target.",
	KeyErrorUndoNotFound:        "That action was already undone or never existed.",
	KeyErrorInvalidFilter:       "The filter expression is invalid.",
}
