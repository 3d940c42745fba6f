// Package errors provides coded domain errors for the rules service.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Dice errors
	CodeDiceMissing     Code = "DICE_MISSING"
	CodeDiceInvalidSpec Code = "DICE_INVALID_SPEC"
	CodeDiceInvalidPool Code = "DICE_INVALID_POOL"
	CodeDiceInvalidFace Code = "DICE_INVALID_FACE"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"

	// Ledger errors
	CodeRulesInvalidAmount       Code = "RULES_INVALID_AMOUNT"
	CodeRulesInvalidArmorRequest Code = "RULES_INVALID_ARMOR_REQUEST"
	CodeRulesNoTargets           Code = "RULES_NO_TARGETS"
	CodeRulesPermissionDenied    Code = "RULES_PERMISSION_DENIED"
	CodeRulesUndoNotFound        Code = "RULES_UNDO_NOT_FOUND"
	CodeRulesInvalidFilter       Code = "RULES_INVALID_FILTER"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeDiceMissing,
		CodeDiceInvalidSpec,
		CodeDiceInvalidPool,
		CodeDiceInvalidFace,
		CodeSeedOutOfRange,
		CodeRulesInvalidAmount,
		CodeRulesInvalidArmorRequest,
		CodeRulesInvalidFilter:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeRulesNoTargets:
		return codes.FailedPrecondition

	case CodeRulesPermissionDenied:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRulesUndoNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

// MessageKey returns the i18n catalog key for the user-facing copy of the code.
func (c Code) MessageKey() string {
	return "error." + string(c)
}
