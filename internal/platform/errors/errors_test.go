package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("apply: %w", New(CodeRulesInvalidAmount, "amount must be positive"))
	if !stderrors.Is(err, New(CodeRulesInvalidAmount, "")) {
		t.Fatal("expected code match through wrap")
	}
	if stderrors.Is(err, New(CodeRulesNoTargets, "")) {
		t.Fatal("unexpected match on different code")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeRulesUndoNotFound, "gone"))); got != CodeRulesUndoNotFound {
		t.Fatalf("code = %s, want %s", got, CodeRulesUndoNotFound)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeRulesInvalidAmount, codes.InvalidArgument},
		{CodeRulesInvalidArmorRequest, codes.InvalidArgument},
		{CodeDiceInvalidPool, codes.InvalidArgument},
		{CodeRulesNoTargets, codes.FailedPrecondition},
		{CodeRulesPermissionDenied, codes.PermissionDenied},
		{CodeRulesUndoNotFound, codes.NotFound},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Fatalf("grpc code = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeRulesUndoNotFound, "undo record missing", map[string]string{"UndoID": "abc"})
	st, ok := status.FromError(err.ToGRPCStatus("en-US", "Nothing to undo."))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("code = %v, want %v", st.Code(), codes.NotFound)
	}
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeRulesUndoNotFound) || info.Metadata["UndoID"] != "abc" {
		t.Fatalf("error info = %+v", info)
	}
	if localized == nil || localized.Message != "Nothing to undo." {
		t.Fatalf("localized = %+v", localized)
	}
}

func TestHandleErrorLocalizesDomainErrors(t *testing.T) {
	err := HandleError(fmt.Errorf("apply: %w", New(CodeRulesNoTargets, "no targets")), "pt-BR")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected status error, got %T", err)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %s, want %s", st.Code(), codes.FailedPrecondition)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil {
		t.Fatal("expected localized message detail")
	}
	if localized.GetLocale() != "pt-BR" || localized.GetMessage() == "" {
		t.Fatalf("localized = %v", localized)
	}
}

func TestHandleErrorHidesUnknownErrors(t *testing.T) {
	st, _ := status.FromError(HandleError(stderrors.New("sql: connection refused"), ""))
	if st.Code() != codes.Internal {
		t.Fatalf("code = %s, want %s", st.Code(), codes.Internal)
	}
	if st.Message() != "an unexpected error occurred" {
		t.Fatalf("message = %q", st.Message())
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}
