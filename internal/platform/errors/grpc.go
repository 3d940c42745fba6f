package errors

import (
	"context"
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/duality-engine/internal/platform/i18n"
)

// HandleError converts err into a gRPC status error. Domain errors keep
// their code and carry a user message localized for locale. Context and
// existing status errors pass through; anything else becomes Internal with
// a generic message.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		tag := i18n.ResolveTag(locale).String()
		return appErr.ToGRPCStatus(tag, i18n.Sprintf(tag, appErr.Code.MessageKey()))
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}
