package graph

import (
	"context"

	"socialql/internal/models"
	"socialql/internal/observability"
)

// Error is the resolver error returned to graphql-go. Its extensions carry
// the error code and, for field-level failures, the field messages.
type Error struct {
	Code    string
	Message string
	Fields  map[string]string
	Details string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements graphql-go's resolver error extension hook.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["errors"] = e.Fields
	}
	if e.Details != "" {
		ext["details"] = e.Details
	}
	return ext
}

// toGraphQLError maps err onto an *Error. Anything that is not a known
// AppError is logged and reported as INTERNAL_ERROR; the underlying text is
// only attached when showDetails is set.
func toGraphQLError(ctx context.Context, op string, err error, showDetails bool) *Error {
	appErr := models.AsAppError(err)
	if appErr.Code != models.CodeInternal {
		return &Error{Code: appErr.Code, Message: appErr.Message, Fields: appErr.Fields}
	}

	observability.Logger.ErrorContext(ctx, "graphql operation failed",
		"operation", op,
		"error", err,
	)
	out := &Error{Code: appErr.Code, Message: appErr.Message}
	if showDetails {
		out.Details = err.Error()
	}
	return out
}
