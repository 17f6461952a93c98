package shared

import (
	"errors"
	"net/http"
)

// Machine-readable error codes returned in the response body. Clients switch
// on these rather than on HTTP status alone.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"

	CodeVideoNotFound = "VIDEO_NOT_FOUND"
	CodeAccessDenied  = "ACCESS_DENIED"

	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeSessionMismatch    = "SESSION_MISMATCH"
	CodeTokenVideoMismatch = "TOKEN_VIDEO_MISMATCH"

	CodeSuspiciousActivity = "SUSPICIOUS_ACTIVITY"
	CodeRateLimited        = "RATE_LIMITED"

	CodeCorruptFile = "CORRUPT_FILE"
)

// AppError carries an HTTP status, a machine code and a user-facing message
// through the service layer up to the fiber error handler. The wrapped error
// stays internal (logged, never rendered).
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
	Data       interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(statusCode int, code, message string, err error) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

func NewUnauthorizedError(code, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, code, message, nil)
}

func NewForbiddenError(code, message string) *AppError {
	return NewAppError(http.StatusForbidden, code, message, nil)
}

func NewNotFoundError(code, message string) *AppError {
	return NewAppError(http.StatusNotFound, code, message, nil)
}

func NewTooManyRequestsError(message string, retryAfter int) *AppError {
	e := NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, nil)
	e.Data = map[string]interface{}{"retry_after": retryAfter}
	return e
}

func NewUnprocessableError(code, message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, code, message, nil)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, err)
}

// GetAppError unwraps err to an *AppError if one is anywhere in the chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
