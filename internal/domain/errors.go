package domain

import "errors"

// Error codes shared by services and the HTTP boundary
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeExpired         = "EXPIRED"
	CodeMismatch        = "MISMATCH"
	CodeDuplicateReview = "DUPLICATE_REVIEW"
	CodeConflict        = "CONFLICT"
)

// Error is a domain-level error carrying a stable code and a client-safe message
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a domain error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new domain error
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func InvalidRequest(message string) *Error  { return NewError(CodeInvalidRequest, message) }
func Unauthorized(message string) *Error    { return NewError(CodeUnauthorized, message) }
func Forbidden(message string) *Error       { return NewError(CodeForbidden, message) }
func NotFound(message string) *Error        { return NewError(CodeNotFound, message) }
func Expired(message string) *Error         { return NewError(CodeExpired, message) }
func Mismatch(message string) *Error        { return NewError(CodeMismatch, message) }
func DuplicateReview(message string) *Error { return NewError(CodeDuplicateReview, message) }
func Conflict(message string) *Error        { return NewError(CodeConflict, message) }

// Sentinels usable with errors.Is regardless of message
var (
	ErrInvalidRequest  = InvalidRequest("invalid request")
	ErrUnauthorized    = Unauthorized("unauthorized")
	ErrForbidden       = Forbidden("forbidden")
	ErrNotFound        = NotFound("not found")
	ErrExpired         = Expired("expired")
	ErrMismatch        = Mismatch("mismatch")
	ErrDuplicateReview = DuplicateReview("duplicate review")
	ErrConflict        = Conflict("conflict")
)

// CodeOf returns the domain code of err, or "" when err is not a domain error
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
