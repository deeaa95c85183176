package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// Each code maps to exactly one HTTP status in handler.ErrorCodeToHTTPStatus.
const (
	EINVALID      = "invalid"         // 400
	EUNAUTHORIZED = "unauthorized"    // 401
	EFORBIDDEN    = "forbidden"       // 403
	ENOTFOUND     = "not_found"       // 404
	ECONFLICT     = "conflict"        // 409
	ETOOLARGE     = "too_large"       // 413
	ERATELIMIT    = "rate_limit"      // 429
	EINTERNAL     = "internal"        // 500, message hidden from callers
	ENOTIMPL      = "not_implemented" // 501
	EUNAVAILABLE  = "unavailable"     // 503, safe to retry
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is the application error type. Handlers translate it into a status
// code and a user-facing message; Op and Err are for logs only.
type Error struct {
	// Code is a machine-readable error code (e.g. EINVALID, ENOTFOUND).
	Code string

	// Message is safe to show to callers unless Code is EINTERNAL.
	Message string

	// Op names the operation that failed (e.g. "checkout.start").
	Op string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same code and message.
// This lets package-level sentinels match errors re-created with a
// different Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ErrorCode extracts the error code. Non-domain errors report EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage extracts a caller-safe message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp extracts the failing operation, for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Errorf creates a domain error with a formatted message.
// Example: domain.Errorf(domain.EINVALID, "checkout.start", "unknown plan: %s", planID)
func Errorf(code, op, format string, args ...any) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError attaches a code, operation and message to err.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// WithOp returns a copy of a sentinel error tagged with op and cause.
// The copy still matches the sentinel under errors.Is.
func WithOp(sentinel error, op string, cause error) error {
	var e *Error
	if !errors.As(sentinel, &e) {
		return WrapError(sentinel, EINTERNAL, op, sentinel.Error())
	}
	return &Error{Code: e.Code, Message: e.Message, Op: op, Err: cause}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// ValidationError carries per-field failures from request validation.
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			if e.Op != "" {
				return fmt.Sprintf("%s: %s: %s", e.Op, field, msg)
			}
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields", e.Op, len(e.Fields))
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field failure to err, creating a ValidationError if
// err is not one already.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

// GetValidationFields returns the field failures of a ValidationError, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("plan.get", "plan", planID)
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

// Internal wraps err as an internal error. Callers only ever see a generic
// message; err is kept for logging.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// Unavailable marks a failure of an upstream dependency that the caller may
// retry, such as a provider timeout.
func Unavailable(err error, op, message string) error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}
