package domain

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Actor role missing
	EFORBIDDEN    = "forbidden"    // Role does not allow the operation
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // Resource conflict (e.g., duplicate SKU)
	ERATELIMIT    = "rate_limit"   // Too many catalog writes
	EUNAVAILABLE  = "unavailable"  // Catalog API unreachable or failing
	EINTERNAL     = "internal"     // Internal error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "catalog.get_product")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	var re *RemoteError
	if errors.As(err, &re) {
		if len(re.Messages) > 0 {
			return re.Messages[0]
		}
		return "The catalog service could not complete the request."
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Validation failed. Please check your input and try again."
	}
	return err.Error()
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ErrorMessages flattens err into the ordered list of messages shown in the
// error lists of the table page and the edit form. Errors combined with
// multierr contribute one message each. A *RemoteError carrying server
// messages contributes those instead of its own summary.
func ErrorMessages(err error) []string {
	if err == nil {
		return nil
	}
	var msgs []string
	for _, e := range multierr.Errors(err) {
		var re *RemoteError
		if errors.As(e, &re) && len(re.Messages) > 0 {
			msgs = append(msgs, re.Messages...)
			continue
		}
		msgs = append(msgs, ErrorMessage(e))
	}
	return msgs
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an error for requests without an actor role.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Unavailable creates an error for a failing upstream service.
func Unavailable(err error, op, message string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RemoteError is returned when the catalog API answers but reports failure,
// either through a non-2xx status or an envelope with success=false.
type RemoteError struct {
	Op         string
	StatusCode int
	Messages   []string // Server-provided messages, in order
}

func (e *RemoteError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Messages[0])
	}
	return fmt.Sprintf("%s: catalog API returned status %d", e.Op, e.StatusCode)
}

// Code maps the HTTP status reported by the catalog API to an error code.
func (e *RemoteError) Code() string {
	switch {
	case e.StatusCode == 400 || e.StatusCode == 422:
		return EINVALID
	case e.StatusCode == 401:
		return EUNAUTHORIZED
	case e.StatusCode == 403:
		return EFORBIDDEN
	case e.StatusCode == 404:
		return ENOTFOUND
	case e.StatusCode == 409:
		return ECONFLICT
	case e.StatusCode >= 500:
		return EUNAVAILABLE
	default:
		return EINVALID
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
