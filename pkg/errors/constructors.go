package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeTokenIssuer, "token issuer does not match configured issuer")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
// Use this for creating errors with dynamic content in the message.
//
// Example:
//
//	err := errors.Newf(errors.CodeCredentialEmpty, "trust store %q contains no certificates", path)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	data, err := os.ReadFile(path)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeCredentialUnreadable, "failed to read identity store")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrapf returns nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeCacheWrite, "failed to store cache entry %q", key)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a new validation error.
// This is a convenience function equivalent to New(CodeValidation, message).
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Credential creates a new credential material error. Credential errors are
// startup-fatal: a service must not start while one is pending, because no
// usable trust context exists.
//
// Example:
//
//	err := errors.Credential("identity store contains no private key")
func Credential(message string) *Error {
	return New(CodeCredential, message)
}

// Credentialf creates a new credential material error with a formatted message.
func Credentialf(format string, args ...any) *Error {
	return Newf(CodeCredential, format, args...)
}

// Token creates a new token validation error. Token errors are per-request:
// they map to a deny decision, never to a server failure.
//
// Example:
//
//	err := errors.Token("token signature is invalid")
func Token(message string) *Error {
	return New(CodeToken, message)
}

// Denied creates a new authorization error.
// Use this when the request is denied by the access policy.
func Denied(message string) *Error {
	return New(CodeAccessDenied, message)
}

// Internal creates a new internal error.
// Use this for unexpected system failures that should not expose details to users.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a new internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Unavailable creates a new service unavailable error.
// Use this when a dependency is temporarily unavailable.
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a new timeout error.
// Use this when an operation exceeds its time limit.
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// FromError converts a standard error to an Error.
// If the error is already an *Error, it is returned as-is.
// Otherwise, it is wrapped as an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
