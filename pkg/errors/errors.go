// Package errors provides standardized error types and error handling
// utilities for the photoatom backend core. It defines the error categories
// of the trust and access layer, stable machine-readable codes, and helper
// functions for creating, wrapping, and inspecting errors.
//
// # Error Categories
//
// The categories map to the failure domains of the system:
//
//   - Validation errors: invalid configuration or input
//   - Credential errors: unusable key/cert/password material (startup-fatal)
//   - Token errors: per-request bearer token rejection
//   - Authorization errors: access decisions against the request policy
//   - Cache errors: remote cache connection, read, and write failures
//   - Internal errors: unexpected system failures
//   - Unavailable errors: a dependency cannot be reached
//   - Timeout errors: operation exceeded its time limit
//
// Credential errors must abort startup: no component is allowed to run with
// a partially constructed trust context. Token and authorization errors are
// recovered per request into a deny decision. Cache errors are recovered by
// bypassing the cache; they never block the operation the cache accelerates.
//
// # Error Codes
//
// Each error includes a machine-readable code (e.g., "AUTH_002") following
// the pattern CATEGORY_XXX where CATEGORY is a short identifier and XXX is a
// numeric code. Codes are stable once assigned.
//
// # Usage
//
// Create a new error with context:
//
//	err := errors.New(errors.CodeTokenExpired, "token has expired")
//
// Wrap an existing error:
//
//	err := errors.Wrap(err, errors.CodeCredentialUnreadable, "failed to read identity store")
//
// Check error category:
//
//	if errors.IsCredential(err) {
//	    // refuse to start
//	}
//
// Extract error details for logging:
//
//	if e, ok := errors.AsError(err); ok {
//	    logger.Error("operation failed",
//	        "code", e.Code,
//	        "message", e.Message,
//	    )
//	}
package errors
