package errors

// Code represents a machine-readable error code for categorizing errors.
// Error codes follow the pattern CATEGORY_XXX where CATEGORY is a short
// identifier (e.g., CRED, AUTH) and XXX is a three-digit numeric code.
//
// Error codes are designed to be:
//   - Stable: Codes do not change once assigned
//   - Unique: Each error condition has a distinct code
//   - Searchable: Codes can be used to find documentation and solutions
//   - Machine-readable: Suitable for automated error handling
type Code string

// Error code categories and their ranges:
//
//	VAL_xxx   - Validation errors (400 Bad Request)
//	CRED_xxx  - Credential material errors (500, startup-fatal)
//	AUTH_xxx  - Token validation errors (401 Unauthorized)
//	AUTHZ_xxx - Authorization errors (403 Forbidden)
//	CACHE_xxx - Remote cache errors (503 Service Unavailable)
//	INT_xxx   - Internal errors (500 Internal Server Error)
//	UNAVAIL_xxx - Service unavailable (503 Service Unavailable)
//	TIMEOUT_xxx - Timeout errors (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400
	// Used when configuration or request input fails validation rules.

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field is missing.
	CodeValidationRequired Code = "VAL_002"

	// Credential errors (CRED_xxx) - startup-fatal
	// Used when key, certificate, or password material is unusable. A
	// credential error means no trust context exists; the service must not
	// start with one of these pending.

	// CodeCredential indicates a general credential material failure.
	CodeCredential Code = "CRED_001"

	// CodeCredentialUnreadable indicates a credential store file could not
	// be read from the filesystem.
	CodeCredentialUnreadable Code = "CRED_002"

	// CodeCredentialPassword indicates a credential store password is wrong
	// or the store integrity check failed.
	CodeCredentialPassword Code = "CRED_003"

	// CodeCredentialEmpty indicates a credential store contains no usable
	// entries (no private key, or no trusted certificates).
	CodeCredentialEmpty Code = "CRED_004"

	// CodeCredentialIncompatible indicates the key or certificate type is
	// incompatible with the TLS protocol in use.
	CodeCredentialIncompatible Code = "CRED_005"

	// Token errors (AUTH_xxx) - HTTP 401
	// Used when a bearer token is rejected. Every rejection carries the
	// specific stage that failed; no partial trust is ever granted.

	// CodeToken indicates a general token validation failure.
	CodeToken Code = "AUTH_001"

	// CodeTokenMalformed indicates the token's structural envelope
	// (header.payload.signature) could not be parsed.
	CodeTokenMalformed Code = "AUTH_002"

	// CodeTokenSignature indicates the token signature did not verify
	// against any trusted issuer key.
	CodeTokenSignature Code = "AUTH_003"

	// CodeTokenExpired indicates the token's exp claim is in the past.
	CodeTokenExpired Code = "AUTH_004"

	// CodeTokenIssuer indicates the token's iss claim does not exactly
	// match the configured issuer location.
	CodeTokenIssuer Code = "AUTH_005"

	// CodeTokenKeyFetch indicates the issuer's signing keys could not be
	// fetched or the token references an unknown key id.
	CodeTokenKeyFetch Code = "AUTH_006"

	// Authorization errors (AUTHZ_xxx) - HTTP 403
	// Used for request access decisions. All three map to one uniform
	// outward "access denied" response; the distinction exists for internal
	// logging and tests only.

	// CodeAccessDenied indicates a general authorization failure.
	CodeAccessDenied Code = "AUTHZ_001"

	// CodeAccessNoToken indicates a protected path was requested without a
	// bearer token.
	CodeAccessNoToken Code = "AUTHZ_002"

	// CodeAccessInvalidToken indicates a protected path was requested with
	// a token that failed validation.
	CodeAccessInvalidToken Code = "AUTHZ_003"

	// CodeAccessPolicyDenied indicates the path matched the deny-all policy
	// rule (an unlisted path).
	CodeAccessPolicyDenied Code = "AUTHZ_004"

	// Cache errors (CACHE_xxx) - HTTP 503
	// Used for remote cache failures. Callers recover by bypassing the
	// cache and recomputing; these never fail the protected operation.

	// CodeCacheConnection indicates the cache connection could not be
	// established or verified (TLS, AUTH, or echo liveness failure).
	CodeCacheConnection Code = "CACHE_001"

	// CodeCacheRead indicates a cache read failed.
	CodeCacheRead Code = "CACHE_002"

	// CodeCacheWrite indicates a cache write failed.
	CodeCacheWrite Code = "CACHE_003"

	// Internal errors (INT_xxx) - HTTP 500
	// Used for unexpected internal failures.

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalConfiguration indicates a configuration error.
	CodeInternalConfiguration Code = "INT_002"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503
	// Used when a dependency is temporarily unavailable.

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableDependency indicates a dependent service is unavailable.
	CodeUnavailableDependency Code = "UNAVAIL_002"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504
	// Used when an operation exceeds its time limit. Every network
	// operation in the trust layer carries a bounded timeout; an unbounded
	// wait in an authentication gate is a resource-exhaustion hazard.

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDependency indicates a call to a dependent service timed out.
	CodeTimeoutDependency Code = "TIMEOUT_002"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "CRED", "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
