package authz

import (
	"log/slog"
	"net/http"
	"strings"
)

// HeaderAuthorization is the HTTP header carrying the bearer token.
const HeaderAuthorization = "Authorization"

// bearerPrefix is the authorization scheme prefix, matched
// case-insensitively per RFC 9110.
const bearerPrefix = "Bearer "

// accessDeniedBody is the single response body written for every denied
// request. All deny reasons produce the same status and body, so probing
// clients learn nothing about why a request was refused.
const accessDeniedBody = "access denied"

// ExtractBearerToken extracts the token from an Authorization header
// value. Returns the empty string if the header does not use the Bearer
// scheme or carries no token.
func ExtractBearerToken(header string) string {
	if len(header) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// Middleware returns an HTTP middleware that authorizes every request
// through the gate.
//
// The middleware performs the following steps:
//  1. Extracts the bearer token from the Authorization header, if any
//  2. Authorizes the request path and token via [Gate.Authorize]
//  3. On deny, responds with HTTP 403 Forbidden and a constant body,
//     identical for every deny reason
//  4. On allow, stores the validated token and its authorities in the
//     request context and passes the request to the next handler
//
// Deny reasons are logged, never sent to the client.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /dummy", handleDummy)
//	handler := authz.Middleware(gate)(mux)
//	http.ListenAndServe(":8080", handler)
func Middleware(gate *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := ExtractBearerToken(r.Header.Get(HeaderAuthorization))

			decision := gate.Authorize(ctx, r.URL.Path, token)
			if !decision.Allowed {
				slog.WarnContext(ctx, "authz: request denied",
					"path", r.URL.Path,
					"method", r.Method,
					"reason", decision.Reason.String(),
				)
				http.Error(w, accessDeniedBody, http.StatusForbidden)
				return
			}

			if decision.Token != nil {
				ctx = ContextWithToken(ctx, decision.Token)
				ctx = ContextWithAuthorities(ctx, decision.Authorities)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
