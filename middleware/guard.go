// Package middleware adapts the venauth core to net/http hosts: it
// extracts the request token, makes it the current token for downstream
// manager calls, and enforces declarative requirements before the handler
// runs.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/opensef/venauth"
)

// DefaultTokenName is the header and query parameter the token is read
// from when no explicit name is given.
const DefaultTokenName = "Authorization"

// Guard returns middleware that resolves the request token and evaluates
// requirements in order, short-circuiting on the first failure. Pass
// type-level requirements before operation-level ones. Failures map to
// 401 for authentication and 403 for authorization.
//
// The guard never renews TTLs; hosts wanting sliding expiration call
// Manager.Renew from their own handler chain.
func Guard(mgr *venauth.Manager, requirements ...venauth.Requirement) func(http.Handler) http.Handler {
	return GuardWithTokenName(mgr, DefaultTokenName, requirements...)
}

// GuardWithTokenName is Guard with a custom header/query-parameter name
// for token extraction.
func GuardWithTokenName(mgr *venauth.Manager, tokenName string, requirements ...venauth.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if mgr == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if token, ok := requestToken(r, tokenName); ok {
				ctx = venauth.WithToken(ctx, token)
			}

			if err := mgr.Check(ctx, requirements...); err != nil {
				switch {
				case errors.Is(err, venauth.ErrPermissionDenied):
					http.Error(w, "forbidden", http.StatusForbidden)
				case errors.Is(err, venauth.ErrNotAuthenticated):
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				default:
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestToken reads the token from the named header, falling back to the
// query parameter of the same name. A Bearer prefix on the header value is
// stripped.
func requestToken(r *http.Request, tokenName string) (string, bool) {
	value := r.Header.Get(tokenName)
	if value == "" {
		value = r.URL.Query().Get(tokenName)
	}

	const bearer = "Bearer "
	if strings.HasPrefix(value, bearer) {
		value = value[len(bearer):]
	}

	if value == "" {
		return "", false
	}
	return value, true
}
