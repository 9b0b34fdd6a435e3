// Package api implements the nbshell HTTP surface using chi.
package api

import (
	"net/http"
)

// RequireSession returns middleware that rejects API requests with 401
// while authenticated reports false.
func RequireSession(authenticated func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authenticated() {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
