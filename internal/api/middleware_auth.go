// ABOUTME: RequireAuthenticated middleware for JWT Bearer auth.
// ABOUTME: Injects the authenticated userID into the request context.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/hassandayeh/NRE-sub001/internal/auth"
)

// RequireAuthenticated returns a middleware that requires a valid access token
// in an "Authorization: Bearer <jwt>" header. On success it injects ctxUserID
// into the request context.
func (srv *Server) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAccessToken(token, []byte(srv.cfg.JWTSecret))
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
