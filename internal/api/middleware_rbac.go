// ABOUTME: RequireMember and RequireCapability middleware for org-scoped routes.
// ABOUTME: Every capability check runs the permission resolver; decisions are never cached.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

// RequireMember returns a middleware that verifies the authenticated user is a
// member of the org in the URL ({org_id}). On success it injects ctxOrgID and
// ctxSlot into the request context.
//
// Must run after RequireAuthenticated.
func (srv *Server) RequireMember() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			orgID, err := uuid.Parse(chi.URLParam(r, "org_id"))
			if err != nil {
				http.Error(w, "invalid org_id", http.StatusBadRequest)
				return
			}

			slot, err := srv.store.GetMemberSlot(r.Context(), orgID, userID)
			if err != nil {
				slog.ErrorContext(r.Context(), "load member slot", "org_id", orgID, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if slot == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxOrgID, orgID)
			ctx = context.WithValue(ctx, ctxSlot, *slot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability returns a middleware that resolves capability for the
// caller's slot and rejects the request with 403 unless it is allowed.
//
// Must run after RequireMember.
func (srv *Server) RequireCapability(capability permission.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, okOrg := r.Context().Value(ctxOrgID).(uuid.UUID)
			slot, okSlot := r.Context().Value(ctxSlot).(permission.Slot)
			if !okOrg || !okSlot {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			d, err := srv.checker.Check(r.Context(), permission.Query{OrgID: orgID, Slot: slot, Capability: capability})
			if err != nil {
				slog.ErrorContext(r.Context(), "permission check", "capability", capability, "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			permissionDecisions.WithLabelValues(d.Source.String(), strconv.FormatBool(d.Allowed)).Inc()
			if !d.Allowed {
				slog.DebugContext(r.Context(), "permission denied",
					"org_id", orgID, "slot", slot, "capability", capability, "source", d.Source)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
