package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
)

// permissionResponseBody is the response for GET /permissions/{capability}.
type permissionResponseBody struct {
	Capability permission.Capability `json:"capability"`
	Slot       permission.Slot       `json:"slot"`
	permission.Decision
}

// getPermissionHandler reports whether the caller holds a capability and
// which layer decided it. Unknown capability keys answer deny.
func (srv *Server) getPermissionHandler(w http.ResponseWriter, r *http.Request) {
	orgID, okOrg := r.Context().Value(ctxOrgID).(uuid.UUID)
	slot, okSlot := r.Context().Value(ctxSlot).(permission.Slot)
	if !okOrg || !okSlot {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	c := permission.Capability(chi.URLParam(r, "capability"))

	d, err := srv.checker.Check(r.Context(), permission.Query{OrgID: orgID, Slot: slot, Capability: c})
	if err != nil {
		slog.ErrorContext(r.Context(), "permission check", "capability", c, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, permissionResponseBody{Capability: c, Slot: slot, Decision: d})
}
