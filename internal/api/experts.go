package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// getExpertHandler returns an expert profile if the caller's organization may
// see it. Hidden experts answer 404 so their existence is not disclosed.
func (srv *Server) getExpertHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	expertID, err := uuid.Parse(chi.URLParam(r, "expert_id"))
	if err != nil {
		http.Error(w, "invalid expert_id", http.StatusBadRequest)
		return
	}

	e, err := srv.store.GetExpert(r.Context(), expertID)
	if err != nil {
		slog.ErrorContext(r.Context(), "get expert", "expert_id", expertID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if e == nil || !e.VisibleTo(orgID) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
