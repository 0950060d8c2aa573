package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// bookingAccessHandler resolves the displayed contact access for every guest
// and host of a booking, each pool against its own configuration.
func (srv *Server) bookingAccessHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "booking_id"))
	if err != nil {
		http.Error(w, "invalid booking_id", http.StatusBadRequest)
		return
	}

	b, err := srv.store.LoadBookingAccess(r.Context(), orgID, bookingID)
	if err != nil {
		slog.ErrorContext(r.Context(), "load booking access", "booking_id", bookingID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	view, err := srv.access.ResolveBooking(*b)
	if err != nil {
		slog.WarnContext(r.Context(), "resolve booking access", "booking_id", bookingID, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	recordAccess(view.Guests)
	recordAccess(view.Hosts)
	writeJSON(w, http.StatusOK, view)
}
