// ABOUTME: HTTP server struct, constructor, and handler wiring for the booking API.
// ABOUTME: Holds the store, config, and the three resolution engines used by handlers.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hassandayeh/NRE-sub001/internal/access"
	"github.com/hassandayeh/NRE-sub001/internal/config"
	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
	"github.com/hassandayeh/NRE-sub001/internal/visibility"
)

// Store is the persistence surface the HTTP layer needs. *store.Store
// satisfies it; tests use an in-memory fake.
type Store interface {
	permission.RowLoader
	permission.BindingLoader
	Ping(ctx context.Context) error
	ListOrgRoles(ctx context.Context, orgID uuid.UUID) ([]permission.OrgRole, error)
	ListOverrides(ctx context.Context, orgID uuid.UUID) ([]permission.Override, error)
	UpdateOrgRole(ctx context.Context, orgID uuid.UUID, slot permission.Slot, upd store.RoleUpdate) (*permission.OrgRole, error)
	SetOverride(ctx context.Context, orgID uuid.UUID, slot permission.Slot, capability permission.Capability, allowed bool) (*permission.Override, error)
	ClearOverride(ctx context.Context, orgID uuid.UUID, slot permission.Slot, capability permission.Capability) (bool, error)
	LoadBookingAccess(ctx context.Context, orgID, bookingID uuid.UUID) (*access.Booking, error)
	GetExpert(ctx context.Context, id uuid.UUID) (*visibility.Expert, error)
}

// Server holds the dependencies for the HTTP layer.
type Server struct {
	store    Store
	cfg      *config.Config
	resolver *permission.Resolver
	checker  *permission.Checker
	access   *access.Resolver
}

// NewServer creates a Server resolving permissions against catalog.
func NewServer(s Store, cfg *config.Config, catalog *permission.Catalog) *Server {
	resolver := permission.NewResolver(catalog)
	return &Server{
		store:    s,
		cfg:      cfg,
		resolver: resolver,
		checker:  permission.NewChecker(resolver, s, s),
		access:   access.NewResolver(access.Options{PhoneEnabled: cfg.AccessPhoneEnabled}),
	}
}

// Handler builds and returns the http.Handler.
func (srv *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// ── Security headers ─────────────────────────────────────────────────────
	// Must be first so they appear on every response including errors.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	})

	// ── Standard chi middleware ───────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestSize(1 << 20))
	r.Use(middleware.Recoverer)

	// ── Infrastructure endpoints ──────────────────────────────────────────────
	r.Get("/healthz", healthzHandler(srv.store))
	r.Handle("/metrics", promhttp.Handler())

	// ── API v1 sub-router with huma (OpenAPI 3.1) ────────────────────────────
	apiRouter := chi.NewRouter()
	humaConfig := huma.DefaultConfig("Newsroom Booking API", "0.1.0")
	humaConfig.Info.Description = "Role permissions, participant access, and expert visibility"
	api := humachi.New(apiRouter, humaConfig)
	registerTemplateRoutes(api, srv.resolver.Catalog())

	// ── Org routes (chi, not huma, for per-route capability middleware) ───────
	apiRouter.Route("/orgs/{org_id}", func(r chi.Router) {
		r.Use(srv.RequireAuthenticated(), srv.RequireMember())

		r.Get("/permissions/{capability}", srv.getPermissionHandler)

		r.Route("/roles", func(r chi.Router) {
			r.Use(srv.RequireCapability(permission.RolesManage))
			r.Get("/", srv.listRolesHandler)
			r.Patch("/{slot}", srv.updateRoleHandler)
			r.Put("/{slot}/overrides/{capability}", srv.setOverrideHandler)
			r.Delete("/{slot}/overrides/{capability}", srv.clearOverrideHandler)
		})

		r.With(srv.RequireCapability(permission.BookingView)).
			Get("/bookings/{booking_id}/access", srv.bookingAccessHandler)
		r.With(srv.RequireCapability(permission.DirectoryView)).
			Get("/experts/{expert_id}", srv.getExpertHandler)
	})

	r.Mount("/api/v1", apiRouter)

	return r
}

// pinger is the part of the store /healthz needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthResponse is the JSON body for /healthz.
type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db,omitempty"`
}

// healthzHandler returns 200 {"status":"ok"} when the DB is reachable,
// or 503 {"status":"degraded","db":"unavailable"} when it is not.
func healthzHandler(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		statusCode := http.StatusOK

		if db == nil {
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		} else if err := db.Ping(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "healthz: db ping failed", "error", err)
			resp.Status = "degraded"
			resp.DB = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.ErrorContext(r.Context(), "healthz: failed to encode response", "error", err)
		}
	}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
