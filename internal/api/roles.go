// ABOUTME: Role configuration handlers: effective permission matrix, role updates, overrides.
// ABOUTME: Every route here sits behind RequireCapability(roles:manage).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hassandayeh/NRE-sub001/internal/permission"
	"github.com/hassandayeh/NRE-sub001/internal/store"
)

// roleResponseBody is one slot of GET /roles.
type roleResponseBody struct {
	Slot        permission.Slot    `json:"slot"`
	Label       string             `json:"label"`
	Active      bool               `json:"active"`
	Configured  bool               `json:"configured"`
	Permissions []permission.Entry `json:"permissions"`
}

// overrideResponseBody is the response for PUT /roles/{slot}/overrides/{capability}.
type overrideResponseBody struct {
	Slot       permission.Slot       `json:"slot"`
	Capability permission.Capability `json:"capability"`
	Allowed    bool                  `json:"allowed"`
}

type updateRoleBody struct {
	Label  *string `json:"label"`
	Active *bool   `json:"active"`
}

type setOverrideBody struct {
	Allowed *bool `json:"allowed"`
}

// roleResponse renders one slot. role is nil when the org never configured it.
func (srv *Server) roleResponse(orgID uuid.UUID, slot permission.Slot, role *permission.OrgRole, overrides []permission.Override) roleResponseBody {
	shown := permission.OrgRole{OrgID: orgID, Slot: slot}
	if role != nil {
		shown = *role
	}
	return roleResponseBody{
		Slot:        slot,
		Label:       shown.DisplayLabel(srv.resolver.Catalog()),
		Active:      shown.Active,
		Configured:  role != nil,
		Permissions: srv.resolver.Effective(orgID, slot, role, overrides),
	}
}

// listRolesHandler returns all ten slots with their effective permissions.
func (srv *Server) listRolesHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	roles, err := srv.store.ListOrgRoles(r.Context(), orgID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list org roles", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	overrides, err := srv.store.ListOverrides(r.Context(), orgID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list overrides", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	bySlot := make(map[permission.Slot]*permission.OrgRole, len(roles))
	byRole := make(map[uuid.UUID][]permission.Override)
	for i := range roles {
		bySlot[roles[i].Slot] = &roles[i]
	}
	for _, ov := range overrides {
		byRole[ov.OrgRoleID] = append(byRole[ov.OrgRoleID], ov)
	}

	out := make([]roleResponseBody, 0, permission.MaxSlot)
	for _, slot := range permission.AllSlots() {
		role := bySlot[slot]
		var ovs []permission.Override
		if role != nil {
			ovs = byRole[role.ID]
		}
		out = append(out, srv.roleResponse(orgID, slot, role, ovs))
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": out})
}

// updateRoleHandler sets a slot's label and/or active flag, creating the
// OrgRole on first use.
func (srv *Server) updateRoleHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	slot, err := permission.ParseSlotString(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req updateRoleBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Label == nil && req.Active == nil {
		http.Error(w, "label or active is required", http.StatusBadRequest)
		return
	}

	role, err := srv.store.UpdateOrgRole(r.Context(), orgID, slot, store.RoleUpdate{Label: req.Label, Active: req.Active})
	if err != nil {
		slog.ErrorContext(r.Context(), "update org role", "slot", slot, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "org role updated", "org_id", orgID, "slot", slot, "active", role.Active)

	overrides, err := srv.store.ListOverrides(r.Context(), orgID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list overrides", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var own []permission.Override
	for _, ov := range overrides {
		if ov.OrgRoleID == role.ID {
			own = append(own, ov)
		}
	}
	writeJSON(w, http.StatusOK, srv.roleResponse(orgID, slot, role, own))
}

// parseSlotCapability reads {slot} and {capability} for override routes.
// Unknown capabilities are rejected here; permission checks never reject them.
func parseSlotCapability(r *http.Request) (permission.Slot, permission.Capability, error) {
	slot, err := permission.ParseSlotString(chi.URLParam(r, "slot"))
	if err != nil {
		return 0, "", err
	}
	c, err := permission.ParseCapability(chi.URLParam(r, "capability"))
	if err != nil {
		return 0, "", err
	}
	return slot, c, nil
}

// setOverrideHandler records an explicit allow or deny for one capability.
func (srv *Server) setOverrideHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	slot, c, err := parseSlotCapability(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req setOverrideBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Allowed == nil {
		http.Error(w, "allowed is required", http.StatusBadRequest)
		return
	}

	ov, err := srv.store.SetOverride(r.Context(), orgID, slot, c, *req.Allowed)
	if errors.Is(err, permission.ErrUnknownCapability) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "set override", "slot", slot, "capability", c, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "override set", "org_id", orgID, "slot", slot, "capability", c, "allowed", ov.Allowed)
	writeJSON(w, http.StatusOK, overrideResponseBody{Slot: slot, Capability: ov.Capability, Allowed: ov.Allowed})
}

// clearOverrideHandler removes an override so the slot defers to its template.
func (srv *Server) clearOverrideHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := r.Context().Value(ctxOrgID).(uuid.UUID)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	slot, c, err := parseSlotCapability(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	removed, err := srv.store.ClearOverride(r.Context(), orgID, slot, c)
	if err != nil {
		slog.ErrorContext(r.Context(), "clear override", "slot", slot, "capability", c, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
