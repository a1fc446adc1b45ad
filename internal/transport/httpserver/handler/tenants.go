package handler

import (
	"net/http"

	propertydomain "water-app-go/internal/domain/property"
)

type addTenantRequest struct {
	UserID string `json:"user_id"`
	RootID string `json:"root_id"`
}

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	property, ok := h.ownedProperty(w, r, "tenants.list")
	if !ok {
		return
	}

	tenants, err := h.Properties.ListTenants(r.Context(), property.ID)
	if err != nil {
		h.fail(w, r, "tenants.list: list tenants failed", err, "property_id", property.ID)
		return
	}

	writeJSON(w, http.StatusOK, tenants)
}

func (h *Handlers) AddTenant(w http.ResponseWriter, r *http.Request) {
	var req addTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	property, ok := h.ownedProperty(w, r, "tenants.add")
	if !ok {
		return
	}

	tenancy, err := h.Properties.AddTenant(r.Context(), property.ID, req.UserID, req.RootID)
	if err != nil {
		h.fail(w, r, "tenants.add: add tenant failed", err, "property_id", property.ID, "tenant_id", req.UserID)
		return
	}

	writeJSON(w, http.StatusCreated, tenancy)
}

func (h *Handlers) RemoveTenant(w http.ResponseWriter, r *http.Request) {
	property, ok := h.ownedProperty(w, r, "tenants.remove")
	if !ok {
		return
	}
	tenantID, err := pathParam(r, "user_id")
	if err != nil {
		h.fail(w, r, "tenants.remove: invalid path", err)
		return
	}

	if err := h.Properties.RemoveTenant(r.Context(), property.ID, tenantID); err != nil {
		h.fail(w, r, "tenants.remove: remove tenant failed", err, "property_id", property.ID, "tenant_id", tenantID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownedProperty loads {property_id} and checks the caller owns it.
func (h *Handlers) ownedProperty(w http.ResponseWriter, r *http.Request, op string) (*propertydomain.Property, bool) {
	userID, ok := h.caller(w, r)
	if !ok {
		return nil, false
	}
	propertyID, err := pathParam(r, "property_id")
	if err != nil {
		h.fail(w, r, op+": invalid path", err)
		return nil, false
	}

	property, err := h.Properties.Get(r.Context(), propertyID)
	if err != nil {
		h.fail(w, r, op+": load property failed", err, "property_id", propertyID)
		return nil, false
	}
	if err := h.Properties.AssertOwner(r.Context(), userID, property); err != nil {
		h.fail(w, r, op+": not owner", err, "property_id", propertyID, "user_id", userID)
		return nil, false
	}
	return property, true
}
