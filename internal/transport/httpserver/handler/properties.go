package handler

import (
	"net/http"
	"time"

	propertydomain "water-app-go/internal/domain/property"
)

type createPropertyRequest struct {
	Name             string `json:"name"`
	District         string `json:"district"`
	Municipality     string `json:"municipality"`
	Ward             int    `json:"ward"`
	Type             string `json:"type"`
	IdentifierNumber string `json:"identifier_number"`
	ExactLocation    string `json:"exact_location"`
}

type propertyResponse struct {
	ID               string    `json:"id"`
	RootID           string    `json:"root_id"`
	Name             string    `json:"name"`
	District         string    `json:"district"`
	Municipality     string    `json:"municipality"`
	Ward             int       `json:"ward"`
	Type             string    `json:"type"`
	IDType           string    `json:"id_type"`
	IdentifierNumber string    `json:"identifier_number"`
	NumberOfTenants  int       `json:"number_of_tenants"`
	Families         []string  `json:"families"`
	ExactLocation    string    `json:"exact_location"`
	CreatedAt        time.Time `json:"created_at"`
}

type propertyViewResponse struct {
	propertyResponse
	TenantCount int  `json:"tenant_count"`
	IsOwner     bool `json:"is_owner"`
	IsResidence bool `json:"is_residence"`
}

func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	views, err := h.Properties.ViewProperties(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "properties.list: view properties failed", err, "user_id", userID)
		return
	}

	resp := make([]propertyViewResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, propertyViewResponse{
			propertyResponse: toPropertyResponse(&view.Property),
			TenantCount:      view.TenantCount,
			IsOwner:          view.IsOwner,
			IsResidence:      view.IsResidence,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	property, err := h.Properties.CreateProperty(r.Context(), userID, propertydomain.CreateInput{
		Name:             req.Name,
		District:         req.District,
		Municipality:     req.Municipality,
		Ward:             req.Ward,
		Type:             propertydomain.Type(req.Type),
		IdentifierNumber: req.IdentifierNumber,
		ExactLocation:    req.ExactLocation,
	})
	if err != nil {
		h.fail(w, r, "properties.create: create property failed", err, "user_id", userID)
		return
	}

	writeJSON(w, http.StatusCreated, toPropertyResponse(property))
}

func (h *Handlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	rootID, err := pathParam(r, "root_id")
	if err != nil {
		h.fail(w, r, "properties.delete: invalid path", err)
		return
	}

	property, err := h.Properties.GetByRoot(r.Context(), rootID)
	if err != nil {
		h.fail(w, r, "properties.delete: load property failed", err, "root_id", rootID)
		return
	}
	if err := h.Properties.AssertOwner(r.Context(), userID, property); err != nil {
		h.fail(w, r, "properties.delete: not owner", err, "root_id", rootID, "user_id", userID)
		return
	}

	if err := h.Properties.DeleteProperty(r.Context(), rootID); err != nil {
		h.fail(w, r, "properties.delete: delete property failed", err, "root_id", rootID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toPropertyResponse(property *propertydomain.Property) propertyResponse {
	families := []string(property.Families)
	if families == nil {
		families = []string{}
	}
	return propertyResponse{
		ID:               property.ID,
		RootID:           property.RootID,
		Name:             property.Name,
		District:         property.District,
		Municipality:     property.Municipality,
		Ward:             property.Ward,
		Type:             string(property.Type),
		IDType:           string(property.IDType),
		IdentifierNumber: property.IdentifierNumber,
		NumberOfTenants:  property.NumberOfTenants,
		Families:         families,
		ExactLocation:    property.ExactLocation,
		CreatedAt:        property.CreatedAt,
	}
}
