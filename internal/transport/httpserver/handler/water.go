package handler

import (
	"net/http"

	registrationdomain "water-app-go/internal/domain/registration"
	usagedomain "water-app-go/internal/domain/usage"
	"water-app-go/internal/domain/waterid"
	"water-app-go/pkg/apperr"
)

var errForeignHousehold = apperr.New(apperr.KindForbidden, "caller does not belong to this household")

type registerWaterRequest struct {
	PrimaryMembers      []string `json:"primary_members"`
	SpecialMembers      []string `json:"special_members"`
	ExtraWaterRequested bool     `json:"extra_water_requested"`
}

type recordUsageRequest struct {
	Date   string  `json:"date"`
	Liters float64 `json:"liters"`
}

type recordUsageResponse struct {
	WaterID string  `json:"water_id"`
	Date    string  `json:"date"`
	Liters  float64 `json:"liters"`
}

func (h *Handlers) RegisterWater(w http.ResponseWriter, r *http.Request) {
	var req registerWaterRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	waterID, ok := h.household(w, r, "water.register", false)
	if !ok {
		return
	}

	registration, err := h.Registrations.Register(r.Context(), registrationdomain.RegisterInput{
		WaterID:             waterID,
		PrimaryMembers:      req.PrimaryMembers,
		SpecialMembers:      req.SpecialMembers,
		ExtraWaterRequested: req.ExtraWaterRequested,
	})
	if err != nil {
		h.fail(w, r, "water.register: register failed", err, "water_id", waterID)
		return
	}

	writeJSON(w, http.StatusCreated, registration)
}

func (h *Handlers) GetWaterRegistration(w http.ResponseWriter, r *http.Request) {
	waterID, ok := h.household(w, r, "water.details", true)
	if !ok {
		return
	}

	details, err := h.Registrations.GetDetails(r.Context(), waterID)
	if err != nil {
		h.fail(w, r, "water.details: get details failed", err, "water_id", waterID)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (h *Handlers) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var req recordUsageRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	waterID, ok := h.household(w, r, "water.usage", true)
	if !ok {
		return
	}

	date, err := h.Usage.RecordReading(r.Context(), usagedomain.RecordInput{
		WaterID: waterID,
		Date:    req.Date,
		Liters:  req.Liters,
	})
	if err != nil {
		h.fail(w, r, "water.usage: record reading failed", err, "water_id", waterID)
		return
	}

	writeJSON(w, http.StatusCreated, recordUsageResponse{WaterID: waterID, Date: date, Liters: req.Liters})
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	dashboard, err := h.Usage.Dashboard(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "dashboard: build failed", err, "user_id", userID)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// household resolves {water_id} and checks the caller lives there. With
// allowOwner the owner of the root is admitted as well.
func (h *Handlers) household(w http.ResponseWriter, r *http.Request, op string, allowOwner bool) (string, bool) {
	userID, ok := h.caller(w, r)
	if !ok {
		return "", false
	}
	waterID, err := pathParam(r, "water_id")
	if err != nil {
		h.fail(w, r, op+": invalid path", err)
		return "", false
	}
	rootID, _, err := waterid.Parse(waterID)
	if err != nil {
		h.fail(w, r, op+": invalid water id", err, "water_id", waterID)
		return "", false
	}

	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, op+": load caller failed", err, "user_id", userID)
		return "", false
	}
	if user.WaterID == waterID || (allowOwner && user.Owns(rootID)) {
		return waterID, true
	}

	h.fail(w, r, op+": foreign household", errForeignHousehold, "user_id", userID, "water_id", waterID)
	return "", false
}
