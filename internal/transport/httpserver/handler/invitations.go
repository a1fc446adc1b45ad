package handler

import (
	"net/http"

	invitationdomain "water-app-go/internal/domain/invitation"
)

type registerInvitationRequest struct {
	HostWaterID  string            `json:"host_water_id"`
	Guests       []string          `json:"guests"`
	ArrivalTime  map[string]string `json:"arrival_time"`
	StayDuration map[string]string `json:"stay_duration"`
}

type updateInvitationRequest struct {
	Status string `json:"status"`
}

type invitationResponse struct {
	ID           string            `json:"id"`
	HostWaterID  string            `json:"host_water_id"`
	HostID       string            `json:"host_id"`
	Status       map[string]string `json:"status"`
	ArrivalTime  map[string]string `json:"arrival_time"`
	StayDuration map[string]string `json:"stay_duration"`
}

func (h *Handlers) RegisterInvitation(w http.ResponseWriter, r *http.Request) {
	var req registerInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	invitation, err := h.Invitations.Register(r.Context(), invitationdomain.RegisterInput{
		HostID:       userID,
		HostWaterID:  req.HostWaterID,
		Guests:       req.Guests,
		ArrivalTime:  req.ArrivalTime,
		StayDuration: req.StayDuration,
	})
	if err != nil {
		h.fail(w, r, "invitations.register: register failed", err, "user_id", userID, "host_water_id", req.HostWaterID)
		return
	}

	// One-time codes stay server side.
	writeJSON(w, http.StatusCreated, invitationResponse{
		ID:           invitation.ID,
		HostWaterID:  invitation.HostWaterID,
		HostID:       invitation.HostID,
		Status:       invitation.Status,
		ArrivalTime:  invitation.ArrivalTime,
		StayDuration: invitation.StayDuration,
	})
}

func (h *Handlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	views, err := h.Invitations.ViewForGuest(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "invitations.list: view failed", err, "user_id", userID)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) UpdateInvitation(w http.ResponseWriter, r *http.Request) {
	var req updateInvitationRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	invitationID, err := pathParam(r, "invitation_id")
	if err != nil {
		h.fail(w, r, "invitations.update: invalid path", err)
		return
	}

	result, err := h.Invitations.UpdateState(r.Context(), invitationID, userID, invitationdomain.Status(req.Status))
	if err != nil {
		h.fail(w, r, "invitations.update: update state failed", err, "invitation_id", invitationID, "user_id", userID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
