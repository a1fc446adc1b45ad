package handler

import (
	"net/http"
	"time"

	userdomain "water-app-go/internal/domain/user"
)

type createUserRequest struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
	PhotoRef   string `json:"photo_ref"`
}

type userResponse struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	PhotoRef   string    `json:"photo_ref"`
	WaterID    string    `json:"water_id"`
	TenantCode string    `json:"tenant_code"`
	Properties []string  `json:"properties"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	user, err := h.Users.Create(r.Context(), userdomain.CreateInput{
		UserID:     req.UserID,
		Name:       req.Name,
		NationalID: req.NationalID,
		Password:   req.Password,
		PhotoRef:   req.PhotoRef,
	})
	if err != nil {
		h.fail(w, r, "users.create: create user failed", err, "user_id", req.UserID)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "users.me: get user failed", err, "user_id", userID)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *userdomain.User) userResponse {
	properties := []string(user.Properties)
	if properties == nil {
		properties = []string{}
	}
	return userResponse{
		UserID:     user.UserID,
		Name:       user.Name,
		PhotoRef:   user.PhotoRef,
		WaterID:    user.WaterID,
		TenantCode: user.TenantCode,
		Properties: properties,
		CreatedAt:  user.CreatedAt,
	}
}
