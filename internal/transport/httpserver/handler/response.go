package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"water-app-go/internal/transport/httpserver/middleware"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/logger"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindConflict:            http.StatusConflict,
	apperr.KindForbidden:           http.StatusForbidden,
	apperr.KindMalformedIdentifier: http.StatusBadRequest,
	apperr.KindTenantsPresent:      http.StatusConflict,
	apperr.KindNoSlotAvailable:     http.StatusUnprocessableEntity,
	apperr.KindStorageUnavailable:  http.StatusServiceUnavailable,
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// fail maps a service error onto the envelope. Caller-fixable kinds are
// logged as business errors, everything else as internal.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error, args ...any) {
	log := h.requestLog(r)
	kind := apperr.KindOf(err)
	status, known := statusByKind[kind]

	switch {
	case !known:
		log.InternalError(op, err, args...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	case kind == apperr.KindStorageUnavailable:
		log.InternalError(op, err, args...)
		writeError(w, status, kind.String(), "storage unavailable")
	default:
		log.BusinessError(op, err, args...)
		writeError(w, status, kind.String(), publicMessage(err))
	}
}

func (h *Handlers) requestLog(r *http.Request) logger.Logger {
	return h.log.With("request_id", chimw.GetReqID(r.Context()))
}

func publicMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

func invalidJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
}

func (h *Handlers) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return "", false
	}
	return userID, true
}
