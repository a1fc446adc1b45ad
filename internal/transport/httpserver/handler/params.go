package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"water-app-go/pkg/apperr"
)

func pathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", apperr.Validationf("%s is required", name)
	}
	return value, nil
}
