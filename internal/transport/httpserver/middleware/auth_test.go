package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-app-go/internal/config"
	"water-app-go/pkg/logger"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func serve(auth *JWTAuth, header string) (*httptest.ResponseRecorder, string) {
	var seen string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTAuth(t *testing.T) {
	auth := NewJWTAuth(config.AuthConfig{JWTSecret: testSecret}, logger.Discard())
	valid := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	t.Run("valid token", func(t *testing.T) {
		rec, userID := serve(auth, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(testSecret), valid))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "alice", userID)
	})

	cases := map[string]func(t *testing.T) string{
		"missing header": func(*testing.T) string { return "" },
		"wrong scheme": func(t *testing.T) string {
			return "Basic " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), valid)
		},
		"wrong secret": func(t *testing.T) string {
			return "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), valid)
		},
		"wrong algorithm": func(t *testing.T) string {
			return "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(testSecret), valid)
		},
		"expired": func(t *testing.T) string {
			claims := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}
			return "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		},
		"no expiry": func(t *testing.T) string {
			return "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{Subject: "alice"})
		},
		"no subject": func(t *testing.T) string {
			claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
			return "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
		},
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, userID := serve(auth, header(t))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, userID)
		})
	}
}

func TestJWTAuthSkip(t *testing.T) {
	auth := NewJWTAuth(config.AuthConfig{SkipAuth: true, MockUserID: " dev-user "}, logger.Discard())
	rec, userID := serve(auth, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "dev-user", userID)

	auth = NewJWTAuth(config.AuthConfig{SkipAuth: true}, logger.Discard())
	rec, _ = serve(auth, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJWTAuthWithoutSecret(t *testing.T) {
	auth := NewJWTAuth(config.AuthConfig{}, logger.Discard())
	rec, _ := serve(auth, "Bearer x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
