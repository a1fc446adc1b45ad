//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"water-app-go/internal/app"
	"water-app-go/internal/config"
	"water-app-go/internal/db"
	"water-app-go/internal/platform/lock"
	"water-app-go/internal/transport/httpserver"
	"water-app-go/internal/transport/httpserver/handler"
	"water-app-go/pkg/events"
	"water-app-go/pkg/logger"
)

const jwtSecret = "e2e-secret"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	server   *httptest.Server
	clock    *clock
	recorder *events.Recorder
	loc      *time.Location
}

// setupE2E runs against Postgres when E2E_DB_DSN is set and in memory
// otherwise.
func setupE2E(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()

	cfg := config.Defaults()
	cfg.Auth.JWTSecret = jwtSecret
	loc, err := cfg.Supply.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}

	stores := app.MemoryStores()
	if dsn := os.Getenv("E2E_DB_DSN"); dsn != "" {
		cfg.DB.DSN = dsn
		conn, err := db.NewPostgres(context.Background(), cfg.DB, log)
		if err != nil {
			t.Fatalf("db connect: %v", err)
		}
		t.Cleanup(func() { _ = db.Close(conn) })
		if err := db.Migrate(conn, log); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if err := conn.Exec("TRUNCATE users, properties, families, invitations, registrations").Error; err != nil {
			t.Fatalf("clean db: %v", err)
		}
		stores = app.PostgresStores(conn)
	}

	env := &testEnv{
		clock:    &clock{now: time.Date(2024, time.March, 10, 7, 30, 0, 0, loc)},
		recorder: &events.Recorder{},
		loc:      loc,
	}
	services, err := app.NewServices(cfg.Supply, app.Deps{
		Stores:    stores,
		Locker:    lock.NewKeyedMutex(),
		Publisher: env.recorder,
		Log:       log,
		Now:       env.clock.Now,
	})
	if err != nil {
		t.Fatalf("services: %v", err)
	}

	handlers := handler.New(services.Users, services.Properties, services.Invitations, services.Registrations, services.Usage, log)
	env.server = httptest.NewServer(httpserver.NewRouter(cfg, handlers, nil, log))
	t.Cleanup(env.server.Close)
	return env
}

func token(t *testing.T, userID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e *testEnv) request(t *testing.T, method, path, userID string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, respBody
}

func (e *testEnv) expect(t *testing.T, status int, method, path, userID string, payload, out any) {
	t.Helper()
	resp, body := e.request(t, method, path, userID, payload)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, resp.StatusCode, body)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("%s %s: decode: %v: %s", method, path, err, body)
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type userResponse struct {
	UserID     string   `json:"user_id"`
	WaterID    string   `json:"water_id"`
	TenantCode string   `json:"tenant_code"`
	Properties []string `json:"properties"`
}

type propertyResponse struct {
	ID       string   `json:"id"`
	RootID   string   `json:"root_id"`
	Families []string `json:"families"`
}

type tenancyResponse struct {
	WaterID    string `json:"water_id"`
	TenantCode string `json:"tenant_code"`
}

type invitationResponse struct {
	ID string `json:"id"`
}

type guestView struct {
	InvitationID string `json:"invitation_id"`
	HostWaterID  string `json:"host_water_id"`
	Status       string `json:"status"`
}

type updateResult struct {
	Status     string `json:"status"`
	Deleted    bool   `json:"deleted"`
	GuestAdded bool   `json:"guest_added"`
}

type member struct {
	UserID    string `json:"user_id"`
	IsSpecial bool   `json:"is_special"`
}

type detailsResponse struct {
	Found          bool     `json:"found"`
	Slot           int      `json:"slot"`
	ServiceDate    string   `json:"service_date"`
	PrimaryMembers []member `json:"primary_members"`
	InvitedGuests  []member `json:"invited_guests"`
}

type dashboardResponse struct {
	HasWater           bool    `json:"has_water"`
	WaterID            string  `json:"water_id"`
	WaterUsedThisMonth float64 `json:"water_used_this_month"`
	EstimatedBill      int64   `json:"estimated_bill"`
}

func TestHouseholdLifecycle(t *testing.T) {
	env := setupE2E(t)

	for _, id := range []string{"owner", "tenant", "guest"} {
		env.expect(t, http.StatusCreated, http.MethodPost, "/api/users", "", map[string]string{
			"user_id":     id,
			"name":        "User " + id,
			"national_id": "nid-" + id,
			"password":    "password-" + id,
		}, nil)
	}

	var property propertyResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/properties", "owner", map[string]any{
		"name":              "Riverside",
		"district":          "Kamrup",
		"municipality":      "Guwahati",
		"ward":              7,
		"type":              "apartment",
		"identifier_number": "FLAT-12",
	}, &property)

	var owner userResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/users/me", "owner", nil, &owner)
	if owner.WaterID != property.RootID+"_000" {
		t.Fatalf("owner water id: got %q", owner.WaterID)
	}

	var tenancy tenancyResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/properties/"+property.ID+"/tenants", "owner",
		map[string]string{"user_id": "tenant", "root_id": property.RootID}, &tenancy)
	if tenancy.TenantCode != "001" {
		t.Fatalf("tenant code: got %q", tenancy.TenantCode)
	}

	var invitation invitationResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/invitations", "tenant", map[string]any{
		"host_water_id": tenancy.WaterID,
		"guests":        []string{"guest"},
		"arrival_time":  map[string]string{"guest": "2024-03-10T11:00"},
		"stay_duration": map[string]string{"guest": "3h"},
	}, &invitation)

	var views []guestView
	env.expect(t, http.StatusOK, http.MethodGet, "/api/invitations", "guest", nil, &views)
	if len(views) != 1 || views[0].Status != "pending" || views[0].HostWaterID != tenancy.WaterID {
		t.Fatalf("guest views: %+v", views)
	}

	registrationPath := "/api/water/" + tenancy.WaterID + "/registrations"
	env.expect(t, http.StatusCreated, http.MethodPost, registrationPath, "tenant", map[string]any{
		"primary_members": []string{"tenant"},
		"special_members": []string{},
	}, nil)

	var answer updateResult
	env.expect(t, http.StatusOK, http.MethodPatch, "/api/invitations/"+invitation.ID, "guest",
		map[string]string{"status": "accepted"}, &answer)
	if !answer.GuestAdded || answer.Deleted {
		t.Fatalf("accept result: %+v", answer)
	}

	env.clock.Set(time.Date(2024, time.March, 11, 9, 0, 0, 0, env.loc))
	var details detailsResponse
	env.expect(t, http.StatusOK, http.MethodGet, registrationPath, "owner", nil, &details)
	if !details.Found || details.Slot != 8 || details.ServiceDate != "2024-03-10" {
		t.Fatalf("details: %+v", details)
	}
	if len(details.InvitedGuests) != 1 || details.InvitedGuests[0].UserID != "guest" {
		t.Fatalf("invited guests: %+v", details.InvitedGuests)
	}

	var envelope errorEnvelope
	env.expect(t, http.StatusForbidden, http.MethodGet, registrationPath, "guest", nil, &envelope)
	if envelope.Error.Code != "forbidden" {
		t.Fatalf("error code: %q", envelope.Error.Code)
	}

	usagePath := "/api/water/" + tenancy.WaterID + "/usage"
	env.expect(t, http.StatusCreated, http.MethodPost, usagePath, "owner", map[string]any{"date": "2024-03-02", "liters": 300}, nil)
	env.expect(t, http.StatusCreated, http.MethodPost, usagePath, "tenant", map[string]any{"date": "03/09/2024", "liters": 40}, nil)

	var dashboard dashboardResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/dashboard", "tenant", nil, &dashboard)
	if !dashboard.HasWater || dashboard.WaterID != tenancy.WaterID || dashboard.WaterUsedThisMonth != 340 || dashboard.EstimatedBill != 17 {
		t.Fatalf("dashboard: %+v", dashboard)
	}

	env.expect(t, http.StatusConflict, http.MethodDelete, "/api/properties/"+property.RootID, "owner", nil, &envelope)
	if envelope.Error.Code != "tenants_present" {
		t.Fatalf("error code: %q", envelope.Error.Code)
	}

	env.expect(t, http.StatusNoContent, http.MethodDelete, "/api/properties/"+property.ID+"/tenants/tenant", "owner", nil, nil)
	env.expect(t, http.StatusNoContent, http.MethodDelete, "/api/properties/"+property.RootID, "owner", nil, nil)

	env.expect(t, http.StatusOK, http.MethodGet, "/api/users/me", "owner", nil, &owner)
	if owner.WaterID != "" || len(owner.Properties) != 0 {
		t.Fatalf("owner after delete: %+v", owner)
	}

	subjects := env.recorder.Subjects()
	for _, want := range []string{
		events.SubjectPropertyCreated,
		events.SubjectTenantAdded,
		events.SubjectInvitationRegistered,
		events.SubjectRegistrationCreated,
		events.SubjectInvitationAnswered,
		events.SubjectUsageRecorded,
		events.SubjectTenantRemoved,
		events.SubjectPropertyDeleted,
	} {
		if !slices.Contains(subjects, want) {
			t.Errorf("missing event %s in %v", want, subjects)
		}
	}
}
