package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meduhub/internal/config"
	"meduhub/internal/database"
	"meduhub/internal/services"
)

const frontend = "https://meduhub.in"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Meduhub API", Version: "test"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{frontend},
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         86400,
		},
		Registration: config.RegistrationConfig{
			DuplicateWindow: 24 * time.Hour,
			DefaultPageSize: 20,
			MaxPageSize:     100,
			RequestTimeout:  5 * time.Second,
		},
	}
}

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	log := quietLogger()

	st, err := database.Open(ctx, &config.DatabaseConfig{URL: "sqlite://:memory:"}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(ctx) })

	regs := services.NewRegistrationService(services.OpenedStore(st), cfg.Registration, nil, log)
	return New(cfg, regs, services.NewHealthService(cfg.App.Name), log, opts)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func submission(phone, email string) string {
	return `{"name":"Aarav Sharma","phone":"` + phone + `","email":"` + email +
		`","state":"Maharashtra","city":"Pune","inquiryType":"register"}`
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Meduhub API is running", body["message"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRegisterCreatedExposesOnlyIdentity(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodPost, "/api/register", submission("9876543210", "Aarav@Example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Registration submitted successfully!", body["message"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, data, 3)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "Aarav Sharma", data["name"])
	assert.Equal(t, "aarav@example.com", data["email"])
	assert.NotContains(t, data, "phone")
}

func TestRegisterValidationFailure(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodPost, "/api/register", `{"name":"A","phone":"12345","email":"nope","state":"","city":"Pune"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	msg, _ := body["message"].(string)
	assert.Contains(t, msg, "Name must be at least 2 characters")
	assert.Contains(t, msg, "Please enter a valid 10-digit Indian mobile number")
	assert.Contains(t, msg, "Please enter a valid email address")
	assert.Contains(t, msg, "State is required")
	assert.NotContains(t, body, "data")
}

func TestRegisterMalformedBody(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodPost, "/api/register", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, _ := do(t, h, http.MethodPost, "/api/register", submission("9876543210", "aarav@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/api/register", submission("9123456789", "aarav@example.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "You have already submitted a registration recently. Our team will contact you soon!", body["message"])
}

func TestListPagination(t *testing.T) {
	h := newTestHandler(t, Options{})
	for _, phone := range []string{"9000000001", "9000000002", "9000000003"} {
		rec, _ := do(t, h, http.MethodPost, "/api/register", submission(phone, phone+"@example.com"))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := do(t, h, http.MethodGet, "/api/registrations?page=2&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
	first := data[0].(map[string]any)
	assert.Equal(t, "9000000002", first["phone"])
	assert.Equal(t, "new", first["status"])

	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pg["page"])
	assert.EqualValues(t, 1, pg["limit"])
	assert.EqualValues(t, 3, pg["total"])
	assert.EqualValues(t, 3, pg["pages"])
}

func TestListBadQueryFallsBackToDefaults(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodGet, "/api/registrations?page=abc&limit=-4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["data"])

	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pg["page"])
	assert.EqualValues(t, 20, pg["limit"])
	assert.EqualValues(t, 0, pg["total"])
	assert.EqualValues(t, 0, pg["pages"])
}

func TestUpdateRegistration(t *testing.T) {
	h := newTestHandler(t, Options{})

	_, created := do(t, h, http.MethodPost, "/api/register", submission("9876543210", "aarav@example.com"))
	id := created["data"].(map[string]any)["id"].(string)

	rec, body := do(t, h, http.MethodPatch, "/api/registrations/"+id, `{"status":"contacted","notes":"Call back Monday"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, "contacted", data["status"])
	assert.Equal(t, "Call back Monday", data["notes"])
	assert.Equal(t, "9876543210", data["phone"])

	rec, body = do(t, h, http.MethodPatch, "/api/registrations/"+id, `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Status must be one of new, contacted, enrolled, closed", body["message"])

	rec, body = do(t, h, http.MethodPatch, "/api/registrations/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "contacted", body["data"].(map[string]any)["status"])
}

func TestUpdateUnknownRegistration(t *testing.T) {
	h := newTestHandler(t, Options{})

	rec, body := do(t, h, http.MethodPatch, "/api/registrations/64b7f0c2a1e4c3b2d1f0e9a8", `{"status":"closed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Registration not found", body["message"])
}

func TestUnknownRoutes(t *testing.T) {
	h := newTestHandler(t, Options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nope"},
		{http.MethodGet, "/"},
		{http.MethodGet, "/api/register"},
		{http.MethodDelete, "/api/registrations/abc"},
		{http.MethodPost, "/api/registrations"},
	} {
		rec, body := do(t, h, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "API endpoint not found", body["message"], "%s %s", tc.method, tc.path)
	}
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/register", nil)
	req.Header.Set("Origin", frontend)
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, frontend, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestHandler(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec, _ = do(t, h, http.MethodGet, "/api/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/api/register", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("X-Request-Id", "req-cors")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "req-cors", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, Options{Metrics: true})

	rec, _ := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	rec, _ = do(t, newTestHandler(t, Options{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
