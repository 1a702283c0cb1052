package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medtrack/medtrackd/internal/auth"
	"github.com/medtrack/medtrackd/internal/config"
	"github.com/medtrack/medtrackd/internal/dose"
	"github.com/medtrack/medtrackd/internal/meds"
	"github.com/medtrack/medtrackd/internal/metrics"
	"github.com/medtrack/medtrackd/internal/pharmacy"
	"github.com/medtrack/medtrackd/internal/schedule"
	"github.com/medtrack/medtrackd/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type testServer struct {
	*Server
	store *store.Store
	clock *fakeClock
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)}

	st, err := store.Open(store.Options{Path: t.TempDir(), Clock: clock})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "pharmacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	db, err := gorm.Open(sqlite.Dialector{Conn: conn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	pharmacies, err := pharmacy.NewStore(db)
	require.NoError(t, err)

	m := metrics.New()
	evaluator := schedule.New(st, nil, nil, schedule.WithClock(clock), schedule.WithMetrics(m))
	processor := dose.NewProcessor(st, nil, m, nil)
	// Tokens are checked against wall-clock expiry, so the auth layer keeps
	// the system clock.
	authManager := auth.NewManager(st, auth.Config{Secret: "test-secret"}, nil, nil)

	cfg := &config.Config{}
	cfg.Server.ReadTimeout = 5
	cfg.Server.WriteTimeout = 5

	srv := New(Deps{
		Config:     cfg,
		Store:      st,
		Evaluator:  evaluator,
		Processor:  processor,
		Auth:       authManager,
		Pharmacies: pharmacies,
		Metrics:    m,
	})

	ts := &testServer{Server: srv, store: st, clock: clock}

	var session auth.Session
	resp := ts.do(t, http.MethodPost, "/api/auth/guest", nil, &session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, session.Token)
	ts.token = session.Token

	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}

	resp, err := ts.App().Test(req, -1)
	require.NoError(t, err)

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	var health healthResponse
	resp := ts.do(t, http.MethodGet, "/api/health", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.MemoryOnly)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	resp := ts.do(t, http.MethodGet, "/api/medications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ts.token = "garbage"
	resp = ts.do(t, http.MethodGet, "/api/medications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	resp := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "not-an-email", "password": "pw",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var session auth.Session
	resp = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "jane@example.com", "password": "hunter2",
	}, &session)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "jane", session.User.Name)
}

func TestListMedications(t *testing.T) {
	ts := newTestServer(t)

	var list []meds.Medication
	resp := ts.do(t, http.MethodGet, "/api/medications", nil, &list)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list, 8)
}

func TestAddMedication(t *testing.T) {
	ts := newTestServer(t)

	var created meds.Medication
	resp := ts.do(t, http.MethodPost, "/api/medications", map[string]any{
		"name":         "Ibuprofen",
		"dosageAmount": 1,
		"dosageUnit":   "tablet",
		"time":         "2:00 PM",
		"stockCount":   10,
	}, &created)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ibuprofen", created.Name)

	// Missing required fields.
	resp = ts.do(t, http.MethodPost, "/api/medications", map[string]any{
		"dosageAmount": 1, "dosageUnit": "tablet", "time": "2:00 PM",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unparseable schedule time.
	resp = ts.do(t, http.MethodPost, "/api/medications", map[string]any{
		"name": "Broken", "dosageAmount": 1, "dosageUnit": "tablet", "time": "soon",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMedication(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodDelete, "/api/medications/1", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/medications/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConfirmFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.clock.now = time.Date(2025, 3, 10, 10, 5, 0, 0, time.UTC)

	var updated meds.Medication
	resp := ts.do(t, http.MethodPost, "/api/medications/3/confirm", nil, &updated)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, meds.StatusTaken, updated.Status)
	assert.Equal(t, 1, updated.StockCount)

	// Confirming a taken dose conflicts.
	resp = ts.do(t, http.MethodPost, "/api/medications/3/confirm", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/medications/missing/confirm", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSkipAndHistory(t *testing.T) {
	ts := newTestServer(t)

	var updated meds.Medication
	resp := ts.do(t, http.MethodPost, "/api/medications/1/skip", nil, &updated)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, meds.StatusSkipped, updated.Status)

	var history []meds.HistoryEntry
	resp = ts.do(t, http.MethodGet, "/api/history", nil, &history)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, history, 1)
	assert.Equal(t, "Aspirin", history[0].Name)
	assert.Equal(t, meds.ActionSkipped, history[0].Action)
}

func TestViews(t *testing.T) {
	ts := newTestServer(t)

	var today []medicationView
	resp := ts.do(t, http.MethodGet, "/api/medications/today", nil, &today)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, today)
	for _, v := range today {
		assert.Equal(t, meds.StatusPending, v.Status)
		assert.NotEmpty(t, v.TimeRemaining)
	}

	var low []medicationView
	resp = ts.do(t, http.MethodGet, "/api/medications/low-stock", nil, &low)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	names := make([]string, 0, len(low))
	for _, v := range low {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "Lipitor")
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	ts.clock.now = time.Date(2025, 3, 10, 10, 5, 0, 0, time.UTC)

	resp := ts.do(t, http.MethodPost, "/api/medications/3/confirm", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats statsResponse
	resp = ts.do(t, http.MethodGet, "/api/stats", nil, &stats)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8, stats.TotalMedications)
	assert.Equal(t, 1, stats.TakenToday)
	assert.GreaterOrEqual(t, stats.LowStock, 1)
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)

	var settings meds.Settings
	resp := ts.do(t, http.MethodGet, "/api/settings", nil, &settings)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, settings.Notifications)

	settings.DarkMode = true
	resp = ts.do(t, http.MethodPut, "/api/settings", settings, &settings)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, ts.store.CurrentUser().Settings.DarkMode)
}

func TestTheme(t *testing.T) {
	ts := newTestServer(t)

	var got map[string]string
	resp := ts.do(t, http.MethodGet, "/api/theme", nil, &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "light", got["theme"])

	resp = ts.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "dark"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dark", ts.store.Theme())

	resp = ts.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "sepia"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPharmacies(t *testing.T) {
	ts := newTestServer(t)

	var all []pharmacy.Pharmacy
	resp := ts.do(t, http.MethodGet, "/api/pharmacies", nil, &all)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, all, 6)

	var filtered []pharmacy.Pharmacy
	resp = ts.do(t, http.MethodGet, "/api/pharmacies?q=Springfield", nil, &filtered)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, filtered, 3)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err := ts.store.Session()
	assert.Error(t, err)
}
