package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iha-referee/backend/internal/competition"
	"github.com/iha-referee/backend/internal/models"
	"github.com/iha-referee/backend/internal/observability"
	"github.com/iha-referee/backend/internal/referee"
	"github.com/iha-referee/backend/internal/roster"
	"github.com/iha-referee/backend/internal/session"
	"github.com/iha-referee/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	e        *echo.Echo
	store    *testutil.MockStorage
	clock    *clock
	sessions *session.Registry
}

func newTestServer(t *testing.T, identifier session.Identifier, trustProxy bool) *testServer {
	t.Helper()
	r, err := roster.New(testutil.Roster())
	require.NoError(t, err)
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	clk := &clock{now: time.Date(2025, 8, 30, 11, 38, 0, 0, time.UTC)}
	store := testutil.NewMockStorage()
	sessions := session.NewRegistryWithClock(session.DefaultExempt, clk.Now)
	board := competition.NewBoard(competition.DefaultTarget)
	require.NoError(t, board.Announce([]models.HazardZone{{ID: 1, Lat: 41.5130, Lon: 36.1200, Radius: 50}}))

	svc, err := referee.New(referee.Options{
		Roster:   r,
		Sessions: sessions,
		Store:    store,
		Board:    board,
		Metrics:  metrics,
		Now:      clk.Now,
	})
	require.NoError(t, err)

	e := echo.New()
	SetupMiddleware(e, MiddlewareConfig{BodyLimit: "64K", TrustProxy: trustProxy, Metrics: metrics})
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Referee:    svc,
		Identifier: identifier,
		Sessions:   sessions,
		Metrics:    metrics,
		Version:    "test",
	}))
	return &testServer{e: e, store: store, clock: clk, sessions: sessions}
}

func (s *testServer) do(method, path, remote string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = remote + ":40000"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, remote string, team int) *httptest.ResponseRecorder {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/giris", remote, testutil.Login(t, testutil.Roster()[team-1]))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil, false)

	rec := s.login(t, "10.0.0.2", 2)
	assert.Equal(t, "2", strings.TrimSpace(rec.Body.String()))
	assert.Empty(t, rec.Header().Get(session.TokenHeader))

	tests := []struct {
		name string
		body string
	}{
		{"wrong credential", `{"kadi": "takim2", "sifre": "nope"}`},
		{"unknown login", `{"kadi": "ghost", "sifre": "x"}`},
		{"missing credential", `{"kadi": "takim2"}`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/giris", "10.0.0.9", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "AUTH_FAILED")
		})
	}
	assert.Equal(t, 1, s.sessions.Len())
}

func TestTelemetry_Accepted(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)
	s.login(t, "10.0.0.2", 2)

	rec := s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.2", testutil.JSON(t, testutil.Telemetry(2)))
	require.Equal(t, http.StatusOK, rec.Code)

	s.clock.Advance(250 * time.Millisecond)
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, testutil.Telemetry(1)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ServerTime map[string]int           `json:"sunucusaati"`
		Rivals     []map[string]json.Number `json:"konumBilgileri"`
	}
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(&resp))

	assert.Equal(t, map[string]int{"gun": 30, "saat": 11, "dakika": 38, "saniye": 0, "milisaniye": 250}, resp.ServerTime)
	require.Len(t, resp.Rivals, 1)
	rival := resp.Rivals[0]
	assert.Equal(t, json.Number("2"), rival["takim_numarasi"])
	assert.Equal(t, json.Number("250"), rival["zaman_farki"])
	assert.Equal(t, json.Number("28"), rival["iha_hizi"])
	for _, key := range []string{"iha_enlem", "iha_boylam", "iha_irtifa", "iha_dikilme", "iha_yonelme", "iha_yatis"} {
		assert.Contains(t, rival, key)
	}
}

func TestTelemetry_Rejections(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)

	// unauthenticated caller
	rec := s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.5", testutil.JSON(t, testutil.Telemetry(1)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// another team's number
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, testutil.Telemetry(2)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// malformed: empty 204
	payload := testutil.Telemetry(1)
	payload["iha_otonom"] = "evet"
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, payload))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	// out of range
	payload = testutil.Telemetry(1)
	payload["iha_yonelme"] = 361
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, payload))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "OUT_OF_RANGE")
	assert.Contains(t, rec.Body.String(), "iha_yonelme")

	assert.Empty(t, s.store.Telemetry())
}

func TestTelemetry_RateLimit(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)
	body := testutil.JSON(t, testutil.Telemetry(1))

	rec := s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	s.clock.Advance(400 * time.Millisecond)
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "3", strings.TrimSpace(rec.Body.String()))

	s.clock.Advance(500 * time.Millisecond)
	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.store.Telemetry(), 2)
}

func TestTelemetry_StoreFailure(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)
	s.store.FailOn(testutil.OpAppendTelemetry)

	rec := s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, testutil.Telemetry(1)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "injected")
}

func TestTelemetry_LoopbackMaySubmitForAnyTeam(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "127.0.0.1", 1)

	for team := 1; team <= 3; team++ {
		rec := s.do(http.MethodPost, "/api/telemetri_gonder", "127.0.0.1", testutil.JSON(t, testutil.Telemetry(team)))
		assert.Equal(t, http.StatusOK, rec.Code, "team %d", team)
	}
}

func TestTelemetry_ForwardedForIgnoredByDefault(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)

	rec := s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.66",
		testutil.JSON(t, testutil.Telemetry(1)), echo.HeaderXForwardedFor, "10.0.0.1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	proxied := newTestServer(t, nil, true)
	proxied.login(t, "10.0.0.1", 1)
	rec = proxied.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.66",
		testutil.JSON(t, testutil.Telemetry(1)), echo.HeaderXForwardedFor, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenSessions(t *testing.T) {
	s := newTestServer(t, session.TokenIdentifier{}, false)

	rec := s.login(t, "10.0.0.1", 3)
	token := rec.Header().Get(session.TokenHeader)
	require.Len(t, token, 36)

	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.0.0.1", testutil.JSON(t, testutil.Telemetry(3)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "address alone is not enough")

	rec = s.do(http.MethodPost, "/api/telemetri_gonder", "10.7.7.7",
		testutil.JSON(t, testutil.Telemetry(3)), session.TokenHeader, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/kilitlenme_bilgisi", "10.7.7.7", testutil.LockBody(), session.TokenHeader, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.store.Locks(), 1)
	assert.Equal(t, 3, s.store.Locks()[0].TeamID)
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, nil, false)

	rec := s.do(http.MethodPost, "/api/kilitlenme_bilgisi", "10.0.0.1", testutil.LockBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.store.Locks())

	s.login(t, "10.0.0.1", 1)
	rec = s.do(http.MethodPost, "/api/kilitlenme_bilgisi", "10.0.0.1", testutil.LockBody())
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/kilitlenme_bilgisi", "10.0.0.1", []byte(`{"kilitlenmeBitisZamani": 5}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, s.store.Locks(), 1)

	rec = s.do(http.MethodPost, "/api/kamikaze_bilgisi", "10.0.0.1", testutil.DiveBody())
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/kamikaze_bilgisi", "10.0.0.1", []byte(`{}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, s.store.Dives(), 1)
	assert.Equal(t, "teknofest2025", s.store.Dives()[0].MarkerText)
}

func TestPublishedEndpoints(t *testing.T) {
	s := newTestServer(t, nil, false)

	rec := s.do(http.MethodGet, "/api/qr_koordinati", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"qrEnlem": 41.51238882, "qrBoylam": 36.11935778}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/hss_koordinatlari", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"sunucusaati": {"gun": 30, "saat": 11, "dakika": 38, "saniye": 0, "milisaniye": 0},
		"hss_koordinat_bilgileri": [{"id": 1, "hssEnlem": 41.513, "hssBoylam": 36.12, "hssYaricap": 50}]
	}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/sunucusaati", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"gun": 30, "saat": 11, "dakika": 38, "saniye": 0, "milisaniye": 0}`, rec.Body.String())
}

func TestMsgpackNegotiation(t *testing.T) {
	s := newTestServer(t, nil, false)

	rec := s.do(http.MethodGet, "/api/qr_koordinati", "10.0.0.1", nil, echo.HeaderAccept, MIMEMsgpack)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))

	var got map[string]float64
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]float64{"qrEnlem": 41.51238882, "qrBoylam": 36.11935778}, got)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)

	rec := s.do(http.MethodGet, "/api/health", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status   string       `json:"status"`
		Version  string       `json:"version"`
		Sessions int          `json:"sessions"`
		Store    models.Stats `json:"store"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, 1, body.Sessions)

	s.store.FailOn(testutil.OpStats)
	rec = s.do(http.MethodGet, "/api/health", "10.0.0.1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, false)
	s.login(t, "10.0.0.1", 1)

	rec := s.do(http.MethodGet, "/metrics", "10.0.0.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `referee_submissions_total{kind="login",outcome="accepted"} 1`)
	assert.Contains(t, rec.Body.String(), `referee_http_requests_total{code="200",method="POST",route="/api/giris"} 1`)
}
