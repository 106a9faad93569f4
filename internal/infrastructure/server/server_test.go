package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/config"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/judge", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Product struct {
				Name string `json:"name"`
			} `json:"product"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		score := 2.0
		if body.Product.Name == "Glass Bottle" {
			score = 4.5
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ecoscore": score})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"impact":  "Plastic takes centuries to break down",
			"results": []map[string]any{{"name": "Glass Bottle", "url": "https://eco.example/glass"}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(backendURL string) *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Backend.Candidates = []string{"http://127.0.0.1:1", backendURL}
	cfg.Backend.ProbeTimeout = config.Duration{Duration: 500 * time.Millisecond}
	cfg.Session.Previews = false
	cfg.RateLimit.Enabled = true
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	backendSrv := fakeBackend(t)

	engine, err := NewEngine(testConfig(backendSrv.URL), logging.NewNop())
	require.NoError(t, err)
	s := NewWithEngine(engine)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBridgeEndToEnd(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	w := post(t, h, "/popup", `{"url":"https://www.amazon.com/Bottle/dp/B01","title":"Plastic Bottle"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var opened struct {
		ID     string         `json:"id"`
		Render session.Render `json:"render"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Equal(t, session.PhaseNeedsAlternatives, opened.Render.Phase)
	assert.Equal(t, "EcoScore: 2", opened.Render.ScoreText)

	w = post(t, h, "/popup/"+opened.ID+"/events", `{"type":"open_alternatives"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var r session.Render
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, session.PhaseAlternativesShown, r.Phase)
	assert.Equal(t, "Plastic takes centuries to break down", r.Impact)
	require.NotNil(t, r.Card)
	assert.Equal(t, "New EcoScore: 4.5", r.Card.ScoreText)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	h.ServeHTTP(mw, req)
	require.Equal(t, http.StatusOK, mw.Code)
	body := mw.Body.String()
	assert.Contains(t, body, `ecoswipe_backend_calls_total{op="judge",outcome="ok"}`)
	assert.Contains(t, body, `ecoswipe_session_phases_total{phase="alternatives_shown"}`)
	assert.True(t, strings.HasPrefix(w.Header().Get("X-Request-ID"), "req_"))
}

func TestPersistedAcrossPopups(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	page := `{"url":"https://www.amazon.com/Bottle/dp/B01#reviews","title":"Plastic Bottle"}`

	w := post(t, h, "/popup", page)
	var opened struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	post(t, h, "/popup/"+opened.ID+"/events", `{"type":"open_alternatives"}`)

	w = post(t, h, "/popup", page)
	var reopened struct {
		Render session.Render `json:"render"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reopened))
	assert.Equal(t, session.PhaseAlternativesShown, reopened.Render.Phase)
	assert.Equal(t, 1, s.engine.Pages.PageCount(t.Context()))
}

func TestSweepPrunesIdlePopups(t *testing.T) {
	s := newTestServer(t)
	s.config.Server.PopupIdle = config.Duration{Duration: time.Millisecond}

	post(t, s.Router(), "/popup", `{"url":"https://example.com/x","title":"X"}`)
	require.Equal(t, int64(1), s.Registry().Stats().Active)

	time.Sleep(10 * time.Millisecond)
	s.Sweep()
	assert.Equal(t, int64(0), s.Registry().Stats().Active)
}

func TestNewEngineRejectsBadDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "redis"
	_, err := NewEngine(cfg, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "redis"))
}
