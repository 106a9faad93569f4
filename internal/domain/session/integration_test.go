package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/cart"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/backend"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/http/client"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	*httptest.Server
	healthy bool
	calls   atomic.Int32 // judge and search
}

func newBackend(t *testing.T, healthy bool, mux func(w http.ResponseWriter, r *http.Request)) *countingBackend {
	t.Helper()
	b := &countingBackend{healthy: healthy}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			if !b.healthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			return
		}
		b.calls.Add(1)
		mux(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func realMachine(candidates []string) (*Machine, *storage.Adapter) {
	httpClient := client.NewClient(client.Options{Timeout: 2 * time.Second})
	locator := backend.NewLocator(httpClient, candidates, backend.WithProbeTimeout(500*time.Millisecond))
	scorer := scoring.NewClient(httpClient, locator)
	adapter := storage.NewAdapter(storage.NewMemoryStore())

	return NewMachine(Deps{
		Scorer:    scorer,
		Previewer: scorer,
		Pages:     adapter,
		Cart:      cart.NewManager(adapter, nil),
	}), adapter
}

func TestAllBackendsDown(t *testing.T) {
	var hosts []*countingBackend
	var candidates []string
	for i := 0; i < 4; i++ {
		h := newBackend(t, false, func(w http.ResponseWriter, r *http.Request) {})
		hosts = append(hosts, h)
		candidates = append(candidates, h.URL)
	}

	m, _ := realMachine(candidates)
	defer m.Close()

	r := m.Open(context.Background(), plasticBottle)
	assert.Equal(t, PhaseFailed, r.Phase)
	assert.Equal(t, "backend not reachable", r.Status)

	// give the prefetch a chance to run; it must not reach any host either
	time.Sleep(50 * time.Millisecond)
	for _, h := range hosts {
		assert.Equal(t, int32(0), h.calls.Load())
	}
}

func TestEndToEndAgainstBackend(t *testing.T) {
	b := newBackend(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/judge":
			var body struct {
				Product struct{ Name string } `json:"product"`
			}
			_ = decodeJSON(r, &body)
			if body.Product.Name == "Steel Bottle" {
				_, _ = w.Write([]byte(`{"ecoscore": 4.0}`))
				return
			}
			_, _ = w.Write([]byte(`{"ecoscore": 2.1}`))
		case "/search":
			_, _ = w.Write([]byte(`{"ecoscore": 2.1, "impact": "single-use plastic",
				"results": [{"name": "Steel Bottle", "url": "https://shop.example/steel", "price": "$20"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	down := newBackend(t, false, func(w http.ResponseWriter, r *http.Request) {})

	m, adapter := realMachine([]string{down.URL, b.URL})
	defer m.Close()
	ctx := context.Background()

	r := m.Open(ctx, plasticBottle)
	require.Equal(t, PhaseNeedsAlternatives, r.Phase)
	assert.Equal(t, "EcoScore: 2.1", r.ScoreText)

	r = m.Dispatch(ctx, Event{Type: EventOpenAlternatives})
	require.Equal(t, PhaseAlternativesShown, r.Phase)
	assert.Equal(t, "New EcoScore: 4", r.Card.ScoreText)
	assert.Equal(t, "single-use plastic", r.Impact)
	require.NotNil(t, r.Card.Preview)
	assert.Equal(t, scoring.SourcePlaceholder, r.Card.Preview.Source)
	assert.Equal(t, "S", r.Card.Preview.Placeholder)

	stored, ok := adapter.LoadPageState(ctx, plasticBottle.URL)
	require.True(t, ok)
	assert.Len(t, stored.Alternatives, 1)
	assert.Equal(t, int32(0), down.calls.Load())
}
