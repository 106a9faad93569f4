package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lowScorer struct{}

func (lowScorer) Judge(context.Context, types.Product) (types.Score, error) {
	return types.ScoreOf(1.0), nil
}

func (lowScorer) Search(context.Context, types.Product, int) (*scoring.SearchResult, error) {
	return &scoring.SearchResult{Results: []types.Alternative{
		{Name: "Glass Bottle", URL: "https://eco.example/glass"},
	}}, nil
}

func setup(t *testing.T) (*httptest.Server, *session.Registry, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := session.NewRegistry(func() *session.Machine {
		return session.NewMachine(session.Deps{Scorer: lowScorer{}})
	}, nil)
	metrics := monitoring.NewMetrics()

	r := gin.New()
	r.GET("/popup/:id/ws", NewHandler(registry, metrics, nil).HandleConnection)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		registry.CloseAll()
		srv.Close()
	})
	return srv, registry, metrics
}

func dial(t *testing.T, srv *httptest.Server, popupID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/popup/" + popupID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestStreamsRendersAndReplies(t *testing.T) {
	srv, registry, metrics := setup(t)
	popupID, _, first := registry.Open(context.Background(), session.PageInfo{URL: "https://www.amazon.com/dp/B1", Title: "Plastic Bottle"})
	require.Equal(t, session.PhaseNeedsAlternatives, first.Phase)

	conn := dial(t, srv, popupID.String())

	f := read(t, conn)
	assert.Equal(t, "render", f.Type)
	require.NotNil(t, f.Render)
	assert.Equal(t, session.PhaseNeedsAlternatives, f.Render.Phase)

	require.NoError(t, conn.WriteJSON(Message{Type: "open_alternatives"}))

	var phases []session.Phase
	var reply Frame
	for reply.Type != "reply" {
		f = read(t, conn)
		if f.Type == "render" {
			phases = append(phases, f.Render.Phase)
		}
		reply = f
	}
	assert.Contains(t, phases, session.PhaseAlternativesLoading)
	assert.Equal(t, string(session.EventOpenAlternatives), reply.Event)
	assert.Equal(t, session.PhaseAlternativesShown, reply.Render.Phase)
	assert.Equal(t, "Glass Bottle", reply.Render.Card.Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnections))
}

func TestErrorAndPingFrames(t *testing.T) {
	srv, registry, _ := setup(t)
	popupID, _, _ := registry.Open(context.Background(), session.PageInfo{URL: "https://www.amazon.com/dp/B1", Title: "Plastic Bottle"})

	conn := dial(t, srv, popupID.String())
	read(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: "dance"}))
	f := read(t, conn)
	assert.Equal(t, "error", f.Type)
	assert.Contains(t, f.Message, "dance")

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	f = read(t, conn)
	assert.Equal(t, "pong", f.Type)
}

func TestReconnectDropsListener(t *testing.T) {
	srv, registry, metrics := setup(t)
	popupID, m, _ := registry.Open(context.Background(), session.PageInfo{URL: "https://www.amazon.com/dp/B1", Title: "Plastic Bottle"})

	for i := 0; i < 2; i++ {
		u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/popup/" + popupID.String() + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		require.NoError(t, err)
		read(t, conn)
		assert.Equal(t, 1, m.Listeners())
		require.NoError(t, conn.Close())

		require.Eventually(t, func() bool {
			return m.Listeners() == 0
		}, 5*time.Second, 10*time.Millisecond)
	}
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WSConnections) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFramesKeepPopupAlive(t *testing.T) {
	srv, registry, _ := setup(t)
	popupID, _, _ := registry.Open(context.Background(), session.PageInfo{URL: "https://www.amazon.com/dp/B1", Title: "Plastic Bottle"})

	conn := dial(t, srv, popupID.String())
	read(t, conn)

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	assert.Equal(t, "pong", read(t, conn).Type)

	assert.Zero(t, registry.Prune(200*time.Millisecond))
	_, ok := registry.Get(popupID)
	assert.True(t, ok)
}

func TestUnknownPopup(t *testing.T) {
	srv, _, _ := setup(t)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/popup/popup_missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
