package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/session"
	"github.com/GriffinCanCode/ecoswipe/internal/shared/id"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	// Extension popups connect from chrome-extension:// origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Popups finds the machine behind a popup id and keeps it alive
type Popups interface {
	Get(popupID id.PopupID) (*session.Machine, bool)
	Touch(popupID id.PopupID) bool
}

// Counter is told about connections and frames
type Counter interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction string)
}

// Frame is one server message
type Frame struct {
	Type    string          `json:"type"` // "render", "reply", "error", "pong"
	Event   string          `json:"event,omitempty"`
	Render  *session.Render `json:"render,omitempty"`
	Message string          `json:"message,omitempty"`
	Time    int64           `json:"timestamp"`
}

// Message is one client message
type Message struct {
	Type string `json:"type"`
}

// Handler streams popup renders over WebSocket
type Handler struct {
	popups  Popups
	counter Counter
	log     *zap.Logger
}

// NewHandler creates a new WebSocket handler; counter may be nil
func NewHandler(popups Popups, counter Counter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{popups: popups, counter: counter, log: log}
}

// HandleConnection upgrades GET /popup/:id/ws. The current render is sent
// first; later renders, interim ones included, follow as "render" frames and
// each client event is answered with a "reply" frame.
func (h *Handler) HandleConnection(c *gin.Context) {
	popupID := id.PopupID(c.Param("id"))
	m, ok := h.popups.Get(popupID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrPopupNotFound.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	h.connected(1)
	defer h.connected(-1)

	s := &stream{
		conn:  conn,
		out:   make(chan Frame, sendBuffer),
		done:  make(chan struct{}),
		h:     h,
		touch: func() { h.popups.Touch(popupID) },
	}

	unsubscribe := m.OnRender(func(r session.Render) {
		s.push(Frame{Type: "render", Render: &r})
	})
	defer unsubscribe()
	last := m.Last()
	s.push(Frame{Type: "render", Render: &last})

	go s.writeLoop()
	s.readLoop(c.Request.Context(), m)
	s.close()

	h.log.Debug("WebSocket closed", zap.String("id", popupID.String()))
}

func (h *Handler) connected(delta int) {
	if h.counter == nil {
		return
	}
	if delta > 0 {
		h.counter.IncWSConnections()
	} else {
		h.counter.DecWSConnections()
	}
}

func (h *Handler) record(direction string) {
	if h.counter != nil {
		h.counter.RecordWSMessage(direction)
	}
}

type stream struct {
	conn *websocket.Conn
	out  chan Frame
	done chan struct{}
	once sync.Once
	h    *Handler

	// marks the popup as seen on every inbound frame or pong
	touch func()
}

// push never blocks; frames are dropped once the stream is closed or full
func (s *stream) push(f Frame) {
	f.Time = time.Now().Unix()
	select {
	case <-s.done:
	case s.out <- f:
	default:
		s.h.log.Debug("dropping WebSocket frame", zap.String("type", f.Type))
	}
}

func (s *stream) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *stream) readLoop(ctx context.Context, m *session.Machine) {
	s.conn.SetReadLimit(4096)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.h.log.Info("WebSocket read error", zap.Error(err))
			}
			return
		}
		s.h.record("in")
		s.touch()

		if msg.Type == "ping" {
			s.push(Frame{Type: "pong"})
			continue
		}

		t, err := session.ParseEventType(msg.Type)
		if err != nil {
			s.push(Frame{Type: "error", Message: err.Error()})
			continue
		}

		r := m.Dispatch(context.WithoutCancel(ctx), session.Event{Type: t})
		s.push(Frame{Type: "reply", Event: string(t), Render: &r})
	}
}

func (s *stream) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case f := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(f); err != nil {
				return
			}
			s.h.record("out")
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
