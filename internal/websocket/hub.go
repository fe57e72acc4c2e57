// Package websocket serves the chat over a websocket: each client frame is a
// chat request, answered by fragment frames and a closing done or error
// frame.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/services"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

const (
	FrameFragment = "fragment"
	FrameDone     = "done"
	FrameError    = "error"

	writeWait     = 10 * time.Second
	maxFrameBytes = 1 << 20
	closeGrace    = time.Second
)

// Replier streams a model reply for a conversation.
type Replier interface {
	ReplyStream(ctx context.Context, history []models.Content, message string) (stream.Fragments, error)
}

type Hub struct {
	replier       Replier
	historyLimit  int
	timeout       time.Duration
	allowedOrigin string
	upgrader      websocket.Upgrader

	mu          sync.Mutex
	connections map[uuid.UUID]*websocket.Conn
}

// NewHub serves chat sockets backed by replier. A nil replier answers every
// request with the configuration error. allowedOrigin is the site origin
// permitted besides same-host pages.
func NewHub(replier Replier, historyLimit int, timeout time.Duration, allowedOrigin string) *Hub {
	h := &Hub{
		replier:       replier,
		historyLimit:  historyLimit,
		timeout:       timeout,
		allowedOrigin: allowedOrigin,
		connections:   make(map[uuid.UUID]*websocket.Conn),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "ws").Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	id := h.registerConnection(conn)
	defer h.unregisterConnection(id, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := h.serve(r.Context(), conn, data); err != nil {
			log.Debug().Err(err).Str("component", "ws").Str("conn", id.String()).Msg("websocket write failed")
			return
		}
	}
}

// Connections reports the number of open sockets.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Shutdown closes every open socket with a going-away frame.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for id, conn := range h.connections {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		conn.Close()
		delete(h.connections, id)
	}
}

// serve answers one request frame. Only write failures are returned; request
// and provider failures are reported to the client as error frames.
func (h *Hub) serve(parent context.Context, conn *websocket.Conn, data []byte) error {
	if h.replier == nil {
		return writeFrame(conn, models.SocketFrame{
			Type:  FrameError,
			Error: (&services.NotConfiguredError{Setting: "GEMINI_API_KEY"}).Error(),
		})
	}

	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil || !req.HasMessage() {
		return writeFrame(conn, models.SocketFrame{Type: FrameError, Error: models.MsgMessageRequired})
	}
	history := models.LastTurns(req.History, h.historyLimit)

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, h.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	fragments, err := h.replier.ReplyStream(ctx, history, req.Message)
	if err != nil {
		log.Error().Err(err).Str("component", "ws").Msg("Gemini call failed")
		return writeFrame(conn, models.SocketFrame{Type: FrameError, Error: models.MsgProviderFailed})
	}
	defer fragments.Close()

	for {
		fragment, err := fragments.Next()
		if errors.Is(err, stream.Done) {
			return writeFrame(conn, models.SocketFrame{Type: FrameDone})
		}
		if err != nil {
			log.Error().Err(err).Str("component", "ws").Msg("Gemini stream failed")
			return writeFrame(conn, models.SocketFrame{Type: FrameError, Error: models.MsgProviderFailed})
		}
		if err := writeFrame(conn, models.SocketFrame{Type: FrameFragment, Text: fragment}); err != nil {
			return err
		}
	}
}

func writeFrame(conn *websocket.Conn, frame models.SocketFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == h.allowedOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func (h *Hub) registerConnection(conn *websocket.Conn) uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	h.connections[id] = conn

	log.Debug().Str("component", "ws").Str("conn", id.String()).Int("total", len(h.connections)).Msg("websocket connected")
	return id
}

func (h *Hub) unregisterConnection(id uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, id)

	log.Debug().Str("component", "ws").Str("conn", id.String()).Msg("websocket disconnected")
}
