package wshub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chatfan/chatfan-go/internal/logctx"
)

// ErrSessionGone means the addressed session has no live connection here.
var ErrSessionGone = errors.New("session gone")

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Engine is the surface the hub drives. *chatfan.Engine satisfies it.
type Engine interface {
	OnSessionStart(ctx context.Context, sessionID string) error
	OnSessionEnd(ctx context.Context, sessionID string) error
	OnAction(ctx context.Context, sessionID string, body []byte) error
}

// Hub upgrades HTTP requests to websocket sessions and pushes payloads at
// them. Attach an Engine before serving.
type Hub struct {
	engine   Engine
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		log:      slog.Default(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach binds the engine the hub dispatches lifecycle and action events
// to. Must be called before the hub serves its first connection.
func (h *Hub) Attach(e Engine) { h.engine = e }

type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		http.Error(w, "hub not attached", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "err", err)
		return
	}

	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	// Lifecycle outlives the HTTP request context: teardown must still run
	// after the client vanishes.
	ctx := logctx.WithSessionData(context.Background(), &logctx.SessionData{
		SessionID:  sess.id,
		RemoteAddr: r.RemoteAddr,
	})

	h.mu.Lock()
	h.sessions[sess.id] = sess
	h.mu.Unlock()

	if err := h.engine.OnSessionStart(ctx, sess.id); err != nil {
		h.log.ErrorContext(ctx, "session start failed", "err", err)
		h.remove(sess.id)
		_ = conn.Close()
		return
	}
	h.log.InfoContext(ctx, "session started")

	go sess.writePump()
	go func() {
		// Unblocks the read pump when the session is dropped from our side.
		<-sess.done
		_ = conn.Close()
	}()
	h.readPump(ctx, sess)

	h.remove(sess.id)
	sess.close()
	_ = conn.Close()
	if err := h.engine.OnSessionEnd(ctx, sess.id); err != nil {
		h.log.ErrorContext(ctx, "session teardown failed", "err", err)
		return
	}
	h.log.InfoContext(ctx, "session ended")
}

// Push implements transport.Pusher. A full send buffer drops the session:
// a slow consumer must not stall the fan-out it is part of.
func (h *Hub) Push(ctx context.Context, sessionID string, payload []byte) error {
	h.mu.RLock()
	sess, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return ErrSessionGone
	}

	select {
	case sess.send <- payload:
		return nil
	case <-sess.done:
		return ErrSessionGone
	default:
		sess.close()
		return fmt.Errorf("send buffer full: %w", ErrSessionGone)
	}
}

func (h *Hub) remove(sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

func (h *Hub) readPump(ctx context.Context, sess *session) {
	for {
		select {
		case <-sess.done:
			return
		default:
		}
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := h.engine.OnAction(ctx, sess.id, data); err != nil {
			// The sender already got an error event where one applies.
			h.log.DebugContext(ctx, "action rejected", "err", err)
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}
