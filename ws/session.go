package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-direct/domain/event"
	"chat-direct/errors"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a silent peer stays alive; pings go out a
	// bit faster so a healthy peer always answers in time.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	maxFrameSize = 4096
)

// Session wraps one upgraded connection for one authenticated user.
// Outbound frames go through a buffered channel drained by a single
// writer goroutine; gorilla connections allow only one concurrent
// writer, so everything funnels through writePump.
type Session struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	log    *slog.Logger
}

func NewSession(conn *websocket.Conn, userID string, bufferSize int, log *slog.Logger) *Session {
	conn.SetReadLimit(maxFrameSize)
	return &Session{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, bufferSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

func (s *Session) UserID() string {
	return s.userID
}

// Consume enqueues a domain event for the writer goroutine.
// It never blocks: a closed session returns ErrSessionClosed and a
// full buffer returns ErrSessionBacklogged, leaving the caller to
// decide what a missed push means.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	frame, err := EncodeEvent(e)
	if err != nil {
		return err
	}
	return s.enqueue(frame)
}

func (s *Session) enqueue(frame []byte) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	default:
		return errors.ErrSessionBacklogged
	}
}

// sendError pushes an error frame back to this session's own client.
func (s *Session) sendError(code, message string) {
	if err := s.enqueue(encodeError(code, message)); err != nil {
		s.log.Warn("dropped error frame", "user", s.userID, "code", code, "error", err)
	}
}

// Close is idempotent and safe from any goroutine.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// readPump consumes inbound frames until the connection dies, handing
// each decoded client frame to dispatch. It owns the connection
// teardown: when it returns the session is closed.
func (s *Session) readPump(dispatch func(ClientFrame)) {
	defer s.Close()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.Warn("unexpected websocket close", "user", s.userID, "error", err)
			}
			return
		}
		dispatch(frame)
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
