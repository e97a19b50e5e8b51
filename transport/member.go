package transport

import (
	"chat-relay/contract"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Ensure *WSMember implements the contract at compile time.
var _ contract.Member = (*WSMember)(nil)

// WSMember adapts a websocket connection to the Member handle a Room
// broadcasts to. Writes go through a buffered outbound channel drained by a
// single writer goroutine, so Send never blocks the room's broadcast path
// and gorilla's single-writer rule is respected.
type WSMember struct {
	id   string
	conn *websocket.Conn
	out  chan any
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

func NewWSMember(id string, conn *websocket.Conn, bufferSize int, log *slog.Logger) *WSMember {
	m := &WSMember{
		id:   id,
		conn: conn,
		out:  make(chan any, bufferSize),
		done: make(chan struct{}),
		log:  log,
	}
	go m.writeLoop()
	return m
}

func (m *WSMember) ID() string {
	return m.id
}

// Send queues a payload for delivery. Delivery is fire and forget: when the
// outbound buffer is full the payload is dropped and logged, the room never
// observes the failure.
func (m *WSMember) Send(payload any) {
	select {
	case <-m.done:
	case m.out <- payload:
	default:
		m.log.Warn("Outbound buffer full, dropping payload", "member", m.id)
	}
}

// Close stops the writer and closes the underlying connection. Safe to call
// more than once.
func (m *WSMember) Close() error {
	var err error
	m.once.Do(func() {
		close(m.done)
		err = m.conn.Close()
	})
	return err
}

func (m *WSMember) writeLoop() {
	for {
		select {
		case <-m.done:
			return
		case payload := <-m.out:
			if err := m.conn.WriteJSON(payload); err != nil {
				m.log.Debug("Write failed, closing member", "member", m.id, "error", err)
				_ = m.Close()
				return
			}
		}
	}
}
