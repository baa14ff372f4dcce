package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 10 * time.Second

// Stream is the duplex connection carrying one call's event frames.
// Each Stream is owned by exactly one session and closed exactly once.
type Stream interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// DialFunc opens a Stream to a call's event endpoint.
type DialFunc func(ctx context.Context, url string) (Stream, error)

// wsStream adapts a gorilla websocket connection to Stream. Reads are
// only ever issued from the owning session's goroutine; writes are
// serialized because the router and dispatcher may both send.
type wsStream struct {
	conn *websocket.Conn
	mu   sync.Mutex // protects writes
}

// DialStream connects to a call's websocket event endpoint.
func DialStream(ctx context.Context, url string) (Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsStream{conn: conn}, nil
}

// NewStream wraps an already-established websocket connection.
func NewStream(conn *websocket.Conn) Stream {
	return &wsStream{conn: conn}
}

func (s *wsStream) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

func (s *wsStream) WriteMessage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
