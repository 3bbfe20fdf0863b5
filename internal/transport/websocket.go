package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream adapts a WebSocket connection to a byte stream. Each Write is
// sent as one binary message; Read concatenates incoming binary messages.
// Text messages are ignored.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader // current message, nil between messages

	closeOnce sync.Once
}

// NewWebSocketStream wraps an established WebSocket connection.
func NewWebSocketStream(conn *websocket.Conn) Stream {
	return &wsStream{conn: conn}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The simulator is a development tool; any origin may drive it.
	CheckOrigin: func(*http.Request) bool { return true },
}

// UpgradeWebSocket upgrades an HTTP request to a WebSocket stream.
// On failure the upgrader has already replied to the client.
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (Stream, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	return NewWebSocketStream(conn), nil
}

func dialWebSocket(ctx context.Context, url string, header http.Header) (Stream, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return NewWebSocketStream(conn), nil
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			mt, r, err := s.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.r = r
		}

		n, err := s.r.Read(p)
		if errors.Is(err, io.EOF) {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Close sends a normal close frame before closing the connection, so the
// peer's Read returns io.EOF instead of an abnormal-closure error.
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
