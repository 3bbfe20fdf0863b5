// Package transport opens the duplex byte streams a display session runs
// over. It knows nothing about the drawing protocol beyond the fact that
// the server speaks first on a fresh stream.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Mode selects which transport to dial or listen on.
type Mode int

const (
	ModeTCP Mode = iota
	ModeTLS
	ModeQUIC
	ModeWebSocket
)

func (m Mode) String() string {
	switch m {
	case ModeTCP:
		return "tcp"
	case ModeTLS:
		return "tls"
	case ModeQUIC:
		return "quic"
	case ModeWebSocket:
		return "ws"
	default:
		return "unknown"
	}
}

// ParseMode accepts the names printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tcp":
		return ModeTCP, nil
	case "tls":
		return ModeTLS, nil
	case "quic":
		return ModeQUIC, nil
	case "ws", "websocket":
		return ModeWebSocket, nil
	default:
		return 0, fmt.Errorf("unknown transport mode %q", s)
	}
}

// Stream is an open duplex byte stream to a display.
// TCP, TLS, QUIC and WebSocket implementations satisfy it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	SetReadDeadline(t time.Time) error
}

// DialOptions configures Dial.
type DialOptions struct {
	Mode Mode

	// TLSConfig is used by ModeTLS and ModeQUIC. Nil means ClientTLSConfig().
	TLSConfig *tls.Config

	// Header is sent with the WebSocket upgrade request.
	Header http.Header
}

// Dial opens a stream to addr. addr is host:port for tcp, tls and quic,
// and a ws:// or wss:// URL for WebSocket.
func Dial(ctx context.Context, addr string, opts DialOptions) (Stream, error) {
	switch opts.Mode {
	case ModeTCP:
		return dialTCP(ctx, addr)
	case ModeTLS:
		return dialTLS(ctx, addr, opts.tlsConfig())
	case ModeQUIC:
		return dialQUIC(ctx, addr, opts.tlsConfig())
	case ModeWebSocket:
		return dialWebSocket(ctx, addr, opts.Header)
	default:
		return nil, fmt.Errorf("unsupported transport mode: %v", opts.Mode)
	}
}

func (o DialOptions) tlsConfig() *tls.Config {
	if o.TLSConfig != nil {
		return o.TLSConfig
	}
	return ClientTLSConfig()
}

// Listener accepts streams for the server side (the simulator).
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
	Addr() string
	Close() error
}
