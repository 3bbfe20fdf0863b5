package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
)

// dialTCP opens a plain TCP connection. The display protocol has no
// framing of its own, so the net.Conn is the stream.
func dialTCP(ctx context.Context, addr string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("TCP dial: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Commands are batched by the session's buffer; don't delay the flush.
		tc.SetNoDelay(true)
	}
	return conn, nil
}

// dialTLS opens a TCP+TLS connection and completes the TLS handshake
// before returning, so the first Read sees the display handshake.
func dialTLS(ctx context.Context, addr string, conf *tls.Config) (Stream, error) {
	dialer := &tls.Dialer{Config: conf}

	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("TCP+TLS dial: %w", err)
	}
	return rawConn.(*tls.Conn), nil
}
