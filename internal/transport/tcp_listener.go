package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/quic-go/quic-go"
)

// Listen opens a server-side listener for the given mode. cert is used by
// ModeTLS and ModeQUIC; a zero certificate makes Listen generate a
// self-signed one. WebSocket streams are accepted over HTTP with
// UpgradeWebSocket instead.
func Listen(mode Mode, addr string, cert tls.Certificate) (Listener, error) {
	if (mode == ModeTLS || mode == ModeQUIC) && len(cert.Certificate) == 0 {
		var err error
		if cert, err = GenerateSelfSignedCert(); err != nil {
			return nil, fmt.Errorf("generate TLS cert: %w", err)
		}
	}

	switch mode {
	case ModeTCP:
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("TCP listen: %w", err)
		}
		return &tcpListener{ln: ln}, nil
	case ModeTLS:
		ln, err := tls.Listen("tcp", addr, ServerTLSConfig(cert))
		if err != nil {
			return nil, fmt.Errorf("TCP+TLS listen: %w", err)
		}
		return &tcpListener{ln: ln}, nil
	case ModeQUIC:
		return listenQUIC(addr, cert)
	default:
		return nil, fmt.Errorf("cannot listen on %v", mode)
	}
}

// tcpListener serves both plain TCP and TCP+TLS.
type tcpListener struct {
	ln net.Listener
}

// Addr returns the bound address (useful with port 0).
func (l *tcpListener) Addr() string {
	return l.ln.Addr().String()
}

// Accept waits for a new connection. TLS connections complete their
// handshake here so a slow client cannot stall the caller's first write.
func (l *tcpListener) Accept(ctx context.Context) (Stream, error) {
	// Use a channel so we can respect context cancellation
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("accept TCP connection: %w", res.err)
		}
		if tlsConn, ok := res.conn.(*tls.Conn); ok {
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				tlsConn.Close()
				return nil, fmt.Errorf("TLS handshake: %w", err)
			}
		}
		return res.conn, nil
	case <-ctx.Done():
		// The goroutine may still be blocked on Accept. It unblocks when
		// the caller closes the listener; close anything it got first.
		go func() {
			res := <-ch
			if res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Close shuts down the TCP listener.
func (l *tcpListener) Close() error {
	return l.ln.Close()
}

// quicListener accepts QUIC connections and opens the display stream on
// each one.
type quicListener struct {
	tr   *quic.Transport
	ln   *quic.Listener
	addr string
}

func listenQUIC(addr string, cert tls.Certificate) (*quicListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}

	tr := &quic.Transport{Conn: udpConn}
	ln, err := tr.Listen(ServerTLSConfig(cert), quicConfig())
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("QUIC listen: %w", err)
	}

	return &quicListener{tr: tr, ln: ln, addr: udpConn.LocalAddr().String()}, nil
}

// Addr returns the bound UDP address.
func (l *quicListener) Addr() string {
	return l.addr
}

// Accept waits for a client and opens the stream the handshake will be
// written on. The client only sees the stream after the first write.
func (l *quicListener) Accept(ctx context.Context) (Stream, error) {
	qconn, err := l.ln.Accept(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept QUIC connection: %w", err)
	}

	stream, err := qconn.OpenStreamSync(ctx)
	if err != nil {
		qconn.CloseWithError(1, "open stream failed")
		return nil, fmt.Errorf("open display stream: %w", err)
	}

	return &quicStream{Stream: stream, qconn: qconn}, nil
}

// Close shuts down the listener and underlying transport.
func (l *quicListener) Close() error {
	l.ln.Close()
	return l.tr.Close()
}
