package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// quicConfig is shared by the dialer and listener.
func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:    30 * time.Second,
		KeepAlivePeriod:   10 * time.Second,
		InitialPacketSize: 1200, // Tailscale MTU is 1280; default 1350 gets dropped
	}
}

// dialQUIC connects to a display's QUIC listener and waits for the
// server-opened stream that carries the handshake and all commands.
//
// The server opens the stream because it speaks first; QUIC does not
// announce a stream to the peer until its opener writes to it.
func dialQUIC(ctx context.Context, addr string, conf *tls.Config) (Stream, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	// Use a fresh UDP socket for the client
	udpConn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}

	tr := &quic.Transport{Conn: udpConn}
	qconn, err := tr.Dial(ctx, udpAddr, conf, quicConfig())
	if err != nil {
		tr.Close()
		return nil, fmt.Errorf("QUIC dial: %w", err)
	}

	stream, err := qconn.AcceptStream(ctx)
	if err != nil {
		qconn.CloseWithError(1, "no stream")
		tr.Close()
		return nil, fmt.Errorf("accept display stream: %w", err)
	}

	return &quicStream{Stream: stream, qconn: qconn, tr: tr}, nil
}
