package transport

import (
	"github.com/quic-go/quic-go"
)

// quicStream carries the display protocol over a single bidirectional QUIC
// stream. Read, Write and SetReadDeadline come from the embedded stream.
type quicStream struct {
	*quic.Stream
	qconn *quic.Conn
	tr    *quic.Transport // client side only; keeps the UDP socket alive
}

// Close closes the stream and the underlying QUIC connection.
// The embedded Stream.Close only closes the write direction.
func (s *quicStream) Close() error {
	s.Stream.CancelRead(0)
	s.Stream.Close()
	s.qconn.CloseWithError(0, "closed")
	if s.tr != nil {
		return s.tr.Close()
	}
	return nil
}
