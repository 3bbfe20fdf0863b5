// Package display is the client for an LED wall speaking the ledwall
// command protocol.
//
// A Session reads the two-byte [width, height] handshake on connect and
// then buffers drawing commands. Nothing reaches the wall until Flush:
// batch as many commands as you like and flush once per frame.
//
//	s, err := display.Connect(ctx, "wall.local:1337")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.Fill(0, 0, 0)
//	s.Pixel(3, 4, 255, 0, 0)
//	if err := s.Flush(); err != nil {
//	    return err
//	}
//
// A Session is owned by one goroutine. It does no locking.
//
// Close does not flush. Commands buffered since the last Flush are
// dropped when the session is closed or discarded.
package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chronologos/ledwall/internal/protocol"
)

// ConnectionError reports a failure to dial the display or to read its
// handshake. It is never retried internally.
type ConnectionError struct {
	Addr string // empty for NewSession
	Op   string // "dial" or "handshake"
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("display %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("display %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Session is a connection to one display. The width and height announced
// by the server are fixed for the lifetime of the session.
type Session struct {
	rw     io.ReadWriter
	buf    []byte // encoded commands waiting for Flush
	width  uint8
	height uint8
	opts   options
	log    *slog.Logger
}

// Connect dials addr and performs the handshake. The transport defaults
// to plain TCP; see WithDialOptions.
func Connect(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := o.tracer.Start(ctx, "display.Connect")
	defer span.End()
	span.SetAttributes(
		attribute.String("display.addr", addr),
		attribute.String("display.transport", o.dial.Mode.String()),
	)

	o.log.Debug("dialing display", "addr", addr, "transport", o.dial.Mode)
	stream, err := o.dialer(ctx, addr, o.dial)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, &ConnectionError{Addr: addr, Op: "dial", Err: err}
	}

	// Bound the handshake read by the caller's deadline, if any.
	if deadline, ok := ctx.Deadline(); ok {
		if err := stream.SetReadDeadline(deadline); err != nil {
			stream.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, "handshake deadline")
			return nil, &ConnectionError{Addr: addr, Op: "handshake", Err: fmt.Errorf("set read deadline: %w", err)}
		}
	}
	s, err := newSession(stream, o)
	if err != nil {
		stream.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "handshake failed")
		return nil, &ConnectionError{Addr: addr, Op: "handshake", Err: err}
	}
	// The session never reads again, so a stale deadline is harmless.
	if err := stream.SetReadDeadline(time.Time{}); err != nil {
		s.log.Debug("clear read deadline", "err", err)
	}

	span.SetAttributes(
		attribute.Int("display.width", int(s.width)),
		attribute.Int("display.height", int(s.height)),
	)
	return s, nil
}

// NewSession performs the handshake on an already-open stream. If rw is
// an io.Closer, Close closes it.
func NewSession(rw io.ReadWriter, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s, err := newSession(rw, o)
	if err != nil {
		return nil, &ConnectionError{Op: "handshake", Err: err}
	}
	return s, nil
}

func newSession(rw io.ReadWriter, o options) (*Session, error) {
	width, height, err := protocol.ReadHandshake(rw)
	if err != nil {
		return nil, err
	}

	s := &Session{
		rw:     rw,
		buf:    make([]byte, 0, o.bufferSize),
		width:  width,
		height: height,
		opts:   o,
		log:    o.log.With("width", width, "height", height),
	}
	s.log.Info("display connected")
	return s, nil
}

// Width returns the display width announced in the handshake.
func (s *Session) Width() uint8 { return s.width }

// Height returns the display height announced in the handshake.
func (s *Session) Height() uint8 { return s.height }

// TotalPixels returns Width*Height. The product of two uint8 values
// always fits in uint16 (at most 65025).
func (s *Session) TotalPixels() uint16 {
	return uint16(s.width) * uint16(s.height)
}

// Buffered returns the number of bytes waiting for Flush.
func (s *Session) Buffered() int {
	return len(s.buf)
}

// Flush delivers every buffered command to the transport in a single
// write. The span it records is a root span; use FlushContext to attach
// it to a caller's trace.
func (s *Session) Flush() error {
	return s.FlushContext(context.Background())
}

// FlushContext is Flush with the tracing parent taken from ctx. ctx does
// not bound the write.
//
// If the transport accepts only part of the buffer, the unsent tail stays
// buffered and the error is returned.
func (s *Session) FlushContext(ctx context.Context) error {
	n := len(s.buf)
	_, span := s.opts.tracer.Start(ctx, "display.Flush")
	defer span.End()
	span.SetAttributes(attribute.Int("display.bytes", n))

	if n == 0 {
		return nil
	}
	written, err := s.rw.Write(s.buf)
	written = min(max(written, 0), n)
	if err == nil && written < n {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.buf = s.buf[:copy(s.buf, s.buf[written:])]
		span.RecordError(err)
		span.SetStatus(codes.Error, "flush failed")
		s.log.Warn("flush failed", "bytes", n, "written", written, "err", err)
		return err
	}
	s.buf = s.buf[:0]
	s.opts.metrics.Flushed(n)
	return nil
}

// Close closes the underlying stream without flushing. Buffered commands
// are dropped; call Flush first to deliver them.
func (s *Session) Close() error {
	if pending := len(s.buf); pending > 0 {
		s.log.Debug("dropping unflushed commands", "bytes", pending)
	}
	s.buf = s.buf[:0]
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
