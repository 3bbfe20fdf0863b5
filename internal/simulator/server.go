// Package simulator is a software LED wall. It speaks the server side of
// the display protocol: it announces its size on connect, then decodes
// commands into an in-memory framebuffer.
//
// It exists for tests and for developing against the protocol without
// hardware. Its HTTP handler serves the current frame as a PNG.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chronologos/ledwall/internal/metrics"
	"github.com/chronologos/ledwall/internal/protocol"
	"github.com/chronologos/ledwall/internal/transport"
)

// Config holds simulator configuration.
type Config struct {
	Width  uint8
	Height uint8

	Logger *slog.Logger // nil discards

	// Token, if set, is required as a bearer token on /ws and /frame.png.
	Token string

	// Metrics records applied commands. Gatherer is what /metrics serves;
	// nil uses prometheus.DefaultGatherer.
	Metrics  *metrics.Simulator
	Gatherer prometheus.Gatherer
}

// Server accepts display clients and applies their commands to a shared
// framebuffer.
type Server struct {
	cfg Config
	fb  *Framebuffer
	log *slog.Logger

	mu      sync.Mutex
	streams map[transport.Stream]struct{}
	closed  bool
	wg      sync.WaitGroup // one per client handler, from any ingress
}

// New creates a server but does not start it. Call Serve.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		cfg:     cfg,
		fb:      NewFramebuffer(cfg.Width, cfg.Height),
		log:     logger.With("component", "simulator"),
		streams: make(map[transport.Stream]struct{}),
	}
}

// Framebuffer returns the shared framebuffer.
func (s *Server) Framebuffer() *Framebuffer { return s.fb }

// Serve accepts streams from ln until ctx is cancelled or ln fails. It
// calls Close before returning, so open clients on every ingress
// (including /ws) are disconnected.
func (s *Server) Serve(ctx context.Context, ln transport.Listener) error {
	s.log.Info("listening", "addr", ln.Addr(), "width", s.cfg.Width, "height", s.cfg.Height)

	// Unblock Accept on cancellation.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	defer s.Close()

	for {
		stream, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !s.begin() {
			stream.Close()
			return nil
		}
		go func() {
			defer s.wg.Done()
			s.ServeStream(stream)
		}()
	}
}

// ServeStream runs one client: handshake, then commands until the client
// disconnects or sends something undecodable. It closes stream on return.
func (s *Server) ServeStream(stream transport.Stream) {
	id := uuid.NewString()
	log := s.log.With("conn", id)

	if !s.track(stream) {
		stream.Close()
		return
	}
	defer s.untrack(stream)
	s.cfg.Metrics.Connected()
	defer s.cfg.Metrics.Disconnected()

	if err := protocol.WriteHandshake(stream, s.cfg.Width, s.cfg.Height); err != nil {
		log.Warn("handshake failed", "err", err)
		return
	}
	log.Info("client connected")

	n := 0
	for {
		cmd, err := protocol.ReadCommand(stream)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info("client disconnected", "commands", n)
				return
			}
			if errors.Is(err, protocol.ErrUnknownCommand) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.cfg.Metrics.DecodeFailed()
			}
			log.Warn("dropping client", "commands", n, "err", err)
			return
		}
		s.fb.Apply(cmd)
		s.cfg.Metrics.Applied(cmd.Tag().String())
		n++
	}
}

// begin registers a client handler. It reports false once Close has
// started.
func (s *Server) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) track(stream transport.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams[stream] = struct{}{}
	return true
}

func (s *Server) untrack(stream transport.Stream) {
	s.mu.Lock()
	delete(s.streams, stream)
	s.mu.Unlock()
	stream.Close()
}

// Close disconnects every open client and waits for their handlers to
// return. Clients arriving afterwards are refused. Close is idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for stream := range s.streams {
		stream.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
