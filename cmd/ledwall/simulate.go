package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chronologos/ledwall/internal/auth"
	"github.com/chronologos/ledwall/internal/config"
	"github.com/chronologos/ledwall/internal/metrics"
	"github.com/chronologos/ledwall/internal/simulator"
	"github.com/chronologos/ledwall/internal/transport"
)

func simulateCmd(gf *globalFlags) *cobra.Command {
	var (
		listen     string
		httpListen string
		mode       string
		width      uint8
		height     uint8
		genToken   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a software display",
		Long: `Run an in-memory display that speaks the ledwall protocol. The HTTP
listener serves /frame.png, /metrics, /healthz and a WebSocket transport
at /ws.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := gf.load()
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("listen") {
				cfg.Simulator.Listen = listen
			}
			if f.Changed("http-listen") {
				cfg.Simulator.HTTPListen = httpListen
			}
			if f.Changed("sim-mode") {
				m, err := transport.ParseMode(mode)
				if err != nil {
					return err
				}
				cfg.Simulator.Mode = m
			}
			if f.Changed("width") {
				cfg.Simulator.Width = width
			}
			if f.Changed("height") {
				cfg.Simulator.Height = height
			}
			if genToken {
				tok, err := auth.GenerateToken()
				if err != nil {
					return err
				}
				cfg.Simulator.Token = tok
				fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", tok)
			}
			return runSimulator(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&listen, "listen", "", "protocol listen address")
	f.StringVar(&httpListen, "http-listen", "", "HTTP listen address (empty disables)")
	f.StringVar(&mode, "sim-mode", "", "protocol transport: tcp, tls, quic or ws")
	f.Uint8Var(&width, "width", 0, "display width in pixels")
	f.Uint8Var(&height, "height", 0, "display height in pixels")
	f.BoolVar(&genToken, "gen-token", false, "require a freshly generated bearer token and print it")
	return cmd
}

func runSimulator(parent context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)
	sc := cfg.Simulator

	if sc.Mode == transport.ModeWebSocket && sc.HTTPListen == "" {
		return errors.New("ws mode needs an HTTP listener")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := simulator.New(simulator.Config{
		Width:   sc.Width,
		Height:  sc.Height,
		Logger:  logger,
		Token:   sc.Token,
		Metrics: metrics.NewSimulator(prometheus.DefaultRegisterer),
	})

	// WebSocket clients arrive through the HTTP handler.
	var ln transport.Listener
	if sc.Mode != transport.ModeWebSocket {
		var err error
		ln, err = transport.Listen(sc.Mode, sc.Listen, tls.Certificate{})
		if err != nil {
			return err
		}
	}
	return serveSimulator(ctx, cancel, logger, srv, ln, sc.HTTPListen)
}

// serveSimulator runs srv on ln (if not nil) and an HTTP server on
// httpAddr (if not empty) until ctx ends or either side fails. It returns
// only after every client, WebSocket ones included, has been disconnected.
func serveSimulator(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, srv *simulator.Server, ln transport.Listener, httpAddr string) error {
	errc := make(chan error, 2)
	running := 0

	var hs *http.Server
	if httpAddr != "" {
		hs = &http.Server{
			Addr:              httpAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		running++
		go func() {
			logger.Info("http listening", "addr", httpAddr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
				return
			}
			errc <- nil
		}()
	}
	if ln != nil {
		running++
		go func() { errc <- srv.Serve(ctx, ln) }()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		running--
	}
	cancel()

	if hs != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := hs.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("http shutdown", "err", serr)
		}
		done()
	}
	// Hijacked WebSocket streams outlive http.Server.Shutdown.
	srv.Close()

	for ; running > 0; running-- {
		if rerr := <-errc; err == nil {
			err = rerr
		}
	}
	return err
}
