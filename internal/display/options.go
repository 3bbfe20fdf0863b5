package display

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chronologos/ledwall/internal/metrics"
	"github.com/chronologos/ledwall/internal/transport"
)

const (
	tracerName = "github.com/chronologos/ledwall/internal/display"

	// defaultBufferSize is the initial buffer capacity; it fits a full
	// 64x32 contiguous frame without growing.
	defaultBufferSize = 8 * 1024
)

type options struct {
	log        *slog.Logger
	metrics    *metrics.Client
	tracer     trace.Tracer
	bufferSize int
	dial       transport.DialOptions
	dialer     func(context.Context, string, transport.DialOptions) (transport.Stream, error)
}

func defaultOptions() options {
	return options{
		log:        slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer(tracerName),
		bufferSize: defaultBufferSize,
		dialer:     transport.Dial,
	}
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger. Sessions log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records buffered commands, validation failures and flushes.
func WithMetrics(m *metrics.Client) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithBufferSize sets the initial output buffer capacity. The buffer grows
// as needed, so it bounds allocations only.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithDialOptions selects the transport used by Connect.
func WithDialOptions(d transport.DialOptions) Option {
	return func(o *options) {
		o.dial = d
	}
}
