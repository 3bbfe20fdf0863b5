// Package metrics holds the Prometheus collectors shared by the display
// client and the simulator.
//
// All methods are safe on a nil receiver, so components can take an
// optional *Client or *Simulator and record unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledwall"

// Client counts what a display session encodes and sends.
type Client struct {
	commands         *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	bytesFlushed     prometheus.Counter
	flushes          prometheus.Counter
}

// NewClient registers the client collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewClient(reg prometheus.Registerer) *Client {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Client{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Drawing commands buffered, by command",
		}, []string{"command"}),

		validationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "validation_errors_total",
			Help:      "Contiguous writes rejected before encoding, by reason",
		}, []string{"reason"}),

		bytesFlushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "flushed_bytes_total",
			Help:      "Bytes delivered to the transport by Flush",
		}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "flushes_total",
			Help:      "Successful Flush calls",
		}),
	}
}

func (m *Client) CommandBuffered(command string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command).Inc()
}

func (m *Client) ValidationFailed(reason string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(reason).Inc()
}

func (m *Client) Flushed(n int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.bytesFlushed.Add(float64(n))
}

// Simulator counts what the simulated display receives.
type Simulator struct {
	applied      *prometheus.CounterVec
	decodeErrors prometheus.Counter
	connections  prometheus.Gauge
}

// NewSimulator registers the simulator collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewSimulator(reg prometheus.Registerer) *Simulator {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Simulator{
		applied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "commands_applied_total",
			Help:      "Commands decoded and applied to the framebuffer, by command",
		}, []string{"command"}),

		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "decode_errors_total",
			Help:      "Connections dropped because a command could not be decoded",
		}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "active_connections",
			Help:      "Clients currently connected",
		}),
	}
}

func (m *Simulator) Applied(command string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(command).Inc()
}

func (m *Simulator) DecodeFailed() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Simulator) Connected() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Simulator) Disconnected() {
	if m == nil {
		return
	}
	m.connections.Dec()
}
