package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClientCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.CommandBuffered("pixel")
	m.CommandBuffered("pixel")
	m.CommandBuffered("fill")
	m.ValidationFailed("too wide")
	m.Flushed(12)
	m.Flushed(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("pixel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("fill")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationErrors.WithLabelValues("too wide")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.bytesFlushed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushes))
}

func TestSimulatorGauge(t *testing.T) {
	m := NewSimulator(prometheus.NewRegistry())

	m.Connected()
	m.Connected()
	m.Disconnected()
	m.Applied("rectangle")
	m.DecodeFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.applied.WithLabelValues("rectangle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decodeErrors))
}

func TestNilReceivers(t *testing.T) {
	var c *Client
	var s *Simulator
	assert.NotPanics(t, func() {
		c.CommandBuffered("pixel")
		c.ValidationFailed("too tall")
		c.Flushed(1)
		s.Applied("fill")
		s.DecodeFailed()
		s.Connected()
		s.Disconnected()
	})
}
