package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chronologos/ledwall/internal/protocol"
)

var (
	red   = protocol.RGB(255, 0, 0)
	green = protocol.RGB(0, 255, 0)
	black = protocol.Color{}
)

func TestFramebufferPixel(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Apply(&protocol.Pixel{X: 1, Y: 2, Color: red})

	assert.Equal(t, red, fb.At(1, 2))
	assert.Equal(t, black, fb.At(2, 1))
}

func TestFramebufferPixelOutsideIgnored(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	assert.NotPanics(t, func() {
		fb.Apply(&protocol.Pixel{X: 4, Y: 0, Color: red})
		fb.Apply(&protocol.Pixel{X: 255, Y: 255, Color: red})
	})
	for y := uint8(0); y < 4; y++ {
		for x := uint8(0); x < 4; x++ {
			assert.Equal(t, black, fb.At(x, y))
		}
	}
}

func TestFramebufferFill(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Apply(&protocol.Fill{Color: green})
	assert.Equal(t, green, fb.At(0, 0))
	assert.Equal(t, green, fb.At(2, 1))
}

func TestFramebufferRectangleClipped(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Apply(&protocol.Rectangle{Area: protocol.Area{X: 2, Y: 2, Width: 200, Height: 200}, Color: red})

	assert.Equal(t, black, fb.At(1, 1))
	assert.Equal(t, red, fb.At(2, 2))
	assert.Equal(t, red, fb.At(3, 3))
	assert.Equal(t, black, fb.At(1, 3))
}

func TestFramebufferContiguousRowMajor(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Apply(&protocol.Contiguous{
		Area: protocol.Area{X: 1, Y: 1, Width: 2, Height: 2},
		Colors: []byte{
			1, 1, 1, 2, 2, 2,
			3, 3, 3, 4, 4, 4,
		},
	})

	assert.Equal(t, protocol.RGB(1, 1, 1), fb.At(1, 1))
	assert.Equal(t, protocol.RGB(2, 2, 2), fb.At(2, 1))
	assert.Equal(t, protocol.RGB(3, 3, 3), fb.At(1, 2))
	assert.Equal(t, protocol.RGB(4, 4, 4), fb.At(2, 2))
}

func TestFramebufferContiguousBadLengthIgnored(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	assert.NotPanics(t, func() {
		fb.Apply(&protocol.Contiguous{Area: protocol.Area{Width: 2, Height: 2}, Colors: []byte{1}})
	})
	assert.Equal(t, black, fb.At(0, 0))
}

func TestFramebufferSnapshot(t *testing.T) {
	fb := NewFramebuffer(2, 1)
	fb.Apply(&protocol.Pixel{X: 1, Y: 0, Color: protocol.RGB(10, 20, 30)})

	img := fb.Snapshot()
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
	assert.Equal(t, protocol.RGB(10, 20, 30), protocol.FromColor(img.At(1, 0)))
	assert.Equal(t, uint8(0xff), img.RGBAAt(0, 0).A)
}
