package simulator

import (
	"image"
	"sync"

	"github.com/chronologos/ledwall/internal/protocol"
)

// Framebuffer is the simulated wall: width*height RGB cells.
// It is safe for concurrent use; several clients may draw at once.
type Framebuffer struct {
	mu     sync.RWMutex
	width  int
	height int
	pix    []byte // RGB, row-major
}

// NewFramebuffer returns a black framebuffer.
func NewFramebuffer(width, height uint8) *Framebuffer {
	return &Framebuffer{
		width:  int(width),
		height: int(height),
		pix:    make([]byte, int(width)*int(height)*protocol.BytesPerColor),
	}
}

// Width returns the framebuffer width.
func (f *Framebuffer) Width() uint8 { return uint8(f.width) }

// Height returns the framebuffer height.
func (f *Framebuffer) Height() uint8 { return uint8(f.height) }

// Apply draws cmd. Anything outside the display is clipped silently, the
// way a real wall ignores cells it does not have.
func (f *Framebuffer) Apply(cmd protocol.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch c := cmd.(type) {
	case *protocol.Pixel:
		f.set(int(c.X), int(c.Y), c.Color)
	case *protocol.Fill:
		for i := 0; i < len(f.pix); i += protocol.BytesPerColor {
			f.pix[i], f.pix[i+1], f.pix[i+2] = c.Color.R, c.Color.G, c.Color.B
		}
	case *protocol.Rectangle:
		a := c.Area
		for y := int(a.Y); y < int(a.Y)+int(a.Height); y++ {
			for x := int(a.X); x < int(a.X)+int(a.Width); x++ {
				f.set(x, y, c.Color)
			}
		}
	case *protocol.Contiguous:
		a := c.Area
		if len(c.Colors) != a.ColorLen() {
			return
		}
		i := 0
		for y := int(a.Y); y < int(a.Y)+int(a.Height); y++ {
			for x := int(a.X); x < int(a.X)+int(a.Width); x++ {
				f.set(x, y, protocol.Color{R: c.Colors[i], G: c.Colors[i+1], B: c.Colors[i+2]})
				i += protocol.BytesPerColor
			}
		}
	}
}

// set writes one cell; f.mu must be held.
func (f *Framebuffer) set(x, y int, c protocol.Color) {
	if x >= f.width || y >= f.height {
		return
	}
	i := (y*f.width + x) * protocol.BytesPerColor
	f.pix[i], f.pix[i+1], f.pix[i+2] = c.R, c.G, c.B
}

// At returns the color of one cell. Cells outside the display are black.
func (f *Framebuffer) At(x, y uint8) protocol.Color {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if int(x) >= f.width || int(y) >= f.height {
		return protocol.Color{}
	}
	i := (int(y)*f.width + int(x)) * protocol.BytesPerColor
	return protocol.Color{R: f.pix[i], G: f.pix[i+1], B: f.pix[i+2]}
}

// Snapshot copies the framebuffer into an image, one image pixel per cell.
func (f *Framebuffer) Snapshot() *image.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for i, j := 0, 0; i < len(f.pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = f.pix[i], f.pix[i+1], f.pix[i+2], 0xff
	}
	return img
}
