package protocol

import (
	"fmt"
	"image/color"
)

// Point is a cell coordinate on the display.
type Point struct {
	X, Y uint8
}

// Color is an RGB triple as it appears on the wire.
type Color struct {
	R, G, B uint8
}

// RGB is shorthand for Color{r, g, b}.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromColor converts any image/color value to its 8-bit RGB form.
// Alpha is dropped; premultiplied channels are used as-is.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// RGBA implements color.Color so a Color can be drawn into an image.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Area is a rectangle anchored at its top-left cell.
type Area struct {
	X, Y          uint8
	Width, Height uint8
}

// Cells returns the number of cells covered by the area.
func (a Area) Cells() int {
	return int(a.Width) * int(a.Height)
}

// ColorLen returns the exact color buffer length a contiguous write of
// this area must carry.
func (a Area) ColorLen() int {
	return a.Cells() * BytesPerColor
}

func (a Area) String() string {
	return fmt.Sprintf("%dx%d@(%d,%d)", a.Width, a.Height, a.X, a.Y)
}
