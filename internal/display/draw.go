package display

import (
	"errors"
	"image"

	"github.com/chronologos/ledwall/internal/protocol"
)

// Pixel sets one cell. Like every drawing call it only buffers; call
// Flush to send.
func (s *Session) Pixel(x, y, red, green, blue uint8) error {
	return s.write(&protocol.Pixel{X: x, Y: y, Color: protocol.RGB(red, green, blue)})
}

// Fill paints the whole display one color.
func (s *Session) Fill(red, green, blue uint8) error {
	return s.write(&protocol.Fill{Color: protocol.RGB(red, green, blue)})
}

// Rectangle paints an area one color. The server clips it to the display;
// no bounds check happens here.
func (s *Session) Rectangle(x, y, width, height, red, green, blue uint8) error {
	return s.write(&protocol.Rectangle{
		Area:  protocol.Area{X: x, Y: y, Width: width, Height: height},
		Color: protocol.RGB(red, green, blue),
	})
}

// Contiguous sends one color triple per cell of the area, row-major from
// the top-left corner: x advances first, then y.
//
// The area must fit the display and colors must hold exactly
// width*height*3 bytes. Otherwise a *protocol.AreaError is returned and
// nothing is buffered.
func (s *Session) Contiguous(x, y, width, height uint8, colors []byte) error {
	area := protocol.Area{X: x, Y: y, Width: width, Height: height}
	if err := protocol.ValidateArea(s.width, s.height, area, len(colors)); err != nil {
		var ae *protocol.AreaError
		if errors.As(err, &ae) {
			s.opts.metrics.ValidationFailed(ae.Kind.String())
		}
		s.log.Debug("contiguous write rejected", "area", area, "colors", len(colors), "err", err)
		return err
	}
	return s.write(&protocol.Contiguous{Area: area, Colors: colors})
}

// SetPixel is Pixel with value types.
func (s *Session) SetPixel(p protocol.Point, c protocol.Color) error {
	return s.Pixel(p.X, p.Y, c.R, c.G, c.B)
}

// FillColor is Fill with a value type.
func (s *Session) FillColor(c protocol.Color) error {
	return s.Fill(c.R, c.G, c.B)
}

// FillArea is Rectangle with value types.
func (s *Session) FillArea(a protocol.Area, c protocol.Color) error {
	return s.Rectangle(a.X, a.Y, a.Width, a.Height, c.R, c.G, c.B)
}

// WriteArea is Contiguous with an Area.
func (s *Session) WriteArea(a protocol.Area, colors []byte) error {
	return s.Contiguous(a.X, a.Y, a.Width, a.Height, colors)
}

// DrawImage sends img as one contiguous block with its top-left corner at
// the given cell. Parts of the image past the right or bottom edge of the
// display are cropped; an origin outside the display is an area error.
func (s *Session) DrawImage(at protocol.Point, img image.Image) error {
	b := img.Bounds()
	w := min(b.Dx(), int(s.width)-int(at.X))
	h := min(b.Dy(), int(s.height)-int(at.Y))
	area := protocol.Area{X: at.X, Y: at.Y, Width: uint8(max(w, 0)), Height: uint8(max(h, 0))}

	colors := make([]byte, 0, area.ColorLen())
	for y := 0; y < int(area.Height); y++ {
		for x := 0; x < int(area.Width); x++ {
			c := protocol.FromColor(img.At(b.Min.X+x, b.Min.Y+y))
			colors = append(colors, c.R, c.G, c.B)
		}
	}
	return s.WriteArea(area, colors)
}

// write appends cmd to the buffer whole; nothing reaches the transport
// until Flush however large the buffer grows.
func (s *Session) write(cmd protocol.Command) error {
	buf, err := protocol.AppendCommand(s.buf, cmd)
	if err != nil {
		s.log.Warn("encode failed", "command", cmd.Tag(), "err", err)
		return err
	}
	s.buf = buf
	s.opts.metrics.CommandBuffered(cmd.Tag().String())
	return nil
}
