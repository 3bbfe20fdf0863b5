package protocol

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrUnknownCommand = errors.New("unknown command tag")
	ErrShortHandshake = errors.New("handshake too short")
)

// Command is one client-to-server drawing command. The set is closed:
// only the types in this file implement it.
type Command interface {
	Tag() Tag
	// EncodedLen is the full wire size including the tag byte.
	EncodedLen() int
	command()
}

// --- Command types ---

type Pixel struct {
	X, Y  uint8
	Color Color
}

type Fill struct {
	Color Color
}

type Rectangle struct {
	Area  Area
	Color Color
}

// Contiguous carries one color triple per cell of Area, row-major from
// the top-left corner (x advances before y).
type Contiguous struct {
	Area   Area
	Colors []byte
}

func (*Pixel) Tag() Tag      { return TagPixel }
func (*Fill) Tag() Tag       { return TagFill }
func (*Rectangle) Tag() Tag  { return TagRectangle }
func (*Contiguous) Tag() Tag { return TagContiguous }

func (*Pixel) EncodedLen() int        { return 1 + PixelSize }
func (*Fill) EncodedLen() int         { return 1 + FillSize }
func (*Rectangle) EncodedLen() int    { return 1 + RectangleSize }
func (c *Contiguous) EncodedLen() int { return 1 + ContiguousHeaderSize + len(c.Colors) }

func (*Pixel) command()      {}
func (*Fill) command()       {}
func (*Rectangle) command()  {}
func (*Contiguous) command() {}

// --- Encoding ---

// WriteCommand writes cmd to w.
//
// Fixed-size commands are encoded into a stack buffer and written with a
// single Write. Contiguous writes its header and then the caller's color
// buffer, without copying the colors.
//
// WriteCommand does no area validation; callers that know the display
// size run ValidateArea first.
func WriteCommand(w io.Writer, cmd Command) error {
	// Largest fixed encoding is Rectangle: tag + 7 bytes.
	var scratch [1 + RectangleSize]byte

	if c, ok := cmd.(*Contiguous); ok {
		hdr := appendContiguousHeader(scratch[:0], c.Area)
		if _, err := w.Write(hdr); err != nil {
			return err
		}
		if len(c.Colors) > 0 {
			if _, err := w.Write(c.Colors); err != nil {
				return err
			}
		}
		return nil
	}

	buf, err := appendFixed(scratch[:0], cmd)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// AppendCommand appends the wire encoding of cmd to dst.
func AppendCommand(dst []byte, cmd Command) ([]byte, error) {
	if c, ok := cmd.(*Contiguous); ok {
		dst = appendContiguousHeader(dst, c.Area)
		return append(dst, c.Colors...), nil
	}
	return appendFixed(dst, cmd)
}

func appendFixed(dst []byte, cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case *Pixel:
		return append(dst, byte(TagPixel), c.X, c.Y, c.Color.R, c.Color.G, c.Color.B), nil
	case *Fill:
		return append(dst, byte(TagFill), c.Color.R, c.Color.G, c.Color.B), nil
	case *Rectangle:
		a := c.Area
		return append(dst, byte(TagRectangle), a.X, a.Y, a.Width, a.Height,
			c.Color.R, c.Color.G, c.Color.B), nil
	default:
		return dst, fmt.Errorf("unsupported command type: %T", cmd)
	}
}

func appendContiguousHeader(dst []byte, a Area) []byte {
	return append(dst, byte(TagContiguous), a.X, a.Y, a.Width, a.Height)
}

// --- Decoding ---

// ReadHandshake reads the two-byte [width, height] announcement.
// A stream that ends early yields an error wrapping io.ErrUnexpectedEOF
// (or io.EOF if nothing arrived at all).
func ReadHandshake(r io.Reader) (width, height uint8, err error) {
	var buf [HandshakeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrShortHandshake, err)
	}
	return buf[0], buf[1], nil
}

// WriteHandshake writes the server's [width, height] announcement.
func WriteHandshake(w io.Writer, width, height uint8) error {
	_, err := w.Write([]byte{width, height})
	return err
}

// ReadCommand reads one command from r. This is the server side of the
// protocol; the client never decodes commands.
//
// io.EOF is returned unwrapped when the stream ends cleanly between
// commands. A stream that ends mid-command yields io.ErrUnexpectedEOF.
func ReadCommand(r io.Reader) (Command, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, err
	}

	var scratch [RectangleSize]byte
	switch t := Tag(tag[0]); t {
	case TagPixel:
		p := scratch[:PixelSize]
		if _, err := io.ReadFull(r, p); err != nil {
			return nil, noEOF(err)
		}
		return &Pixel{X: p[0], Y: p[1], Color: Color{p[2], p[3], p[4]}}, nil

	case TagFill:
		p := scratch[:FillSize]
		if _, err := io.ReadFull(r, p); err != nil {
			return nil, noEOF(err)
		}
		return &Fill{Color: Color{p[0], p[1], p[2]}}, nil

	case TagRectangle:
		p := scratch[:RectangleSize]
		if _, err := io.ReadFull(r, p); err != nil {
			return nil, noEOF(err)
		}
		return &Rectangle{
			Area:  Area{X: p[0], Y: p[1], Width: p[2], Height: p[3]},
			Color: Color{p[4], p[5], p[6]},
		}, nil

	case TagContiguous:
		p := scratch[:ContiguousHeaderSize]
		if _, err := io.ReadFull(r, p); err != nil {
			return nil, noEOF(err)
		}
		area := Area{X: p[0], Y: p[1], Width: p[2], Height: p[3]}
		colors := make([]byte, area.ColorLen())
		if _, err := io.ReadFull(r, colors); err != nil {
			return nil, noEOF(err)
		}
		return &Contiguous{Area: area, Colors: colors}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, byte(t))
	}
}

// noEOF turns a clean EOF after the tag byte into ErrUnexpectedEOF.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
