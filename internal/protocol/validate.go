package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrAreaTooWide = errors.New("area too wide for display")
	ErrAreaTooTall = errors.New("area too tall for display")
	ErrColorLength = errors.New("color buffer has wrong length")
)

// AreaErrorKind says which area check rejected a contiguous write.
type AreaErrorKind int

const (
	TooWide AreaErrorKind = iota + 1
	TooTall
	WrongLength
)

func (k AreaErrorKind) String() string {
	switch k {
	case TooWide:
		return "too wide"
	case TooTall:
		return "too tall"
	case WrongLength:
		return "wrong length"
	default:
		return "unknown"
	}
}

// AreaError is returned when a contiguous write does not fit the display
// or carries the wrong number of color bytes. Nothing has been written
// when it is returned, so the session stays usable.
type AreaError struct {
	Kind          AreaErrorKind
	Area          Area
	DisplayWidth  uint8
	DisplayHeight uint8

	// Got and Want are the color buffer lengths (WrongLength only).
	Got, Want int
}

func (e *AreaError) Error() string {
	switch e.Kind {
	case TooWide:
		return fmt.Sprintf("%v: %v exceeds width %d", ErrAreaTooWide, e.Area, e.DisplayWidth)
	case TooTall:
		return fmt.Sprintf("%v: %v exceeds height %d", ErrAreaTooTall, e.Area, e.DisplayHeight)
	case WrongLength:
		return fmt.Sprintf("%v: got %d bytes, want %d for %v", ErrColorLength, e.Got, e.Want, e.Area)
	default:
		return "invalid area"
	}
}

// Unwrap maps the kind to its sentinel so errors.Is works.
func (e *AreaError) Unwrap() error {
	switch e.Kind {
	case TooWide:
		return ErrAreaTooWide
	case TooTall:
		return ErrAreaTooTall
	case WrongLength:
		return ErrColorLength
	default:
		return nil
	}
}

// Recoverable is always true: validation runs before any byte is buffered.
func (e *AreaError) Recoverable() bool { return true }

// ValidateArea runs the width, height and color length checks in that
// order and returns the first failure.
func ValidateArea(width, height uint8, a Area, colorLen int) error {
	if err := CheckWidth(width, a); err != nil {
		return err
	}
	if err := CheckHeight(height, a); err != nil {
		return err
	}
	return CheckColorLength(a, colorLen)
}

// CheckWidth rejects areas whose right edge passes the display width.
// The sum is widened so x+w past 255 counts as too wide instead of wrapping.
func CheckWidth(width uint8, a Area) error {
	if uint16(a.X)+uint16(a.Width) > uint16(width) {
		return &AreaError{Kind: TooWide, Area: a, DisplayWidth: width}
	}
	return nil
}

// CheckHeight is CheckWidth for the vertical axis.
func CheckHeight(height uint8, a Area) error {
	if uint16(a.Y)+uint16(a.Height) > uint16(height) {
		return &AreaError{Kind: TooTall, Area: a, DisplayHeight: height}
	}
	return nil
}

// CheckColorLength rejects color buffers that are not exactly 3 bytes per cell.
func CheckColorLength(a Area, colorLen int) error {
	if want := a.ColorLen(); want != colorLen {
		return &AreaError{Kind: WrongLength, Area: a, Got: colorLen, Want: want}
	}
	return nil
}
