package protocol

// Handshake: server sends [1B width][1B height] once, right after connect.
const HandshakeSize = 2

// BytesPerColor is the size of one RGB triple on the wire.
const BytesPerColor = 3

// Tag identifies which command follows on the wire.
type Tag byte

const (
	TagPixel      Tag = 0x00
	TagFill       Tag = 0x01
	TagRectangle  Tag = 0x02
	TagContiguous Tag = 0x03
)

func (t Tag) String() string {
	switch t {
	case TagPixel:
		return "pixel"
	case TagFill:
		return "fill"
	case TagRectangle:
		return "rectangle"
	case TagContiguous:
		return "contiguous"
	default:
		return "unknown"
	}
}

// Payload sizes (excluding the tag byte).
const (
	PixelSize            = 5 // x, y, r, g, b
	FillSize             = 3 // r, g, b
	RectangleSize        = 7 // x, y, w, h, r, g, b
	ContiguousHeaderSize = 4 // x, y, w, h (colors follow)
)

// MaxContiguousColors is the largest color buffer a single contiguous
// command can carry (255x255 cells).
const MaxContiguousColors = 255 * 255 * BytesPerColor
