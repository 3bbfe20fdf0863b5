package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePixel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, &Pixel{X: 3, Y: 7, Color: RGB(10, 20, 30)}))
	assert.Equal(t, []byte{byte(TagPixel), 3, 7, 10, 20, 30}, buf.Bytes())
}

func TestWriteFill(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, &Fill{Color: RGB(255, 0, 128)}))
	assert.Equal(t, []byte{byte(TagFill), 255, 0, 128}, buf.Bytes())
}

func TestWriteRectangle(t *testing.T) {
	var buf bytes.Buffer
	cmd := &Rectangle{Area: Area{X: 1, Y: 2, Width: 3, Height: 4}, Color: RGB(5, 6, 7)}
	require.NoError(t, WriteCommand(&buf, cmd))
	assert.Equal(t, []byte{byte(TagRectangle), 1, 2, 3, 4, 5, 6, 7}, buf.Bytes())
}

func TestWriteContiguousPassesColorsVerbatim(t *testing.T) {
	colors := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	var buf bytes.Buffer
	cmd := &Contiguous{Area: Area{X: 0, Y: 1, Width: 2, Height: 2}, Colors: colors}
	require.NoError(t, WriteCommand(&buf, cmd))

	want := append([]byte{byte(TagContiguous), 0, 1, 2, 2}, colors...)
	assert.Equal(t, want, buf.Bytes())
	assert.Equal(t, len(want), cmd.EncodedLen())
}

func TestEncodedLenMatchesWire(t *testing.T) {
	cmds := []Command{
		&Pixel{},
		&Fill{},
		&Rectangle{},
		&Contiguous{Area: Area{Width: 1, Height: 1}, Colors: []byte{0, 0, 0}},
	}
	for _, cmd := range cmds {
		enc, err := AppendCommand(nil, cmd)
		require.NoError(t, err)
		assert.Len(t, enc, cmd.EncodedLen(), "%s", cmd.Tag())
		assert.Equal(t, byte(cmd.Tag()), enc[0])
	}
}

func TestTagValuesAreDistinct(t *testing.T) {
	seen := map[Tag]bool{}
	for _, tag := range []Tag{TagPixel, TagFill, TagRectangle, TagContiguous} {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}
}

func TestReadCommandRoundTripContiguous(t *testing.T) {
	original := &Contiguous{
		Area:   Area{X: 4, Y: 5, Width: 2, Height: 1},
		Colors: []byte{9, 8, 7, 6, 5, 4},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, original))

	cmd, err := ReadCommand(&buf)
	require.NoError(t, err)
	decoded, ok := cmd.(*Contiguous)
	require.True(t, ok, "expected *Contiguous, got %T", cmd)
	assert.Equal(t, original, decoded)
}

func TestReadCommandSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommand(&buf, &Fill{Color: RGB(1, 1, 1)}))
	require.NoError(t, WriteCommand(&buf, &Pixel{X: 2, Y: 3, Color: RGB(4, 5, 6)}))
	require.NoError(t, WriteCommand(&buf, &Rectangle{Area: Area{1, 1, 2, 2}, Color: RGB(7, 8, 9)}))

	first, err := ReadCommand(&buf)
	require.NoError(t, err)
	assert.Equal(t, &Fill{Color: RGB(1, 1, 1)}, first)

	second, err := ReadCommand(&buf)
	require.NoError(t, err)
	assert.Equal(t, &Pixel{X: 2, Y: 3, Color: RGB(4, 5, 6)}, second)

	third, err := ReadCommand(&buf)
	require.NoError(t, err)
	assert.Equal(t, &Rectangle{Area: Area{1, 1, 2, 2}, Color: RGB(7, 8, 9)}, third)

	_, err = ReadCommand(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestReadCommandUnknownTag(t *testing.T) {
	_, err := ReadCommand(bytes.NewReader([]byte{0x7f, 0, 0}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
	assert.Contains(t, err.Error(), "0x7f")
}

func TestReadCommandTruncated(t *testing.T) {
	// Pixel tag with only two of five payload bytes.
	_, err := ReadCommand(bytes.NewReader([]byte{byte(TagPixel), 1, 2}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Tag byte and nothing else.
	_, err = ReadCommand(bytes.NewReader([]byte{byte(TagFill)}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Contiguous header for 2 cells (6 color bytes), only 3 present.
	_, err = ReadCommand(bytes.NewReader([]byte{byte(TagContiguous), 0, 0, 2, 1, 1, 2, 3}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestHandshake(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHandshake(&buf, 64, 32))
	assert.Equal(t, []byte{64, 32}, buf.Bytes())

	w, h, err := ReadHandshake(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(64), w)
	assert.Equal(t, uint8(32), h)
}

func TestHandshakeShort(t *testing.T) {
	_, _, err := ReadHandshake(bytes.NewReader([]byte{10}))
	assert.ErrorIs(t, err, ErrShortHandshake)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = ReadHandshake(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrShortHandshake)
	assert.ErrorIs(t, err, io.EOF)
}

// failWriter fails after n successful writes.
type failWriter struct {
	n   int
	err error
}

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n == 0 {
		return 0, f.err
	}
	f.n--
	return len(p), nil
}

func TestWriteCommandPropagatesWriterError(t *testing.T) {
	errBoom := errors.New("boom")

	err := WriteCommand(&failWriter{err: errBoom}, &Fill{})
	assert.Equal(t, errBoom, err)

	// Header succeeds, colors fail.
	err = WriteCommand(&failWriter{n: 1, err: errBoom}, &Contiguous{
		Area:   Area{Width: 1, Height: 1},
		Colors: []byte{1, 2, 3},
	})
	assert.Equal(t, errBoom, err)
}
