package inkframe

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// RawHeaderSize is the opaque prefix of a raw packed artifact.
const RawHeaderSize = 64

// RawRenderer paints raw packed artifacts: a RawHeaderSize header followed by
// one row of width/2 bytes per panel line, two 4-bit palette indices per byte
// with the low nibble on the left.
type RawRenderer struct {
	Panel Panel
}

// Render unpacks the file at path into the panel and refreshes it once.
func (r RawRenderer) Render(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &RenderError{Kind: RenderDecode, Path: path, Err: err}
	}
	defer f.Close()

	if err := r.unpack(bufio.NewReader(f)); err != nil {
		return &RenderError{Kind: RenderDecode, Path: path, Err: err}
	}
	if err := r.Panel.Refresh(); err != nil {
		return &RenderError{Kind: RenderHardware, Path: path, Err: err}
	}
	return nil
}

func (r RawRenderer) unpack(src io.Reader) error {
	if _, err := io.CopyN(io.Discard, src, RawHeaderSize); err != nil {
		return fmt.Errorf("header: %w", shortFrame(err))
	}
	w, h := r.Panel.Bounds()
	row := make([]byte, w/2)
	for y := 0; y < h; y++ {
		if _, err := io.ReadFull(src, row); err != nil {
			return fmt.Errorf("row %d: %w", y, shortFrame(err))
		}
		for x, b := range row {
			r.Panel.SetPixel(x*2, y, b&0x0f)
			r.Panel.SetPixel(x*2+1, y, b>>4)
		}
	}
	return nil
}

func shortFrame(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortFrame
	}
	return err
}

// RawFrameSize is the minimum raw artifact size for a width x height panel.
func RawFrameSize(width, height int) int {
	return RawHeaderSize + height*(width/2)
}
