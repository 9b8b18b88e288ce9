package inkframe

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"periph.io/x/conn/v3/display"
)

const (
	// DefaultWidth and DefaultHeight are the native resolution of the 5.7" frame.
	DefaultWidth  = 600
	DefaultHeight = 448
)

// InkyFramePalette is the 7-colour ACeP palette plus the "clean" entry, in the
// index order the raw packed format uses.
var InkyFramePalette = color.Palette{
	color.RGBA{0x39, 0x30, 0x39, 0xff}, // black
	color.RGBA{0xff, 0xff, 0xff, 0xff}, // white
	color.RGBA{0x3a, 0x5b, 0x46, 0xff}, // green
	color.RGBA{0x3d, 0x3b, 0x5e, 0xff}, // blue
	color.RGBA{0x9c, 0x48, 0x4b, 0xff}, // red
	color.RGBA{0xd0, 0xbe, 0x47, 0xff}, // yellow
	color.RGBA{0xb1, 0x6a, 0x49, 0xff}, // orange
	color.RGBA{0xff, 0xff, 0xff, 0xff}, // clean
}

// FrameBuffer is an in-memory paletted frame implementing everything in Panel
// except Refresh.
type FrameBuffer struct {
	img *image.Paletted
}

// NewFrameBuffer allocates a width x height frame over palette.
func NewFrameBuffer(width, height int, palette color.Palette) *FrameBuffer {
	if len(palette) == 0 {
		palette = InkyFramePalette
	}
	return &FrameBuffer{img: image.NewPaletted(image.Rect(0, 0, width, height), palette)}
}

// Bounds implements Panel.
func (b *FrameBuffer) Bounds() (int, int) {
	r := b.img.Bounds()
	return r.Dx(), r.Dy()
}

// Palette implements Panel.
func (b *FrameBuffer) Palette() color.Palette { return b.img.Palette }

// SetPixel implements Panel. Out-of-range coordinates are ignored; indices
// beyond the palette are clamped to its last entry.
func (b *FrameBuffer) SetPixel(x, y int, index uint8) {
	if !(image.Point{X: x, Y: y}.In(b.img.Rect)) {
		return
	}
	if int(index) >= len(b.img.Palette) {
		index = uint8(len(b.img.Palette) - 1)
	}
	b.img.SetColorIndex(x, y, index)
}

// Image exposes the frame. Callers must not retain it across renders.
func (b *FrameBuffer) Image() *image.Paletted { return b.img }

// DrawerPanel drives any periph.io display.Drawer as a Panel.
type DrawerPanel struct {
	*FrameBuffer
	dev display.Drawer
}

// NewDrawerPanel sizes the frame buffer from the device bounds.
func NewDrawerPanel(dev display.Drawer, palette color.Palette) *DrawerPanel {
	r := dev.Bounds()
	return &DrawerPanel{FrameBuffer: NewFrameBuffer(r.Dx(), r.Dy(), palette), dev: dev}
}

// Refresh pushes the whole frame to the device.
func (p *DrawerPanel) Refresh() error {
	if err := p.dev.Draw(p.dev.Bounds(), p.img, image.Point{}); err != nil {
		return fmt.Errorf("draw to %s: %w", p.dev, err)
	}
	return nil
}

// Halt releases the device.
func (p *DrawerPanel) Halt() error { return p.dev.Halt() }

// PreviewPanel writes every refreshed frame to a PNG file. It stands in for a
// real panel on hosts without one.
type PreviewPanel struct {
	*FrameBuffer
	path string
}

// NewPreviewPanel renders into path at the given resolution.
func NewPreviewPanel(path string, width, height int, palette color.Palette) *PreviewPanel {
	return &PreviewPanel{FrameBuffer: NewFrameBuffer(width, height, palette), path: path}
}

// Refresh encodes the frame as PNG, replacing the previous preview atomically.
func (p *PreviewPanel) Refresh() error {
	f, err := openTemp(p.path + ".tmp")
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := png.Encode(f, p.img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := commitTemp(f, p.path); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
