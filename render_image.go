package inkframe

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
)

// DitherMode controls how a decoded photo is quantized onto the panel palette.
type DitherMode int

const (
	// DitherNone maps each pixel to the nearest palette colour. Used for
	// artifacts the server already dithered; dithering twice adds visible grain.
	DitherNone DitherMode = iota
	// DitherDiffusion spreads quantization error with the Floyd-Steinberg kernel.
	DitherDiffusion
)

func (m DitherMode) String() string {
	if m == DitherDiffusion {
		return "FLOYD_STEINBERG"
	}
	return "NONE"
}

// ditherFor picks the mode for a compressed artifact kind.
func ditherFor(kind ArtifactKind) DitherMode {
	if kind.Dithered() {
		return DitherNone
	}
	return DitherDiffusion
}

// ImageRenderer paints JPEG artifacts at native scale from the top-left corner.
// Panel area the image does not cover is cleared to palette index 0.
type ImageRenderer struct {
	Panel Panel
}

// Render decodes the file at path, quantizes it with mode and refreshes the
// panel. Decoding happens before any pixel is touched, so a corrupt file leaves
// the frame buffer as it was.
func (r ImageRenderer) Render(path string, mode DitherMode) error {
	f, err := os.Open(path)
	if err != nil {
		return &RenderError{Kind: RenderDecode, Path: path, Err: err}
	}
	src, err := jpeg.Decode(f)
	f.Close()
	if err != nil {
		return &RenderError{Kind: RenderDecode, Path: path, Err: fmt.Errorf("decode jpeg: %w", err)}
	}

	w, h := r.Panel.Bounds()
	frame := image.NewPaletted(image.Rect(0, 0, w, h), r.Panel.Palette())
	sb := src.Bounds()
	area := image.Rect(0, 0, sb.Dx(), sb.Dy()).Intersect(frame.Rect)
	if mode == DitherDiffusion {
		draw.FloydSteinberg.Draw(frame, area, src, sb.Min)
	} else {
		draw.Draw(frame, area, src, sb.Min, draw.Src)
	}

	// Every pixel is written so nothing from the previous frame survives
	// around an image smaller than the panel.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.Panel.SetPixel(x, y, frame.ColorIndexAt(x, y))
		}
	}
	if err := r.Panel.Refresh(); err != nil {
		return &RenderError{Kind: RenderHardware, Path: path, Err: err}
	}
	return nil
}
