package inkframe

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// recordingPanel is a FrameBuffer that counts refreshes and can fail them.
type recordingPanel struct {
	*FrameBuffer
	refreshes  int
	refreshErr error
}

func newRecordingPanel(w, h int) *recordingPanel {
	return &recordingPanel{FrameBuffer: NewFrameBuffer(w, h, InkyFramePalette)}
}

func (p *recordingPanel) Refresh() error {
	p.refreshes++
	return p.refreshErr
}

func (p *recordingPanel) pixels() []uint8 {
	return append([]uint8(nil), p.Image().Pix...)
}

func writeRaw(t *testing.T, w, h int, fill func(x, y int) uint8) string {
	t.Helper()
	data := make([]byte, RawHeaderSize, RawFrameSize(w, h))
	for i := range data {
		data[i] = 0xAA
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x += 2 {
			data = append(data, fill(x, y)|fill(x+1, y)<<4)
		}
	}
	path := filepath.Join(t.TempDir(), "latest.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRawRenderer_Unpack(t *testing.T) {
	fill := func(x, y int) uint8 { return uint8((x + y) % 7) }
	path := writeRaw(t, 8, 4, fill)
	panel := newRecordingPanel(8, 4)

	if err := (RawRenderer{Panel: panel}).Render(path); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if panel.refreshes != 1 {
		t.Fatalf("refreshes=%d, want 1", panel.refreshes)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got := panel.Image().ColorIndexAt(x, y); got != fill(x, y) {
				t.Fatalf("pixel (%d,%d)=%d, want %d", x, y, got, fill(x, y))
			}
		}
	}
}

func TestRawRenderer_LowNibbleIsLeft(t *testing.T) {
	data := append(make([]byte, RawHeaderSize), 0x42)
	path := filepath.Join(t.TempDir(), "latest.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	panel := newRecordingPanel(2, 1)
	if err := (RawRenderer{Panel: panel}).Render(path); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{2, 4}, panel.pixels()); diff != "" {
		t.Fatalf("pixels (-want +got):\n%s", diff)
	}
}

func TestRawRenderer_Idempotent(t *testing.T) {
	path := writeRaw(t, 16, 6, func(x, y int) uint8 { return uint8(x*y) % 8 })
	panel := newRecordingPanel(16, 6)
	r := RawRenderer{Panel: panel}

	if err := r.Render(path); err != nil {
		t.Fatal(err)
	}
	first := panel.pixels()
	if err := r.Render(path); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, panel.pixels()); diff != "" {
		t.Fatalf("second render differs (-first +second):\n%s", diff)
	}
}

func TestRawRenderer_Truncated(t *testing.T) {
	full := writeRaw(t, 8, 4, func(x, y int) uint8 { return 1 })
	data, _ := os.ReadFile(full)
	for _, n := range []int{0, RawHeaderSize - 1, RawHeaderSize, len(data) - 1} {
		path := filepath.Join(t.TempDir(), "latest.bin")
		if err := os.WriteFile(path, data[:n], 0o600); err != nil {
			t.Fatal(err)
		}
		panel := newRecordingPanel(8, 4)
		err := (RawRenderer{Panel: panel}).Render(path)
		if !IsRenderError(err, RenderDecode) || !errors.Is(err, ErrShortFrame) {
			t.Errorf("len=%d: want short-frame decode error, got %v", n, err)
		}
		if panel.refreshes != 0 {
			t.Errorf("len=%d: panel refreshed on a truncated frame", n)
		}
	}
}

func TestRawRenderer_HardwareFailure(t *testing.T) {
	path := writeRaw(t, 4, 2, func(x, y int) uint8 { return 3 })
	panel := newRecordingPanel(4, 2)
	panel.refreshErr = errors.New("busy pin stuck")
	if err := (RawRenderer{Panel: panel}).Render(path); !IsRenderError(err, RenderHardware) {
		t.Fatalf("want hardware error, got %v", err)
	}
}

func writeJPEG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "latest.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImageRenderer_SolidWhite(t *testing.T) {
	path := writeJPEG(t, 16, 8, color.White)
	for _, mode := range []DitherMode{DitherNone, DitherDiffusion} {
		panel := newRecordingPanel(16, 8)
		if err := (ImageRenderer{Panel: panel}).Render(path, mode); err != nil {
			t.Fatalf("%v: %v", mode, err)
		}
		if panel.refreshes != 1 {
			t.Fatalf("%v: refreshes=%d", mode, panel.refreshes)
		}
		want := bytes.Repeat([]byte{1}, 16*8)
		if diff := cmp.Diff(want, panel.pixels()); diff != "" {
			t.Errorf("%v: white image should map to index 1 (-want +got):\n%s", mode, diff)
		}
	}
}

func TestImageRenderer_ClipsToPanel(t *testing.T) {
	path := writeJPEG(t, 32, 32, color.White)
	panel := newRecordingPanel(8, 8)
	for i := range panel.Image().Pix {
		panel.Image().Pix[i] = 0
	}
	if err := (ImageRenderer{Panel: panel}).Render(path, DitherNone); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bytes.Repeat([]byte{1}, 64), panel.pixels()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	small := writeJPEG(t, 4, 4, color.White)
	panel = newRecordingPanel(8, 8)
	if err := (ImageRenderer{Panel: panel}).Render(small, DitherNone); err != nil {
		t.Fatal(err)
	}
	if got := panel.Image().ColorIndexAt(5, 5); got != 0 {
		t.Fatalf("pixel outside the image was painted: %d", got)
	}
	if got := panel.Image().ColorIndexAt(3, 3); got != 1 {
		t.Fatalf("pixel inside the image: %d", got)
	}
}

func TestImageRenderer_ClearsPreviousFrame(t *testing.T) {
	panel := newRecordingPanel(8, 8)
	for i := range panel.Image().Pix {
		panel.Image().Pix[i] = 4
	}
	small := writeJPEG(t, 4, 4, color.White)
	if err := (ImageRenderer{Panel: panel}).Render(small, DitherNone); err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 64)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want[y*8+x] = 1
		}
	}
	if diff := cmp.Diff(want, panel.pixels()); diff != "" {
		t.Fatalf("previous frame leaked around the image (-want +got):\n%s", diff)
	}
}

func TestImageRenderer_HardwareFailure(t *testing.T) {
	path := writeJPEG(t, 8, 8, color.White)
	panel := newRecordingPanel(8, 8)
	panel.refreshErr = errors.New("busy pin stuck")
	err := (ImageRenderer{Panel: panel}).Render(path, DitherDiffusion)
	if !IsRenderError(err, RenderHardware) {
		t.Fatalf("want hardware error, got %v", err)
	}
	if !errors.Is(err, panel.refreshErr) {
		t.Fatalf("refresh error not wrapped: %v", err)
	}
	if panel.refreshes != 1 {
		t.Fatalf("refreshes=%d, want exactly one attempt", panel.refreshes)
	}
}

func TestImageRenderer_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	panel := newRecordingPanel(8, 8)
	if err := (ImageRenderer{Panel: panel}).Render(path, DitherDiffusion); !IsRenderError(err, RenderDecode) {
		t.Fatalf("want decode error, got %v", err)
	}
	if panel.refreshes != 0 {
		t.Fatal("panel refreshed after a decode failure")
	}
}

func TestDitherFor(t *testing.T) {
	if ditherFor(KindCompressedDithered) != DitherNone {
		t.Error("pre-dithered artifacts must not be dithered again")
	}
	if ditherFor(KindCompressedStandard) != DitherDiffusion {
		t.Error("standard artifacts are dithered on the device")
	}
}

type countingIndicator struct{ on, off int }

func (c *countingIndicator) On()  { c.on++ }
func (c *countingIndicator) Off() { c.off++ }

func TestDispatcher_Routes(t *testing.T) {
	raw := writeRaw(t, 4, 2, func(x, y int) uint8 { return 5 })
	jpg := writeJPEG(t, 4, 2, color.White)
	ind := &countingIndicator{}
	panel := newRecordingPanel(4, 2)
	d := Dispatcher{Panel: panel, Indicator: ind, Logger: quietLogger()}

	if err := d.Render(DownloadResult{Path: raw, Kind: KindRawPacked}); err != nil {
		t.Fatal(err)
	}
	if got := panel.Image().ColorIndexAt(0, 0); got != 5 {
		t.Fatalf("raw render: pixel=%d", got)
	}
	if err := d.Render(DownloadResult{Path: jpg, Kind: KindCompressedStandard}); err != nil {
		t.Fatal(err)
	}
	if got := panel.Image().ColorIndexAt(0, 0); got != 1 {
		t.Fatalf("jpeg render: pixel=%d", got)
	}
	if ind.on != 2 || ind.off != 2 || panel.refreshes != 2 {
		t.Fatalf("indicator on=%d off=%d refreshes=%d", ind.on, ind.off, panel.refreshes)
	}

	if err := d.Render(DownloadResult{Path: jpg, Kind: ArtifactKind(99)}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unknown kind: %v", err)
	}
}

func TestDispatcher_RenderFile(t *testing.T) {
	raw := writeRaw(t, 4, 2, func(x, y int) uint8 { return 6 })
	panel := newRecordingPanel(4, 2)
	d := Dispatcher{Panel: panel, Logger: quietLogger()}
	if err := d.RenderFile(raw); err != nil {
		t.Fatal(err)
	}
	if got := panel.Image().ColorIndexAt(3, 1); got != 6 {
		t.Fatalf("pixel=%d", got)
	}
	if err := d.RenderFile(filepath.Join(t.TempDir(), "latest.png")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("want ErrUnknownKind, got %v", err)
	}
}
