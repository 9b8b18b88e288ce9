package inkframe

import (
	"log/slog"
	"path/filepath"
)

// Dispatcher routes a committed artifact to the renderer its kind requires.
type Dispatcher struct {
	Panel     Panel
	Indicator Indicator
	Logger    *slog.Logger
}

// Render paints res on the panel. Errors are always *RenderError.
func (d Dispatcher) Render(res DownloadResult) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ind := d.Indicator
	if ind == nil {
		ind = nopIndicator{}
	}
	panel := &indicatedPanel{Panel: d.Panel, ind: ind}

	logger.Info("rendering", slog.String("path", res.Path), slog.String("kind", res.Kind.String()))
	var err error
	switch res.Kind {
	case KindRawPacked:
		err = RawRenderer{Panel: panel}.Render(res.Path)
	case KindCompressedDithered, KindCompressedStandard:
		mode := ditherFor(res.Kind)
		logger.Debug("decoding image", slog.String("dither", mode.String()))
		err = ImageRenderer{Panel: panel}.Render(res.Path, mode)
	default:
		err = &RenderError{Kind: RenderDecode, Path: res.Path, Err: ErrUnknownKind}
	}
	if err != nil {
		logger.Error("render failed", slog.String("path", res.Path), slog.Any("error", err))
	}
	return err
}

// RenderFile renders an already committed artifact, resolving its kind from
// the filename. It is the manual path for re-showing what is on storage.
func (d Dispatcher) RenderFile(path string) error {
	kind, ok := ResolveKind(filepath.Base(path))
	if !ok {
		return &RenderError{Kind: RenderDecode, Path: path, Err: ErrUnknownKind}
	}
	return d.Render(DownloadResult{Path: path, Kind: kind})
}

// indicatedPanel lights the indicator for the duration of a physical refresh.
type indicatedPanel struct {
	Panel
	ind Indicator
}

func (p *indicatedPanel) Refresh() error {
	p.ind.On()
	defer p.ind.Off()
	return p.Panel.Refresh()
}
