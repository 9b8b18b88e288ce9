package inkframe

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// CycleStatus summarizes what a wake cycle did to the display.
type CycleStatus int

const (
	// CycleAborted means the cycle stopped before or during the fetch.
	CycleAborted CycleStatus = iota
	// CycleUnchanged means there was nothing new to render.
	CycleUnchanged
	// CycleRendered means a new artifact was committed and painted.
	CycleRendered
	// CycleRenderFailed means a new artifact was committed but could not be painted.
	CycleRenderFailed
)

func (s CycleStatus) String() string {
	switch s {
	case CycleUnchanged:
		return "unchanged"
	case CycleRendered:
		return "rendered"
	case CycleRenderFailed:
		return "render-failed"
	default:
		return "aborted"
	}
}

// CycleOutcome is the result of one Cycle.Run.
type CycleOutcome struct {
	Status CycleStatus
	// Artifact is set whenever a new artifact was committed.
	Artifact *DownloadResult
	// Err is the error that ended the cycle early, or a *StateError when the
	// frame was updated but the validator could not be saved.
	Err error
}

// ArtifactFetcher is the conditional retrieval step of a cycle. *Fetcher implements it.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, cfg Config, etag string) (*DownloadResult, error)
}

// Renderer paints a committed artifact. Dispatcher implements it.
type Renderer interface {
	Render(res DownloadResult) error
}

// Cycle sequences one wake cycle. It holds no state between runs beyond what
// State persists.
type Cycle struct {
	Network  Network
	Storage  Storage
	Config   ConfigStore
	State    StateStore
	Fetcher  ArtifactFetcher
	Renderer Renderer
	Logger   *slog.Logger
}

// Run executes storage mount, config load, state load, network connect,
// fetch, render and state save, stopping at the first terminal error. Errors
// never escape as panics; they are reported in the outcome.
func (c *Cycle) Run(ctx context.Context) (out CycleOutcome) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	defer func() {
		attrs := []interface{}{slog.String("status", out.Status.String()), slog.Duration("elapsed", time.Since(start))}
		if out.Artifact != nil {
			attrs = append(attrs, slog.String("artifact", out.Artifact.Path), slog.String("size", humanize.Bytes(uint64(out.Artifact.Size))))
		}
		if out.Err != nil {
			attrs = append(attrs, slog.Any("error", out.Err))
			logger.Warn("cycle finished", attrs...)
			return
		}
		logger.Info("cycle finished", attrs...)
	}()

	if c.Fetcher == nil || c.Renderer == nil {
		return CycleOutcome{Status: CycleAborted, Err: ErrCycleIncomplete}
	}

	storage := c.Storage
	if storage == nil {
		storage = nopStorage{}
	}
	if err := storage.Mount(); err != nil {
		return CycleOutcome{Status: CycleAborted, Err: err}
	}
	defer func() {
		if err := storage.Unmount(); err != nil {
			logger.Warn("unmount failed", slog.Any("error", err))
		}
	}()

	cfg, err := c.Config.Load()
	if err != nil {
		return CycleOutcome{Status: CycleAborted, Err: err}
	}
	state := c.State.Load()

	// The network only comes up once a valid config is loaded.
	if c.Network != nil {
		if err := c.Network.Connect(ctx); err != nil {
			return CycleOutcome{Status: CycleAborted, Err: err}
		}
	}

	res, err := c.Fetcher.Fetch(ctx, cfg, state.ETag)
	if err != nil {
		return CycleOutcome{Status: CycleAborted, Err: err}
	}
	if res == nil {
		return CycleOutcome{Status: CycleUnchanged}
	}

	out = CycleOutcome{Status: CycleRendered, Artifact: res}
	if err := c.Renderer.Render(*res); err != nil {
		out.Status = CycleRenderFailed
		out.Err = err
	}

	// The validator was earned by the commit, not the render.
	state.ETag = res.ETag
	if err := c.State.Save(state); err != nil {
		if out.Err == nil {
			out.Err = err
		} else {
			logger.Warn("state save failed", slog.Any("error", err))
		}
	}
	return out
}
