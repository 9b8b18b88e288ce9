package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/1set/inkframe"
	"github.com/1set/inkframe/internal/logging"
)

// options holds the host-side settings shared by every subcommand. Each flag
// falls back to an INKFRAME_* environment variable; malformed values fail the
// command before it runs.
type options struct {
	configPath   string
	statePath    string
	artifactDir  string
	previewPath  string
	width        int
	height       int
	interval     time.Duration
	timeout      time.Duration
	logLevel     string
	logFormat    string
	requireIface bool

	env envDefaults
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "inkframe",
		Short:         "Fetch, cache and display a single remote image on an e-paper frame",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.env.err(); err != nil {
				return err
			}
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logging.Init(level, opts.logFormat)
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", envOr("INKFRAME_CONFIG", inkframe.DefaultConfigPath), "device config record (JSON, JSONC or YAML); or set INKFRAME_CONFIG")
	f.StringVar(&opts.statePath, "state", envOr("INKFRAME_STATE", inkframe.DefaultStatePath), "cache state record; or set INKFRAME_STATE")
	f.StringVar(&opts.artifactDir, "artifacts", envOr("INKFRAME_ARTIFACTS", "/sd"), "directory artifacts are committed into; or set INKFRAME_ARTIFACTS")
	f.StringVar(&opts.previewPath, "preview", envOr("INKFRAME_PREVIEW", ""), "PNG the panel frame is written to (default <artifacts>/preview.png)")
	f.IntVar(&opts.width, "width", opts.env.intVar("INKFRAME_WIDTH", inkframe.DefaultWidth), "panel width in pixels")
	f.IntVar(&opts.height, "height", opts.env.intVar("INKFRAME_HEIGHT", inkframe.DefaultHeight), "panel height in pixels")
	f.DurationVar(&opts.interval, "interval", opts.env.durationVar("INKFRAME_INTERVAL", inkframe.DefaultInterval), "sleep between cycles (run only)")
	f.DurationVar(&opts.timeout, "timeout", opts.env.durationVar("INKFRAME_TIMEOUT", 60*time.Second), "HTTP timeout for the fetch")
	f.StringVar(&opts.logLevel, "log-level", envOr("INKFRAME_LOG_LEVEL", "info"), "debug|info|warn|error")
	f.StringVar(&opts.logFormat, "log-format", envOr("INKFRAME_LOG_FORMAT", "text"), "text|json")
	f.BoolVar(&opts.requireIface, "require-network", opts.env.boolVar("INKFRAME_REQUIRE_NETWORK", true), "abort the cycle when no non-loopback interface is up")

	cmd.AddCommand(newCycleCmd(opts))
	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newStateCmd(opts))
	return cmd
}

func (o *options) panel() *inkframe.PreviewPanel {
	path := o.previewPath
	if path == "" {
		path = filepath.Join(o.artifactDir, "preview.png")
	}
	return inkframe.NewPreviewPanel(path, o.width, o.height, inkframe.InkyFramePalette)
}

func (o *options) dispatcher() inkframe.Dispatcher {
	return inkframe.Dispatcher{
		Panel:     o.panel(),
		Indicator: logIndicator{logger: logging.New("led")},
		Logger:    logging.New("render"),
	}
}

func (o *options) cycle() *inkframe.Cycle {
	var network inkframe.Network
	if o.requireIface {
		network = interfaceNetwork{}
	}
	return &inkframe.Cycle{
		Network: network,
		Storage: dirStorage{dir: o.artifactDir},
		Config:  inkframe.ConfigStore{Path: o.configPath},
		State:   inkframe.StateStore{Path: o.statePath, Logger: logging.New("state")},
		Fetcher: inkframe.NewFetcher(o.artifactDir,
			inkframe.WithHTTPClient(&http.Client{Timeout: o.timeout}),
			inkframe.WithLogger(logging.New("fetch")),
		),
		Renderer: o.dispatcher(),
		Logger:   logging.New("cycle"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDefaults resolves numeric and boolean flag defaults from the environment,
// remembering every value that does not parse.
type envDefaults struct {
	errs []error
}

func (e *envDefaults) lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (e *envDefaults) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (e *envDefaults) intVar(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envDefaults) durationVar(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *envDefaults) boolVar(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envDefaults) err() error {
	return errors.Join(e.errs...)
}
