package inkframe

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	userAgentProduct   = "inkframe"
	userAgentVersion   = "1.0"
	tempName           = "latest.tmp"
	defaultHTTPTimeout = 60 * time.Second
	// DefaultChunkSize is the read size used while streaming a body to storage.
	DefaultChunkSize = 1024
	acceptEncoding   = "zstd, gzip"
)

// DownloadResult describes an artifact that has been committed under its
// destination name. It lives only until the dispatcher has rendered it.
type DownloadResult struct {
	// Path is the committed destination file.
	Path string
	// Kind selects the renderer.
	Kind ArtifactKind
	// ETag is the validator the response carried; empty when the server sent none.
	ETag string
	// Size is the number of bytes committed.
	Size int64
	// Digest is the hex BLAKE3-256 of the committed bytes, for diagnostics.
	Digest string
}

// Fetcher performs the single conditional GET of a cycle and commits the body.
type Fetcher struct {
	dir       string
	http      *http.Client
	userAgent string
	chunkSize int
	logger    *slog.Logger
}

// FetchOption mutates the fetcher during construction.
type FetchOption func(*Fetcher)

// NewFetcher builds a fetcher committing artifacts into dir.
func NewFetcher(dir string, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		dir:       dir,
		http:      &http.Client{Timeout: defaultHTTPTimeout},
		userAgent: buildDefaultUserAgent(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.http == nil {
		f.http = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if f.chunkSize <= 0 {
		f.chunkSize = DefaultChunkSize
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// WithHTTPClient installs a custom http.Client (timeouts, TLS roots).
func WithHTTPClient(hc *http.Client) FetchOption {
	return func(f *Fetcher) { f.http = hc }
}

// WithUserAgent sets a custom User-Agent string.
func WithUserAgent(ua string) FetchOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithChunkSize overrides the streaming read size.
func WithChunkSize(n int) FetchOption {
	return func(f *Fetcher) { f.chunkSize = n }
}

// WithLogger sets the logger used for transfer diagnostics.
func WithLogger(l *slog.Logger) FetchOption {
	return func(f *Fetcher) { f.logger = l }
}

// Dir returns the directory artifacts are committed into.
func (f *Fetcher) Dir() string { return f.dir }

// Fetch requests the artifact, sending etag as If-None-Match when it is not
// empty. It returns (nil, nil) when there is nothing to render: any status
// other than 200 (including 304) or a Content-Disposition naming an unsupported
// kind. Transport and streaming failures return a *FetchError; in that case the
// destination files are untouched.
func (f *Fetcher) Fetch(ctx context.Context, cfg Config, etag string) (*DownloadResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	url := cfg.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", cfg.Authorization)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if ua := strings.TrimSpace(f.userAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	f.logger.Info("fetching", slog.String("url", url), slog.Bool("conditional", etag != ""))
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	// 304 and every error status mean the same thing here: keep what is on screen.
	if resp.StatusCode != http.StatusOK {
		f.logger.Info("nothing to fetch", slog.Int("status", resp.StatusCode))
		return nil, nil
	}

	newTag := resp.Header.Get("ETag")
	disposition := resp.Header.Get("Content-Disposition")
	kind, ok := ResolveKind(DispositionFilename(disposition))
	if !ok {
		f.logger.Warn("unsupported content", slog.String("content_disposition", disposition))
		return nil, nil
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: url, Err: err}
	}
	defer body.Close()

	dest := filepath.Join(f.dir, kind.Filename())
	size, digest, err := f.commit(body, dest)
	if err != nil {
		return nil, &FetchError{Kind: FetchNetwork, URL: url, Err: err}
	}
	f.logger.Info("artifact committed",
		slog.String("path", dest),
		slog.String("kind", kind.String()),
		slog.String("size", humanize.Bytes(uint64(size))),
		slog.String("etag", newTag),
	)
	return &DownloadResult{Path: dest, Kind: kind, ETag: newTag, Size: size, Digest: digest}, nil
}

// commit streams r into latest.tmp beside dest, then renames it over dest. On any error the temporary file is removed and dest is left as it was.
func (f *Fetcher) commit(r io.Reader, dest string) (int64, string, error) {
	tmp, err := openTemp(filepath.Join(f.dir, tempName))
	if err != nil {
		return 0, "", err
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	hasher := blake3.New()
	w := io.MultiWriter(tmp, hasher)
	buf := make([]byte, f.chunkSize)
	var total int64
	for {
		n, err := readChunk(r, buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return 0, "", fmt.Errorf("write %s: %w", tmp.Name(), werr)
			}
			total += int64(n)
		}
		f.logger.Debug("read chunk", slog.Int("bytes", n))
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, "", fmt.Errorf("read body: %w", err)
		}
		// A short chunk ends the stream.
		if n < len(buf) {
			break
		}
	}

	if err := commitTemp(tmp, dest); err != nil {
		return 0, "", err
	}
	success = true
	return total, hex.EncodeToString(hasher.Sum(nil)), nil
}

// readChunk fills buf unless the stream ends first. A clean end is reported as
// io.EOF; truncated transfers surface the transport's error instead.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// decodeBody undoes the Content-Encoding the server chose. Setting
// Accept-Encoding ourselves disables net/http's transparent gzip handling.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd body: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}
}

func buildDefaultUserAgent() string {
	goVer := strings.TrimPrefix(runtime.Version(), "go")
	if goVer == "" {
		goVer = runtime.Version()
	}
	return fmt.Sprintf("%s/%s (Go%s; %s/%s)",
		userAgentProduct, userAgentVersion, goVer, runtime.GOOS, runtime.GOARCH)
}
