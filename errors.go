package inkframe

import (
	"errors"
	"strings"
)

var (
	// ErrNotConnected is returned by Network implementations that could not associate.
	ErrNotConnected = errors.New("inkframe: network is not connected")
	// ErrNotMounted is returned by Storage implementations whose backing store is unavailable.
	ErrNotMounted = errors.New("inkframe: storage is not mounted")
	// ErrShortFrame indicates a raw artifact ended before the full frame was read.
	ErrShortFrame = errors.New("inkframe: raw frame is truncated")
	// ErrUnknownKind indicates an artifact path that maps to no renderer.
	ErrUnknownKind = errors.New("inkframe: unsupported artifact kind")
	// ErrCycleIncomplete is reported by a Cycle that has no Fetcher or Renderer.
	ErrCycleIncomplete = errors.New("inkframe: cycle needs a fetcher and a renderer")
)

// ConfigErrorKind classifies configuration failures.
type ConfigErrorKind int

const (
	// ConfigMissing means the record could not be read or decoded.
	ConfigMissing ConfigErrorKind = iota
	// ConfigIncomplete means the record decoded but a required field is blank.
	ConfigIncomplete
)

func (k ConfigErrorKind) String() string {
	if k == ConfigIncomplete {
		return "incomplete"
	}
	return "missing"
}

// ConfigError aborts a cycle before any network activity.
type ConfigError struct {
	Kind ConfigErrorKind
	// Path is the record location that was read.
	Path string
	// Field names the first absent key for ConfigIncomplete.
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	b := strings.Builder{}
	b.WriteString("inkframe: config ")
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		b.WriteString(" (field=")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StateErrorKind classifies state persistence failures. Reads never fail.
type StateErrorKind int

const (
	// StateWriteFailed means the cache record could not be written back.
	StateWriteFailed StateErrorKind = iota
)

// StateError reports a failed save. The displayed frame stays valid; only the
// next cycle loses its validator.
type StateError struct {
	Kind StateErrorKind
	Path string
	Err  error
}

func (e *StateError) Error() string {
	b := strings.Builder{}
	b.WriteString("inkframe: state write failed")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StateError) Unwrap() error { return e.Err }

// FetchErrorKind classifies transfer failures.
type FetchErrorKind int

const (
	// FetchNetwork covers connection, TLS, timeout and body streaming failures.
	FetchNetwork FetchErrorKind = iota
)

// FetchError is a transport failure. The cycle becomes a no-op.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	b := strings.Builder{}
	b.WriteString("inkframe: fetch failed")
	if e.URL != "" {
		b.WriteString(" (url=")
		b.WriteString(e.URL)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// RenderErrorKind classifies render failures.
type RenderErrorKind int

const (
	// RenderDecode means the artifact was malformed or truncated.
	RenderDecode RenderErrorKind = iota
	// RenderHardware means the panel refresh itself failed.
	RenderHardware
)

func (k RenderErrorKind) String() string {
	if k == RenderHardware {
		return "hardware"
	}
	return "decode"
}

// RenderError reports a failed paint. The committed artifact and the updated
// validator are not rolled back.
type RenderError struct {
	Kind RenderErrorKind
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	b := strings.Builder{}
	b.WriteString("inkframe: render ")
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Path != "" {
		b.WriteString(" for ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RenderError) Unwrap() error { return e.Err }

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsStateError returns true if err is or wraps a *StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsFetchError returns true if err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsRenderError returns true if err is or wraps a *RenderError of the given kind.
func IsRenderError(err error, kind RenderErrorKind) bool {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}
