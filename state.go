package inkframe

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
)

// DefaultStatePath is where the cache record lives between cycles.
const DefaultStatePath = "/gallery-state.json"

// CacheState is the only data carried from one cycle to the next.
type CacheState struct {
	// ETag is the last validator earned by a committed artifact. Empty means none.
	ETag string `json:"etag,omitempty"`
}

// StateStore persists CacheState as a JSON record.
type StateStore struct {
	Path   string
	Logger *slog.Logger
}

func (s StateStore) path() string {
	if s.Path == "" {
		return DefaultStatePath
	}
	return s.Path
}

func (s StateStore) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Load returns the persisted state. It never fails: a missing, unreadable or
// corrupt record yields the zero state and the next fetch is unconditional.
func (s StateStore) Load() CacheState {
	path := s.path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger().Debug("no cache state yet", slog.String("path", path))
		} else {
			s.logger().Warn("failed to read cache state", slog.String("path", path), slog.Any("error", err))
		}
		return CacheState{}
	}
	var st CacheState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger().Warn("ignoring corrupt cache state", slog.String("path", path), slog.Any("error", err))
		return CacheState{}
	}
	return st
}

// Save writes the state atomically. Errors are always *StateError.
func (s StateStore) Save(st CacheState) error {
	path := s.path()
	data, err := json.Marshal(st)
	if err != nil {
		return &StateError{Kind: StateWriteFailed, Path: path, Err: err}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return &StateError{Kind: StateWriteFailed, Path: path, Err: err}
	}
	return nil
}
