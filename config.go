package inkframe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the device keeps its configuration record.
const DefaultConfigPath = "/sd/gallery-config.json"

// Config is the per-device record read at the start of every cycle.
type Config struct {
	// Host is the remote host name, optionally with a port (e.g. "frames.example.com").
	Host string `json:"host" yaml:"host"`
	// Path is the request path including the leading slash (e.g. "/img").
	Path string `json:"path" yaml:"path"`
	// Authorization is sent verbatim as the Authorization header.
	Authorization string `json:"authorization" yaml:"authorization"`
}

// URL returns the artifact endpoint. The scheme is always https.
func (c Config) URL() string {
	return "https://" + c.Host + c.Path
}

func (c Config) validate() error {
	switch {
	case strings.TrimSpace(c.Host) == "":
		return errors.New("host")
	case strings.TrimSpace(c.Path) == "":
		return errors.New("path")
	case strings.TrimSpace(c.Authorization) == "":
		return errors.New("authorization")
	}
	return nil
}

// ConfigStore loads the configuration record from a fixed location.
type ConfigStore struct {
	Path string
}

// Load reads and validates the record. Errors are always *ConfigError.
func (s ConfigStore) Load() (Config, error) {
	path := s.Path
	if path == "" {
		path = DefaultConfigPath
	}
	return LoadConfig(path)
}

// LoadConfig reads a JSON, JSONC or YAML record from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigError{Kind: ConfigMissing, Path: path, Err: err}
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig decodes a record. ext is a format hint (".json", ".jsonc", ".yaml",
// ".yml"); any other value detects the format from content.
func ParseConfig(data []byte, ext string) (Config, error) {
	var (
		cfg Config
		err error
	)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".json", ".jsonc":
		err = decodeJSON(data, &cfg)
	default:
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			err = decodeJSON(data, &cfg)
		} else {
			err = decodeYAML(data, &cfg)
		}
	}
	if err != nil {
		return Config{}, &ConfigError{Kind: ConfigMissing, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, &ConfigError{Kind: ConfigIncomplete, Field: err.Error()}
	}
	return cfg, nil
}

// decodeJSON accepts comments and trailing commas. The top level must be an object.
func decodeJSON(data []byte, cfg *Config) error {
	var raw map[string]interface{}
	stripped := jsonc.ToJSON(data)
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	if raw == nil {
		return errors.New("parse config json: not an object")
	}
	cfg.Host = stringField(raw, "host")
	cfg.Path = stringField(raw, "path")
	cfg.Authorization = stringField(raw, "authorization")
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	if raw == nil {
		return errors.New("parse config yaml: not a mapping")
	}
	cfg.Host = stringField(raw, "host")
	cfg.Path = stringField(raw, "path")
	cfg.Authorization = stringField(raw, "authorization")
	return nil
}

// stringField treats non-string values as absent.
func stringField(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}
