// Package config loads replace settings from a TOML or YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/isseis/go-safe-replace/internal/replace"
	"github.com/isseis/go-safe-replace/internal/safefileio"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds how much of a config file is read.
const maxConfigSize = 1 << 20

// File is the on-disk configuration. Nil fields were not set in the file.
type File struct {
	Root        *string  `toml:"root" yaml:"root"`
	Old         *string  `toml:"old" yaml:"old"`
	New         *string  `toml:"new" yaml:"new"`
	Encoding    *string  `toml:"encoding" yaml:"encoding"`
	Exclude     []string `toml:"exclude" yaml:"exclude"`
	DryRun      *bool    `toml:"dry_run" yaml:"dry_run"`
	MaxFileSize *int64   `toml:"max_file_size" yaml:"max_file_size"`
	LogLevel    *string  `toml:"log_level" yaml:"log_level"`
	LogFile     *string  `toml:"log_file" yaml:"log_file"`
}

// Loader reads configuration files.
type Loader struct {
	readFile func(path string, maxSize int64) ([]byte, error)
}

// NewLoader creates a Loader that reads through safefileio.
func NewLoader() *Loader {
	return &Loader{readFile: safefileio.ReadFile}
}

// Load reads path with the default Loader.
func Load(path string) (*File, error) {
	return NewLoader().Load(path)
}

// Load reads and decodes path. The format follows the extension. Relative
// root and log_file values are resolved against the file's directory.
func (l *Loader) Load(path string) (*File, error) {
	if path == "" {
		return nil, ErrInvalidConfigPath
	}

	decode, err := decoderFor(path)
	if err != nil {
		return nil, err
	}

	content, err := l.readFile(path, maxConfigSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var f File
	if err := decode(content, &f); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, err)
	}

	if f.MaxFileSize != nil && *f.MaxFileSize <= 0 {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidConfig, path, ErrInvalidMaxFileSize)
	}

	baseDir := filepath.Dir(path)
	f.Root = resolveRelative(baseDir, f.Root)
	f.LogFile = resolveRelative(baseDir, f.LogFile)

	return &f, nil
}

// Apply copies every value set in the file onto cfg. Exclude patterns are
// appended to those already present.
func (f *File) Apply(cfg *replace.Config) {
	if f.Root != nil {
		cfg.Root = *f.Root
	}
	if f.Old != nil {
		cfg.Old = *f.Old
	}
	if f.New != nil {
		cfg.New = *f.New
	}
	if f.Encoding != nil {
		cfg.Encoding = *f.Encoding
	}
	cfg.Exclude = append(cfg.Exclude, f.Exclude...)
	if f.DryRun != nil {
		cfg.DryRun = *f.DryRun
	}
	if f.MaxFileSize != nil {
		cfg.MaxFileSize = *f.MaxFileSize
	}
}

type decodeFunc func(content []byte, f *File) error

func decoderFor(path string) (decodeFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return decodeTOML, nil
	case ".yaml", ".yml":
		return decodeYAML, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func decodeTOML(content []byte, f *File) error {
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	return dec.Decode(f)
}

func decodeYAML(content []byte, f *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func resolveRelative(baseDir string, value *string) *string {
	if value == nil || *value == "" || filepath.IsAbs(*value) {
		return value
	}
	resolved := filepath.Join(baseDir, *value)
	return &resolved
}
