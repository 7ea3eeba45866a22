package replace

import (
	"errors"
	"fmt"
)

// Error definitions for configuration validation
var (
	ErrEmptyRoot        = errors.New("root directory is not specified")
	ErrEmptyOldString   = errors.New("old string must not be empty")
	ErrRootNotFound     = errors.New("root directory not found")
	ErrRootNotDirectory = errors.New("root path is not a directory")
	ErrInvalidExclude   = errors.New("invalid exclude pattern")
	ErrUnknownEncoding  = errors.New("unknown encoding")
)

// ConfigErrorKind classifies configuration errors.
type ConfigErrorKind string

const (
	// ConfigErrorEmptyRoot means no root directory was given
	ConfigErrorEmptyRoot ConfigErrorKind = "empty_root"
	// ConfigErrorRootMissing means the root directory does not exist
	ConfigErrorRootMissing ConfigErrorKind = "root_missing"
	// ConfigErrorRootNotDirectory means the root exists but is not a directory
	ConfigErrorRootNotDirectory ConfigErrorKind = "root_not_directory"
	// ConfigErrorEmptyOld means the old string is empty
	ConfigErrorEmptyOld ConfigErrorKind = "empty_old"
	// ConfigErrorUnknownEncoding means the encoding name is not recognized
	ConfigErrorUnknownEncoding ConfigErrorKind = "unknown_encoding"
	// ConfigErrorInvalidExclude means an exclude glob failed to compile
	ConfigErrorInvalidExclude ConfigErrorKind = "invalid_exclude"
)

// ConfigError is returned by Runner.Run when the run is aborted before any
// file is processed.
type ConfigError struct {
	Kind  ConfigErrorKind
	Value string
	Err   error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error (%s): %q: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(kind ConfigErrorKind, value string, err error) *ConfigError {
	return &ConfigError{Kind: kind, Value: value, Err: err}
}
