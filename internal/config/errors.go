package config

import "errors"

// Configuration loading errors
var (
	// ErrInvalidConfigPath is returned when the config file path is empty
	ErrInvalidConfigPath = errors.New("invalid config file path")

	// ErrUnsupportedFormat is returned for extensions other than .toml, .yaml and .yml
	ErrUnsupportedFormat = errors.New("unsupported config file format (expected .toml, .yaml or .yml)")

	// ErrInvalidConfig is returned when the file cannot be decoded or has unknown keys
	ErrInvalidConfig = errors.New("invalid config file")

	// ErrInvalidMaxFileSize is returned when max_file_size is not positive
	ErrInvalidMaxFileSize = errors.New("max_file_size must be positive")
)
