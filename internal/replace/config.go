// Package replace rewrites every text file under a directory tree,
// substituting one literal string for another.
package replace

import (
	"fmt"

	"github.com/isseis/go-safe-replace/internal/safefileio"
	"github.com/isseis/go-safe-replace/internal/textcodec"
)

// Config holds the immutable parameters of a single run.
type Config struct {
	// Root is the directory to scan recursively
	Root string
	// Old is the literal, case-sensitive string to find
	Old string
	// New replaces every non-overlapping occurrence of Old
	New string
	// Encoding names the text codec used to read and write files
	Encoding string
	// Exclude lists globs for paths (relative to Root) to leave alone
	Exclude []string
	// DryRun reports matching files without writing them
	DryRun bool
	// MaxFileSize skips files larger than this many bytes; values <= 0 mean safefileio.MaxFileSize
	MaxFileSize int64
}

// DefaultConfig returns a Config with default encoding and size limit.
func DefaultConfig() Config {
	return Config{
		Encoding:    textcodec.DefaultEncoding,
		MaxFileSize: safefileio.MaxFileSize,
	}
}

// Validate checks the values that do not touch the filesystem.
func (c Config) Validate() error {
	if c.Root == "" {
		return newConfigError(ConfigErrorEmptyRoot, "", ErrEmptyRoot)
	}
	if c.Old == "" {
		return newConfigError(ConfigErrorEmptyOld, "", ErrEmptyOldString)
	}
	return nil
}

func (c Config) codec() (*textcodec.Codec, error) {
	codec, err := textcodec.Lookup(c.Encoding)
	if err != nil {
		return nil, newConfigError(ConfigErrorUnknownEncoding, c.Encoding, fmt.Errorf("%w: %w", ErrUnknownEncoding, err))
	}
	return codec, nil
}
