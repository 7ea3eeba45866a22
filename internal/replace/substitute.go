package replace

import (
	"errors"
	"strings"

	"github.com/isseis/go-safe-replace/internal/safefileio"
	"github.com/isseis/go-safe-replace/internal/textcodec"
)

// Status is the result of processing a single file.
type Status int

const (
	// StatusUnchanged means the file does not contain the old string
	StatusUnchanged Status = iota
	// StatusUpdated means the file was rewritten
	StatusUpdated
	// StatusMatched means the file contains the old string but dry-run left it alone
	StatusMatched
	// StatusSkippedUndecodable means the content is not text in the configured encoding
	StatusSkippedUndecodable
	// StatusSkippedNotRegular means the path stopped being a regular file before it was opened
	StatusSkippedNotRegular
	// StatusSkippedTooLarge means the file exceeds the size limit
	StatusSkippedTooLarge
	// StatusReadFailed means the file could not be read
	StatusReadFailed
	// StatusWriteFailed means the new content could not be encoded or written
	StatusWriteFailed
)

var statusNames = map[Status]string{
	StatusUnchanged:          "unchanged",
	StatusUpdated:            "updated",
	StatusMatched:            "matched",
	StatusSkippedUndecodable: "skipped_undecodable",
	StatusSkippedNotRegular:  "skipped_not_regular",
	StatusSkippedTooLarge:    "skipped_too_large",
	StatusReadFailed:         "read_failed",
	StatusWriteFailed:        "write_failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsSkipped reports whether the file was left alone without being inspected for matches.
func (s Status) IsSkipped() bool {
	return s == StatusSkippedUndecodable || s == StatusSkippedNotRegular || s == StatusSkippedTooLarge
}

// IsFailure reports whether an I/O error prevented processing.
func (s Status) IsFailure() bool {
	return s == StatusReadFailed || s == StatusWriteFailed
}

// Outcome describes what happened to one file.
type Outcome struct {
	Path         string
	Status       Status
	Replacements int
	Err          error
}

// Substituter applies one literal replacement to whole files.
type Substituter struct {
	old     string
	new     string
	codec   *textcodec.Codec
	dryRun  bool
	maxSize int64

	readFile  func(path string, maxSize int64) ([]byte, error)
	writeFile func(path string, content []byte) error
}

// NewSubstituter creates a Substituter for cfg. The codec must match cfg.Encoding.
func NewSubstituter(cfg Config, codec *textcodec.Codec) *Substituter {
	return &Substituter{
		old:       cfg.Old,
		new:       cfg.New,
		codec:     codec,
		dryRun:    cfg.DryRun,
		maxSize:   cfg.MaxFileSize,
		readFile:  safefileio.ReadFile,
		writeFile: safefileio.OverwriteFile,
	}
}

// File replaces every non-overlapping occurrence of the old string in the
// file at path. The file is written only when its content changes.
func (s *Substituter) File(path string) Outcome {
	outcome := Outcome{Path: path}

	raw, err := s.readFile(path, s.maxSize)
	if err != nil {
		outcome.Err = err
		switch {
		case errors.Is(err, safefileio.ErrFileTooLarge):
			outcome.Status = StatusSkippedTooLarge
		case errors.Is(err, safefileio.ErrIsSymlink), errors.Is(err, safefileio.ErrNotRegularFile):
			outcome.Status = StatusSkippedNotRegular
		default:
			outcome.Status = StatusReadFailed
		}
		return outcome
	}

	text, err := s.codec.Decode(raw)
	if err != nil {
		outcome.Status = StatusSkippedUndecodable
		outcome.Err = err
		return outcome
	}

	count := strings.Count(text, s.old)
	if count == 0 {
		outcome.Status = StatusUnchanged
		return outcome
	}

	updated := strings.ReplaceAll(text, s.old, s.new)
	if updated == text {
		// old == new
		outcome.Status = StatusUnchanged
		return outcome
	}
	outcome.Replacements = count

	if s.dryRun {
		outcome.Status = StatusMatched
		return outcome
	}

	encoded, err := s.codec.Encode(updated)
	if err != nil {
		outcome.Status = StatusWriteFailed
		outcome.Err = err
		return outcome
	}

	if err := s.writeFile(path, encoded); err != nil {
		outcome.Status = StatusWriteFailed
		outcome.Err = err
		return outcome
	}

	outcome.Status = StatusUpdated
	return outcome
}
