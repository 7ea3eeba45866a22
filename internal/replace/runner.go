package replace

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Result holds the counters of a completed run.
type Result struct {
	// Root is the resolved absolute root directory
	Root string
	// Checked counts regular files visited
	Checked int
	// Updated counts files rewritten successfully
	Updated int
	// Matched counts files that would have been rewritten in dry-run mode
	Matched int
	// Skipped counts undecodable, too large or vanished files
	Skipped int
	// Failed counts files that hit a read or write error
	Failed int
	// Replacements totals the occurrences replaced (or matched in dry-run)
	Replacements int
	// TraversalErrors counts directories that could not be listed
	TraversalErrors int
}

// Reporter receives progress events. Implementations own all user-facing
// output; the runner itself never prints.
type Reporter interface {
	Start(root string, cfg Config)
	Checking(path string)
	FileDone(outcome Outcome)
	TraversalError(path string, err error)
	Finish(result Result)
}

// Runner performs one substitution pass over a directory tree.
type Runner struct {
	cfg       Config
	reporter  Reporter
	ignore    []string
	readFile  func(path string, maxSize int64) ([]byte, error)
	writeFile func(path string, content []byte) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithIgnoredFiles leaves the given files out of the run, matched by
// identity (os.SameFile) rather than by name. Paths that do not exist when
// the run starts have no effect.
func WithIgnoredFiles(paths ...string) Option {
	return func(r *Runner) {
		r.ignore = append(r.ignore, paths...)
	}
}

// WithFileIO replaces the functions used to read and write file contents.
// Nil functions keep the safefileio defaults.
func WithFileIO(readFile func(path string, maxSize int64) ([]byte, error), writeFile func(path string, content []byte) error) Option {
	return func(r *Runner) {
		r.readFile = readFile
		r.writeFile = writeFile
	}
}

// NewRunner creates a Runner. A nil reporter discards all events.
func NewRunner(cfg Config, reporter Reporter, opts ...Option) *Runner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	r := &Runner{cfg: cfg, reporter: reporter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates the configuration and processes every regular file under
// the root. A *ConfigError aborts the run before any file is touched; after
// that point errors are per file and never stop the traversal.
func (r *Runner) Run() (Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return Result{}, err
	}

	codec, err := r.cfg.codec()
	if err != nil {
		return Result{}, err
	}

	excludes, err := NewMatcher(r.cfg.Exclude)
	if err != nil {
		return Result{}, err
	}

	root, err := resolveRoot(r.cfg.Root)
	if err != nil {
		return Result{}, err
	}

	result := Result{Root: root}
	substituter := NewSubstituter(r.cfg, codec)
	if r.readFile != nil {
		substituter.readFile = r.readFile
	}
	if r.writeFile != nil {
		substituter.writeFile = r.writeFile
	}
	ignored := statIgnored(r.ignore)

	slog.Info("Starting substitution",
		"root", root,
		"encoding", codec.Name(),
		"dry_run", r.cfg.DryRun,
		"exclude_count", len(r.cfg.Exclude))
	r.reporter.Start(root, r.cfg)

	for path, walkErr := range Files(root, excludes) {
		if walkErr != nil {
			result.TraversalErrors++
			slog.Warn("Failed to read directory", "path", path, "error", walkErr)
			r.reporter.TraversalError(path, walkErr)
			continue
		}

		if isIgnored(path, ignored) {
			slog.Debug("Ignoring file", "path", path)
			continue
		}

		result.Checked++
		r.reporter.Checking(path)

		outcome := substituter.File(path)
		result.record(outcome)

		logOutcome(outcome)
		r.reporter.FileDone(outcome)
	}

	slog.Info("Substitution completed",
		"root", root,
		"checked", result.Checked,
		"updated", result.Updated,
		"matched", result.Matched,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"replacements", result.Replacements)
	r.reporter.Finish(result)

	return result, nil
}

func (res *Result) record(outcome Outcome) {
	switch {
	case outcome.Status == StatusUpdated:
		res.Updated++
		res.Replacements += outcome.Replacements
	case outcome.Status == StatusMatched:
		res.Matched++
		res.Replacements += outcome.Replacements
	case outcome.Status.IsSkipped():
		res.Skipped++
	case outcome.Status.IsFailure():
		res.Failed++
	}
}

func logOutcome(outcome Outcome) {
	switch {
	case outcome.Status.IsFailure():
		slog.Error("File processing failed",
			"path", outcome.Path,
			"status", outcome.Status.String(),
			"error", outcome.Err)
	case outcome.Status.IsSkipped():
		slog.Debug("File skipped",
			"path", outcome.Path,
			"status", outcome.Status.String(),
			"error", outcome.Err)
	case outcome.Replacements > 0:
		slog.Debug("File matched",
			"path", outcome.Path,
			"status", outcome.Status.String(),
			"replacements", outcome.Replacements)
	}
}

func statIgnored(paths []string) []os.FileInfo {
	var infos []os.FileInfo
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

func isIgnored(path string, ignored []os.FileInfo) bool {
	if len(ignored) == 0 {
		return false
	}
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	for _, other := range ignored {
		if os.SameFile(info, other) {
			return true
		}
	}
	return false
}

// resolveRoot returns the absolute, symlink-free form of root and checks
// that it is a directory.
func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", newConfigError(ConfigErrorRootMissing, root, err)
	}

	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newConfigError(ConfigErrorRootMissing, root, ErrRootNotFound)
		}
		return "", newConfigError(ConfigErrorRootMissing, root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", newConfigError(ConfigErrorRootMissing, root, err)
	}
	if !info.IsDir() {
		return "", newConfigError(ConfigErrorRootNotDirectory, root, ErrRootNotDirectory)
	}

	return resolved, nil
}

type nopReporter struct{}

func (nopReporter) Start(string, Config)         {}
func (nopReporter) Checking(string)              {}
func (nopReporter) FileDone(Outcome)             {}
func (nopReporter) TraversalError(string, error) {}
func (nopReporter) Finish(Result)                {}
