// Package main provides the replace command. It substitutes one literal
// string for another in every text file under a directory tree.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/isseis/go-safe-replace/internal/config"
	"github.com/isseis/go-safe-replace/internal/logging"
	"github.com/isseis/go-safe-replace/internal/replace"
	"github.com/isseis/go-safe-replace/internal/report"
	"github.com/isseis/go-safe-replace/internal/safefileio"
	"github.com/isseis/go-safe-replace/internal/terminal"
	"github.com/isseis/go-safe-replace/internal/textcodec"
)

const defaultLogLevel = "warn"

var (
	errTooManyArgs        = errors.New("at most one root directory may be given as a positional argument")
	errConflictingRoot    = errors.New("root given both as -root and as a positional argument")
	errConflictingColor   = errors.New("-color and -no-color are mutually exclusive")
	errNonPositiveMaxSize = errors.New("-max-size must be positive")
	newRunner             = replace.NewRunner
)

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type cliOptions struct {
	root        string
	old         string
	new         string
	encoding    string
	exclude     stringList
	configPath  string
	dryRun      bool
	maxSize     int64
	logLevel    string
	logFile     string
	forceColor  bool
	noColor     bool
	positionals []string

	// set records which flags appeared on the command line
	set map[string]bool
}

type runSettings struct {
	cfg      replace.Config
	logLevel string
	logFile  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	settings, err := resolveSettings(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(settings.logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	caps := terminal.NewDetector(terminal.Options{
		ForceColor:   opts.forceColor,
		DisableColor: opts.noColor,
	})

	logger, err := logging.Setup(logging.Options{
		Level:        level,
		Stderr:       stderr,
		Capabilities: caps,
		LogFile:      settings.logFile,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := logger.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	previous := slog.Default()
	slog.SetDefault(logger.Logger)
	defer slog.SetDefault(previous)

	if opts.configPath != "" {
		slog.Debug("Loaded config file", "path", opts.configPath)
	}

	console := report.NewConsole(stdout, stderr, caps)
	// the log file is being written during the run and must not be rewritten
	runner := newRunner(settings.cfg, console, replace.WithIgnoredFiles(settings.logFile))
	if _, err := runner.Run(); err != nil {
		printRunError(stderr, err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, *flag.FlagSet, error) {
	opts := &cliOptions{set: map[string]bool{}}

	fs := flag.NewFlagSet("replace", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&opts.root, "root", "", "Directory to scan (or give it as the positional argument)")
	fs.StringVar(&opts.old, "old", "", "Literal substring to find (required)")
	fs.StringVar(&opts.new, "new", "", "Literal substring to substitute")
	fs.StringVar(&opts.encoding, "encoding", textcodec.DefaultEncoding, "Text encoding used to read and write files ("+textcodec.SupportedNames+")")
	fs.Var(&opts.exclude, "exclude", "Glob of paths to skip, relative to root (repeatable)")
	fs.StringVar(&opts.configPath, "config", "", "TOML (.toml) or YAML (.yaml, .yml) config file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Report files that would change without writing them")
	fs.Int64Var(&opts.maxSize, "max-size", safefileio.MaxFileSize, "Skip files larger than this many bytes")
	fs.StringVar(&opts.logLevel, "log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	fs.BoolVar(&opts.forceColor, "color", false, "Force colored output")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.positionals = fs.Args()

	switch {
	case len(opts.positionals) > 1:
		return nil, fs, fmt.Errorf("%w: %s", errTooManyArgs, strings.Join(opts.positionals, " "))
	case len(opts.positionals) == 1 && opts.set["root"]:
		return nil, fs, errConflictingRoot
	case opts.forceColor && opts.noColor:
		return nil, fs, errConflictingColor
	case opts.set["max-size"] && opts.maxSize <= 0:
		return nil, fs, errNonPositiveMaxSize
	}

	if len(opts.positionals) == 1 {
		opts.root = opts.positionals[0]
		opts.set["root"] = true
	}
	return opts, fs, nil
}

// resolveSettings layers defaults, the config file and command line flags,
// in that order.
func resolveSettings(opts *cliOptions) (*runSettings, error) {
	settings := &runSettings{
		cfg:      replace.DefaultConfig(),
		logLevel: defaultLogLevel,
	}

	if opts.configPath != "" {
		file, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		file.Apply(&settings.cfg)
		if file.LogLevel != nil {
			settings.logLevel = *file.LogLevel
		}
		if file.LogFile != nil {
			settings.logFile = *file.LogFile
		}
	}

	if opts.set["root"] {
		settings.cfg.Root = opts.root
	}
	if opts.set["old"] {
		settings.cfg.Old = opts.old
	}
	if opts.set["new"] {
		settings.cfg.New = opts.new
	}
	if opts.set["encoding"] {
		settings.cfg.Encoding = opts.encoding
	}
	settings.cfg.Exclude = append(settings.cfg.Exclude, opts.exclude...)
	if opts.set["dry-run"] {
		settings.cfg.DryRun = opts.dryRun
	}
	if opts.set["max-size"] {
		settings.cfg.MaxFileSize = opts.maxSize
	}
	if opts.set["log-level"] {
		settings.logLevel = opts.logLevel
	}
	if opts.set["log-file"] {
		settings.logFile = opts.logFile
	}

	return settings, nil
}

func printRunError(w io.Writer, err error) {
	var cfgErr *replace.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Kind {
		case replace.ConfigErrorRootMissing, replace.ConfigErrorRootNotDirectory:
			_, _ = fmt.Fprintf(w, "ERROR: Target directory '%s' not found or is not a directory.\n", cfgErr.Value)
			return
		default:
		}
	}
	_, _ = fmt.Fprintf(w, "ERROR: %v\n", err)
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] [root]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}
