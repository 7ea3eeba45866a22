// Package report renders replace run events as console lines.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/isseis/go-safe-replace/internal/replace"
	"github.com/isseis/go-safe-replace/internal/terminal"
)

// Console writes progress to out and per-file errors to errOut.
type Console struct {
	out    io.Writer
	errOut io.Writer
	dryRun bool

	// root is the resolved root; given is the root as the user spelled it
	root  string
	given string

	heading *color.Color
	updated *color.Color
	matched *color.Color
	skipped *color.Color
	failed  *color.Color
}

var _ replace.Reporter = (*Console)(nil)

// NewConsole creates a Console. Colors are used only when caps allows them;
// a nil caps disables color.
func NewConsole(out, errOut io.Writer, caps terminal.Capabilities) *Console {
	c := &Console{
		out:     out,
		errOut:  errOut,
		heading: color.New(color.Bold),
		updated: color.New(color.FgGreen),
		matched: color.New(color.FgCyan),
		skipped: color.New(color.FgYellow),
		failed:  color.New(color.FgRed, color.Bold),
	}

	useColor := caps != nil && caps.SupportsColor()
	for _, col := range []*color.Color{c.heading, c.updated, c.matched, c.skipped, c.failed} {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Start prints the resolved root.
func (c *Console) Start(root string, cfg replace.Config) {
	c.dryRun = cfg.DryRun
	c.root = root
	c.given = cfg.Root
	_, _ = c.heading.Fprintf(c.out, "Starting search in directory: %s\n", root)
	if cfg.DryRun {
		_, _ = fmt.Fprintln(c.out, "Dry run: no files will be modified.")
	}
}

// Checking announces a file before it is processed.
func (c *Console) Checking(path string) {
	_, _ = fmt.Fprintf(c.out, "Checking: %s\n", c.display(path))
}

// FileDone prints one line for every outcome except unchanged.
func (c *Console) FileDone(outcome replace.Outcome) {
	switch outcome.Status {
	case replace.StatusUpdated:
		_, _ = c.updated.Fprintf(c.out, "  Updating references in: %s\n", c.display(outcome.Path))
	case replace.StatusMatched:
		_, _ = c.matched.Fprintf(c.out, "  Would update references in: %s\n", c.display(outcome.Path))
	case replace.StatusSkippedUndecodable:
		_, _ = c.skipped.Fprintf(c.out, "  Skipping (possible binary file or wrong encoding): %s\n", c.display(outcome.Path))
	case replace.StatusSkippedTooLarge:
		_, _ = c.skipped.Fprintf(c.out, "  Skipping (file too large): %s\n", c.display(outcome.Path))
	case replace.StatusSkippedNotRegular:
		_, _ = c.skipped.Fprintf(c.out, "  Skipping (not a regular file): %s\n", c.display(outcome.Path))
	case replace.StatusReadFailed:
		_, _ = c.failed.Fprintf(c.errOut, "  ERROR: Could not read file %s: %v\n", c.display(outcome.Path), outcome.Err)
	case replace.StatusWriteFailed:
		_, _ = c.failed.Fprintf(c.errOut, "  ERROR: Could not write changes to %s: %v\n", c.display(outcome.Path), outcome.Err)
	case replace.StatusUnchanged:
	}
}

// TraversalError reports a directory that could not be listed.
func (c *Console) TraversalError(path string, err error) {
	_, _ = c.failed.Fprintf(c.errOut, "  ERROR: Could not list directory %s: %v\n", c.display(path), err)
}

// Finish prints the summary block.
func (c *Console) Finish(result replace.Result) {
	_, _ = c.heading.Fprintln(c.out, "\nProcessing complete.")
	_, _ = fmt.Fprintf(c.out, "Files checked: %d\n", result.Checked)
	_, _ = fmt.Fprintf(c.out, "Files updated: %d\n", result.Updated)
	if c.dryRun {
		_, _ = fmt.Fprintf(c.out, "Files that would be updated: %d\n", result.Matched)
	}
	if result.Skipped > 0 {
		_, _ = fmt.Fprintf(c.out, "Files skipped: %d\n", result.Skipped)
	}
	if result.Failed > 0 {
		_, _ = fmt.Fprintf(c.out, "Files failed: %d\n", result.Failed)
	}
	_, _ = fmt.Fprintf(c.out, "Replacements: %d\n", result.Replacements)
}

// display joins path's position below the resolved root onto the root as
// given on the command line, so a relative root yields relative paths.
func (c *Console) display(path string) string {
	if c.root == "" || c.given == "" {
		return path
	}
	rel, err := filepath.Rel(c.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.Join(c.given, rel)
}
