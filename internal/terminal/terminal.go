// Package terminal decides whether console output goes to an interactive
// terminal and whether it should be colored.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILD_NUMBER",
	"GITLAB_CI",
	"APPVEYOR",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",
}

// colorTerminals lists TERM values (or prefixes before '-') with basic ANSI color.
var colorTerminals = []string{
	"xterm",
	"screen",
	"tmux",
	"rxvt",
	"vt100",
	"vt220",
	"ansi",
	"linux",
	"cygwin",
	"putty",
}

// Options carries the command line color preferences.
type Options struct {
	ForceColor   bool
	DisableColor bool
}

// Capabilities reports what the attached terminal supports.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// Detector implements Capabilities from the environment and the standard
// output descriptors.
type Detector struct {
	options    Options
	isTerminal func() bool
}

// NewDetector creates a Detector for stdout and stderr.
func NewDetector(options Options) *Detector {
	return &Detector{
		options:    options,
		isTerminal: stdioIsTerminal,
	}
}

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// IsInteractive is false under CI and when stdout or stderr is redirected.
func (d *Detector) IsInteractive() bool {
	if isCIEnvironment() {
		return false
	}
	return d.isTerminal()
}

// SupportsColor resolves color in priority order: command line flags,
// CLICOLOR_FORCE, NO_COLOR, then (interactive only) CLICOLOR and TERM.
func (d *Detector) SupportsColor() bool {
	if d.options.ForceColor {
		return true
	}
	if d.options.DisableColor {
		return false
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && isTruthy(v) {
		return true
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	if !d.IsInteractive() || !termSupportsColor(os.Getenv("TERM")) {
		return false
	}
	if v := os.Getenv("CLICOLOR"); v != "" {
		return isTruthy(v)
	}
	return true
}

func isCIEnvironment() bool {
	for _, envVar := range ciEnvVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		// CI=false and CI=0 are explicit opt-outs
		if envVar == "CI" {
			lower := strings.ToLower(strings.TrimSpace(value))
			return lower != "false" && lower != "0" && lower != "no"
		}
		return true
	}
	return false
}

func termSupportsColor(termEnv string) bool {
	name := strings.ToLower(strings.TrimSpace(termEnv))
	if name == "" || name == "dumb" {
		return false
	}
	for _, colorTerm := range colorTerminals {
		if name == colorTerm || strings.HasPrefix(name, colorTerm+"-") {
			return true
		}
	}
	return false
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
