package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isseis/go-safe-replace/internal/replace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	files := map[string]string{
		"go.mod":           "module github.com/x/morse_master\n",
		"cmd/app/main.go":  "package main // morse_master\n",
		".git/config":      "url = morse_master\n",
		"docs/README.md":   "nothing to see\n",
		"assets/logo.bin":  "\x00\xff\xfe\x80",
		"vendor/dep/x.txt": "morse_master\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_ReplacesAcrossTree(t *testing.T) {
	root := newProject(t)

	code, stdout, stderr := runCommand(t, "-old", "morse_master", "-new", "Dit-Dah-Dash", root)

	require.Equal(t, 0, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "Starting search in directory: "+root+"\n"))
	assert.Contains(t, stdout, "Checking: "+filepath.Join(root, "go.mod")+"\n")
	assert.Contains(t, stdout, "  Updating references in: "+filepath.Join(root, "go.mod")+"\n")
	assert.Contains(t, stdout, "  Skipping (possible binary file or wrong encoding): "+filepath.Join(root, "assets/logo.bin")+"\n")
	assert.True(t, strings.HasSuffix(stdout, "\nProcessing complete.\nFiles checked: 6\nFiles updated: 4\nFiles skipped: 1\nReplacements: 4\n"), stdout)

	assert.Equal(t, "module github.com/x/Dit-Dah-Dash\n", readFile(t, filepath.Join(root, "go.mod")))
	assert.Equal(t, "url = Dit-Dah-Dash\n", readFile(t, filepath.Join(root, ".git/config")))
}

func TestRun_ExcludeAndDryRun(t *testing.T) {
	root := newProject(t)

	code, stdout, stderr := runCommand(t,
		"-root", root,
		"-old", "morse_master",
		"-new", "Dit-Dah-Dash",
		"-exclude", ".git",
		"-exclude", "vendor",
		"-dry-run")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "  Would update references in: "+filepath.Join(root, "go.mod")+"\n")
	assert.NotContains(t, stdout, filepath.Join(root, ".git"))
	assert.Contains(t, stdout, "Files checked: 4\nFiles updated: 0\nFiles that would be updated: 2\n")
	assert.Equal(t, "module github.com/x/morse_master\n", readFile(t, filepath.Join(root, "go.mod")))
}

func TestRun_ConfigFileWithFlagOverride(t *testing.T) {
	root := newProject(t)
	configPath := filepath.Join(t.TempDir(), "replace.toml")
	content := "root = \"" + root + "\"\n" +
		"old = \"morse_master\"\n" +
		"new = \"from-config\"\n" +
		"exclude = [\"vendor\"]\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	code, _, stderr := runCommand(t, "-config", configPath, "-new", "from-flag", "-exclude", ".git")

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "module github.com/x/from-flag\n", readFile(t, filepath.Join(root, "go.mod")))
	assert.Equal(t, "url = morse_master\n", readFile(t, filepath.Join(root, ".git/config")))
	assert.Equal(t, "morse_master\n", readFile(t, filepath.Join(root, "vendor/dep/x.txt")))
}

func TestRun_YAMLConfig(t *testing.T) {
	root := newProject(t)
	configPath := filepath.Join(t.TempDir(), "replace.yaml")
	content := "root: " + root + "\nold: morse_master\nnew: yaml\ndry_run: true\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	code, stdout, stderr := runCommand(t, "-config", configPath)

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Files that would be updated: 4\n")
	assert.Equal(t, "module github.com/x/morse_master\n", readFile(t, filepath.Join(root, "go.mod")))
}

func TestRun_LogFile(t *testing.T) {
	root := newProject(t)
	logPath := filepath.Join(t.TempDir(), "replace.log")

	code, _, stderr := runCommand(t, "-old", "morse_master", "-new", "x", "-log-file", logPath, root)

	require.Equal(t, 0, code, stderr)
	logged := readFile(t, logPath)
	assert.Contains(t, logged, `"msg":"Starting substitution"`)
	assert.Contains(t, logged, `"msg":"Substitution completed"`)
	assert.Contains(t, logged, `"run_id":"`)
}

func TestRun_Errors(t *testing.T) {
	root := newProject(t)
	filePath := filepath.Join(root, "go.mod")

	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{
			name:       "missing root",
			args:       []string{"-old", "a", filepath.Join(root, "nope")},
			wantStderr: "ERROR: Target directory '" + filepath.Join(root, "nope") + "' not found or is not a directory.\n",
		},
		{
			name:       "root is a file",
			args:       []string{"-old", "a", filePath},
			wantStderr: "ERROR: Target directory '" + filePath + "' not found or is not a directory.\n",
		},
		{
			name:       "no root",
			args:       []string{"-old", "a"},
			wantStderr: "root directory is not specified",
		},
		{
			name:       "empty old",
			args:       []string{root},
			wantStderr: "old string must not be empty",
		},
		{
			name:       "unknown encoding",
			args:       []string{"-old", "a", "-encoding", "klingon-8", root},
			wantStderr: "unknown encoding",
		},
		{
			name:       "two positional roots",
			args:       []string{"-old", "a", root, root},
			wantStderr: "at most one root directory",
		},
		{
			name:       "root twice",
			args:       []string{"-old", "a", "-root", root, root},
			wantStderr: "root given both",
		},
		{
			name:       "color conflict",
			args:       []string{"-old", "a", "-color", "-no-color", root},
			wantStderr: "mutually exclusive",
		},
		{
			name:       "bad max size",
			args:       []string{"-old", "a", "-max-size", "0", root},
			wantStderr: "-max-size must be positive",
		},
		{
			name:       "bad log level",
			args:       []string{"-old", "a", "-log-level", "loud", root},
			wantStderr: "invalid log level",
		},
		{
			name:       "unknown flag",
			args:       []string{"-bogus"},
			wantStderr: "Usage:",
		},
		{
			name:       "missing config",
			args:       []string{"-config", filepath.Join(root, "missing.toml")},
			wantStderr: "failed to read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCommand(t, tt.args...)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.wantStderr)
			assert.NotContains(t, stdout, "Processing complete.")
			assert.Equal(t, "module github.com/x/morse_master\n", readFile(t, filePath))
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCommand(t, "-h")

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "-old")
}

func TestRun_PerFileFailureStillExitsZero(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := newProject(t)
	locked := filepath.Join(root, "go.mod")
	require.NoError(t, os.Chmod(locked, 0o444))

	code, stdout, stderr := runCommand(t, "-old", "morse_master", "-new", "x", root)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "  ERROR: Could not write changes to "+locked+": ")
	assert.Contains(t, stdout, "Files failed: 1\n")
}

func TestRun_LogFileInsideRootIsNotRewritten(t *testing.T) {
	root := newProject(t)
	logPath := filepath.Join(root, "zz.log")

	code, stdout, stderr := runCommand(t, "-old", "morse_master", "-new", "X", "-log-file", logPath, "-log-level", "debug", root)

	require.Equal(t, 0, code, stderr)
	assert.NotContains(t, stdout, "zz.log")
	assert.Contains(t, stdout, "Files checked: 6\nFiles updated: 4\n")

	logged := readFile(t, logPath)
	assert.Contains(t, logged, filepath.Join(root, "go.mod"))
	assert.NotContains(t, logged, filepath.Join(root, "X"))
}

func TestRun_InjectedWriteFailureStillExitsZero(t *testing.T) {
	root := newProject(t)
	failing := filepath.Join(root, "go.mod")
	errDisk := errors.New("no space left on device")

	original := newRunner
	t.Cleanup(func() { newRunner = original })
	newRunner = func(cfg replace.Config, reporter replace.Reporter, opts ...replace.Option) *replace.Runner {
		writeFile := func(path string, content []byte) error {
			if path == failing {
				return errDisk
			}
			return os.WriteFile(path, content, 0o644)
		}
		return original(cfg, reporter, append(opts, replace.WithFileIO(nil, writeFile))...)
	}

	code, stdout, stderr := runCommand(t, "-old", "morse_master", "-new", "x", root)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "  ERROR: Could not write changes to "+failing+": no space left on device\n")
	assert.Contains(t, stdout, "Files updated: 3\n")
	assert.Contains(t, stdout, "Files failed: 1\n")
	assert.Equal(t, "module github.com/x/morse_master\n", readFile(t, failing))
}

func TestRun_RelativeRootIsPrintedAsGiven(t *testing.T) {
	root := newProject(t)
	t.Chdir(root)

	code, stdout, stderr := runCommand(t, "-old", "morse_master", "-new", "x", ".")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Starting search in directory: "+root+"\n")
	assert.Contains(t, stdout, "Checking: go.mod\n")
	assert.Contains(t, stdout, "  Updating references in: cmd/app/main.go\n")
	assert.Contains(t, stdout, "  Skipping (possible binary file or wrong encoding): assets/logo.bin\n")
}
