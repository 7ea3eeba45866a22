package replace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files under root from a map of slash-separated relative
// paths to contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// tempRoot returns a symlink-free temporary directory.
func tempRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// recordingReporter captures every event for assertions.
type recordingReporter struct {
	started    string
	checked    []string
	outcomes   []Outcome
	walkErrors []string
	finished   *Result
}

func (r *recordingReporter) Start(root string, _ Config) { r.started = root }
func (r *recordingReporter) Checking(path string)        { r.checked = append(r.checked, path) }
func (r *recordingReporter) FileDone(o Outcome)          { r.outcomes = append(r.outcomes, o) }
func (r *recordingReporter) TraversalError(path string, _ error) {
	r.walkErrors = append(r.walkErrors, path)
}

func (r *recordingReporter) Finish(res Result) {
	r.finished = &res
}

func (r *recordingReporter) outcomeFor(path string) (Outcome, bool) {
	for _, o := range r.outcomes {
		if o.Path == path {
			return o, true
		}
	}
	return Outcome{}, false
}
