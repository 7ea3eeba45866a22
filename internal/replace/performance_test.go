package replace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLargeTreePerformance runs over a wide, deep tree and checks that every
// file is visited once.
func TestLargeTreePerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	root := tempRoot(t)
	const dirs, filesPerDir = 50, 40
	for d := range dirs {
		dir := filepath.Join(root, fmt.Sprintf("pkg%02d", d), "sub")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for f := range filesPerDir {
			content := fmt.Sprintf("package pkg%02d // morse_master %d\n", d, f)
			require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%03d.go", f)), []byte(content), 0o644))
		}
	}

	start := time.Now()
	result, err := NewRunner(projectRenameConfig(root), nil).Run()
	elapsed := time.Since(start)
	require.NoError(t, err)

	t.Logf("Processed %d files in %v", result.Checked, elapsed)
	require.Equal(t, dirs*filesPerDir, result.Checked)
	require.Equal(t, dirs*filesPerDir, result.Updated)
	require.Equal(t, dirs*filesPerDir, result.Replacements)
}

// TestLargeFilePerformance rewrites a multi-megabyte file with many matches.
func TestLargeFilePerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	root := tempRoot(t)
	const lines = 200_000
	line := "import \"github.com/x/morse_master/internal\"\n"
	path := filepath.Join(root, "big.go")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat(line, lines)), 0o644))

	start := time.Now()
	result, err := NewRunner(projectRenameConfig(root), nil).Run()
	require.NoError(t, err)
	t.Logf("Rewrote %d bytes in %v", len(line)*lines, time.Since(start))

	require.Equal(t, lines, result.Replacements)
	require.Equal(t, strings.Repeat("import \"github.com/x/Dit-Dah-Dash/internal\"\n", lines), readString(t, path))
}

func BenchmarkSubstituterFile(b *testing.B) {
	dir := b.TempDir()
	path := filepath.Join(dir, "bench.txt")
	original := []byte(strings.Repeat("alpha morse_master beta\n", 4096))

	cfg := DefaultConfig()
	cfg.Old = "morse_master"
	cfg.New = "Dit-Dah-Dash"
	codec, err := cfg.codec()
	require.NoError(b, err)
	s := NewSubstituter(cfg, codec)

	b.ResetTimer()
	for range b.N {
		b.StopTimer()
		require.NoError(b, os.WriteFile(path, original, 0o644))
		b.StartTimer()

		if outcome := s.File(path); outcome.Status != StatusUpdated {
			b.Fatalf("unexpected status %s", outcome.Status)
		}
	}
}
