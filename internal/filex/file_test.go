package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesDirectory(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "downloads", "inbox")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	first, err := EnsureDir(dir)
	require.NoError(t, err)

	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSafeJoin(t *testing.T) {
	dir := t.TempDir()

	p, err := SafeJoin(dir, "report.pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "report.pdf"), p)

	p, err = SafeJoin(dir, "../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "passwd"), p)

	_, err = SafeJoin(dir, "")
	require.Error(t, err)

	_, err = SafeJoin(dir, "..")
	require.Error(t, err)
}
