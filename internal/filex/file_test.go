package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("blobs")
	require.NoError(t, err)

	want := filepath.Join(tmp, "blobs")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureSubdDir("blobs")
	require.NoError(t, err)

	second, err := EnsureSubdDir("blobs")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsurePrivateDir_OwnerOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	require.NoError(t, EnsurePrivateDir(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	require.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
}
