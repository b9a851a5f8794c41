//go:build !ios && !android && (amd64 || arm64)

package shim

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindShimLibraryRespectsShimDir(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, ExpectedLibraryName())
	require.NoError(t, os.WriteFile(fake, []byte("not a real shim"), 0o644))
	t.Setenv("FFWRAP_SHIM_DIR", dir)

	got, err := findShimLibrary()
	require.NoError(t, err)
	require.Equal(t, fake, got)
}

func TestFindShimLibraryShimDirMissing(t *testing.T) {
	t.Setenv("FFWRAP_SHIM_DIR", t.TempDir())

	_, err := findShimLibrary()
	require.ErrorIs(t, err, ErrShimNotFound)
	require.Contains(t, err.Error(), "FFWRAP_SHIM_DIR")
}

func TestExpectedLibraryName(t *testing.T) {
	want := map[string]string{"darwin": "libffshim.dylib", "windows": "ffshim.dll"}[runtime.GOOS]
	if want == "" {
		want = "libffshim.so"
	}
	require.Equal(t, want, ExpectedLibraryName())
}

func TestLoadWithInvalidShimIsNotFatal(t *testing.T) {
	if IsLoaded() {
		t.Skip("a real shim is already loaded")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExpectedLibraryName()), []byte("junk"), 0o644))
	t.Setenv("FFWRAP_SHIM_DIR", dir)

	require.NoError(t, Load())
	require.False(t, IsLoaded())
	require.Error(t, LoadError())
	require.Contains(t, Status(), "not loaded")
	require.ErrorIs(t, SetLogCallback(0), ErrShimNotLoaded)
	require.ErrorIs(t, SetLogLevel(32), ErrShimNotLoaded)
	require.NoError(t, Unload())
}
