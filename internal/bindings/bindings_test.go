//go:build !ios && !android && (amd64 || arm64)

package bindings

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLibraryName(t *testing.T) {
	switch runtime.GOOS {
	case "linux", "freebsd":
		require.Equal(t, "libavcodec.so.60", LibraryName("avcodec", 60))
		require.Equal(t, "libavcodec.so", LibraryName("avcodec", 0))
	case "darwin":
		require.Equal(t, "libavcodec.60.dylib", LibraryName("avcodec", 60))
		require.Equal(t, "libavcodec.dylib", LibraryName("avcodec", 0))
	case "windows":
		require.Equal(t, "avcodec-60.dll", LibraryName("avcodec", 60))
	}
}

func TestSearchPathsHonorsOverride(t *testing.T) {
	t.Setenv("FFWRAP_LIB_DIR", "/opt/custom/ffmpeg")
	paths := SearchPaths()
	require.NotEmpty(t, paths)
	require.Equal(t, "/opt/custom/ffmpeg", paths[0])
}

func TestLibString(t *testing.T) {
	require.Equal(t, "avutil", AVUtil.String())
	require.Equal(t, "swscale", SWScale.String())
	require.Equal(t, "unknown", Lib(42).String())
}

func TestRegisterOptionalWithoutLibrary(t *testing.T) {
	if Has(SWResample) {
		t.Skip("swresample is loaded")
	}
	var fn func() int32
	require.False(t, RegisterOptional(&fn, SWResample, "swresample_version"))
	require.Nil(t, fn)
}

// Runs only where FFmpeg is installed.
func TestLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if err := Load(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}
	require.True(t, IsLoaded())
	require.True(t, Has(AVUtil))
	require.True(t, Has(AVCodec))

	var version func() uint32
	Register(&version, AVUtil, "avutil_version")
	ver := version()
	require.NotZero(t, ver)
	t.Logf("avutil %d.%d.%d", ver>>16, (ver>>8)&0xFF, ver&0xFF)
}
