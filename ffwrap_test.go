//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

// newFake returns a fake library and the option selecting it. The test
// fails if any library object is still alive when it ends.
func newFake(t *testing.T, opts ...ffitest.Option) (*ffitest.Library, Option) {
	t.Helper()
	lib := ffitest.New(opts...)
	t.Cleanup(func() {
		require.Zero(t, lib.LiveTotal(), "leaked objects: %v", lib.Live())
	})
	return lib, WithLibrary(lib)
}

func TestRuntimeInitLoadsOnce(t *testing.T) {
	lib := ffitest.New()
	r := newRuntime()

	require.NoError(t, r.init(WithLibrary(lib)))
	require.NoError(t, r.init(WithLibrary(lib)))
	require.Equal(t, 1, lib.Loads())

	got, err := r.library()
	require.NoError(t, err)
	require.Equal(t, "ffitest 1.0.0", got.Version())
}

func TestRuntimeInitFailure(t *testing.T) {
	cause := errors.New("libavcodec.so.61: cannot open shared object file")
	r := newRuntime()

	err := r.init(WithLibrary(ffitest.New(ffitest.WithLoadError(cause))))
	require.ErrorIs(t, err, averror.NotLoaded)
	require.ErrorIs(t, err, cause)

	_, err = r.library()
	require.ErrorIs(t, err, averror.NotLoaded)
}

func TestRuntimeShutdown(t *testing.T) {
	lib := ffitest.New()
	var live atomic.Int64
	r := newRuntime()
	r.pending = live.Load

	require.NoError(t, r.init(WithLibrary(lib)))

	live.Store(2)
	err := r.shutdown()
	require.ErrorIs(t, err, averror.InvalidArgument)
	require.Contains(t, err.Error(), "2 handles outstanding")
	require.Zero(t, lib.Unloads())

	live.Store(0)
	require.NoError(t, r.shutdown())
	require.Equal(t, 1, lib.Unloads())

	// shutting down twice is a no-op
	require.NoError(t, r.shutdown())
	require.Equal(t, 1, lib.Unloads())

	require.ErrorIs(t, r.init(WithLibrary(lib)), averror.NotLoaded)
	_, err = r.library()
	require.ErrorIs(t, err, averror.NotLoaded)
	require.Equal(t, 1, lib.Loads())
}

func TestRuntimeShutdownBeforeInit(t *testing.T) {
	lib := ffitest.New()
	r := newRuntime()
	r.pending = func() int64 { return 0 }

	require.NoError(t, r.shutdown())
	require.ErrorIs(t, r.init(WithLibrary(lib)), averror.NotLoaded)
	require.Zero(t, lib.Loads())
	require.Zero(t, lib.Unloads())
}

func TestCollectDefaults(t *testing.T) {
	o := collect(nil)
	require.Equal(t, ScaleBicubic, o.scaleFlags)
	require.Nil(t, o.lib)
	require.NotNil(t, o.logger())

	o = collect([]Option{WithThreadCount(4), WithScaleFlags(ScalePoint)})
	require.Equal(t, 4, o.threads)
	require.Equal(t, ScalePoint, o.scaleFlags)
}

// TestNativeLibrary runs against the FFmpeg installed on the machine.
func TestNativeLibrary(t *testing.T) {
	if err := Init(); err != nil {
		t.Skipf("FFmpeg not available: %v", err)
	}
	require.True(t, IsLoaded())
	require.NotEmpty(t, Version())

	f, err := NewVideoFrame(64, 48, PixelFormatYUV420P)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, 64, f.Width())
	require.Equal(t, PixelFormatYUV420P, f.PixelFormat())

	dec, err := FindDecoder(CodecIDH264)
	if err == nil {
		require.Equal(t, MediaTypeVideo, dec.MediaType())
		require.False(t, dec.IsEncoder())
	}

	_, err = FindDecoderByName("no-such-decoder")
	require.Equal(t, averror.CodeDecoderMissing, ErrorCode(err))
}
