//go:build !ios && !android && (amd64 || arm64)

package swscale

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := bindings.Load(); err == nil && avutil.Bind() == nil && Bind() == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
}

func TestGetContext(t *testing.T) {
	skipIfNoFFmpeg(t)
	ctx := GetContext(1920, 1080, avutil.PixelFormatYUV420P, 1280, 720, avutil.PixelFormatRGB24, FlagBilinear)
	require.NotNil(t, ctx)
	FreeContext(ctx)
	FreeContext(nil)
}

func TestGetContextUnsupportedFormat(t *testing.T) {
	skipIfNoFFmpeg(t)
	require.False(t, IsSupportedInput(avutil.PixelFormat(9999)))
	require.Nil(t, GetContext(64, 64, avutil.PixelFormat(9999), 64, 64, avutil.PixelFormatRGB24, FlagBilinear))
}

func newFrame(t *testing.T, w, h int32, pf avutil.PixelFormat) avutil.Frame {
	t.Helper()
	f := avutil.FrameAlloc()
	require.NotNil(t, f)
	t.Cleanup(func() { avutil.FrameFree(&f) })
	avutil.SetFrameFields(f, avutil.FrameFields{Width: w, Height: h, Format: int32(pf)})
	require.Zero(t, avutil.FrameGetBuffer(f, 0))
	return f
}

func TestScaleFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := newFrame(t, 64, 48, avutil.PixelFormatYUV420P)
	for p := range 3 {
		plane := avutil.FramePlane(src, p, avutil.PixelFormatYUV420P.PlaneRows(48, p))
		for i := range plane {
			plane[i] = 128
		}
	}
	dst := newFrame(t, 32, 24, avutil.PixelFormatRGB24)

	ctx := GetContext(64, 48, avutil.PixelFormatYUV420P, 32, 24, avutil.PixelFormatRGB24, FlagBilinear)
	require.NotNil(t, ctx)
	defer FreeContext(ctx)

	require.GreaterOrEqual(t, ScaleFrame(ctx, dst, src), int32(0))
	require.NotEmpty(t, avutil.FramePlane(dst, 0, 24))
}

func TestScaleFrameNil(t *testing.T) {
	require.Equal(t, avutil.AVERROR_EINVAL, ScaleFrame(nil, nil, nil))
}
