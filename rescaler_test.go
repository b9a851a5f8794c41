//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

func videoFrame(t *testing.T, with Option, p VideoParams, fill byte) *Frame {
	t.Helper()
	f, err := NewVideoFrame(p.Width, p.Height, p.PixelFormat, with)
	require.NoError(t, err)
	for i := range f.Data(0) {
		f.Data(0)[i] = fill
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRescale(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 4, Height: 4, PixelFormat: PixelFormatYUV420P}
	dst := VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatRGB24}

	r, err := NewRescaler(src, dst, with, WithScaleFlags(ScaleBilinear))
	require.NoError(t, err)
	defer r.Close()

	in := videoFrame(t, with, src, 100)
	in.SetPTS(12)
	out, err := r.Rescale(in, nil)
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, dst, VideoParamsOf(out))
	require.Equal(t, int64(12), out.PTS())
	require.Equal(t, byte(100), out.Data(0)[0])
	require.Zero(t, r.Reinits())
}

func TestRescalerFollowsDrift(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 4, Height: 4, PixelFormat: PixelFormatYUV420P}
	dst := VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatRGB24}
	r, err := NewRescaler(src, dst, with)
	require.NoError(t, err)
	defer r.Close()

	bigger := VideoParams{Width: 8, Height: 8, PixelFormat: PixelFormatYUV420P}
	out, err := r.Rescale(videoFrame(t, with, bigger, 50), nil)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	gotSrc, gotDst := r.Params()
	require.Equal(t, bigger, gotSrc)
	require.Equal(t, dst, gotDst)
	require.Equal(t, 1, r.Reinits())

	// a destination with other parameters becomes the new output
	gray := VideoParams{Width: 3, Height: 3, PixelFormat: PixelFormatGray8}
	target := videoFrame(t, with, gray, 0)
	shared, err := target.Clone()
	require.NoError(t, err)
	defer shared.Close()

	var slot averror.Slot
	require.NoError(t, r.RescaleInto(target, videoFrame(t, with, bigger, 50), &slot))
	require.False(t, slot.Failed())
	require.Equal(t, byte(50), target.Data(0)[0])
	require.Equal(t, byte(0), shared.Data(0)[0])
	_, gotDst = r.Params()
	require.Equal(t, gray, gotDst)
	require.Equal(t, 2, r.Reinits())
}

func TestRescalerInvalidParameters(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 4, Height: 4, PixelFormat: PixelFormatYUV420P}

	_, err := NewRescaler(VideoParams{Width: 0, Height: 4}, src, with)
	require.ErrorIs(t, err, averror.RescalerInvalidParameters)

	unsupported := VideoParams{Width: 4, Height: 4, PixelFormat: PixelFormat(ffitest.UnsupportedPixelFormat)}
	_, err = NewRescaler(src, unsupported, with)
	require.ErrorIs(t, err, averror.RescalerInternalError)

	r, err := NewRescaler(src, src, with)
	require.NoError(t, err)

	// failed reinit keeps the previous context
	_, err = r.Rescale(videoFrame(t, with, unsupported, 0), nil)
	require.ErrorIs(t, err, averror.RescalerInternalError)
	gotSrc, _ := r.Params()
	require.Equal(t, src, gotSrc)
	require.True(t, r.IsValid())

	_, err = r.Rescale(nil, nil)
	require.ErrorIs(t, err, averror.InvalidArgument)

	require.NoError(t, r.Close())
	require.False(t, r.IsValid())
	_, err = r.Rescale(videoFrame(t, with, src, 0), nil)
	require.ErrorIs(t, err, averror.RescalerInternalError)
}
