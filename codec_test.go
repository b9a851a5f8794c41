//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

func TestFindCodec(t *testing.T) {
	_, with := newFake(t)

	dec, err := FindDecoder(CodecID(ffitest.MarkerID), with)
	require.NoError(t, err)
	require.Equal(t, "marker", dec.Name())
	require.Equal(t, MediaTypeVideo, dec.MediaType())
	require.False(t, dec.IsEncoder())

	enc, err := FindEncoder(CodecID(ffitest.ToneID), with)
	require.NoError(t, err)
	require.Equal(t, "toneenc", enc.String())
	require.Equal(t, MediaTypeAudio, enc.MediaType())
	require.True(t, enc.IsEncoder())

	_, err = FindDecoder(CodecID(ffitest.ToneID), with)
	require.ErrorIs(t, err, averror.LibraryReported)
	require.Equal(t, averror.CodeDecoderMissing, ErrorCode(err))

	_, err = FindEncoderByName("libx264", with)
	require.Equal(t, averror.CodeEncoderMissing, ErrorCode(err))
	require.Contains(t, err.Error(), "libx264")
}

func TestCodecFormatLists(t *testing.T) {
	_, with := newFake(t)

	enc, err := FindEncoderByName("markerenc", with)
	require.NoError(t, err)
	require.Equal(t, []PixelFormat{PixelFormatYUV420P, PixelFormatRGB24}, enc.PixelFormats())
	require.True(t, enc.SupportsPixelFormat(PixelFormatRGB24))
	require.False(t, enc.SupportsPixelFormat(PixelFormatNV12))
	require.Nil(t, enc.SampleFormats())
	require.True(t, enc.SupportsSampleFormat(SampleFormatS16))

	tone, err := FindEncoderByName("toneenc", with)
	require.NoError(t, err)
	require.Equal(t, []SampleFormat{SampleFormatS16, SampleFormatFltP}, tone.SampleFormats())
	require.Equal(t, []int{44100, 48000}, tone.SampleRates())
	require.False(t, tone.SupportsSampleFormat(SampleFormatU8))
}

func TestCodecPixelFormatAt(t *testing.T) {
	_, with := newFake(t)

	enc, err := FindEncoderByName("markerenc", with)
	require.NoError(t, err)

	pf, err := enc.PixelFormatAt(1, nil)
	require.NoError(t, err)
	require.Equal(t, PixelFormatRGB24, pf)

	// the list has two entries before its terminator
	_, err = enc.PixelFormatAt(2, nil)
	require.ErrorIs(t, err, averror.OutOfRange)

	var slot averror.Slot
	pf, err = enc.PixelFormatAt(-1, &slot)
	require.NoError(t, err)
	require.Zero(t, pf)
	require.Equal(t, averror.OutOfRange, slot.Failure().Domain)
}
