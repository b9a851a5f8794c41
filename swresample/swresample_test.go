//go:build !ios && !android && (amd64 || arm64)

package swresample

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

func TestLegacyMask(t *testing.T) {
	require.Equal(t, ChannelLayoutMono, LegacyMask(1))
	require.Equal(t, ChannelLayoutStereo, LegacyMask(2))
	require.Equal(t, ChannelLayout5Point1, LegacyMask(6))
	require.Zero(t, LegacyMask(0))
	require.Zero(t, LegacyMask(32))
}

func TestAllocInitFree(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := Format{SampleRate: 48000, Channels: 2, SampleFormat: int32(avutil.SampleFormatS16)}
	dst := Format{SampleRate: 44100, Channels: 1, SampleFormat: int32(avutil.SampleFormatFlt)}

	s, ret := Alloc(dst, src)
	require.Zero(t, ret)
	require.NotNil(t, s)
	require.False(t, IsInitialized(s))
	require.Zero(t, Init(s))
	require.True(t, IsInitialized(s))
	require.GreaterOrEqual(t, Delay(s, 48000), int64(0))

	Free(&s)
	require.Nil(t, s)
	Free(&s)
}

func TestConvertFrame(t *testing.T) {
	skipIfNoFFmpeg(t)
	src := Format{SampleRate: 48000, Channels: 2, SampleFormat: int32(avutil.SampleFormatS16)}
	dst := Format{SampleRate: 24000, Channels: 2, SampleFormat: int32(avutil.SampleFormatS16)}
	s, ret := Alloc(dst, src)
	require.Zero(t, ret)
	defer Free(&s)
	require.Zero(t, Init(s))

	in := avutil.FrameAlloc()
	defer avutil.FrameFree(&in)
	avutil.SetFrameFields(in, avutil.FrameFields{NbSamples: 960, SampleRate: 48000, Channels: 2, Format: src.SampleFormat})
	require.Zero(t, avutil.FrameGetBuffer(in, 0))

	out := avutil.FrameAlloc()
	defer avutil.FrameFree(&out)
	avutil.SetFrameFields(out, avutil.FrameFields{SampleRate: 24000, Channels: 2, Format: dst.SampleFormat})

	require.Zero(t, ConvertFrame(s, out, in))
	require.Positive(t, avutil.GetFrameFields(out).NbSamples)
}
