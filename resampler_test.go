//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

var (
	stereo48k = AudioParams{SampleRate: 48000, Channels: 2, SampleFormat: SampleFormatS16}
	mono44k   = AudioParams{SampleRate: 44100, Channels: 1, SampleFormat: SampleFormatS16}
	planar48k = AudioParams{SampleRate: 48000, Channels: 2, SampleFormat: SampleFormatFltP}
)

func audioFrame(t *testing.T, with Option, p AudioParams, samples int, pts int64) *Frame {
	t.Helper()
	f, err := NewAudioFrame(samples, p.SampleRate, p.Channels, p.SampleFormat, with)
	require.NoError(t, err)
	f.SetPTS(pts)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestResampleConvertsAndHoldsLatency(t *testing.T) {
	_, with := newFake(t)
	r, err := NewResampler(stereo48k, planar48k, with)
	require.NoError(t, err)
	defer r.Close()
	require.True(t, r.IsValid())

	out, err := r.Resample(audioFrame(t, with, stereo48k, 1024, 0), nil)
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, 1016, out.NbSamples())
	require.Equal(t, SampleFormatFltP, out.SampleFormat())
	require.Equal(t, int64(8), r.Delay())

	tail, err := r.Resample(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 8, tail.NbSamples())
	require.NoError(t, tail.Close())

	// nothing left to flush
	tail, err = r.Resample(nil, nil)
	require.NoError(t, err)
	require.Nil(t, tail)
}

func TestResamplerDriftMatchesFreshResampler(t *testing.T) {
	_, with := newFake(t)

	drifted, err := NewResampler(stereo48k, stereo48k, with)
	require.NoError(t, err)
	defer drifted.Close()
	first, err := drifted.Resample(audioFrame(t, with, stereo48k, 1024, 0), nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	fresh, err := NewResampler(mono44k, stereo48k, with)
	require.NoError(t, err)
	defer fresh.Close()

	var slot averror.Slot
	got, err := drifted.Resample(audioFrame(t, with, mono44k, 1024, 441), &slot)
	require.NoError(t, err)
	require.False(t, slot.Failed())
	defer got.Close()
	want, err := fresh.Resample(audioFrame(t, with, mono44k, 1024, 441), nil)
	require.NoError(t, err)
	defer want.Close()

	require.Equal(t, want.NbSamples(), got.NbSamples())
	require.Equal(t, AudioParamsOf(want), AudioParamsOf(got))
	require.Equal(t, int64(480), got.PTS())
	require.Equal(t, want.PTS(), got.PTS())
	require.Equal(t, fresh.Delay(), drifted.Delay())

	src, _ := drifted.Params()
	require.Equal(t, mono44k, src)
	require.Equal(t, 1, drifted.Reinits())
	require.Zero(t, fresh.Reinits())
}

func TestResamplerSetOutput(t *testing.T) {
	_, with := newFake(t)
	r, err := NewResampler(stereo48k, stereo48k, with)
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Resample(audioFrame(t, with, stereo48k, 1024, 0), nil)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.Equal(t, int64(8), r.Delay())

	// the buffered samples come back in the old format
	mono16k := AudioParams{SampleRate: 16000, Channels: 1, SampleFormat: SampleFormatS16}
	tail, err := r.SetOutput(mono16k, nil)
	require.NoError(t, err)
	require.Equal(t, 8, tail.NbSamples())
	require.Equal(t, 48000, tail.SampleRate())
	require.Equal(t, 2, tail.Channels())
	require.NoError(t, tail.Close())

	_, dst := r.Params()
	require.Equal(t, mono16k, dst)
	require.Zero(t, r.Delay())
	require.Equal(t, 1, r.Reinits())

	tail, err = r.Resample(nil, nil)
	require.NoError(t, err)
	require.Nil(t, tail)

	out, err = r.Resample(audioFrame(t, with, stereo48k, 960, 0), nil)
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, 16000, out.SampleRate())
	require.Equal(t, 1, out.Channels())
	require.Equal(t, 1, r.Reinits())

	// same output again: nothing to do
	tail, err = r.SetOutput(mono16k, nil)
	require.NoError(t, err)
	require.Nil(t, tail)
	require.Equal(t, 1, r.Reinits())

	var slot averror.Slot
	tail, err = r.SetOutput(AudioParams{SampleRate: 16000}, &slot)
	require.NoError(t, err)
	require.Nil(t, tail)
	require.ErrorIs(t, slot.Err(), averror.ResamplerInvalidParameters)
	_, dst = r.Params()
	require.Equal(t, mono16k, dst)
}

func TestResamplerSetOutputLayoutOnly(t *testing.T) {
	_, with := newFake(t)
	surround := AudioParams{SampleRate: 48000, Channels: 3, SampleFormat: SampleFormatS16}
	r, err := NewResampler(stereo48k, surround, with)
	require.NoError(t, err)
	defer r.Close()

	twoOne := surround
	twoOne.ChannelLayout = ChannelLayout(0x103) // FL+FR+BC
	require.NotEqual(t, DefaultChannelLayout(3), twoOne.ChannelLayout)

	tail, err := r.SetOutput(twoOne, nil)
	require.NoError(t, err)
	require.Nil(t, tail)
	require.Equal(t, 1, r.Reinits())
	_, dst := r.Params()
	require.Equal(t, twoOne, dst)

	explicit := surround
	explicit.ChannelLayout = DefaultChannelLayout(3)
	_, err = r.SetOutput(explicit, nil)
	require.NoError(t, err)
	require.Equal(t, 2, r.Reinits())

	// the default layout spelled out or left zero is the same output
	_, err = r.SetOutput(surround, nil)
	require.NoError(t, err)
	require.Equal(t, 2, r.Reinits())
}

func TestResamplerFailedSetOutputKeepsBufferedSamples(t *testing.T) {
	_, with := newFake(t)
	r, err := NewResampler(stereo48k, stereo48k, with)
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Resample(audioFrame(t, with, stereo48k, 1024, 0), nil)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	bad := stereo48k
	bad.SampleFormat = -1
	tail, err := r.SetOutput(bad, nil)
	require.Nil(t, tail)
	require.ErrorIs(t, err, averror.ResamplerInvalidParameters)

	_, dst := r.Params()
	require.Equal(t, stereo48k, dst)
	require.Equal(t, int64(8), r.Delay())
	tail, err = r.Resample(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 8, tail.NbSamples())
	require.NoError(t, tail.Close())
}

func TestResamplerInvalidParameters(t *testing.T) {
	_, with := newFake(t)

	_, err := NewResampler(AudioParams{SampleRate: 48000, SampleFormat: SampleFormatS16}, stereo48k, with)
	require.ErrorIs(t, err, averror.ResamplerInvalidParameters)

	badLayout := stereo48k
	badLayout.Channels = 1
	badLayout.ChannelLayout = ChannelLayoutStereo
	_, err = NewResampler(badLayout, stereo48k, with)
	require.ErrorIs(t, err, averror.ResamplerInvalidParameters)

	r, err := NewResampler(stereo48k, stereo48k, with)
	require.NoError(t, err)

	// a video frame has no sample parameters
	video, err := NewVideoFrame(2, 2, PixelFormatYUV420P, with)
	require.NoError(t, err)
	defer video.Close()
	_, err = r.Resample(video, nil)
	require.ErrorIs(t, err, averror.ResamplerInvalidParameters)
	src, _ := r.Params()
	require.Equal(t, stereo48k, src)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.False(t, r.IsValid())
	require.Zero(t, r.Delay())
	_, err = r.Resample(nil, nil)
	require.ErrorIs(t, err, averror.ResamplerNotInitialized)
}

func TestDefaultChannelLayout(t *testing.T) {
	require.Equal(t, ChannelLayoutMono, DefaultChannelLayout(1))
	require.Equal(t, ChannelLayoutStereo, DefaultChannelLayout(2))
	require.Equal(t, ChannelLayout5Point1, DefaultChannelLayout(6))
}
