//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

func TestVideoFilterGraphRoundTrip(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatYUV420P}

	g, err := NewVideoFilterGraph("null", src, Rational{1, 25}, with)
	require.NoError(t, err)
	defer g.Close()
	require.Equal(t, []string{"in"}, g.Inputs())
	require.Equal(t, []string{"out"}, g.Outputs())

	in := videoFrame(t, with, src, 42)
	in.SetPTS(5)
	require.NoError(t, g.Push(in, nil))

	out, err := g.Pull(nil)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, int64(5), out.PTS())
	require.Equal(t, src, VideoParamsOf(out))
	require.Equal(t, byte(42), out.Data(0)[0])
	require.NoError(t, out.Close())

	// needs more input
	out, err = g.Pull(nil)
	require.NoError(t, err)
	require.Nil(t, out)

	require.NoError(t, g.Push(nil, nil))
	_, err = g.Pull(nil)
	require.True(t, IsEOF(err))

	var slot averror.Slot
	require.NoError(t, g.Push(in, &slot))
	require.Equal(t, AVERROR_EOF, slot.Failure().Code)
}

func TestFilterGraphSplitOutputs(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatGray8}

	g, err := NewVideoFilterGraph("copy,split", src, Rational{}, with)
	require.NoError(t, err)
	defer g.Close()
	require.Equal(t, []string{"out0", "out1"}, g.Outputs())

	// queued frames are freed with the graph
	require.NoError(t, g.Push(videoFrame(t, with, src, 1), nil))
	require.NoError(t, g.Push(videoFrame(t, with, src, 2), nil))

	out, err := g.PullFrom(1, nil)
	require.NoError(t, err)
	require.Nil(t, out)
	_, err = g.PullFrom(2, nil)
	require.ErrorIs(t, err, averror.OutOfRange)
}

func TestAudioFilterGraph(t *testing.T) {
	_, with := newFake(t)

	g, err := NewAudioFilterGraph("anull", stereo48k, with)
	require.NoError(t, err)
	defer g.Close()

	require.NoError(t, g.Push(audioFrame(t, with, stereo48k, 512, 1024), nil))
	out, err := g.Pull(nil)
	require.NoError(t, err)
	defer out.Close()
	require.Equal(t, 512, out.NbSamples())
	require.Equal(t, stereo48k, AudioParamsOf(out))
	require.Equal(t, int64(1024), out.PTS())
}

func TestFilterGraphErrors(t *testing.T) {
	_, with := newFake(t)
	src := VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatYUV420P}

	_, err := NewVideoFilterGraph("scale=1:1", src, Rational{1, 25}, with)
	require.ErrorIs(t, err, averror.LibraryReported)

	_, err = NewVideoFilterGraph("null", VideoParams{}, Rational{1, 25}, with)
	require.ErrorIs(t, err, averror.RescalerInvalidParameters)

	_, err = NewAudioFilterGraph("anull", AudioParams{SampleRate: 48000}, with)
	require.ErrorIs(t, err, averror.ResamplerInvalidParameters)

	g, err := NewVideoFilterGraph("null", src, Rational{1, 25}, with)
	require.NoError(t, err)
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	require.ErrorIs(t, g.Push(nil, nil), averror.NotOpen)
	_, err = g.Pull(nil)
	require.ErrorIs(t, err, averror.NotOpen)
}
