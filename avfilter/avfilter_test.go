//go:build !ios && !android && (amd64 || arm64)

package avfilter

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

func TestGraphAllocFree(t *testing.T) {
	skipIfNoFFmpeg(t)
	g := GraphAlloc()
	require.NotNil(t, g)
	GraphFree(&g)
	require.Nil(t, g)
	GraphFree(&g)
}

func TestGraphParseOpenPads(t *testing.T) {
	skipIfNoFFmpeg(t)
	g := GraphAlloc()
	defer GraphFree(&g)

	inputs, outputs, ret := GraphParse2(g, "null,split[a][b]")
	require.Zero(t, ret)
	defer InOutFree(&inputs)
	defer InOutFree(&outputs)

	require.NotNil(t, inputs)
	require.Nil(t, InOutNext(inputs))

	n := 0
	for io := outputs; io != nil; io = InOutNext(io) {
		_, ctx, _ := InOutTarget(io)
		require.NotNil(t, ctx)
		n++
	}
	require.Equal(t, 2, n)
}

func TestGraphParseUnknownFilter(t *testing.T) {
	skipIfNoFFmpeg(t)
	g := GraphAlloc()
	defer GraphFree(&g)

	_, _, ret := GraphParse2(g, "definitely_not_a_filter")
	require.Negative(t, ret)
}

func TestBufferRoundTrip(t *testing.T) {
	skipIfNoFFmpeg(t)
	g := GraphAlloc()
	defer GraphFree(&g)

	src, ret := GraphCreateFilter(g, GetByName("buffer"), "in",
		"video_size=32x16:pix_fmt=0:time_base=1/25:pixel_aspect=1/1")
	require.Zero(t, ret)
	sink, ret := GraphCreateFilter(g, GetByName("buffersink"), "out", "")
	require.Zero(t, ret)
	require.Zero(t, Link(src, 0, sink, 0))
	require.GreaterOrEqual(t, GraphConfig(g), int32(0))

	in := avutil.FrameAlloc()
	defer avutil.FrameFree(&in)
	avutil.SetFrameFields(in, avutil.FrameFields{Width: 32, Height: 16, Format: 0, PTS: 3})
	require.Zero(t, avutil.FrameGetBuffer(in, 0))
	require.Zero(t, BufferSrcAddFrame(src, in))

	out := avutil.FrameAlloc()
	defer avutil.FrameFree(&out)
	require.Zero(t, BufferSinkGetFrame(sink, out))
	require.EqualValues(t, 3, avutil.GetFrameFields(out).PTS)
}
