//go:build !ios && !android && (amd64 || arm64)

package avformat

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/avcodec"
	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

var ffmpegAvailable bool

func TestMain(m *testing.M) {
	if err := bindings.Load(); err == nil && avutil.Bind() == nil && avcodec.Bind() == nil && Bind() == nil {
		ffmpegAvailable = true
	}
	os.Exit(m.Run())
}

// createTestVideo renders a short raw video clip with the ffmpeg CLI.
func createTestVideo(t *testing.T) string {
	t.Helper()
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
	out := filepath.Join(t.TempDir(), "test.nut")
	cmd := exec.Command("ffmpeg", "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=0.2:size=64x48:rate=10",
		"-c:v", "rawvideo", "-pix_fmt", "yuv420p", out)
	if err := cmd.Run(); err != nil {
		t.Skipf("ffmpeg CLI not available: %v", err)
	}
	return out
}

func TestOpenInputMissingFile(t *testing.T) {
	if !ffmpegAvailable {
		t.Skip("FFmpeg not available")
	}
	ctx, ret := OpenInput(filepath.Join(t.TempDir(), "missing.nut"), nil)
	require.Nil(t, ctx)
	require.Negative(t, ret)
}

func TestOpenInputReadsStreams(t *testing.T) {
	path := createTestVideo(t)

	ctx, ret := OpenInput(path, nil)
	require.Zero(t, ret)
	defer CloseInput(&ctx)
	require.GreaterOrEqual(t, FindStreamInfo(ctx), int32(0))

	require.Equal(t, 1, NumStreams(ctx))
	require.Nil(t, GetStream(ctx, 1))
	f := GetStreamFields(GetStream(ctx, 0))
	require.EqualValues(t, 0, f.MediaType)
	require.Equal(t, avcodec.CodecIDRAWVIDEO, f.CodecID)
	require.EqualValues(t, 64, f.Width)
	require.EqualValues(t, 48, f.Height)
	require.NotNil(t, f.Params)

	pkt := avcodec.PacketAlloc()
	defer avcodec.PacketFree(&pkt)
	count := 0
	for ReadFrame(ctx, pkt) >= 0 {
		count++
		avcodec.PacketUnref(pkt)
	}
	require.Equal(t, 2, count)
}

func TestCloseInputNil(t *testing.T) {
	var ctx FormatContext
	CloseInput(&ctx)
	CloseInput(nil)
}
