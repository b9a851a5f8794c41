//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

const clipURL = "memory://clip"

func addClip(lib *ffitest.Library) {
	lib.AddInput(clipURL, []ffi.StreamInfo{
		{MediaType: ffi.MediaTypeVideo, CodecID: ffitest.MarkerID, Width: 2, Height: 2, Format: 0, TimeBaseNum: 1, TimeBaseDen: 25},
		{MediaType: ffi.MediaTypeAudio, CodecID: ffitest.ToneID, SampleRate: 48000, Format: 1, TimeBaseNum: 1, TimeBaseDen: 48000},
	}, []ffitest.InputPacket{
		{StreamIndex: 0, PTS: 0, Data: []byte{0x01, 0xFF}},
		{StreamIndex: 1, PTS: 0, Data: []byte{0x00, 0x00}},
		{StreamIndex: 0, PTS: 1, Data: []byte{0x02, 0xFF}},
	})
}

func TestInputStreams(t *testing.T) {
	lib, with := newFake(t)
	addClip(lib)

	in, err := OpenInput(clipURL, nil, with)
	require.NoError(t, err)
	defer in.Close()
	require.Equal(t, clipURL, in.URL())
	require.Len(t, in.Streams(), 2)

	v := in.BestStream(MediaTypeVideo)
	require.NotNil(t, v)
	require.Zero(t, v.Index())
	require.Equal(t, CodecID(ffitest.MarkerID), v.CodecID())
	require.Equal(t, Rational{1, 25}, v.TimeBase())
	require.Equal(t, VideoParams{Width: 2, Height: 2, PixelFormat: PixelFormatYUV420P}, v.VideoParams())

	a, err := in.Stream(1, nil)
	require.NoError(t, err)
	require.Equal(t, MediaTypeAudio, a.MediaType())
	require.Equal(t, 48000, a.AudioParams().SampleRate)

	require.Nil(t, in.BestStream(MediaTypeSubtitle))
	var slot averror.Slot
	s, err := in.Stream(2, &slot)
	require.NoError(t, err)
	require.Nil(t, s)
	require.Equal(t, averror.OutOfRange, slot.Failure().Domain)
}

func TestInputDecodeUntilEOF(t *testing.T) {
	lib, with := newFake(t)
	addClip(lib)

	in, err := OpenInput(clipURL, nil, with)
	require.NoError(t, err)
	defer in.Close()

	video := in.BestStream(MediaTypeVideo)
	dec, err := NewDecoderContextFromStream(video, with)
	require.NoError(t, err)
	defer dec.Close()
	require.NoError(t, dec.Open(nil, nil))

	var pts []int64
	for {
		pkt, err := in.ReadPacket(nil)
		if IsEOF(err) {
			require.ErrorIs(t, err, averror.LibraryReported)
			break
		}
		require.NoError(t, err)
		if pkt.StreamIndex() == video.Index() {
			res, err := dec.Decode(pkt, 0, nil)
			require.NoError(t, err)
			if res.FrameFinished {
				pts = append(pts, res.Frame.PTS())
				require.NoError(t, res.Frame.Close())
			}
		}
		require.NoError(t, pkt.Close())
	}
	require.Equal(t, []int64{0, 1}, pts)

	var slot averror.Slot
	pkt, err := in.ReadPacket(&slot)
	require.NoError(t, err)
	require.Nil(t, pkt)
	require.Equal(t, AVERROR_EOF, slot.Failure().Code)
}

func TestOpenInputErrors(t *testing.T) {
	lib, with := newFake(t)
	addClip(lib)

	_, err := OpenInput("memory://missing", nil, with)
	require.ErrorIs(t, err, averror.LibraryReported)

	_, err = OpenInput(clipURL, DictionaryFromMap(map[string]string{"probesize": "32", "bogus": "1"}), with)
	require.Equal(t, AVERROR_OPTION_NOT_FOUND, ErrorCode(err))
	require.Contains(t, err.Error(), "bogus")

	in, err := OpenInput(clipURL, DictionaryFromMap(map[string]string{"probesize": "32"}), with)
	require.NoError(t, err)

	_, err = NewDecoderContextFromStream(in.BestStream(MediaTypeAudio), with)
	require.Equal(t, averror.CodeDecoderMissing, ErrorCode(err))
	_, err = NewDecoderContextFromStream(nil, with)
	require.ErrorIs(t, err, averror.InvalidArgument)

	require.NoError(t, in.Close())
	require.NoError(t, in.Close())
	_, err = in.ReadPacket(nil)
	require.ErrorIs(t, err, averror.NotOpen)
}

func addGOP(lib *ffitest.Library, url string) {
	var packets []ffitest.InputPacket
	for pts := range int64(6) {
		packets = append(packets, ffitest.InputPacket{PTS: pts, Data: []byte{byte(pts), 0xFF}, Key: pts%3 == 0})
	}
	lib.AddInput(url, []ffi.StreamInfo{
		{MediaType: ffi.MediaTypeVideo, CodecID: ffitest.MarkerID, Width: 2, Height: 2, TimeBaseNum: 1, TimeBaseDen: 25},
	}, packets)
}

func TestInputSeek(t *testing.T) {
	lib, with := newFake(t)
	const url = "memory://gop"
	addGOP(lib, url)

	in, err := OpenInput(url, nil, with)
	require.NoError(t, err)
	defer in.Close()

	next := func() int64 {
		t.Helper()
		pkt, err := in.ReadPacket(nil)
		require.NoError(t, err)
		defer pkt.Close()
		return pkt.PTS()
	}
	require.Equal(t, int64(0), next())
	require.Equal(t, int64(1), next())

	// 100ms is pts 2.5; the key frame before it is 0
	require.NoError(t, in.Seek(100*time.Millisecond, nil))
	require.Equal(t, int64(0), next())
	require.NoError(t, in.Seek(150*time.Millisecond, nil))
	require.Equal(t, int64(3), next())

	require.NoError(t, in.SeekStream(0, 1, 0, nil))
	require.Equal(t, int64(3), next())
	require.NoError(t, in.SeekStream(0, 4, SeekAny, nil))
	require.Equal(t, int64(4), next())
	require.NoError(t, in.SeekStream(0, 5, SeekBackward, nil))
	require.Equal(t, int64(3), next())

	err = in.SeekStream(0, 6, 0, nil)
	require.ErrorIs(t, err, averror.LibraryReported)
	require.Equal(t, int32(-1), ErrorCode(err))
	require.ErrorIs(t, in.SeekStream(0, 0, SeekByte, nil), averror.LibraryReported)

	var slot averror.Slot
	require.NoError(t, in.SeekStream(1, 0, 0, &slot))
	require.Equal(t, averror.OutOfRange, slot.Failure().Domain)

	// a failed seek leaves the position alone
	require.Equal(t, int64(4), next())

	require.NoError(t, in.Close())
	require.ErrorIs(t, in.Seek(0, nil), averror.NotOpen)
	require.ErrorIs(t, in.SeekStream(0, 0, 0, nil), averror.NotOpen)
}

func TestSeekThenFlushDecoder(t *testing.T) {
	lib, with := newFake(t)
	const url = "memory://gop"
	addGOP(lib, url)

	in, err := OpenInput(url, nil, with)
	require.NoError(t, err)
	defer in.Close()
	dec, err := NewDecoderContextFromStream(in.Streams()[0], with)
	require.NoError(t, err)
	defer dec.Close()
	require.NoError(t, dec.Open(nil, nil))

	decodeNext := func() *DecodeResult {
		t.Helper()
		pkt, err := in.ReadPacket(nil)
		require.NoError(t, err)
		defer pkt.Close()
		res, err := dec.Decode(pkt, 0, nil)
		require.NoError(t, err)
		return res
	}
	res := decodeNext()
	require.True(t, res.FrameFinished)
	require.NoError(t, res.Frame.Close())

	require.NoError(t, in.SeekStream(0, 3, SeekBackward, nil))
	require.NoError(t, dec.FlushBuffers(nil))
	res = decodeNext()
	require.True(t, res.FrameFinished)
	require.Equal(t, int64(3), res.Frame.PTS())
	require.NoError(t, res.Frame.Close())
}
