//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi/ffitest"
)

func newEncoder(t *testing.T, with Option) *CodecContext {
	t.Helper()
	codec, err := FindEncoderByName("markerenc", with)
	require.NoError(t, err)
	ctx, err := NewCodecContext(codec, Encoding, with)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	require.NoError(t, ctx.SetVideo(2, 2, PixelFormatYUV420P, Rational{1, 25}, nil))
	require.NoError(t, ctx.Open(nil, nil))
	return ctx
}

func TestOutputEncodeAndMux(t *testing.T) {
	lib, with := newFake(t)
	const url = "memory://encoded.mkv"
	enc := newEncoder(t, with)

	out, err := OpenOutput(url, "matroska", with)
	require.NoError(t, err)
	defer out.Close()
	st, err := out.AddStream(enc, nil)
	require.NoError(t, err)
	require.Zero(t, st.Index())
	require.Equal(t, MediaTypeVideo, st.MediaType())
	require.Equal(t, CodecID(ffitest.MarkerID), st.CodecID())
	require.Equal(t, Rational{1, 25}, st.TimeBase())

	require.NoError(t, out.WriteHeader(nil, nil))
	require.Equal(t, Rational{1, 1000}, st.TimeBase())
	require.Equal(t, Rational{1, 25}, st.PacketTimeBase())

	frame := videoFrame(t, with, VideoParams{Width: 2, Height: 2}, 0)
	write := func(pkts []*Packet) {
		for _, p := range pkts {
			pts := p.PTS()
			require.NoError(t, out.WritePacket(p, nil))
			require.Equal(t, pts, p.PTS())
			require.NoError(t, p.Close())
		}
	}
	for pts := range int64(3) {
		frame.SetPTS(pts)
		pkts, err := enc.Encode(frame, nil)
		require.NoError(t, err)
		write(pkts)
	}
	pkts, err := enc.Encode(nil, nil)
	require.NoError(t, err)
	write(pkts)
	require.NoError(t, out.WriteTrailer(nil))

	var pts []int64
	for _, p := range lib.Written(url) {
		pts = append(pts, p.PTS)
		require.True(t, p.Key)
	}
	require.Equal(t, []int64{0, 40, 80}, pts)

	in, err := OpenInput(url, nil, with)
	require.NoError(t, err)
	defer in.Close()
	require.Len(t, in.Streams(), 1)
	require.Equal(t, Rational{1, 1000}, in.Streams()[0].TimeBase())
	pkt, err := in.ReadPacket(nil)
	require.NoError(t, err)
	require.True(t, pkt.IsKeyFrame())
	require.NoError(t, pkt.Close())
}

func TestOutputRemux(t *testing.T) {
	lib, with := newFake(t)
	addClip(lib)
	const url = "memory://copy.nut"

	in, err := OpenInput(clipURL, nil, with)
	require.NoError(t, err)
	defer in.Close()
	out, err := OpenOutput(url, "nut", with)
	require.NoError(t, err)
	defer out.Close()
	for _, s := range in.Streams() {
		st, err := out.AddStreamFrom(s, nil)
		require.NoError(t, err)
		require.Equal(t, s.Index(), st.Index())
		require.Equal(t, s.TimeBase(), st.TimeBase())
	}
	require.NoError(t, out.WriteHeader(DictionaryFromMap(map[string]string{"fflags": "bitexact"}), nil))

	for {
		pkt, err := in.ReadPacket(nil)
		if IsEOF(err) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, out.WritePacket(pkt, nil))
		require.NoError(t, pkt.Close())
	}
	require.NoError(t, out.WriteTrailer(nil))
	require.Equal(t, []ffitest.InputPacket{
		{StreamIndex: 0, PTS: 0, Data: []byte{0x01, 0xFF}},
		{StreamIndex: 1, PTS: 0, Data: []byte{0x00, 0x00}},
		{StreamIndex: 0, PTS: 1, Data: []byte{0x02, 0xFF}},
	}, lib.Written(url))

	copied, err := OpenInput(url, nil, with)
	require.NoError(t, err)
	defer copied.Close()
	require.Len(t, copied.Streams(), 2)
	require.Equal(t, CodecID(ffitest.ToneID), copied.Streams()[1].CodecID())
	require.Equal(t, Rational{1, 48000}, copied.Streams()[1].TimeBase())
}

func TestOutputErrors(t *testing.T) {
	_, with := newFake(t)
	const url = "memory://errors.nut"

	_, err := OpenOutput(url, "avi", with)
	require.ErrorIs(t, err, averror.LibraryReported)
	require.Equal(t, AVERROR_EINVAL, ErrorCode(err))

	out, err := OpenOutput(url, "nut", with)
	require.NoError(t, err)
	require.Equal(t, url, out.URL())

	require.ErrorIs(t, out.WriteHeader(nil, nil), averror.InvalidArgument)
	pkt := packetOf(t, with, 0, 0xFF, 0x00)
	require.ErrorIs(t, out.WritePacket(pkt, nil), averror.InvalidArgument)
	require.ErrorIs(t, out.WriteTrailer(nil), averror.InvalidArgument)

	var slot averror.Slot
	st, err := out.AddStream(nil, &slot)
	require.NoError(t, err)
	require.Nil(t, st)
	require.Equal(t, averror.InvalidArgument, slot.Failure().Domain)
	_, err = out.AddStream(newDecoder(t, with), nil)
	require.ErrorIs(t, err, averror.InvalidArgument)
	codec, err := FindEncoderByName("markerenc", with)
	require.NoError(t, err)
	closed, err := NewCodecContext(codec, Encoding, with)
	require.NoError(t, err)
	defer closed.Close()
	_, err = out.AddStream(closed, nil)
	require.ErrorIs(t, err, averror.NotOpen)
	_, err = out.AddStreamFrom(nil, nil)
	require.ErrorIs(t, err, averror.InvalidArgument)
	require.Empty(t, out.Streams())

	_, err = out.AddStream(newEncoder(t, with), nil)
	require.NoError(t, err)
	err = out.WriteHeader(DictionaryFromMap(map[string]string{"movflags": "faststart", "bogus": "1"}), nil)
	require.Equal(t, AVERROR_OPTION_NOT_FOUND, ErrorCode(err))
	require.Contains(t, err.Error(), "bogus")
	_, err = out.AddStream(newEncoder(t, with), nil)
	require.ErrorIs(t, err, averror.InvalidArgument)
	require.ErrorIs(t, out.WriteHeader(nil, nil), averror.InvalidArgument)

	gone := packetOf(t, with, 0, 0xFF)
	require.NoError(t, gone.Close())
	require.ErrorIs(t, out.WritePacket(gone, nil), averror.InvalidArgument)
	pkt.SetStreamIndex(3)
	require.ErrorIs(t, out.WritePacket(pkt, nil), averror.OutOfRange)

	require.NoError(t, out.WriteTrailer(nil))
	require.ErrorIs(t, out.WriteTrailer(nil), averror.InvalidArgument)
	pkt.SetStreamIndex(0)
	require.ErrorIs(t, out.WritePacket(pkt, nil), averror.InvalidArgument)

	require.NoError(t, out.Close())
	require.NoError(t, out.Close())
	require.ErrorIs(t, out.WritePacket(pkt, nil), averror.NotOpen)
	require.ErrorIs(t, out.WriteTrailer(nil), averror.NotOpen)
	_, err = out.AddStream(newEncoder(t, with), nil)
	require.ErrorIs(t, err, averror.NotOpen)
}

func TestOutputWriteFailureKeepsOutputUsable(t *testing.T) {
	lib, with := newFake(t)
	const url = "memory://retry.nut"

	out, err := OpenOutput(url, "nut", with)
	require.NoError(t, err)
	defer out.Close()
	_, err = out.AddStream(newEncoder(t, with), nil)
	require.NoError(t, err)
	require.NoError(t, out.WriteHeader(nil, nil))

	pkt := packetOf(t, with, 5, 0xFF, 0x05)
	lib.FailNext("av_interleaved_write_frame", AVERROR_ENOMEM)
	var slot averror.Slot
	require.NoError(t, out.WritePacket(pkt, &slot))
	require.Equal(t, AVERROR_ENOMEM, slot.Failure().Code)
	require.Empty(t, lib.Written(url))

	require.NoError(t, out.WritePacket(pkt, nil))
	require.Len(t, lib.Written(url), 1)
	require.Equal(t, int64(5), lib.Written(url)[0].PTS)
	require.Equal(t, []byte{0xFF, 0x05}, pkt.Data())
}
