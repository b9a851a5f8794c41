//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// Stream is a stream of an opened Input. It is valid until the Input is
// closed.
type Stream struct {
	lib  ffi.Library
	info ffi.StreamInfo
}

// Index returns the position of the stream in its Input.
func (s *Stream) Index() int { return int(s.info.Index) }

// MediaType returns the kind of media the stream carries.
func (s *Stream) MediaType() MediaType { return MediaType(s.info.MediaType) }

// CodecID returns the codec of the stream's packets.
func (s *Stream) CodecID() CodecID { return CodecID(s.info.CodecID) }

// TimeBase returns the unit of the stream's packet timestamps.
func (s *Stream) TimeBase() Rational { return Rational{Num: s.info.TimeBaseNum, Den: s.info.TimeBaseDen} }

// VideoParams returns the picture parameters of a video stream.
func (s *Stream) VideoParams() VideoParams {
	return VideoParams{Width: int(s.info.Width), Height: int(s.info.Height), PixelFormat: PixelFormat(s.info.Format)}
}

// AudioParams returns the sample parameters of an audio stream. Channels
// are not part of the stream descriptor; open a decoder to learn them.
func (s *Stream) AudioParams() AudioParams {
	return AudioParams{SampleRate: int(s.info.SampleRate), SampleFormat: SampleFormat(s.info.Format)}
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream(#%d %s codec=%d)", s.info.Index, s.MediaType(), s.info.CodecID)
}

// Input is an opened media source.
type Input struct {
	lib     ffi.Library
	log     logger.Logger
	h       *handle.Owned[ffi.Ptr]
	url     string
	streams []*Stream
}

// OpenInput opens url and reads its stream information. Options the
// demuxer does not recognize fail the call. Reads block; there is no
// timeout.
func OpenInput(url string, opts *Dictionary, options ...Option) (*Input, error) {
	o := collect(options)
	lib, err := o.library()
	if err != nil {
		return nil, err
	}
	dict, err := opts.toC(lib)
	if err != nil {
		return nil, err
	}
	defer lib.DictFree(&dict)

	p, code := lib.FormatOpenInput(url, &dict)
	if code < 0 {
		return nil, codeErr(lib, code, "avformat_open_input")
	}
	in := &Input{
		lib: lib,
		log: o.logger().WithField("url", url),
		h:   handle.Acquire(p, handle.Func(lib.FormatCloseInput)),
		url: url,
	}
	if dict != nil {
		rejected := fromC(lib, dict).Keys()
		_ = in.Close()
		return nil, averror.FromCode(averror.CodeOptionNotFound, "avformat_open_input",
			"option not found: "+strings.Join(rejected, ", "))
	}
	if code := lib.FormatFindStreamInfo(p); code < 0 {
		_ = in.Close()
		return nil, codeErr(lib, code, "avformat_find_stream_info")
	}
	for _, info := range lib.FormatStreams(p) {
		in.streams = append(in.streams, &Stream{lib: lib, info: info})
	}
	in.log.Debugf("opened with %d stream(s)", len(in.streams))
	return in, nil
}

// URL returns the URL the input was opened with.
func (in *Input) URL() string { return in.url }

// Streams returns the streams of the input.
func (in *Input) Streams() []*Stream { return in.streams }

// Stream returns stream i.
func (in *Input) Stream(i int, slot *averror.Slot) (*Stream, error) {
	if i < 0 || i >= len(in.streams) {
		return averror.Fail[*Stream](averror.New(averror.OutOfRange, "input.stream",
			"stream %d out of range for %d streams", i, len(in.streams))).Deliver(slot)
	}
	return averror.Ok(in.streams[i]).Deliver(slot)
}

// BestStream returns the first stream of type t, or nil.
func (in *Input) BestStream(t MediaType) *Stream {
	for _, s := range in.streams {
		if s.MediaType() == t {
			return s
		}
	}
	return nil
}

// ReadPacket reads the next packet. At the end of input it fails with
// AVERROR_EOF; test with IsEOF.
func (in *Input) ReadPacket(slot *averror.Slot) (*Packet, error) {
	return averror.Of(in.readPacket()).Deliver(slot)
}

func (in *Input) readPacket() (*Packet, error) {
	if !in.h.Valid() {
		return nil, averror.New(averror.NotOpen, "av_read_frame", "input is closed")
	}
	p, err := allocPacket(in.lib)
	if err != nil {
		return nil, err
	}
	if code := in.lib.FormatReadFrame(in.h.Raw(), p.raw()); code < 0 {
		_ = p.Close()
		return nil, codeErr(in.lib, code, "av_read_frame")
	}
	return p, nil
}

// SeekFlag changes how SeekStream picks its target.
type SeekFlag int32

const (
	// SeekBackward picks the last seek point at or before the target
	// instead of the first one at or after it.
	SeekBackward SeekFlag = SeekFlag(ffi.SeekBackward)
	// SeekByte treats the target as a byte offset.
	SeekByte SeekFlag = SeekFlag(ffi.SeekByte)
	// SeekAny allows seeking to packets that are not key frames.
	SeekAny SeekFlag = SeekFlag(ffi.SeekAny)
	// SeekFrame treats the target as a frame number.
	SeekFrame SeekFlag = SeekFlag(ffi.SeekFrame)
)

// Seek moves the input to the last key frame at or before ts. Decoders
// fed from the input keep their buffered data until FlushBuffers.
func (in *Input) Seek(ts time.Duration, slot *averror.Slot) error {
	return averror.Check(slot, in.seek(-1, ts.Microseconds(), SeekBackward))
}

// SeekStream moves the input to ts, in the time base of stream index.
func (in *Input) SeekStream(index int, ts int64, flags SeekFlag, slot *averror.Slot) error {
	if index < 0 || index >= len(in.streams) {
		return averror.Check(slot, averror.New(averror.OutOfRange, "av_seek_frame",
			"stream %d out of range for %d streams", index, len(in.streams)))
	}
	return averror.Check(slot, in.seek(int32(index), ts, flags))
}

func (in *Input) seek(stream int32, ts int64, flags SeekFlag) error {
	if !in.h.Valid() {
		return averror.New(averror.NotOpen, "av_seek_frame", "input is closed")
	}
	if code := in.lib.FormatSeek(in.h.Raw(), stream, ts, int32(flags)); code < 0 {
		return codeErr(in.lib, code, "av_seek_frame")
	}
	in.log.Debugf("seeked stream %d to %d", stream, ts)
	return nil
}

// Close closes the input. Streams obtained from it must not be used
// afterwards. It is safe to call more than once.
func (in *Input) Close() error {
	if in == nil {
		return nil
	}
	return in.h.Close()
}
