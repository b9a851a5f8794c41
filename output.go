//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// OutputStream is a stream of an Output. It is valid until the Output is
// closed.
type OutputStream struct {
	info     ffi.StreamInfo
	timeBase Rational
}

// Index returns the position of the stream in its Output.
func (s *OutputStream) Index() int { return int(s.info.Index) }

// MediaType returns the kind of media the stream carries.
func (s *OutputStream) MediaType() MediaType { return MediaType(s.info.MediaType) }

// CodecID returns the codec of the stream's packets.
func (s *OutputStream) CodecID() CodecID { return CodecID(s.info.CodecID) }

// TimeBase returns the time base the muxer stores timestamps in. The muxer
// may replace the requested one when the header is written.
func (s *OutputStream) TimeBase() Rational {
	return Rational{Num: s.info.TimeBaseNum, Den: s.info.TimeBaseDen}
}

// PacketTimeBase returns the time base of the packets passed to
// WritePacket: the encoder's for AddStream, the input stream's for
// AddStreamFrom.
func (s *OutputStream) PacketTimeBase() Rational { return s.timeBase }

func (s *OutputStream) String() string {
	return fmt.Sprintf("OutputStream(#%d %s codec=%d)", s.info.Index, s.MediaType(), s.info.CodecID)
}

// Output is a media sink. Streams are added first, then the header is
// written, then packets, then the trailer.
type Output struct {
	lib     ffi.Library
	log     logger.Logger
	h       *handle.Owned[ffi.Ptr]
	url     string
	streams []*OutputStream
	header  bool
	trailer bool
	written int
}

// OpenOutput creates a muxer for url. An empty format guesses the
// container from the URL.
func OpenOutput(url, format string, opts ...Option) (*Output, error) {
	o := collect(opts)
	lib, err := o.library()
	if err != nil {
		return nil, err
	}
	p, code := lib.FormatOpenOutput(url, format)
	if code < 0 {
		return nil, codeErr(lib, code, "avformat_alloc_output_context2")
	}
	out := &Output{
		lib: lib,
		log: o.logger().WithField("url", url),
		h:   handle.Acquire(p, handle.Func(lib.FormatCloseOutput)),
		url: url,
	}
	out.log.Debugf("opened output (format %q)", format)
	return out, nil
}

// URL returns the URL the output was opened with.
func (out *Output) URL() string { return out.url }

// Streams returns the streams added so far.
func (out *Output) Streams() []*OutputStream { return out.streams }

func (out *Output) usable(op string) error {
	if !out.h.Valid() {
		return averror.New(averror.NotOpen, op, "output is closed")
	}
	if out.header {
		return averror.New(averror.InvalidArgument, op, "header already written")
	}
	return nil
}

// AddStream adds a stream carrying the packets of an open encoder. The
// encoder's parameters are copied, so it may be closed later.
func (out *Output) AddStream(enc *CodecContext, slot *averror.Slot) (*OutputStream, error) {
	return averror.Of(out.addStream(enc)).Deliver(slot)
}

func (out *Output) addStream(enc *CodecContext) (*OutputStream, error) {
	const op = "avformat_new_stream"
	if err := out.usable(op); err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, averror.New(averror.InvalidArgument, op, "encoder is nil")
	}
	if err := enc.check(op, Encoding); err != nil {
		return nil, err
	}
	tb := enc.TimeBase()
	if !tb.Valid() {
		return nil, averror.New(averror.InvalidArgument, op, "encoder time base %s is not valid", tb)
	}
	return out.newStream(enc.raw(), nil, tb)
}

// AddStreamFrom adds a stream copying the codec parameters of an input
// stream, for remuxing without decoding. The input must stay open until
// the call returns.
func (out *Output) AddStreamFrom(s *Stream, slot *averror.Slot) (*OutputStream, error) {
	return averror.Of(out.addStreamFrom(s)).Deliver(slot)
}

func (out *Output) addStreamFrom(s *Stream) (*OutputStream, error) {
	const op = "avformat_new_stream"
	if err := out.usable(op); err != nil {
		return nil, err
	}
	if s == nil || s.info.Params == nil {
		return nil, averror.New(averror.InvalidArgument, op, "stream has no codec parameters")
	}
	tb := s.TimeBase()
	if !tb.Valid() {
		return nil, averror.New(averror.InvalidArgument, op, "stream time base %s is not valid", tb)
	}
	return out.newStream(nil, s.info.Params, tb)
}

func (out *Output) newStream(enc, par ffi.Ptr, tb Rational) (*OutputStream, error) {
	idx := out.lib.FormatNewStream(out.h.Raw(), enc, par, tb.Num, tb.Den)
	if idx < 0 {
		return nil, codeErr(out.lib, idx, "avformat_new_stream")
	}
	st := &OutputStream{timeBase: tb}
	out.streams = append(out.streams, st)
	out.refresh()
	out.log.Debugf("added %s", st)
	return st, nil
}

// refresh reloads the stream descriptors from the muxer.
func (out *Output) refresh() {
	infos := out.lib.FormatStreams(out.h.Raw())
	for i, st := range out.streams {
		if i < len(infos) {
			st.info = infos[i]
		}
	}
}

// WriteHeader writes the container header; no streams can be added
// afterwards. Options the muxer does not recognize fail the call, but the
// header has been written by then.
func (out *Output) WriteHeader(opts *Dictionary, slot *averror.Slot) error {
	return averror.Check(slot, out.writeHeader(opts))
}

func (out *Output) writeHeader(opts *Dictionary) error {
	const op = "avformat_write_header"
	if err := out.usable(op); err != nil {
		return err
	}
	if len(out.streams) == 0 {
		return averror.New(averror.InvalidArgument, op, "no streams added")
	}
	dict, err := opts.toC(out.lib)
	if err != nil {
		return err
	}
	defer out.lib.DictFree(&dict)

	if code := out.lib.FormatWriteHeader(out.h.Raw(), &dict); code < 0 {
		return codeErr(out.lib, code, op)
	}
	out.header = true
	out.refresh()
	for _, st := range out.streams {
		if st.TimeBase() != st.timeBase {
			out.log.Debugf("stream #%d: muxer time base %s, packets rescaled from %s",
				st.Index(), st.TimeBase(), st.timeBase)
		}
	}
	if dict != nil {
		rejected := fromC(out.lib, dict).Keys()
		return averror.FromCode(averror.CodeOptionNotFound, op,
			"option not found: "+strings.Join(rejected, ", "))
	}
	return nil
}

// WritePacket writes pkt to the output stream named by its stream index.
// Timestamps are rescaled from the stream's PacketTimeBase to its
// TimeBase. pkt itself is left unchanged.
func (out *Output) WritePacket(pkt *Packet, slot *averror.Slot) error {
	return averror.Check(slot, out.writePacket(pkt))
}

func (out *Output) writePacket(pkt *Packet) error {
	const op = "av_interleaved_write_frame"
	switch {
	case !out.h.Valid():
		return averror.New(averror.NotOpen, op, "output is closed")
	case !out.header:
		return averror.New(averror.InvalidArgument, op, "header not written")
	case out.trailer:
		return averror.New(averror.InvalidArgument, op, "trailer already written")
	case pkt.raw() == nil:
		return averror.New(averror.InvalidArgument, op, "packet is closed")
	}
	idx := pkt.StreamIndex()
	if idx < 0 || idx >= len(out.streams) {
		return averror.New(averror.OutOfRange, op, "stream %d out of range for %d streams", idx, len(out.streams))
	}
	st := out.streams[idx]

	c, err := pkt.Clone()
	if err != nil {
		return err
	}
	defer c.Close()
	if st.timeBase != st.TimeBase() {
		c.RescaleTS(st.timeBase, st.TimeBase())
	}
	if err := codeErr(out.lib, out.lib.FormatWritePacket(out.h.Raw(), c.raw()), op); err != nil {
		return err
	}
	out.written++
	return nil
}

// WriteTrailer flushes the muxer and finishes the container. Close is
// still required.
func (out *Output) WriteTrailer(slot *averror.Slot) error {
	return averror.Check(slot, out.writeTrailer())
}

func (out *Output) writeTrailer() error {
	const op = "av_write_trailer"
	switch {
	case !out.h.Valid():
		return averror.New(averror.NotOpen, op, "output is closed")
	case !out.header:
		return averror.New(averror.InvalidArgument, op, "header not written")
	case out.trailer:
		return averror.New(averror.InvalidArgument, op, "trailer already written")
	}
	if err := codeErr(out.lib, out.lib.FormatWriteTrailer(out.h.Raw()), op); err != nil {
		return err
	}
	out.trailer = true
	out.log.Debugf("finished after %d packet(s)", out.written)
	return nil
}

// Close frees the output. A container whose trailer was not written is
// left incomplete. It is safe to call more than once.
func (out *Output) Close() error {
	if out == nil {
		return nil
	}
	return out.h.Close()
}

func (out *Output) String() string {
	return fmt.Sprintf("Output(%s streams=%d)", out.url, len(out.streams))
}
