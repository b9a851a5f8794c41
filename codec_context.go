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

// Direction is fixed when a CodecContext is created.
type Direction int

const (
	Decoding Direction = iota
	Encoding
)

func (d Direction) String() string {
	if d == Encoding {
		return "encoding"
	}
	return "decoding"
}

// DecodeResult is the outcome of one Decode call.
type DecodeResult struct {
	// Frame is the decoded frame, or nil when the decoder has nothing to
	// return yet. The caller owns it.
	Frame *Frame
	// DecodedBytes is how much of the packet, counted from the offset, the
	// decoder took. Zero means the remainder must be passed again.
	DecodedBytes int
	// FrameFinished reports whether Frame is set.
	FrameFinished bool
}

// CodecContext is a decoding or encoding session.
//
// A context starts Closed. Open moves it to Open; Close moves it back and
// frees the underlying AVCodecContext. A later Open allocates a fresh one
// and re-applies the configuration.
type CodecContext struct {
	lib   ffi.Library
	log   logger.Logger
	codec *Codec
	dir   Direction

	h        *handle.Owned[ffi.Ptr]
	config   []ffi.CodecSettings
	params   ffi.Ptr // stream parameters, owned by the Input
	open     bool
	draining bool
}

// NewCodecContext creates a closed context for codec. Encoding requires an
// encoder and Decoding a decoder.
func NewCodecContext(codec *Codec, dir Direction, opts ...Option) (*CodecContext, error) {
	if codec == nil {
		return nil, averror.New(averror.InvalidArgument, "codec_context.new", "nil codec")
	}
	if codec.IsEncoder() != (dir == Encoding) {
		return nil, averror.New(averror.InvalidArgument, "codec_context.new", "codec %s cannot be used for %s", codec.Name(), dir)
	}
	o := collect(opts)
	c := &CodecContext{
		lib:   codec.lib,
		log:   o.logger().WithField("codec", codec.Name()).WithField("direction", dir.String()),
		codec: codec,
		dir:   dir,
	}
	if o.threads > 0 {
		s := unset()
		s.MediaType = int32(codec.MediaType())
		s.ThreadCount = int32(o.threads)
		c.config = append(c.config, s)
	}
	if err := c.alloc(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewDecoderContextFromStream creates a closed decoding context configured
// from the stream's codec parameters.
func NewDecoderContextFromStream(stream *Stream, opts ...Option) (*CodecContext, error) {
	if stream == nil {
		return nil, averror.New(averror.InvalidArgument, "codec_context.from_stream", "nil stream")
	}
	codec, err := findCodec(stream.lib, stream.lib.FindCodec(stream.info.CodecID, false), false,
		fmt.Sprintf("id %d (stream %d)", stream.info.CodecID, stream.info.Index))
	if err != nil {
		return nil, err
	}
	c, err := NewCodecContext(codec, Decoding, opts...)
	if err != nil {
		return nil, err
	}
	c.params = stream.info.Params
	if code := c.lib.CodecParametersToContext(c.raw(), c.params); code < 0 {
		_ = c.Close()
		return nil, codeErr(c.lib, code, "avcodec_parameters_to_context")
	}
	return c, nil
}

func (c *CodecContext) raw() ffi.Ptr {
	return c.h.Raw()
}

// alloc replaces the AVCodecContext with a fresh one carrying the recorded
// configuration.
func (c *CodecContext) alloc() error {
	p := c.lib.CodecContextAlloc(c.codec.raw)
	if p == nil {
		return averror.New(averror.OutOfMemory, "avcodec_alloc_context3", "failed to allocate codec context")
	}
	if c.h == nil {
		c.h = handle.Acquire(p, handle.Func(c.lib.CodecContextFree))
	} else {
		c.h.Reset(p)
	}
	c.open, c.draining = false, false
	if c.params != nil {
		if code := c.lib.CodecParametersToContext(p, c.params); code < 0 {
			return codeErr(c.lib, code, "avcodec_parameters_to_context")
		}
	}
	for _, s := range c.config {
		if code := c.lib.CodecContextConfigure(p, s); code < 0 {
			return codeErr(c.lib, code, "codec_context.configure")
		}
	}
	return nil
}

// unset returns settings that change nothing when applied.
func unset() ffi.CodecSettings {
	return ffi.CodecSettings{MediaType: ffi.MediaTypeUnknown, PixelFormat: -1, SampleFormat: -1}
}

func (c *CodecContext) configure(op string, s ffi.CodecSettings) error {
	if c.open {
		return averror.New(averror.AlreadyOpen, op, "cannot configure an open %s context", c.codec.Name())
	}
	s.MediaType = int32(c.codec.MediaType())
	c.config = append(c.config, s)
	if !c.h.Valid() {
		return nil
	}
	return codeErr(c.lib, c.lib.CodecContextConfigure(c.raw(), s), op)
}

// SetVideo sets the picture parameters of a closed context.
func (c *CodecContext) SetVideo(width, height int, format PixelFormat, timeBase Rational, slot *averror.Slot) error {
	var err error
	if width <= 0 || height <= 0 {
		err = averror.New(averror.InvalidArgument, "codec_context.set_video", "invalid size %dx%d", width, height)
	} else {
		s := unset()
		s.Width, s.Height = int32(width), int32(height)
		s.PixelFormat = int32(format)
		s.TimeBaseNum, s.TimeBaseDen = timeBase.Num, timeBase.Den
		err = c.configure("codec_context.set_video", s)
	}
	return averror.Check(slot, err)
}

// SetAudio sets the sample parameters of a closed context.
func (c *CodecContext) SetAudio(sampleRate, channels int, format SampleFormat, timeBase Rational, slot *averror.Slot) error {
	var err error
	if sampleRate <= 0 || channels <= 0 {
		err = averror.New(averror.InvalidArgument, "codec_context.set_audio", "invalid audio %d Hz %d channels", sampleRate, channels)
	} else {
		s := unset()
		s.SampleRate, s.Channels = int32(sampleRate), int32(channels)
		s.SampleFormat = int32(format)
		s.TimeBaseNum, s.TimeBaseDen = timeBase.Num, timeBase.Den
		err = c.configure("codec_context.set_audio", s)
	}
	return averror.Check(slot, err)
}

// SetBitRate sets the target bit rate of a closed context.
func (c *CodecContext) SetBitRate(bitsPerSecond int64, slot *averror.Slot) error {
	var err error
	if bitsPerSecond <= 0 {
		err = averror.New(averror.InvalidArgument, "codec_context.set_bit_rate", "invalid bit rate %d", bitsPerSecond)
	} else {
		s := unset()
		s.BitRate = bitsPerSecond
		err = c.configure("codec_context.set_bit_rate", s)
	}
	return averror.Check(slot, err)
}

// Open opens the context with optional codec options. Options the codec does
// not recognize fail the call with AVERROR_OPTION_NOT_FOUND naming them, and
// the context stays closed.
func (c *CodecContext) Open(opts *Dictionary, slot *averror.Slot) error {
	return averror.Check(slot, c.openContext(opts))
}

func (c *CodecContext) openContext(opts *Dictionary) error {
	if c.open {
		return averror.New(averror.AlreadyOpen, "avcodec_open2", "%s context is already open", c.codec.Name())
	}
	if !c.h.Valid() {
		if err := c.alloc(); err != nil {
			return err
		}
	}
	dict, err := opts.toC(c.lib)
	if err != nil {
		return err
	}
	defer c.lib.DictFree(&dict)

	c.log.Tracef("opening with %d option(s)", opts.Len())
	if code := c.lib.CodecOpen(c.raw(), c.codec.raw, &dict); code < 0 {
		// a failed avcodec_open2 leaves the context unusable
		if err := c.alloc(); err != nil {
			c.log.Errorf("unable to reallocate context after failed open: %v", err)
		}
		return codeErr(c.lib, code, "avcodec_open2")
	}
	if dict != nil {
		rejected := fromC(c.lib, dict).Keys()
		c.log.Warnf("rejected options: %s", strings.Join(rejected, ", "))
		if err := c.alloc(); err != nil {
			c.log.Errorf("unable to reallocate context after rejected options: %v", err)
		}
		return averror.FromCode(averror.CodeOptionNotFound, "avcodec_open2",
			fmt.Sprintf("option not found: %s", strings.Join(rejected, ", ")))
	}
	c.open = true
	c.log.Debugf("opened")
	return nil
}

// Close frees the underlying context. It is safe to call in any state and
// more than once.
func (c *CodecContext) Close() error {
	if c == nil {
		return nil
	}
	if c.open {
		c.log.Debugf("closed")
	}
	c.open, c.draining = false, false
	return c.h.Close()
}

// IsOpen reports whether the context has been opened and not closed.
func (c *CodecContext) IsOpen() bool { return c.open }

// Direction reports whether the context decodes or encodes.
func (c *CodecContext) Direction() Direction { return c.dir }

// Codec returns the codec the context was created for.
func (c *CodecContext) Codec() *Codec { return c.codec }

// MediaType returns the media type of the codec.
func (c *CodecContext) MediaType() MediaType { return c.codec.MediaType() }

func (c *CodecContext) settings() ffi.CodecSettings {
	if !c.h.Valid() {
		return unset()
	}
	return c.lib.CodecContextSettings(c.raw())
}

// VideoParams returns the picture parameters of the context.
func (c *CodecContext) VideoParams() VideoParams {
	s := c.settings()
	return VideoParams{Width: int(s.Width), Height: int(s.Height), PixelFormat: PixelFormat(s.PixelFormat)}
}

// AudioParams returns the sample parameters of the context.
func (c *CodecContext) AudioParams() AudioParams {
	s := c.settings()
	return AudioParams{SampleRate: int(s.SampleRate), Channels: int(s.Channels), SampleFormat: SampleFormat(s.SampleFormat)}
}

// TimeBase returns the codec time base.
func (c *CodecContext) TimeBase() Rational {
	s := c.settings()
	return Rational{Num: s.TimeBaseNum, Den: s.TimeBaseDen}
}

// BitRate returns the configured bit rate.
func (c *CodecContext) BitRate() int64 { return c.settings().BitRate }

// FrameSize returns the number of samples per channel an audio encoder
// expects in each frame; 0 means any size.
func (c *CodecContext) FrameSize() int { return int(c.settings().FrameSize) }

func (c *CodecContext) check(op string, want Direction) error {
	if !c.open {
		return averror.New(averror.NotOpen, op, "%s context is not open", c.codec.Name())
	}
	if c.dir != want {
		return averror.New(averror.InvalidArgument, op, "%s on a %s context", op, c.dir)
	}
	return nil
}

// Decode feeds pkt, starting at byte offset, to the decoder and returns at
// most one frame.
//
// Frames still queued from earlier input are returned first, with
// DecodedBytes 0, so the same data must be passed again. A nil or empty
// packet starts draining; each later call returns one buffered frame until
// the decoder is empty, after which the result has no frame and no error.
func (c *CodecContext) Decode(pkt *Packet, offset int, slot *averror.Slot) (*DecodeResult, error) {
	return averror.Of(c.decode(pkt, offset)).Deliver(slot)
}

func (c *CodecContext) decode(pkt *Packet, offset int) (*DecodeResult, error) {
	if err := c.check("decode", Decoding); err != nil {
		return nil, err
	}
	if pkt != nil && pkt.raw() == nil {
		return nil, averror.New(averror.InvalidArgument, "decode", "packet is closed")
	}
	size := pkt.Size()
	if offset < 0 || offset > size {
		return nil, averror.New(averror.InvalidArgument, "decode", "offset %d outside packet of %d bytes", offset, size)
	}

	f, err := c.receiveFrame()
	if err != nil || f != nil {
		return frameResult(f, 0), err
	}

	if size == 0 {
		if !c.draining {
			c.log.Tracef("draining")
			if code := c.lib.CodecSendPacket(c.raw(), nil); code < 0 && code != averror.CodeEOF {
				return nil, codeErr(c.lib, code, "avcodec_send_packet")
			}
			c.draining = true
		}
		f, err := c.receiveFrame()
		return frameResult(f, 0), err
	}
	if offset == size {
		return &DecodeResult{}, nil
	}

	send := pkt
	if offset > 0 {
		if send, err = pkt.Clone(); err != nil {
			return nil, err
		}
		defer send.Close()
		c.lib.PacketShrinkFront(send.raw(), offset)
	}
	consumed := size - offset
	switch code := c.lib.CodecSendPacket(c.raw(), send.raw()); {
	case code == averror.CodeAgain:
		consumed = 0
	case code < 0:
		return nil, codeErr(c.lib, code, "avcodec_send_packet")
	}

	f, err = c.receiveFrame()
	if err != nil {
		return nil, err
	}
	return frameResult(f, consumed), nil
}

func frameResult(f *Frame, consumed int) *DecodeResult {
	return &DecodeResult{Frame: f, DecodedBytes: consumed, FrameFinished: f != nil}
}

// receiveFrame returns the next decoded frame, or nil when the decoder needs
// input or is drained.
func (c *CodecContext) receiveFrame() (*Frame, error) {
	f, err := allocFrame(c.lib)
	if err != nil {
		return nil, err
	}
	switch code := c.lib.CodecReceiveFrame(c.raw(), f.raw()); {
	case code == averror.CodeAgain || code == averror.CodeEOF:
		_ = f.Close()
		return nil, nil
	case code < 0:
		_ = f.Close()
		return nil, codeErr(c.lib, code, "avcodec_receive_frame")
	}
	return f, nil
}

// Encode sends frame to the encoder and returns the packets that became
// ready. A nil frame starts draining; once drained Encode returns no
// packets and no error. The caller owns the returned packets.
func (c *CodecContext) Encode(frame *Frame, slot *averror.Slot) ([]*Packet, error) {
	return averror.Of(c.encode(frame)).Deliver(slot)
}

func (c *CodecContext) encode(frame *Frame) ([]*Packet, error) {
	if err := c.check("encode", Encoding); err != nil {
		return nil, err
	}
	if frame != nil && frame.raw() == nil {
		return nil, averror.New(averror.InvalidArgument, "encode", "frame is closed")
	}
	if frame == nil && c.draining {
		return nil, nil
	}

	var out []*Packet
	code := c.lib.CodecSendFrame(c.raw(), frame.raw())
	if code == averror.CodeAgain {
		// encoder full: collect what it has, then retry once
		if out, code = c.receivePackets(out); code >= 0 {
			code = c.lib.CodecSendFrame(c.raw(), frame.raw())
		}
	}
	if code < 0 && (frame != nil || code != averror.CodeEOF) {
		closePackets(out)
		return nil, codeErr(c.lib, code, "avcodec_send_frame")
	}
	if frame == nil {
		c.draining = true
		c.log.Tracef("draining")
	}
	out, code = c.receivePackets(out)
	if code < 0 {
		closePackets(out)
		return nil, codeErr(c.lib, code, "avcodec_receive_packet")
	}
	return out, nil
}

// receivePackets appends every ready packet to out. It returns a negative
// code only for real failures.
func (c *CodecContext) receivePackets(out []*Packet) ([]*Packet, int32) {
	for {
		p, err := allocPacket(c.lib)
		if err != nil {
			return out, averror.CodeNoMemory
		}
		code := c.lib.CodecReceivePacket(c.raw(), p.raw())
		if code < 0 {
			_ = p.Close()
			if code == averror.CodeAgain || code == averror.CodeEOF {
				return out, 0
			}
			return out, code
		}
		out = append(out, p)
	}
}

func closePackets(pkts []*Packet) {
	for _, p := range pkts {
		_ = p.Close()
	}
}

// FlushBuffers discards buffered data, e.g. after a seek, and lets the
// context accept input again after draining.
func (c *CodecContext) FlushBuffers(slot *averror.Slot) error {
	if !c.open {
		return averror.Check(slot, averror.New(averror.NotOpen, "avcodec_flush_buffers", "%s context is not open", c.codec.Name()))
	}
	c.lib.CodecFlushBuffers(c.raw())
	c.draining = false
	return averror.Check(slot, nil)
}

func (c *CodecContext) String() string {
	state := "closed"
	if c.open {
		state = "open"
	}
	return fmt.Sprintf("CodecContext(%s %s %s)", c.codec.Name(), c.dir, state)
}
