// Package ffi is the boundary between ffwrap and the FFmpeg C libraries.
//
// Library mirrors the C entry points ffwrap needs, using raw int32 return
// codes the way the C API does. The purego implementation in this package
// calls the real shared libraries; ffitest provides an in-memory one.
package ffi

import (
	"math"
	"unsafe"
)

// Ptr is a raw handle returned by the library.
type Ptr = unsafe.Pointer

// NoPTS is AV_NOPTS_VALUE.
const NoPTS int64 = math.MinInt64

// Media types (AVMediaType).
const (
	MediaTypeUnknown  int32 = -1
	MediaTypeVideo    int32 = 0
	MediaTypeAudio    int32 = 1
	MediaTypeData     int32 = 2
	MediaTypeSubtitle int32 = 3
)

// av_seek_frame flags (AVSEEK_FLAG_*).
const (
	SeekBackward int32 = 1
	SeekByte     int32 = 2
	SeekAny      int32 = 4
	SeekFrame    int32 = 8
)

// FormatList selects one of the sentinel-terminated lists an AVCodec exposes.
type FormatList int

const (
	PixelFormats  FormatList = iota // terminated by -1
	SampleFormats                   // terminated by -1
	SampleRates                     // terminated by 0
)

// Sentinel returns the terminator of the list.
func (l FormatList) Sentinel() int32 {
	if l == SampleRates {
		return 0
	}
	return -1
}

// CodecInfo describes an AVCodec.
type CodecInfo struct {
	ID        int32
	Name      string
	LongName  string
	MediaType int32
	Encoder   bool
}

// CodecSettings are the AVCodecContext fields ffwrap reads and writes.
type CodecSettings struct {
	MediaType    int32
	Width        int32
	Height       int32
	PixelFormat  int32
	SampleRate   int32
	Channels     int32
	SampleFormat int32
	TimeBaseNum  int32
	TimeBaseDen  int32
	BitRate      int64
	ThreadCount  int32
	FrameSize    int32
}

// FrameInfo holds the AVFrame fields ffwrap uses.
type FrameInfo struct {
	Width      int32
	Height     int32
	Format     int32
	NbSamples  int32
	SampleRate int32
	Channels   int32
	PTS        int64
	KeyFrame   bool
}

// PacketInfo holds the AVPacket fields ffwrap uses.
type PacketInfo struct {
	PTS         int64
	DTS         int64
	Duration    int64
	StreamIndex int32
	Flags       int32
}

// AudioFormat describes one side of an audio conversion. Mask is a legacy
// AV_CH_* channel mask; zero selects the default layout for Channels.
type AudioFormat struct {
	SampleRate   int32
	Channels     int32
	SampleFormat int32
	Mask         int64
}

// VideoFormat describes one side of a video conversion.
type VideoFormat struct {
	Width       int32
	Height      int32
	PixelFormat int32
}

// StreamInfo describes an AVStream of an opened input.
type StreamInfo struct {
	Index       int32
	MediaType   int32
	CodecID     int32
	Width       int32
	Height      int32
	Format      int32
	SampleRate  int32
	TimeBaseNum int32
	TimeBaseDen int32
	Params      Ptr // AVCodecParameters, owned by the format context
}

// LogFunc receives one formatted av_log line.
type LogFunc func(level int32, msg string)

// Library is the set of C entry points ffwrap calls. Negative int32 results
// are AVERROR codes.
type Library interface {
	Load() error
	Version() string
	Strerror(code int32) string

	FrameAlloc() Ptr
	FrameFree(f *Ptr)
	FrameRef(dst, src Ptr) int32
	FrameUnref(f Ptr)
	FrameGetBuffer(f Ptr, info FrameInfo) int32
	FrameIsWritable(f Ptr) bool
	FrameMakeWritable(f Ptr) int32
	FrameInfo(f Ptr) FrameInfo
	FrameSetPTS(f Ptr, pts int64)
	FramePlane(f Ptr, plane int) []byte

	PacketAlloc() Ptr
	PacketFree(p *Ptr)
	PacketRef(dst, src Ptr) int32
	PacketUnref(p Ptr)
	PacketFromData(p Ptr, data []byte) int32
	PacketData(p Ptr) []byte
	PacketIsWritable(p Ptr) bool
	PacketMakeWritable(p Ptr) int32
	PacketInfo(p Ptr) PacketInfo
	PacketSetInfo(p Ptr, info PacketInfo)
	PacketShrinkFront(p Ptr, n int)

	DictSet(d *Ptr, key, value string) int32
	DictNext(d, prev Ptr) Ptr
	DictEntry(e Ptr) (key, value string)
	DictFree(d *Ptr)

	FindCodec(id int32, encoder bool) Ptr
	FindCodecByName(name string, encoder bool) Ptr
	CodecInfo(c Ptr) CodecInfo
	CodecFormats(c Ptr, list FormatList) Ptr

	CodecContextAlloc(c Ptr) Ptr
	CodecContextFree(ctx *Ptr)
	CodecContextConfigure(ctx Ptr, s CodecSettings) int32
	CodecContextSettings(ctx Ptr) CodecSettings
	CodecParametersToContext(ctx, par Ptr) int32
	CodecOpen(ctx, c Ptr, opts *Ptr) int32
	CodecSendPacket(ctx, pkt Ptr) int32
	CodecReceiveFrame(ctx, f Ptr) int32
	CodecSendFrame(ctx, f Ptr) int32
	CodecReceivePacket(ctx, pkt Ptr) int32
	CodecFlushBuffers(ctx Ptr)

	SwrAlloc(dst, src AudioFormat) (Ptr, int32)
	SwrInit(s Ptr) int32
	SwrFree(s *Ptr)
	SwrConvertFrame(s, out, in Ptr) int32
	SwrDelay(s Ptr, base int64) int64

	SwsGetContext(src, dst VideoFormat, flags int32) Ptr
	SwsScaleFrame(s, dst, src Ptr) int32
	SwsFree(s Ptr)

	FormatOpenInput(url string, opts *Ptr) (Ptr, int32)
	FormatFindStreamInfo(ctx Ptr) int32
	FormatCloseInput(ctx *Ptr)
	FormatStreams(ctx Ptr) []StreamInfo
	FormatReadFrame(ctx, pkt Ptr) int32
	FormatSeek(ctx Ptr, stream int32, ts int64, flags int32) int32

	// FormatOpenOutput allocates a muxer for url and opens the file when the
	// muxer needs one. FormatStreams also works on an output context.
	FormatOpenOutput(url, format string) (Ptr, int32)
	FormatCloseOutput(ctx *Ptr)
	// FormatNewStream adds a stream whose parameters come from an opened
	// encoder context, or are copied from par when codecCtx is nil. It
	// returns the stream index.
	FormatNewStream(ctx, codecCtx, par Ptr, timeBaseNum, timeBaseDen int32) int32
	FormatWriteHeader(ctx Ptr, opts *Ptr) int32
	FormatWritePacket(ctx, pkt Ptr) int32
	FormatWriteTrailer(ctx Ptr) int32

	FilterGraphAlloc() Ptr
	FilterGraphFree(g *Ptr)
	FilterGraphParse(g Ptr, desc string) (inputs, outputs Ptr, code int32)
	FilterGraphConfig(g Ptr) int32
	FilterInOutNext(io Ptr) Ptr
	FilterInOutTarget(io Ptr) (name string, ctx Ptr, pad int32)
	FilterInOutFree(io *Ptr)
	FilterCreate(g Ptr, filter, name, args string) (Ptr, int32)
	FilterLink(src Ptr, srcPad int32, dst Ptr, dstPad int32) int32
	BufferSrcAddFrame(ctx, f Ptr) int32
	BufferSinkGetFrame(ctx, f Ptr) int32

	SetLogCallback(fn LogFunc) error
	SetLogLevel(level int32)

	Unload() error
}
