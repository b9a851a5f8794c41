//go:build !ios && !android && (amd64 || arm64)

// Package avformat binds the parts of libavformat ffwrap uses: opening and
// seeking an input, probing its streams and reading packets, and muxing
// packets into an output.
package avformat

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avcodec"
	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

// FormatContext is an opaque AVFormatContext pointer.
type FormatContext = unsafe.Pointer

// Stream is an opaque AVStream pointer.
type Stream = unsafe.Pointer

var (
	avformatVersion        func() uint32
	avformatOpenInput      func(ctx *unsafe.Pointer, url string, fmt, options unsafe.Pointer) int32
	avformatCloseInput     func(ctx *unsafe.Pointer)
	avformatFindStreamInfo func(ctx unsafe.Pointer, options unsafe.Pointer) int32
	avReadFrame            func(ctx, pkt unsafe.Pointer) int32
	avSeekFrame            func(ctx unsafe.Pointer, streamIndex int32, timestamp int64, flags int32) int32

	avformatAllocOutputCtx2 func(ctx *unsafe.Pointer, oformat unsafe.Pointer, formatName, filename *byte) int32
	avformatFreeContext     func(ctx unsafe.Pointer)
	avformatNewStream       func(ctx, codec unsafe.Pointer) unsafe.Pointer
	avformatWriteHeader     func(ctx unsafe.Pointer, options *unsafe.Pointer) int32
	avInterleavedWriteFrame func(ctx, pkt unsafe.Pointer) int32
	avWriteTrailer          func(ctx unsafe.Pointer) int32
	avioOpen                func(ctx *unsafe.Pointer, url string, flags int32) int32
	avioClosep              func(ctx *unsafe.Pointer) int32

	bindOnce sync.Once
	bindErr  error
)

// Bind registers the libavformat symbols.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.AVFormat) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.AVFormat
		bindings.Register(&avformatVersion, lib, "avformat_version")
		bindings.Register(&avformatOpenInput, lib, "avformat_open_input")
		bindings.Register(&avformatCloseInput, lib, "avformat_close_input")
		bindings.Register(&avformatFindStreamInfo, lib, "avformat_find_stream_info")
		bindings.Register(&avReadFrame, lib, "av_read_frame")
		bindings.Register(&avSeekFrame, lib, "av_seek_frame")

		bindings.Register(&avformatAllocOutputCtx2, lib, "avformat_alloc_output_context2")
		bindings.Register(&avformatFreeContext, lib, "avformat_free_context")
		bindings.Register(&avformatNewStream, lib, "avformat_new_stream")
		bindings.Register(&avformatWriteHeader, lib, "avformat_write_header")
		bindings.Register(&avInterleavedWriteFrame, lib, "av_interleaved_write_frame")
		bindings.Register(&avWriteTrailer, lib, "av_write_trailer")
		bindings.Register(&avioOpen, lib, "avio_open")
		bindings.Register(&avioClosep, lib, "avio_closep")
	})
	return bindErr
}

// Version returns the packed libavformat version, or 0 if not bound.
func Version() uint32 {
	if avformatVersion == nil {
		return 0
	}
	return avformatVersion()
}

// OpenInput opens url and reads its header. Options the demuxer consumed
// are removed from *options.
func OpenInput(url string, options *avutil.Dictionary) (FormatContext, int32) {
	if avformatOpenInput == nil {
		return nil, avutil.ENOSYS
	}
	var ctx unsafe.Pointer
	ret := avformatOpenInput(&ctx, url, nil, unsafe.Pointer(options))
	runtime.KeepAlive(url)
	if ret < 0 {
		return nil, ret
	}
	return ctx, 0
}

// CloseInput closes an input opened with OpenInput and nils the pointer.
func CloseInput(ctx *FormatContext) {
	if ctx == nil || *ctx == nil || avformatCloseInput == nil {
		return
	}
	avformatCloseInput(ctx)
	*ctx = nil
}

// FindStreamInfo probes packets to fill in the stream parameters.
func FindStreamInfo(ctx FormatContext) int32 {
	if avformatFindStreamInfo == nil {
		return avutil.ENOSYS
	}
	return avformatFindStreamInfo(ctx, nil)
}

// ReadFrame reads the next packet of any stream into pkt.
func ReadFrame(ctx FormatContext, pkt avcodec.Packet) int32 {
	if avReadFrame == nil {
		return avutil.ENOSYS
	}
	return avReadFrame(ctx, pkt)
}

// Seek flags for SeekFrame.
const (
	SeekFlagBackward = 1 // seek to the keyframe at or before the target
	SeekFlagByte     = 2 // timestamp is a byte position
	SeekFlagAny      = 4 // seek to any frame, not only keyframes
	SeekFlagFrame    = 8 // timestamp is a frame number
)

// SeekFrame seeks stream streamIndex to timestamp, in the stream's time
// base, or in AV_TIME_BASE units when streamIndex is -1.
func SeekFrame(ctx FormatContext, streamIndex int32, timestamp int64, flags int32) int32 {
	if avSeekFrame == nil {
		return avutil.ENOSYS
	}
	return avSeekFrame(ctx, streamIndex, timestamp, flags)
}

// AVFormatContext field offsets (FFmpeg 6.x / avformat 60.x).
const (
	offsetOutputFormat = 16
	offsetIOContext    = 32
	offsetNumStreams   = 44
	offsetStreams      = 48
)

// AVOutputFormat.flags and the AVFMT_NOFILE bit in it.
const (
	offsetOutputFormatFlags = 44
	formatNoFile            = 0x0001
)

// avioFlagWrite is AVIO_FLAG_WRITE.
const avioFlagWrite = 2

// cString returns a NUL-terminated copy of s, or nil for "".
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := append([]byte(s), 0)
	return &b[0]
}

// OpenOutput allocates an output context for url and, unless the muxer
// writes no file, opens url for writing. An empty format name makes
// FFmpeg guess the muxer from url.
func OpenOutput(url, format string) (FormatContext, int32) {
	if avformatAllocOutputCtx2 == nil || avioOpen == nil {
		return nil, avutil.ENOSYS
	}
	var ctx unsafe.Pointer
	name, file := cString(format), cString(url)
	ret := avformatAllocOutputCtx2(&ctx, nil, name, file)
	runtime.KeepAlive(name)
	runtime.KeepAlive(file)
	if ret < 0 {
		return nil, ret
	}
	if needsFile(ctx) {
		pb := (*unsafe.Pointer)(unsafe.Add(ctx, offsetIOContext))
		if ret := avioOpen(pb, url, avioFlagWrite); ret < 0 {
			avformatFreeContext(ctx)
			return nil, ret
		}
	}
	return ctx, 0
}

func needsFile(ctx FormatContext) bool {
	oformat := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetOutputFormat))
	if oformat == nil {
		return false
	}
	return *(*int32)(unsafe.Add(oformat, offsetOutputFormatFlags))&formatNoFile == 0
}

// CloseOutput closes the output file, frees the context and nils the
// pointer.
func CloseOutput(ctx *FormatContext) {
	if ctx == nil || *ctx == nil || avformatFreeContext == nil {
		return
	}
	if needsFile(*ctx) && avioClosep != nil {
		avioClosep((*unsafe.Pointer)(unsafe.Add(*ctx, offsetIOContext)))
	}
	avformatFreeContext(*ctx)
	*ctx = nil
}

// NewStream adds a stream to an output context and returns it.
func NewStream(ctx FormatContext) Stream {
	if avformatNewStream == nil {
		return nil
	}
	return avformatNewStream(ctx, nil)
}

// SetStreamTimeBase sets the time base the muxer should use for stream.
func SetStreamTimeBase(stream Stream, num, den int32) {
	if stream == nil {
		return
	}
	*(*int32)(unsafe.Add(stream, offsetStreamTimeBase)) = num
	*(*int32)(unsafe.Add(stream, offsetStreamTimeBase+4)) = den
}

// StreamCodecPar returns the codec parameters of stream.
func StreamCodecPar(stream Stream) avcodec.Parameters {
	if stream == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(stream, offsetStreamCodecPar))
}

// WriteHeader writes the container header. Options the muxer consumed are
// removed from *options.
func WriteHeader(ctx FormatContext, options *avutil.Dictionary) int32 {
	if avformatWriteHeader == nil {
		return avutil.ENOSYS
	}
	return avformatWriteHeader(ctx, options)
}

// InterleavedWriteFrame writes pkt, taking over its reference.
func InterleavedWriteFrame(ctx FormatContext, pkt avcodec.Packet) int32 {
	if avInterleavedWriteFrame == nil {
		return avutil.ENOSYS
	}
	return avInterleavedWriteFrame(ctx, pkt)
}

// WriteTrailer flushes interleaving queues and writes the trailer.
func WriteTrailer(ctx FormatContext) int32 {
	if avWriteTrailer == nil {
		return avutil.ENOSYS
	}
	return avWriteTrailer(ctx)
}

// NumStreams returns nb_streams.
func NumStreams(ctx FormatContext) int {
	if ctx == nil {
		return 0
	}
	return int(*(*uint32)(unsafe.Add(ctx, offsetNumStreams)))
}

// GetStream returns stream i, or nil when out of range.
func GetStream(ctx FormatContext, i int) Stream {
	if i < 0 || i >= NumStreams(ctx) {
		return nil
	}
	streams := *(*unsafe.Pointer)(unsafe.Add(ctx, offsetStreams))
	if streams == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(streams, uintptr(i)*unsafe.Sizeof(uintptr(0))))
}

// AVStream field offsets.
const (
	offsetStreamIndex    = 8
	offsetStreamCodecPar = 16
	offsetStreamTimeBase = 32
)

// AVCodecParameters field offsets.
const (
	offsetParType       = 0
	offsetParCodecID    = 4
	offsetParFormat     = 28
	offsetParWidth      = 56
	offsetParHeight     = 60
	offsetParSampleRate = 116
)

// StreamFields describes one AVStream and its codec parameters.
type StreamFields struct {
	Index       int32
	MediaType   int32
	CodecID     avcodec.CodecID
	Width       int32
	Height      int32
	Format      int32
	SampleRate  int32
	TimeBaseNum int32
	TimeBaseDen int32
	Params      avcodec.Parameters
}

// GetStreamFields reads stream and its codecpar.
func GetStreamFields(stream Stream) StreamFields {
	if stream == nil {
		return StreamFields{MediaType: -1, Format: -1}
	}
	par := *(*unsafe.Pointer)(unsafe.Add(stream, offsetStreamCodecPar))
	f := StreamFields{
		Index:       *(*int32)(unsafe.Add(stream, offsetStreamIndex)),
		TimeBaseNum: *(*int32)(unsafe.Add(stream, offsetStreamTimeBase)),
		TimeBaseDen: *(*int32)(unsafe.Add(stream, offsetStreamTimeBase+4)),
		Params:      par,
		MediaType:   -1,
		Format:      -1,
	}
	if par == nil {
		return f
	}
	f.MediaType = *(*int32)(unsafe.Add(par, offsetParType))
	f.CodecID = avcodec.CodecID(*(*int32)(unsafe.Add(par, offsetParCodecID)))
	f.Format = *(*int32)(unsafe.Add(par, offsetParFormat))
	f.Width = *(*int32)(unsafe.Add(par, offsetParWidth))
	f.Height = *(*int32)(unsafe.Add(par, offsetParHeight))
	f.SampleRate = *(*int32)(unsafe.Add(par, offsetParSampleRate))
	return f
}
