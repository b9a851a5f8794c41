//go:build !ios && !android && (amd64 || arm64)

// Package avcodec binds the libavcodec entry points ffwrap uses: codec
// lookup, codec contexts, the send/receive API and packets.
//
// Functions return the library's raw int32 codes; negative values are
// AVERROR codes.
package avcodec

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

// Codec is an opaque AVCodec pointer.
type Codec = unsafe.Pointer

// Context is an opaque AVCodecContext pointer.
type Context = unsafe.Pointer

// Packet is an opaque AVPacket pointer.
type Packet = unsafe.Pointer

// Parameters is an opaque AVCodecParameters pointer.
type Parameters = unsafe.Pointer

var (
	avcodecVersion func() uint32

	avcodecFindDecoder       func(id int32) unsafe.Pointer
	avcodecFindEncoder       func(id int32) unsafe.Pointer
	avcodecFindDecoderByName func(name string) unsafe.Pointer
	avcodecFindEncoderByName func(name string) unsafe.Pointer
	avCodecIsEncoder         func(codec unsafe.Pointer) int32

	avcodecAllocContext3     func(codec unsafe.Pointer) unsafe.Pointer
	avcodecFreeContext       func(ctx *unsafe.Pointer)
	avcodecOpen2             func(ctx, codec unsafe.Pointer, options *unsafe.Pointer) int32
	avcodecSendPacket        func(ctx, pkt unsafe.Pointer) int32
	avcodecReceiveFrame      func(ctx, frame unsafe.Pointer) int32
	avcodecSendFrame         func(ctx, frame unsafe.Pointer) int32
	avcodecReceivePacket     func(ctx, pkt unsafe.Pointer) int32
	avcodecFlushBuffers      func(ctx unsafe.Pointer)
	avcodecParametersToCtx   func(ctx, par unsafe.Pointer) int32
	avcodecParametersFromCtx func(par, ctx unsafe.Pointer) int32
	avcodecParametersCopy    func(dst, src unsafe.Pointer) int32

	avPacketAlloc        func() unsafe.Pointer
	avPacketFree         func(pkt *unsafe.Pointer)
	avPacketRef          func(dst, src unsafe.Pointer) int32
	avPacketUnref        func(pkt unsafe.Pointer)
	avNewPacket          func(pkt unsafe.Pointer, size int32) int32
	avPacketMakeWritable func(pkt unsafe.Pointer) int32

	bindOnce sync.Once
	bindErr  error
)

// Bind registers the libavcodec symbols.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.AVCodec) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.AVCodec
		bindings.Register(&avcodecVersion, lib, "avcodec_version")

		bindings.Register(&avcodecFindDecoder, lib, "avcodec_find_decoder")
		bindings.Register(&avcodecFindEncoder, lib, "avcodec_find_encoder")
		bindings.Register(&avcodecFindDecoderByName, lib, "avcodec_find_decoder_by_name")
		bindings.Register(&avcodecFindEncoderByName, lib, "avcodec_find_encoder_by_name")
		bindings.Register(&avCodecIsEncoder, lib, "av_codec_is_encoder")

		bindings.Register(&avcodecAllocContext3, lib, "avcodec_alloc_context3")
		bindings.Register(&avcodecFreeContext, lib, "avcodec_free_context")
		bindings.Register(&avcodecOpen2, lib, "avcodec_open2")
		bindings.Register(&avcodecSendPacket, lib, "avcodec_send_packet")
		bindings.Register(&avcodecReceiveFrame, lib, "avcodec_receive_frame")
		bindings.Register(&avcodecSendFrame, lib, "avcodec_send_frame")
		bindings.Register(&avcodecReceivePacket, lib, "avcodec_receive_packet")
		bindings.Register(&avcodecFlushBuffers, lib, "avcodec_flush_buffers")
		bindings.Register(&avcodecParametersToCtx, lib, "avcodec_parameters_to_context")
		bindings.Register(&avcodecParametersFromCtx, lib, "avcodec_parameters_from_context")
		bindings.Register(&avcodecParametersCopy, lib, "avcodec_parameters_copy")

		bindings.Register(&avPacketAlloc, lib, "av_packet_alloc")
		bindings.Register(&avPacketFree, lib, "av_packet_free")
		bindings.Register(&avPacketRef, lib, "av_packet_ref")
		bindings.Register(&avPacketUnref, lib, "av_packet_unref")
		bindings.Register(&avNewPacket, lib, "av_new_packet")
		bindings.Register(&avPacketMakeWritable, lib, "av_packet_make_writable")
	})
	return bindErr
}

// Version returns the packed libavcodec version, or 0 if not bound.
func Version() uint32 {
	if avcodecVersion == nil {
		return 0
	}
	return avcodecVersion()
}

// FindDecoder finds a decoder by codec ID.
func FindDecoder(id CodecID) Codec {
	if avcodecFindDecoder == nil {
		return nil
	}
	return avcodecFindDecoder(int32(id))
}

// FindEncoder finds an encoder by codec ID.
func FindEncoder(id CodecID) Codec {
	if avcodecFindEncoder == nil {
		return nil
	}
	return avcodecFindEncoder(int32(id))
}

// FindDecoderByName finds a decoder by name.
func FindDecoderByName(name string) Codec {
	if avcodecFindDecoderByName == nil {
		return nil
	}
	codec := avcodecFindDecoderByName(name)
	runtime.KeepAlive(name)
	return codec
}

// FindEncoderByName finds an encoder by name.
func FindEncoderByName(name string) Codec {
	if avcodecFindEncoderByName == nil {
		return nil
	}
	codec := avcodecFindEncoderByName(name)
	runtime.KeepAlive(name)
	return codec
}

// IsEncoder reports whether codec encodes.
func IsEncoder(codec Codec) bool {
	if codec == nil || avCodecIsEncoder == nil {
		return false
	}
	return avCodecIsEncoder(codec) != 0
}

// AVCodec field offsets. The public part of AVCodec has been stable since
// FFmpeg 4.
const (
	offsetCodecName        = 0
	offsetCodecLongName    = 8
	offsetCodecType        = 16
	offsetCodecID          = 20
	offsetCodecPixFmts     = 40
	offsetCodecSampleRates = 48
	offsetCodecSampleFmts  = 56
)

// CodecFields is the public description of an AVCodec.
type CodecFields struct {
	Name      string
	LongName  string
	MediaType int32
	ID        CodecID
}

// GetCodecFields reads the name, type and ID of codec.
func GetCodecFields(codec Codec) CodecFields {
	if codec == nil {
		return CodecFields{MediaType: -1}
	}
	return CodecFields{
		Name:      avutil.GoString(*(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecName))),
		LongName:  avutil.GoString(*(*unsafe.Pointer)(unsafe.Add(codec, offsetCodecLongName))),
		MediaType: *(*int32)(unsafe.Add(codec, offsetCodecType)),
		ID:        CodecID(*(*int32)(unsafe.Add(codec, offsetCodecID))),
	}
}

// PixelFormats returns the head of the codec's -1 terminated pix_fmts
// array, or nil if the codec accepts any.
func PixelFormats(codec Codec) unsafe.Pointer {
	return codecArray(codec, offsetCodecPixFmts)
}

// SampleRates returns the head of the 0 terminated supported_samplerates
// array, or nil.
func SampleRates(codec Codec) unsafe.Pointer {
	return codecArray(codec, offsetCodecSampleRates)
}

// SampleFormats returns the head of the -1 terminated sample_fmts array, or
// nil.
func SampleFormats(codec Codec) unsafe.Pointer {
	return codecArray(codec, offsetCodecSampleFmts)
}

func codecArray(codec Codec, off uintptr) unsafe.Pointer {
	if codec == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(codec, off))
}

// AllocContext3 allocates a codec context with the codec's defaults.
func AllocContext3(codec Codec) Context {
	if avcodecAllocContext3 == nil {
		return nil
	}
	return avcodecAllocContext3(codec)
}

// FreeContext frees a codec context and nils the pointer.
func FreeContext(ctx *Context) {
	if ctx == nil || *ctx == nil || avcodecFreeContext == nil {
		return
	}
	// Some purego backends abort when a pointer into Go memory is handed to C
	// as a pointer-to-pointer; stage it in library memory instead.
	if tmp := avutil.Malloc(unsafe.Sizeof(uintptr(0))); tmp != nil {
		*(*unsafe.Pointer)(tmp) = *ctx
		avcodecFreeContext((*unsafe.Pointer)(tmp))
		avutil.Free(tmp)
		*ctx = nil
		return
	}
	avcodecFreeContext(ctx)
	*ctx = nil
}

// Open2 opens ctx. Entries of *options the codec consumed are removed from
// the dictionary; what is left was not recognized.
func Open2(ctx Context, codec Codec, options *avutil.Dictionary) int32 {
	if avcodecOpen2 == nil {
		return avutil.ENOSYS
	}
	return avcodecOpen2(ctx, codec, options)
}

// SendPacket feeds a packet to a decoder. A nil packet starts draining.
func SendPacket(ctx Context, pkt Packet) int32 {
	if avcodecSendPacket == nil {
		return avutil.ENOSYS
	}
	ret := avcodecSendPacket(ctx, pkt)
	runtime.KeepAlive(pkt)
	return ret
}

// ReceiveFrame fetches a decoded frame.
func ReceiveFrame(ctx Context, frame avutil.Frame) int32 {
	if avcodecReceiveFrame == nil {
		return avutil.ENOSYS
	}
	return avcodecReceiveFrame(ctx, frame)
}

// SendFrame feeds a frame to an encoder. A nil frame starts draining.
func SendFrame(ctx Context, frame avutil.Frame) int32 {
	if avcodecSendFrame == nil {
		return avutil.ENOSYS
	}
	ret := avcodecSendFrame(ctx, frame)
	runtime.KeepAlive(frame)
	return ret
}

// ReceivePacket fetches an encoded packet.
func ReceivePacket(ctx Context, pkt Packet) int32 {
	if avcodecReceivePacket == nil {
		return avutil.ENOSYS
	}
	return avcodecReceivePacket(ctx, pkt)
}

// FlushBuffers resets the codec's internal buffers.
func FlushBuffers(ctx Context) {
	if ctx == nil || avcodecFlushBuffers == nil {
		return
	}
	avcodecFlushBuffers(ctx)
}

// ParametersToContext copies stream parameters into ctx.
func ParametersToContext(ctx Context, par Parameters) int32 {
	if avcodecParametersToCtx == nil {
		return avutil.ENOSYS
	}
	return avcodecParametersToCtx(ctx, par)
}

// ParametersFromContext fills par from an opened codec context.
func ParametersFromContext(par Parameters, ctx Context) int32 {
	if avcodecParametersFromCtx == nil {
		return avutil.ENOSYS
	}
	return avcodecParametersFromCtx(par, ctx)
}

// ParametersCopy copies src into dst, replacing its contents.
func ParametersCopy(dst, src Parameters) int32 {
	if avcodecParametersCopy == nil {
		return avutil.ENOSYS
	}
	return avcodecParametersCopy(dst, src)
}

// offsetParCodecTag is AVCodecParameters.codec_tag.
const offsetParCodecTag = 8

// ClearCodecTag resets codec_tag so the muxer picks a tag of its own.
func ClearCodecTag(par Parameters) {
	if par == nil {
		return
	}
	*(*uint32)(unsafe.Add(par, offsetParCodecTag)) = 0
}
