//go:build !ios && !android && (amd64 || arm64)

// Package swresample binds the libswresample entry points used for audio
// sample rate, format and channel conversion.
package swresample

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

// Context is an opaque SwrContext pointer.
type Context = unsafe.Pointer

var (
	swrInit          func(s unsafe.Pointer) int32
	swrFree          func(s *unsafe.Pointer)
	swrConvertFrame  func(s, output, input unsafe.Pointer) int32
	swrGetDelay      func(s unsafe.Pointer, base int64) int64
	swrIsInitialized func(s unsafe.Pointer) int32

	// FFmpeg 5.1+
	swrAllocSetOpts2 func(ps *unsafe.Pointer,
		outChLayout unsafe.Pointer, outFmt, outRate int32,
		inChLayout unsafe.Pointer, inFmt, inRate int32,
		logOffset int32, logCtx unsafe.Pointer) int32

	// Older releases with uint64 channel masks.
	swrAllocSetOpts func(s unsafe.Pointer,
		outChLayout int64, outFmt, outRate int32,
		inChLayout int64, inFmt, inRate int32,
		logOffset int32, logCtx unsafe.Pointer) unsafe.Pointer

	bindOnce sync.Once
	bindErr  error
)

// Bind registers the libswresample symbols.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.SWResample) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.SWResample
		bindings.Register(&swrInit, lib, "swr_init")
		bindings.Register(&swrFree, lib, "swr_free")
		bindings.Register(&swrConvertFrame, lib, "swr_convert_frame")
		bindings.Register(&swrGetDelay, lib, "swr_get_delay")
		bindings.Register(&swrIsInitialized, lib, "swr_is_initialized")

		bindings.RegisterOptional(&swrAllocSetOpts2, lib, "swr_alloc_set_opts2")
		bindings.RegisterOptional(&swrAllocSetOpts, lib, "swr_alloc_set_opts")
	})
	return bindErr
}

// Format describes one side of a conversion. A zero Mask selects the
// default layout for Channels.
type Format struct {
	SampleRate   int32
	Channels     int32
	SampleFormat int32
	Mask         int64
}

func (f Format) mask() int64 {
	if f.Mask != 0 {
		return f.Mask
	}
	return LegacyMask(f.Channels)
}

// sizeofChannelLayout is sizeof(AVChannelLayout).
const sizeofChannelLayout = 24

// Alloc allocates a context converting src into dst. The context still
// needs Init.
func Alloc(dst, src Format) (Context, int32) {
	if swrAllocSetOpts2 != nil {
		outLayout := layoutOf(dst)
		defer avutil.Free(outLayout)
		inLayout := layoutOf(src)
		defer avutil.Free(inLayout)
		if outLayout == nil || inLayout == nil {
			return nil, avutil.AVERROR_ENOMEM
		}

		var s unsafe.Pointer
		ret := swrAllocSetOpts2(&s,
			outLayout, dst.SampleFormat, dst.SampleRate,
			inLayout, src.SampleFormat, src.SampleRate,
			0, nil)
		return s, ret
	}
	if swrAllocSetOpts != nil {
		s := swrAllocSetOpts(nil,
			dst.mask(), dst.SampleFormat, dst.SampleRate,
			src.mask(), src.SampleFormat, src.SampleRate,
			0, nil)
		if s == nil {
			return nil, avutil.AVERROR_ENOMEM
		}
		return s, 0
	}
	return nil, avutil.ENOSYS
}

// layoutOf returns a malloc'ed AVChannelLayout for f.
func layoutOf(f Format) unsafe.Pointer {
	p := avutil.Malloc(sizeofChannelLayout)
	if p == nil {
		return nil
	}
	clear(unsafe.Slice((*byte)(p), sizeofChannelLayout))
	if f.Mask == 0 || avutil.ChannelLayoutFromMask(p, uint64(f.Mask)) < 0 {
		avutil.ChannelLayoutDefault(p, f.Channels)
	}
	return p
}

// Init initializes a context after its options were set.
func Init(s Context) int32 {
	if swrInit == nil {
		return avutil.ENOSYS
	}
	return swrInit(s)
}

// IsInitialized reports whether Init succeeded on s.
func IsInitialized(s Context) bool {
	if s == nil || swrIsInitialized == nil {
		return false
	}
	return swrIsInitialized(s) != 0
}

// Free releases the context and nils the pointer.
func Free(s *Context) {
	if s == nil || *s == nil || swrFree == nil {
		return
	}
	swrFree(s)
	*s = nil
}

// ConvertFrame converts input into output. A nil input flushes the
// samples buffered in the context. The frames' format fields decide the
// conversion; a mismatch with the configured context yields
// AVERROR_INPUT_CHANGED or AVERROR_OUTPUT_CHANGED.
func ConvertFrame(s Context, output, input avutil.Frame) int32 {
	if swrConvertFrame == nil {
		return avutil.ENOSYS
	}
	ret := swrConvertFrame(s, output, input)
	runtime.KeepAlive(output)
	runtime.KeepAlive(input)
	return ret
}

// Delay returns the buffered delay expressed in 1/base seconds.
func Delay(s Context, base int64) int64 {
	if s == nil || swrGetDelay == nil {
		return 0
	}
	return swrGetDelay(s, base)
}

// Channel masks for the pre-5.1 API.
const (
	ChannelLayoutMono     int64 = 0x4
	ChannelLayoutStereo   int64 = 0x3
	ChannelLayoutSurround int64 = 0x7
	ChannelLayout4Point0  int64 = 0x107
	ChannelLayout5Point0  int64 = 0x607
	ChannelLayout5Point1  int64 = 0x60F
	ChannelLayout6Point1  int64 = 0x70F
	ChannelLayout7Point1  int64 = 0x63F
)

// LegacyMask returns the default channel mask for a channel count, or 0
// when no default exists.
func LegacyMask(channels int32) int64 {
	switch channels {
	case 1:
		return ChannelLayoutMono
	case 2:
		return ChannelLayoutStereo
	case 3:
		return ChannelLayoutSurround
	case 4:
		return ChannelLayout4Point0
	case 5:
		return ChannelLayout5Point0
	case 6:
		return ChannelLayout5Point1
	case 7:
		return ChannelLayout6Point1
	case 8:
		return ChannelLayout7Point1
	default:
		return 0
	}
}
