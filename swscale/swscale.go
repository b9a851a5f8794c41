//go:build !ios && !android && (amd64 || arm64)

// Package swscale binds libswscale for image scaling and pixel format
// conversion.
package swscale

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

// Context is an opaque SwsContext pointer.
type Context = unsafe.Pointer

// Scaling algorithm flags.
const (
	FlagFastBilinear = 1
	FlagBilinear     = 2
	FlagBicubic      = 4
	FlagPoint        = 0x10
	FlagArea         = 0x20
	FlagLanczos      = 0x200
)

var (
	swsGetContext     func(srcW, srcH, srcFormat, dstW, dstH, dstFormat, flags int32, srcFilter, dstFilter, param unsafe.Pointer) unsafe.Pointer
	swsScale          func(ctx, srcSlice, srcStride unsafe.Pointer, srcSliceY, srcSliceH int32, dst, dstStride unsafe.Pointer) int32
	swsFreeContext    func(ctx unsafe.Pointer)
	swsScaleFrame     func(ctx, dst, src unsafe.Pointer) int32
	swsIsSupportedIn  func(format int32) int32
	swsIsSupportedOut func(format int32) int32

	bindOnce sync.Once
	bindErr  error
)

// Bind registers the libswscale symbols.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.SWScale) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.SWScale
		bindings.Register(&swsGetContext, lib, "sws_getContext")
		bindings.Register(&swsScale, lib, "sws_scale")
		bindings.Register(&swsFreeContext, lib, "sws_freeContext")
		bindings.Register(&swsIsSupportedIn, lib, "sws_isSupportedInput")
		bindings.Register(&swsIsSupportedOut, lib, "sws_isSupportedOutput")

		// FFmpeg 5.0+
		bindings.RegisterOptional(&swsScaleFrame, lib, "sws_scale_frame")
	})
	return bindErr
}

// GetContext creates a context converting src into dst. It returns nil if
// either side is unsupported.
func GetContext(srcW, srcH int32, srcFormat avutil.PixelFormat, dstW, dstH int32, dstFormat avutil.PixelFormat, flags int32) Context {
	if swsGetContext == nil {
		return nil
	}
	return swsGetContext(srcW, srcH, int32(srcFormat), dstW, dstH, int32(dstFormat), flags, nil, nil, nil)
}

// FreeContext releases ctx.
func FreeContext(ctx Context) {
	if ctx == nil || swsFreeContext == nil {
		return
	}
	swsFreeContext(ctx)
}

// ScaleFrame converts src into dst. dst must already carry its buffers.
func ScaleFrame(ctx Context, dst, src avutil.Frame) int32 {
	if ctx == nil || dst == nil || src == nil {
		return avutil.AVERROR_EINVAL
	}
	if swsScaleFrame != nil {
		ret := swsScaleFrame(ctx, dst, src)
		runtime.KeepAlive(src)
		runtime.KeepAlive(dst)
		return ret
	}
	if swsScale == nil {
		return avutil.ENOSYS
	}
	srcData, srcLinesize := avutil.FrameArrays(src)
	dstData, dstLinesize := avutil.FrameArrays(dst)
	h := avutil.GetFrameFields(src).Height
	ret := swsScale(ctx,
		unsafe.Pointer(srcData), unsafe.Pointer(srcLinesize), 0, h,
		unsafe.Pointer(dstData), unsafe.Pointer(dstLinesize))
	runtime.KeepAlive(src)
	runtime.KeepAlive(dst)
	return ret
}

// IsSupportedInput reports whether format can be converted from.
func IsSupportedInput(format avutil.PixelFormat) bool {
	return swsIsSupportedIn != nil && swsIsSupportedIn(int32(format)) != 0
}

// IsSupportedOutput reports whether format can be converted to.
func IsSupportedOutput(format avutil.PixelFormat) bool {
	return swsIsSupportedOut != nil && swsIsSupportedOut(int32(format)) != 0
}
