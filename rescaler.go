//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
	"github.com/obinnaokechukwu/ffwrap/swscale"
)

// ScaleFlags controls the scaling algorithm.
type ScaleFlags int32

const (
	// ScaleFastBilinear uses fast bilinear scaling (lowest quality, fastest).
	ScaleFastBilinear ScaleFlags = swscale.FlagFastBilinear

	// ScaleBilinear uses bilinear scaling (good balance of quality/speed).
	ScaleBilinear ScaleFlags = swscale.FlagBilinear

	// ScaleBicubic uses bicubic scaling (high quality).
	ScaleBicubic ScaleFlags = swscale.FlagBicubic

	// ScaleLanczos uses Lanczos scaling (highest quality, slowest).
	ScaleLanczos ScaleFlags = swscale.FlagLanczos

	// ScalePoint uses nearest neighbor (fastest, no interpolation).
	ScalePoint ScaleFlags = swscale.FlagPoint
)

// VideoParams describes one side of a video conversion.
type VideoParams struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
}

// VideoParamsOf returns the parameters of a video frame.
func VideoParamsOf(f *Frame) VideoParams {
	info := f.info()
	return VideoParams{Width: int(info.Width), Height: int(info.Height), PixelFormat: PixelFormat(info.Format)}
}

// Validate reports unusable parameters with averror.RescalerInvalidParameters.
func (p VideoParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return averror.New(averror.RescalerInvalidParameters, "rescaler", "invalid dimensions %dx%d", p.Width, p.Height)
	}
	if p.PixelFormat < 0 {
		return averror.New(averror.RescalerInvalidParameters, "rescaler", "invalid pixel format %d", p.PixelFormat)
	}
	return nil
}

func (p VideoParams) format() ffi.VideoFormat {
	return ffi.VideoFormat{Width: int32(p.Width), Height: int32(p.Height), PixelFormat: int32(p.PixelFormat)}
}

func (p VideoParams) String() string {
	return fmt.Sprintf("%dx%d fmt=%d", p.Width, p.Height, p.PixelFormat)
}

// Rescaler scales pictures and converts their pixel format.
//
// Like Resampler, it records the parameters its SwsContext was created for
// and recreates the context when a frame arrives with different ones.
type Rescaler struct {
	lib   ffi.Library
	log   logger.Logger
	h     *handle.Owned[ffi.Ptr]
	flags ScaleFlags

	src, dst VideoParams
	reinits  int
}

// NewRescaler creates a rescaler converting src pictures to dst.
func NewRescaler(src, dst VideoParams, opts ...Option) (*Rescaler, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}
	o := collect(opts)
	lib, err := o.library()
	if err != nil {
		return nil, err
	}
	r := &Rescaler{
		lib:   lib,
		log:   o.logger().WithField("component", "rescaler"),
		flags: o.scaleFlags,
		src:   src,
		dst:   dst,
	}
	if err := r.init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rescaler) init() error {
	p := r.lib.SwsGetContext(r.src.format(), r.dst.format(), int32(r.flags))
	if p == nil {
		return averror.New(averror.RescalerInternalError, "sws_getContext", "cannot convert %s to %s", r.src, r.dst)
	}
	if r.h == nil {
		r.h = handle.Acquire(p, handle.Deleter[ffi.Ptr](r.lib.SwsFree))
	} else {
		r.h.Reset(p)
	}
	r.log.Tracef("initialized %s -> %s", r.src, r.dst)
	return nil
}

func (r *Rescaler) reinit(kind string, src, dst VideoParams) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return err
	}
	r.log.Debugf("%s: %s -> %s, reinitializing", kind, src, dst)
	oldSrc, oldDst := r.src, r.dst
	r.src, r.dst = src, dst
	if err := r.init(); err != nil {
		r.src, r.dst = oldSrc, oldDst
		return err
	}
	r.reinits++
	return nil
}

// Rescale converts in into a newly allocated frame owned by the caller.
func (r *Rescaler) Rescale(in *Frame, slot *averror.Slot) (*Frame, error) {
	return averror.Of(r.rescale(in)).Deliver(slot)
}

func (r *Rescaler) rescale(in *Frame) (*Frame, error) {
	if err := r.usable(in); err != nil {
		return nil, err
	}
	if err := r.follow(VideoParamsOf(in), r.dst); err != nil {
		return nil, err
	}
	out, err := newFrameWithBuffer(r.lib, ffi.FrameInfo{
		Width:  int32(r.dst.Width),
		Height: int32(r.dst.Height),
		Format: int32(r.dst.PixelFormat),
	})
	if err != nil {
		return nil, err
	}
	if err := r.scale(out, in); err != nil {
		_ = out.Close()
		return nil, err
	}
	return out, nil
}

// RescaleInto converts in into dst, which must have buffers. A dst with
// other parameters than the recorded ones becomes the new destination.
func (r *Rescaler) RescaleInto(dst, in *Frame, slot *averror.Slot) error {
	err := r.usable(in)
	if err == nil && dst.raw() == nil {
		err = averror.New(averror.InvalidArgument, "rescale", "destination frame is closed")
	}
	if err == nil {
		err = r.follow(VideoParamsOf(in), VideoParamsOf(dst))
	}
	if err == nil {
		err = dst.makeWritable()
	}
	if err == nil {
		err = r.scale(dst, in)
	}
	return averror.Check(slot, err)
}

func (r *Rescaler) usable(in *Frame) error {
	if !r.h.Valid() {
		return averror.New(averror.RescalerInternalError, "rescale", "rescaler is closed")
	}
	if in.raw() == nil {
		return averror.New(averror.InvalidArgument, "rescale", "nil or closed input frame")
	}
	return nil
}

// follow reinitializes the context when src or dst drifted.
func (r *Rescaler) follow(src, dst VideoParams) error {
	switch {
	case src != r.src:
		return r.reinit("input changed", src, dst)
	case dst != r.dst:
		return r.reinit("output changed", src, dst)
	}
	return nil
}

func (r *Rescaler) scale(dst, src *Frame) error {
	if code := r.lib.SwsScaleFrame(r.h.Raw(), dst.raw(), src.raw()); code < 0 {
		return codeErr(r.lib, code, "sws_scale_frame")
	}
	dst.SetPTS(src.PTS())
	return nil
}

// Params returns the recorded source and destination parameters.
func (r *Rescaler) Params() (src, dst VideoParams) {
	return r.src, r.dst
}

// Reinits returns how many parameter changes the rescaler has handled.
func (r *Rescaler) Reinits() int {
	return r.reinits
}

// IsValid reports whether the rescaler holds a context.
func (r *Rescaler) IsValid() bool {
	return r != nil && r.h.Valid()
}

// Close frees the rescaler. It is safe to call more than once.
func (r *Rescaler) Close() error {
	if r == nil || r.h == nil {
		return nil
	}
	return r.h.Close()
}

func (r *Rescaler) String() string {
	return fmt.Sprintf("Rescaler(%s -> %s)", r.src, r.dst)
}
