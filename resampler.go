//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"
	"math/bits"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
	"github.com/obinnaokechukwu/ffwrap/swresample"
)

// ChannelLayout is a legacy AV_CH_LAYOUT_* channel mask.
type ChannelLayout uint64

const (
	ChannelLayoutMono     = ChannelLayout(swresample.ChannelLayoutMono)
	ChannelLayoutStereo   = ChannelLayout(swresample.ChannelLayoutStereo)
	ChannelLayoutSurround = ChannelLayout(swresample.ChannelLayoutSurround)
	ChannelLayout5Point1  = ChannelLayout(swresample.ChannelLayout5Point1)
	ChannelLayout7Point1  = ChannelLayout(swresample.ChannelLayout7Point1)
)

// DefaultChannelLayout returns FFmpeg's default layout for channels, or 0.
func DefaultChannelLayout(channels int) ChannelLayout {
	return ChannelLayout(swresample.LegacyMask(int32(channels)))
}

// AudioParams describes one side of an audio conversion.
type AudioParams struct {
	SampleRate    int
	Channels      int
	ChannelLayout ChannelLayout // 0 selects the default for Channels
	SampleFormat  SampleFormat
}

// AudioParamsOf returns the parameters of an audio frame.
func AudioParamsOf(f *Frame) AudioParams {
	info := f.info()
	return AudioParams{
		SampleRate:   int(info.SampleRate),
		Channels:     int(info.Channels),
		SampleFormat: SampleFormat(info.Format),
	}
}

// Validate reports parameters FFmpeg cannot convert with
// averror.ResamplerInvalidParameters.
func (p AudioParams) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return averror.New(averror.ResamplerInvalidParameters, "resampler", "invalid sample rate %d", p.SampleRate)
	case p.Channels <= 0:
		return averror.New(averror.ResamplerInvalidParameters, "resampler", "invalid channel count %d", p.Channels)
	case p.SampleFormat < 0:
		return averror.New(averror.ResamplerInvalidParameters, "resampler", "invalid sample format %d", p.SampleFormat)
	case p.ChannelLayout != 0 && bits.OnesCount64(uint64(p.ChannelLayout)) != p.Channels:
		return averror.New(averror.ResamplerInvalidParameters, "resampler",
			"channel layout 0x%x does not have %d channels", uint64(p.ChannelLayout), p.Channels)
	}
	return nil
}

// same reports whether a frame with parameters q can go through a context
// initialized for p. Frames do not carry a layout, so it is not compared.
func (p AudioParams) same(q AudioParams) bool {
	return p.SampleRate == q.SampleRate && p.Channels == q.Channels && p.SampleFormat == q.SampleFormat
}

// layout returns the effective channel layout.
func (p AudioParams) layout() ChannelLayout {
	if p.ChannelLayout != 0 {
		return p.ChannelLayout
	}
	return DefaultChannelLayout(p.Channels)
}

func (p AudioParams) equal(q AudioParams) bool {
	return p.same(q) && p.layout() == q.layout()
}

func (p AudioParams) format() ffi.AudioFormat {
	return ffi.AudioFormat{
		SampleRate:   int32(p.SampleRate),
		Channels:     int32(p.Channels),
		SampleFormat: int32(p.SampleFormat),
		Mask:         int64(p.ChannelLayout),
	}
}

func (p AudioParams) String() string {
	return fmt.Sprintf("%dHz %dch %s", p.SampleRate, p.Channels, p.SampleFormat)
}

// Resampler converts audio frames between sample rates, channel counts and
// sample formats.
//
// The resampler records the parameters its SwrContext was initialized with,
// and the recorded parameters always describe the live context. An input
// frame whose parameters differ makes it reinitialize before converting;
// samples still buffered in the old context are dropped.
type Resampler struct {
	lib ffi.Library
	log logger.Logger
	h   *handle.Owned[ffi.Ptr]

	src, dst    AudioParams
	initialized bool // at least one successful init
	reinits     int
}

// NewResampler creates a resampler converting src to dst.
func NewResampler(src, dst AudioParams, opts ...Option) (*Resampler, error) {
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
	r := &Resampler{
		lib: lib,
		log: o.logger().WithField("component", "resampler"),
	}
	p, err := r.newContext(src, dst)
	if err != nil {
		return nil, err
	}
	r.install(p, src, dst)
	return r, nil
}

// newContext allocates and initializes a SwrContext converting src to dst.
// The current context is left alone.
func (r *Resampler) newContext(src, dst AudioParams) (ffi.Ptr, error) {
	p, code := r.lib.SwrAlloc(dst.format(), src.format())
	if code < 0 || p == nil {
		if code >= 0 {
			code = averror.CodeNoMemory
		}
		return nil, codeErr(r.lib, code, "swr_alloc_set_opts2")
	}
	if code := r.lib.SwrInit(p); code < 0 {
		r.lib.SwrFree(&p)
		return nil, codeErr(r.lib, code, "swr_init")
	}
	return p, nil
}

// install makes p the live context and records the parameters it was
// initialized with.
func (r *Resampler) install(p ffi.Ptr, src, dst AudioParams) {
	if r.h == nil {
		r.h = handle.Acquire(p, handle.Func(r.lib.SwrFree))
	} else {
		r.h.Reset(p)
	}
	r.src, r.dst = src, dst
	r.initialized = true
	r.log.Tracef("initialized %s -> %s", src, dst)
}

// reinit switches the context to new source parameters. On failure the old
// context and parameters stay in place.
func (r *Resampler) reinit(src AudioParams) error {
	if err := src.Validate(); err != nil {
		return err
	}
	p, err := r.newContext(src, r.dst)
	if err != nil {
		return err
	}
	kind := averror.ResamplerInputChanged
	if dropped := r.lib.SwrDelay(r.h.Raw(), int64(r.src.SampleRate)); dropped > 0 {
		r.log.Debugf("%s: dropping %d buffered input samples", kind, dropped)
	}
	r.log.Debugf("%s: reinitializing for %s -> %s", kind, src, r.dst)
	r.install(p, src, r.dst)
	r.reinits++
	return nil
}

func (r *Resampler) usable(op string) error {
	if r == nil || !r.h.Valid() {
		return averror.New(averror.ResamplerNotInitialized, op, "resampler is closed")
	}
	return nil
}

// Resample converts in and returns the converted samples. A nil in drains
// the samples the resampler still holds. The returned frame is nil when no
// output is ready yet; the caller owns it otherwise.
func (r *Resampler) Resample(in *Frame, slot *averror.Slot) (*Frame, error) {
	return averror.Of(r.resample(in)).Deliver(slot)
}

func (r *Resampler) resample(in *Frame) (*Frame, error) {
	if err := r.usable("resample"); err != nil {
		return nil, err
	}
	if in != nil {
		if in.raw() == nil {
			return nil, averror.New(averror.InvalidArgument, "resample", "frame is closed")
		}
		got := AudioParamsOf(in)
		if !r.src.same(got) {
			if got.Channels == r.src.Channels {
				got.ChannelLayout = r.src.ChannelLayout
			}
			if err := r.reinit(got); err != nil {
				return nil, err
			}
		}
	}

	capacity := r.outputCapacity(in)
	if capacity == 0 {
		return nil, nil
	}
	out, err := newFrameWithBuffer(r.lib, ffi.FrameInfo{
		NbSamples:  int32(capacity),
		SampleRate: int32(r.dst.SampleRate),
		Channels:   int32(r.dst.Channels),
		Format:     int32(r.dst.SampleFormat),
	})
	if err != nil {
		return nil, err
	}
	code := r.lib.SwrConvertFrame(r.h.Raw(), out.raw(), in.raw())
	if code < 0 {
		_ = out.Close()
		return nil, codeErr(r.lib, code, "swr_convert_frame")
	}
	if out.NbSamples() == 0 {
		_ = out.Close()
		return nil, nil
	}
	if in != nil && in.PTS() != NoPTS {
		out.SetPTS(Rescale(in.PTS(), Rational{1, int32(r.src.SampleRate)}, Rational{1, int32(r.dst.SampleRate)}))
	}
	return out, nil
}

// outputCapacity returns an upper bound of the samples one conversion of in
// can produce.
func (r *Resampler) outputCapacity(in *Frame) int64 {
	pending := r.lib.SwrDelay(r.h.Raw(), int64(r.src.SampleRate))
	if in != nil {
		pending += int64(in.NbSamples())
	}
	if pending == 0 {
		return 0
	}
	return (pending*int64(r.dst.SampleRate)+int64(r.src.SampleRate)-1)/int64(r.src.SampleRate) + 1
}

// SetOutput switches the resampler to new destination parameters.
//
// The samples the old context still holds are flushed first and returned
// in the previous output format; the frame is nil when nothing was
// buffered, and the caller owns it otherwise. If the new parameters are
// rejected the resampler keeps its old context, parameters and buffered
// samples.
func (r *Resampler) SetOutput(dst AudioParams, slot *averror.Slot) (*Frame, error) {
	return averror.Of(r.setOutput(dst)).Deliver(slot)
}

func (r *Resampler) setOutput(dst AudioParams) (*Frame, error) {
	if err := r.usable("set_output"); err != nil {
		return nil, err
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}
	if r.dst.equal(dst) {
		return nil, nil
	}
	p, err := r.newContext(r.src, dst)
	if err != nil {
		return nil, err
	}
	tail, err := r.resample(nil)
	if err != nil {
		r.lib.SwrFree(&p)
		return nil, err
	}
	r.log.Debugf("%s: reinitializing for %s -> %s", averror.ResamplerOutputChanged, r.src, dst)
	r.install(p, r.src, dst)
	r.reinits++
	return tail, nil
}

// Delay returns the number of output samples the resampler still holds.
func (r *Resampler) Delay() int64 {
	if !r.h.Valid() {
		return 0
	}
	return r.lib.SwrDelay(r.h.Raw(), int64(r.dst.SampleRate))
}

// IsValid reports whether the resampler has been initialized and not closed.
func (r *Resampler) IsValid() bool {
	return r != nil && r.initialized && r.h.Valid()
}

// Params returns the recorded source and destination parameters.
func (r *Resampler) Params() (src, dst AudioParams) {
	return r.src, r.dst
}

// Reinits returns how many parameter changes the resampler has handled.
func (r *Resampler) Reinits() int {
	return r.reinits
}

// Close frees the resampler. It is safe to call more than once.
func (r *Resampler) Close() error {
	if r == nil || r.h == nil {
		return nil
	}
	return r.h.Close()
}

func (r *Resampler) String() string {
	return fmt.Sprintf("Resampler(%s -> %s)", r.src, r.dst)
}
