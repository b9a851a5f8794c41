//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// PixelFormat is an AVPixelFormat.
type PixelFormat = avutil.PixelFormat

// Common pixel formats.
const (
	PixelFormatNone    = avutil.PixelFormatNone
	PixelFormatYUV420P = avutil.PixelFormatYUV420P
	PixelFormatRGB24   = avutil.PixelFormatRGB24
	PixelFormatBGR24   = avutil.PixelFormatBGR24
	PixelFormatYUV444P = avutil.PixelFormatYUV444P
	PixelFormatGray8   = avutil.PixelFormatGray8
	PixelFormatNV12    = avutil.PixelFormatNV12
	PixelFormatRGBA    = avutil.PixelFormatRGBA
	PixelFormatBGRA    = avutil.PixelFormatBGRA
)

// SampleFormat is an AVSampleFormat.
type SampleFormat = avutil.SampleFormat

// Common sample formats.
const (
	SampleFormatNone = avutil.SampleFormatNone
	SampleFormatU8   = avutil.SampleFormatU8
	SampleFormatS16  = avutil.SampleFormatS16
	SampleFormatS32  = avutil.SampleFormatS32
	SampleFormatFlt  = avutil.SampleFormatFlt
	SampleFormatS16P = avutil.SampleFormatS16P
	SampleFormatFltP = avutil.SampleFormatFltP
)

// NoPTS is AV_NOPTS_VALUE, the timestamp of frames and packets without one.
const NoPTS = ffi.NoPTS

// Frame is a reference-counted AVFrame.
type Frame struct {
	lib ffi.Library
	h   *handle.Owned[ffi.Ptr]
}

var _ handle.Shared[*Frame] = (*Frame)(nil)

func allocFrame(lib ffi.Library) (*Frame, error) {
	p := lib.FrameAlloc()
	if p == nil {
		return nil, averror.New(averror.OutOfMemory, "av_frame_alloc", "failed to allocate frame")
	}
	return &Frame{lib: lib, h: handle.Acquire(p, handle.Func(lib.FrameFree))}, nil
}

// NewFrame allocates an empty frame.
func NewFrame(opts ...Option) (*Frame, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return allocFrame(lib)
}

func newFrameWithBuffer(lib ffi.Library, info ffi.FrameInfo) (*Frame, error) {
	f, err := allocFrame(lib)
	if err != nil {
		return nil, err
	}
	info.PTS = ffi.NoPTS
	if code := lib.FrameGetBuffer(f.raw(), info); code < 0 {
		_ = f.Close()
		return nil, codeErr(lib, code, "av_frame_get_buffer")
	}
	return f, nil
}

// NewVideoFrame allocates a frame with buffers for a width x height picture.
func NewVideoFrame(width, height int, format PixelFormat, opts ...Option) (*Frame, error) {
	if width <= 0 || height <= 0 || format < 0 {
		return nil, averror.New(averror.InvalidArgument, "new_video_frame", "invalid picture %dx%d format %d", width, height, format)
	}
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return newFrameWithBuffer(lib, ffi.FrameInfo{
		Width:  int32(width),
		Height: int32(height),
		Format: int32(format),
	})
}

// NewAudioFrame allocates a frame with buffers for samples samples per
// channel.
func NewAudioFrame(samples, sampleRate, channels int, format SampleFormat, opts ...Option) (*Frame, error) {
	if samples <= 0 || sampleRate <= 0 || channels <= 0 || format < 0 {
		return nil, averror.New(averror.InvalidArgument, "new_audio_frame",
			"invalid audio frame: %d samples, %d Hz, %d channels, format %d", samples, sampleRate, channels, format)
	}
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return newFrameWithBuffer(lib, ffi.FrameInfo{
		NbSamples:  int32(samples),
		SampleRate: int32(sampleRate),
		Channels:   int32(channels),
		Format:     int32(format),
	})
}

func (f *Frame) raw() ffi.Ptr {
	if f == nil {
		return nil
	}
	return f.h.Raw()
}

func (f *Frame) info() ffi.FrameInfo {
	if f.raw() == nil {
		return ffi.FrameInfo{Format: -1, PTS: ffi.NoPTS}
	}
	return f.lib.FrameInfo(f.raw())
}

// Width returns the picture width; 0 for audio frames.
func (f *Frame) Width() int { return int(f.info().Width) }

// Height returns the picture height; 0 for audio frames.
func (f *Frame) Height() int { return int(f.info().Height) }

// PixelFormat returns the picture format of a video frame.
func (f *Frame) PixelFormat() PixelFormat { return PixelFormat(f.info().Format) }

// SampleFormat returns the sample format of an audio frame.
func (f *Frame) SampleFormat() SampleFormat { return SampleFormat(f.info().Format) }

// NbSamples returns the number of samples per channel.
func (f *Frame) NbSamples() int { return int(f.info().NbSamples) }

// SampleRate returns the sample rate of an audio frame.
func (f *Frame) SampleRate() int { return int(f.info().SampleRate) }

// Channels returns the channel count of an audio frame.
func (f *Frame) Channels() int { return int(f.info().Channels) }

// PTS returns the presentation timestamp, or NoPTS.
func (f *Frame) PTS() int64 { return f.info().PTS }

// IsKeyFrame reports whether the frame is a key frame.
func (f *Frame) IsKeyFrame() bool { return f.info().KeyFrame }

// IsVideo reports whether the frame carries a picture.
func (f *Frame) IsVideo() bool {
	info := f.info()
	return info.Width > 0 && info.Height > 0
}

// SetPTS sets the presentation timestamp.
func (f *Frame) SetPTS(pts int64) {
	if f.raw() != nil {
		f.lib.FrameSetPTS(f.raw(), pts)
	}
}

// Data returns plane p. The slice aliases the frame buffer; call
// MakeWritable before writing into a frame that may be shared.
func (f *Frame) Data(p int) []byte {
	if f.raw() == nil {
		return nil
	}
	return f.lib.FramePlane(f.raw(), p)
}

// Clone returns a new frame sharing f's buffers.
func (f *Frame) Clone() (*Frame, error) {
	if f.raw() == nil {
		return nil, averror.New(averror.InvalidArgument, "frame.clone", "frame is closed")
	}
	c, err := allocFrame(f.lib)
	if err != nil {
		return nil, err
	}
	if code := f.lib.FrameRef(c.raw(), f.raw()); code < 0 {
		_ = c.Close()
		return nil, codeErr(f.lib, code, "av_frame_ref")
	}
	return c, nil
}

// IsReferenced reports whether f's buffers are shared with another frame.
func (f *Frame) IsReferenced() bool {
	if f.raw() == nil || f.lib.FramePlane(f.raw(), 0) == nil {
		return false
	}
	return !f.lib.FrameIsWritable(f.raw())
}

// MakeWritable copies shared buffers so f can be written without affecting
// other references.
func (f *Frame) MakeWritable(slot *averror.Slot) error {
	return averror.Check(slot, f.makeWritable())
}

func (f *Frame) makeWritable() error {
	if f.raw() == nil {
		return averror.New(averror.InvalidArgument, "frame.make_writable", "frame is closed")
	}
	return codeErr(f.lib, f.lib.FrameMakeWritable(f.raw()), "av_frame_make_writable")
}

// Unref drops the frame's buffers, keeping the frame itself for reuse.
func (f *Frame) Unref() {
	if f.raw() != nil {
		f.lib.FrameUnref(f.raw())
	}
}

// Close frees the frame. It is safe to call more than once.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.h.Close()
}

func (f *Frame) String() string {
	if f.raw() == nil {
		return "Frame(closed)"
	}
	info := f.info()
	if info.Width > 0 {
		return fmt.Sprintf("Frame(%dx%d fmt=%d pts=%d)", info.Width, info.Height, info.Format, info.PTS)
	}
	return fmt.Sprintf("Frame(%d samples %dHz %dch fmt=%s pts=%d)",
		info.NbSamples, info.SampleRate, info.Channels, SampleFormat(info.Format), info.PTS)
}
