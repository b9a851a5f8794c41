//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
)

// AVCodecContext field offsets (FFmpeg 6.x / avcodec 60.x). They vary
// between major versions, so writes go through AVOptions where an option
// exists and offsets are only read.
const (
	offsetCtxCodecType  = 12
	offsetCtxBitRate    = 56
	offsetCtxTimeBase   = 100
	offsetCtxWidth      = 116
	offsetCtxHeight     = 120
	offsetCtxPixFmt     = 136
	offsetCtxSampleRate = 352
	offsetCtxSampleFmt  = 360
	offsetCtxFrameSize  = 364
	offsetCtxChLayout   = 912
)

// ContextSettings are the AVCodecContext parameters ffwrap configures.
type ContextSettings struct {
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

func ctxField[T any](ctx Context, off uintptr) *T {
	return (*T)(unsafe.Add(ctx, off))
}

// GetContextSettings reads the configured parameters of ctx.
func GetContextSettings(ctx Context) ContextSettings {
	if ctx == nil {
		return ContextSettings{MediaType: -1, PixelFormat: -1, SampleFormat: -1}
	}
	return ContextSettings{
		MediaType:    *ctxField[int32](ctx, offsetCtxCodecType),
		Width:        *ctxField[int32](ctx, offsetCtxWidth),
		Height:       *ctxField[int32](ctx, offsetCtxHeight),
		PixelFormat:  *ctxField[int32](ctx, offsetCtxPixFmt),
		SampleRate:   *ctxField[int32](ctx, offsetCtxSampleRate),
		Channels:     *ctxField[int32](ctx, offsetCtxChLayout+4),
		SampleFormat: *ctxField[int32](ctx, offsetCtxSampleFmt),
		TimeBaseNum:  *ctxField[int32](ctx, offsetCtxTimeBase),
		TimeBaseDen:  *ctxField[int32](ctx, offsetCtxTimeBase+4),
		BitRate:      *ctxField[int64](ctx, offsetCtxBitRate),
		FrameSize:    *ctxField[int32](ctx, offsetCtxFrameSize),
	}
}

// SetContextSettings applies the non-zero fields of s to ctx through
// AVOptions. It returns the first failing option code.
func SetContextSettings(ctx Context, s ContextSettings) int32 {
	if ctx == nil {
		return avutil.AVERROR_EINVAL
	}
	type opt struct {
		name  string
		value string
		set   bool
	}
	opts := []opt{
		{"video_size", fmt.Sprintf("%dx%d", s.Width, s.Height), s.Width > 0 && s.Height > 0},
		{"pixel_format", strconv.Itoa(int(s.PixelFormat)), s.MediaType == 0 && s.PixelFormat >= 0},
		{"ar", strconv.Itoa(int(s.SampleRate)), s.SampleRate > 0},
		{"ch_layout", fmt.Sprintf("%dc", s.Channels), s.Channels > 0},
		{"sample_fmt", strconv.Itoa(int(s.SampleFormat)), s.MediaType == 1 && s.SampleFormat >= 0},
		{"time_base", fmt.Sprintf("%d/%d", s.TimeBaseNum, s.TimeBaseDen), s.TimeBaseNum > 0 && s.TimeBaseDen > 0},
		{"b", strconv.FormatInt(s.BitRate, 10), s.BitRate > 0},
		{"threads", strconv.Itoa(int(s.ThreadCount)), s.ThreadCount > 0},
	}
	for _, o := range opts {
		if !o.set {
			continue
		}
		if ret := avutil.OptSet(ctx, o.name, o.value, 0); ret < 0 {
			return ret
		}
	}
	return 0
}
