package ffitest

import (
	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// UnsupportedPixelFormat is rejected by the fake scaler.
const UnsupportedPixelFormat int32 = 9999

type swr struct {
	src, dst    ffi.AudioFormat
	initialized bool
	buffered    int64 // input samples held back
	latency     int64
}

func (*swr) kind() string { return "swr" }

func validAudio(f ffi.AudioFormat) bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.SampleFormat >= 0
}

func (l *Library) SwrAlloc(dst, src ffi.AudioFormat) (ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dst.Channels <= 0 || src.Channels <= 0 {
		return nil, averror.CodeInvalid
	}
	return l.add(&swr{src: src, dst: dst, latency: l.swrLatency}), 0
}

func (l *Library) SwrInit(s ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sw := lookup[*swr](l, s)
	if sw == nil || !validAudio(sw.src) || !validAudio(sw.dst) {
		return averror.CodeInvalid
	}
	sw.initialized = true
	sw.buffered = 0
	return 0
}

func (l *Library) SwrFree(s *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s == nil {
		return
	}
	l.remove(*s)
	*s = nil
}

func sameAudio(info ffi.FrameInfo, f ffi.AudioFormat) bool {
	return info.SampleRate == f.SampleRate && info.Channels == f.Channels && info.Format == f.SampleFormat
}

func (l *Library) SwrConvertFrame(s, out, in ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sw := lookup[*swr](l, s)
	o := lookup[*frame](l, out)
	if sw == nil || o == nil || !sw.initialized {
		return averror.CodeInvalid
	}
	if o.info.Format >= 0 && !sameAudio(o.info, sw.dst) {
		return averror.CodeOutputChanged
	}

	var produced int64
	if i := lookup[*frame](l, in); i != nil {
		if !sameAudio(i.info, sw.src) {
			return averror.CodeInputChanged
		}
		sw.buffered += int64(i.info.NbSamples)
		emitIn := max(sw.buffered-sw.latency, 0)
		produced = emitIn * int64(sw.dst.SampleRate) / int64(sw.src.SampleRate)
		sw.buffered -= produced * int64(sw.src.SampleRate) / int64(sw.dst.SampleRate)
	} else {
		// flush
		produced = (sw.buffered*int64(sw.dst.SampleRate) + int64(sw.src.SampleRate) - 1) / int64(sw.src.SampleRate)
		sw.buffered = 0
	}

	info := ffi.FrameInfo{
		NbSamples:  int32(produced),
		SampleRate: sw.dst.SampleRate,
		Channels:   sw.dst.Channels,
		Format:     sw.dst.SampleFormat,
		PTS:        o.info.PTS,
	}
	o.unref()
	o.info = info
	if produced > 0 {
		o.buf = &buffer{planes: audioPlanes(info.NbSamples, info.Channels, info.Format), refs: 1}
	}
	return 0
}

func (l *Library) SwrDelay(s ffi.Ptr, base int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sw := lookup[*swr](l, s)
	if sw == nil || sw.src.SampleRate <= 0 {
		return 0
	}
	return sw.buffered * base / int64(sw.src.SampleRate)
}

type sws struct {
	src, dst ffi.VideoFormat
	flags    int32
}

func (*sws) kind() string { return "sws" }

func validVideo(f ffi.VideoFormat) bool {
	return f.Width > 0 && f.Height > 0 && f.PixelFormat >= 0 && f.PixelFormat != UnsupportedPixelFormat
}

func (l *Library) SwsGetContext(src, dst ffi.VideoFormat, flags int32) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !validVideo(src) || !validVideo(dst) {
		return nil
	}
	return l.add(&sws{src: src, dst: dst, flags: flags})
}

func (l *Library) SwsScaleFrame(s, dst, src ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc := lookup[*sws](l, s)
	d, sf := lookup[*frame](l, dst), lookup[*frame](l, src)
	if sc == nil || d == nil || sf == nil || sf.buf == nil || d.buf == nil {
		return averror.CodeInvalid
	}
	if sf.info.Width != sc.src.Width || sf.info.Height != sc.src.Height || sf.info.Format != sc.src.PixelFormat {
		return averror.CodeInvalid
	}
	if d.info.Width != sc.dst.Width || d.info.Height != sc.dst.Height || d.info.Format != sc.dst.PixelFormat {
		return averror.CodeInvalid
	}
	// Fill the destination with the mean of the first source plane so
	// tests can observe that data moved.
	var sum int
	for _, b := range sf.buf.planes[0] {
		sum += int(b)
	}
	mean := byte(sum / max(len(sf.buf.planes[0]), 1))
	for _, p := range d.buf.planes {
		for i := range p {
			p[i] = mean
		}
	}
	return sc.dst.Height
}

func (l *Library) SwsFree(s ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remove(s)
}
