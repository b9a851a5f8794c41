package ffitest

import (
	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// Muxers the fake accepts. An empty name guesses from the URL, which the
// fake always allows. Matroska picks a 1/1000 time base for every stream
// when the header is written; the others keep the requested one.
var muxers = map[string]bool{"": true, "nut": true, "matroska": true, "mp4": true, "null": true}

type output struct {
	url     string
	format  string
	streams []ffi.StreamInfo
	params  []*streamParams
	header  bool
	trailer bool
}

func (*output) kind() string { return "output" }

// Written returns the packets written to url by the last output opened on
// it. After the trailer is written the url can also be opened as an input.
func (l *Library) Written(url string) []InputPacket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]InputPacket(nil), l.written[url]...)
}

func (l *Library) FormatOpenOutput(url, format string) (ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if code := l.failLocked("avformat_alloc_output_context2"); code < 0 {
		return nil, code
	}
	if !muxers[format] || (url == "" && format == "") {
		return nil, averror.CodeInvalid
	}
	l.written[url] = nil
	return l.add(&output{url: url, format: format}), 0
}

func (l *Library) FormatCloseOutput(ctx *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx == nil {
		return
	}
	if out := lookup[*output](l, *ctx); out != nil {
		for _, p := range out.params {
			l.remove(ptrOf(p))
		}
		l.remove(*ctx)
	}
	*ctx = nil
}

func (l *Library) FormatNewStream(ctx, enc, par ffi.Ptr, timeBaseNum, timeBaseDen int32) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := lookup[*output](l, ctx)
	if out == nil || out.header {
		return averror.CodeInvalid
	}
	var info ffi.StreamInfo
	switch {
	case enc != nil:
		c := lookup[*codecCtx](l, enc)
		if c == nil || !c.open {
			return averror.CodeInvalid
		}
		s := c.settings
		info = ffi.StreamInfo{
			MediaType:  s.MediaType,
			CodecID:    c.codec.info.ID,
			Width:      s.Width,
			Height:     s.Height,
			Format:     s.PixelFormat,
			SampleRate: s.SampleRate,
		}
		if s.MediaType == ffi.MediaTypeAudio {
			info.Format = s.SampleFormat
		}
	case par != nil:
		sp := lookup[*streamParams](l, par)
		if sp == nil {
			return averror.CodeInvalid
		}
		info = sp.info
	default:
		return averror.CodeInvalid
	}
	info.Index = int32(len(out.streams))
	info.TimeBaseNum, info.TimeBaseDen = timeBaseNum, timeBaseDen
	p := &streamParams{info: info}
	l.add(p)
	info.Params = ptrOf(p)
	out.streams = append(out.streams, info)
	out.params = append(out.params, p)
	return info.Index
}

func (l *Library) FormatWriteHeader(ctx ffi.Ptr, opts *ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := lookup[*output](l, ctx)
	if out == nil || out.header || len(out.streams) == 0 {
		return averror.CodeInvalid
	}
	if ret := l.consumeOptionsLocked(opts, func(k, _ string) int32 {
		switch k {
		case "movflags", "fflags", "write_crc32":
			return 0
		}
		return averror.CodeOptionNotFound
	}); ret < 0 {
		return ret
	}
	if code := l.failLocked("avformat_write_header"); code < 0 {
		return code
	}
	if out.format == "matroska" {
		for i := range out.streams {
			out.streams[i].TimeBaseNum, out.streams[i].TimeBaseDen = 1, 1000
			out.params[i].info = out.streams[i]
		}
	}
	out.header = true
	return 0
}

func (l *Library) FormatWritePacket(ctx, pkt ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out, p := lookup[*output](l, ctx), lookup[*packet](l, pkt)
	if out == nil || p == nil || !out.header || out.trailer {
		return averror.CodeInvalid
	}
	if code := l.failLocked("av_interleaved_write_frame"); code < 0 {
		return code
	}
	if p.info.StreamIndex < 0 || int(p.info.StreamIndex) >= len(out.streams) {
		return averror.CodeInvalid
	}
	l.written[out.url] = append(l.written[out.url], InputPacket{
		StreamIndex: p.info.StreamIndex,
		PTS:         p.info.PTS,
		Data:        append([]byte(nil), p.data...),
		Key:         p.info.Flags&1 != 0,
	})
	// the muxer takes over the reference
	p.unref()
	return 0
}

func (l *Library) FormatWriteTrailer(ctx ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := lookup[*output](l, ctx)
	if out == nil || !out.header || out.trailer {
		return averror.CodeInvalid
	}
	if code := l.failLocked("av_write_trailer"); code < 0 {
		return code
	}
	out.trailer = true
	if out.format != "null" && out.url != "" {
		streams := make([]ffi.StreamInfo, len(out.streams))
		for i, s := range out.streams {
			s.Params = nil
			streams[i] = s
		}
		l.inputs[out.url] = inputSpec{streams: streams, packets: append([]InputPacket(nil), l.written[out.url]...)}
	}
	return 0
}
