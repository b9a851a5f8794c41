package ffitest

import (
	"strconv"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

type codec struct {
	info       ffi.CodecInfo
	pixFmts    []int32
	sampleFmts []int32
	rates      []int32
}

// Codec descriptors are static in FFmpeg; the fake never frees them.
func (l *Library) codecPtr(c *codec) ffi.Ptr { return unsafe.Pointer(c) }

func (l *Library) codecOf(p ffi.Ptr) *codec {
	for _, c := range l.codecs {
		if unsafe.Pointer(c) == p {
			return c
		}
	}
	return nil
}

func (l *Library) FindCodec(id int32, encoder bool) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.codecs {
		if c.info.ID == id && c.info.Encoder == encoder {
			return l.codecPtr(c)
		}
	}
	return nil
}

func (l *Library) FindCodecByName(name string, encoder bool) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.codecs {
		if c.info.Name == name && c.info.Encoder == encoder {
			return l.codecPtr(c)
		}
	}
	return nil
}

func (l *Library) CodecInfo(c ffi.Ptr) ffi.CodecInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cc := l.codecOf(c); cc != nil {
		return cc.info
	}
	return ffi.CodecInfo{MediaType: ffi.MediaTypeUnknown}
}

func (l *Library) CodecFormats(c ffi.Ptr, list ffi.FormatList) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	cc := l.codecOf(c)
	if cc == nil {
		return nil
	}
	var arr []int32
	switch list {
	case ffi.PixelFormats:
		arr = cc.pixFmts
	case ffi.SampleFormats:
		arr = cc.sampleFmts
	case ffi.SampleRates:
		arr = cc.rates
	}
	if len(arr) == 0 {
		return nil
	}
	return unsafe.Pointer(&arr[0])
}

type codecCtx struct {
	codec    *codec
	settings ffi.CodecSettings
	open     bool

	// decoding
	pending  []byte
	frames   []ffi.FrameInfo
	draining bool

	// encoding
	held    *ffi.FrameInfo
	packets []ffi.PacketInfo
}

func (*codecCtx) kind() string { return "codec_context" }

func (l *Library) CodecContextAlloc(c ffi.Ptr) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	ctx := &codecCtx{settings: ffi.CodecSettings{MediaType: ffi.MediaTypeUnknown, PixelFormat: -1, SampleFormat: -1}}
	if cc := l.codecOf(c); cc != nil {
		ctx.codec = cc
		ctx.settings.MediaType = cc.info.MediaType
	}
	return l.add(ctx)
}

func (l *Library) CodecContextFree(ctx *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx == nil {
		return
	}
	l.remove(*ctx)
	*ctx = nil
}

func (l *Library) CodecContextConfigure(ctx ffi.Ptr, s ffi.CodecSettings) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := lookup[*codecCtx](l, ctx)
	if c == nil {
		return averror.CodeInvalid
	}
	cur := &c.settings
	if s.Width > 0 && s.Height > 0 {
		cur.Width, cur.Height = s.Width, s.Height
	}
	if s.MediaType == ffi.MediaTypeVideo && s.PixelFormat >= 0 {
		cur.PixelFormat = s.PixelFormat
	}
	if s.SampleRate > 0 {
		cur.SampleRate = s.SampleRate
	}
	if s.Channels > 0 {
		cur.Channels = s.Channels
	}
	if s.MediaType == ffi.MediaTypeAudio && s.SampleFormat >= 0 {
		cur.SampleFormat = s.SampleFormat
	}
	if s.TimeBaseNum > 0 && s.TimeBaseDen > 0 {
		cur.TimeBaseNum, cur.TimeBaseDen = s.TimeBaseNum, s.TimeBaseDen
	}
	if s.BitRate > 0 {
		cur.BitRate = s.BitRate
	}
	if s.ThreadCount > 0 {
		cur.ThreadCount = s.ThreadCount
	}
	return 0
}

func (l *Library) CodecContextSettings(ctx ffi.Ptr) ffi.CodecSettings {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := lookup[*codecCtx](l, ctx); c != nil {
		return c.settings
	}
	return ffi.CodecSettings{MediaType: ffi.MediaTypeUnknown, PixelFormat: -1, SampleFormat: -1}
}

func (l *Library) CodecParametersToContext(ctx, par ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, p := lookup[*codecCtx](l, ctx), lookup[*streamParams](l, par)
	if c == nil || p == nil {
		return averror.CodeInvalid
	}
	s := &c.settings
	s.MediaType = p.info.MediaType
	s.Width, s.Height = p.info.Width, p.info.Height
	s.SampleRate = p.info.SampleRate
	if p.info.MediaType == ffi.MediaTypeAudio {
		s.SampleFormat = p.info.Format
	} else {
		s.PixelFormat = p.info.Format
	}
	return 0
}

// genericOption applies an AVCodecContext option every codec accepts.
func genericOption(s *ffi.CodecSettings, key, value string) int32 {
	switch key {
	case "b":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil || v < 0 {
			return averror.CodeInvalid
		}
		s.BitRate = v
	case "threads":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return averror.CodeInvalid
		}
		s.ThreadCount = int32(v)
	case "g", "bf", "flags":
		// accepted, no observable effect
	default:
		return averror.CodeOptionNotFound
	}
	return 0
}

func contains(list []int32, v int32) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (l *Library) CodecOpen(ctx, c ffi.Ptr, opts *ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	cc := lookup[*codecCtx](l, ctx)
	if cc == nil || cc.open {
		return averror.CodeInvalid
	}
	if cd := l.codecOf(c); cd != nil {
		cc.codec = cd
	}
	if cc.codec == nil {
		return averror.CodeInvalid
	}
	if ret := l.consumeOptionsLocked(opts, func(k, v string) int32 {
		return genericOption(&cc.settings, k, v)
	}); ret < 0 {
		return ret
	}

	s := cc.settings
	if cc.codec.info.Encoder {
		switch cc.codec.info.MediaType {
		case ffi.MediaTypeVideo:
			if s.Width <= 0 || s.Height <= 0 {
				return averror.CodeInvalid
			}
			if len(cc.codec.pixFmts) > 0 && !contains(cc.codec.pixFmts[:len(cc.codec.pixFmts)-1], s.PixelFormat) {
				return averror.CodeInvalid
			}
		case ffi.MediaTypeAudio:
			if s.SampleRate <= 0 || s.Channels <= 0 {
				return averror.CodeInvalid
			}
			if !contains(cc.codec.sampleFmts[:len(cc.codec.sampleFmts)-1], s.SampleFormat) {
				return averror.CodeInvalid
			}
			cc.settings.FrameSize = 1024
		}
	}
	cc.open = true
	return 0
}

func (l *Library) CodecSendPacket(ctx, pkt ffi.Ptr) int32 {
	l.mu.Lock()
	c := lookup[*codecCtx](l, ctx)
	if c == nil || !c.open || c.codec.info.Encoder {
		l.mu.Unlock()
		return averror.CodeInvalid
	}
	if c.draining {
		l.mu.Unlock()
		return averror.CodeEOF
	}
	p := lookup[*packet](l, pkt)
	if p == nil || len(p.data) == 0 {
		c.draining = true
		if len(c.pending) > 0 {
			c.frames = append(c.frames, c.frameInfo(ffi.NoPTS))
			c.pending = nil
		}
		l.mu.Unlock()
		return 0
	}
	if p.data[0] == 0xEE {
		emit := l.logLocked(16, "marker: invalid marker byte 0x%02x", p.data[0])
		l.mu.Unlock()
		emit()
		return averror.CodeInvalidData
	}
	for _, b := range p.data {
		if b == 0xFF {
			c.frames = append(c.frames, c.frameInfo(p.info.PTS))
			c.pending = nil
			continue
		}
		c.pending = append(c.pending, b)
	}
	l.mu.Unlock()
	return 0
}

func (c *codecCtx) frameInfo(pts int64) ffi.FrameInfo {
	w, h, pf := c.settings.Width, c.settings.Height, c.settings.PixelFormat
	if w <= 0 || h <= 0 {
		w, h = 2, 2
	}
	if pf < 0 {
		pf = 0
	}
	return ffi.FrameInfo{Width: w, Height: h, Format: pf, PTS: pts, KeyFrame: len(c.frames) == 0}
}

func (l *Library) CodecReceiveFrame(ctx, f ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := lookup[*codecCtx](l, ctx)
	fr := lookup[*frame](l, f)
	if c == nil || fr == nil || !c.open || c.codec.info.Encoder {
		return averror.CodeInvalid
	}
	if len(c.frames) == 0 {
		if c.draining {
			return averror.CodeEOF
		}
		return averror.CodeAgain
	}
	info := c.frames[0]
	c.frames = c.frames[1:]
	planes, ret := allocPlanes(info)
	if ret < 0 {
		return ret
	}
	fr.unref()
	fr.info = info
	fr.buf = &buffer{planes: planes, refs: 1}
	return 0
}

func (l *Library) CodecSendFrame(ctx, f ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := lookup[*codecCtx](l, ctx)
	if c == nil || !c.open || !c.codec.info.Encoder {
		return averror.CodeInvalid
	}
	if code := l.failLocked("avcodec_send_frame"); code < 0 {
		return code
	}
	if c.draining {
		return averror.CodeEOF
	}
	fr := lookup[*frame](l, f)
	if fr == nil {
		c.draining = true
		if c.held != nil {
			c.packets = append(c.packets, c.packetInfo(*c.held))
			c.held = nil
		}
		return 0
	}
	if fr.buf == nil {
		return averror.CodeInvalid
	}
	info := fr.info
	if c.codec.info.MediaType == ffi.MediaTypeAudio {
		// audio has no delay
		c.packets = append(c.packets, c.packetInfo(info))
		return 0
	}
	if info.Width != c.settings.Width || info.Height != c.settings.Height {
		return averror.CodeInvalid
	}
	if c.held != nil {
		c.packets = append(c.packets, c.packetInfo(*c.held))
	}
	c.held = &info
	return 0
}

func (c *codecCtx) packetInfo(f ffi.FrameInfo) ffi.PacketInfo {
	return ffi.PacketInfo{PTS: f.PTS, DTS: f.PTS, Duration: 1, Flags: 1}
}

func (l *Library) CodecReceivePacket(ctx, pkt ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := lookup[*codecCtx](l, ctx)
	p := lookup[*packet](l, pkt)
	if c == nil || p == nil || !c.open || !c.codec.info.Encoder {
		return averror.CodeInvalid
	}
	if len(c.packets) == 0 {
		if c.draining {
			return averror.CodeEOF
		}
		return averror.CodeAgain
	}
	info := c.packets[0]
	c.packets = c.packets[1:]
	p.unref()
	p.info = info
	p.buf = &buffer{planes: [][]byte{{0xFF, byte(info.PTS)}}, refs: 1}
	p.data = p.buf.planes[0]
	return 0
}

func (l *Library) CodecFlushBuffers(ctx ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := lookup[*codecCtx](l, ctx); c != nil {
		c.pending, c.frames, c.draining = nil, nil, false
		c.held, c.packets = nil, nil
	}
}
