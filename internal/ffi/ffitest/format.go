package ffitest

import (
	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// InputPacket is one packet of a registered input, or one packet a muxer
// wrote. Key packets are seek points.
type InputPacket struct {
	StreamIndex int32
	PTS         int64
	Data        []byte
	Key         bool
}

// codePerm is AVERROR(EPERM), what av_seek_frame returns when no seek
// point qualifies.
const codePerm int32 = -1

type inputSpec struct {
	streams []ffi.StreamInfo
	packets []InputPacket
}

type input struct {
	streams []ffi.StreamInfo
	params  []*streamParams
	packets []InputPacket
	next    int
}

func (*input) kind() string { return "input" }

type streamParams struct {
	info ffi.StreamInfo
}

func (*streamParams) kind() string { return "stream_params" }

// AddInput registers url so FormatOpenInput can open it.
func (l *Library) AddInput(url string, streams []ffi.StreamInfo, packets []InputPacket) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inputs[url] = inputSpec{streams: streams, packets: packets}
}

func (l *Library) FormatOpenInput(url string, opts *ffi.Ptr) (ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	clip, ok := l.inputs[url]
	if !ok {
		return nil, averror.CodeNotFound
	}
	if ret := l.consumeOptionsLocked(opts, func(k, _ string) int32 {
		switch k {
		case "probesize", "analyzeduration", "fflags":
			return 0
		}
		return averror.CodeOptionNotFound
	}); ret < 0 {
		return nil, ret
	}
	in := &input{packets: clip.packets}
	for i, s := range clip.streams {
		s.Index = int32(i)
		p := &streamParams{info: s}
		l.add(p)
		s.Params = ptrOf(p)
		in.streams = append(in.streams, s)
		in.params = append(in.params, p)
	}
	return l.add(in), 0
}

func (l *Library) FormatFindStreamInfo(ctx ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lookup[*input](l, ctx) == nil {
		return averror.CodeInvalid
	}
	return 0
}

func (l *Library) FormatCloseInput(ctx *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx == nil {
		return
	}
	if in := lookup[*input](l, *ctx); in != nil {
		for _, p := range in.params {
			l.remove(ptrOf(p))
		}
		l.remove(*ctx)
	}
	*ctx = nil
}

func (l *Library) FormatStreams(ctx ffi.Ptr) []ffi.StreamInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if in := lookup[*input](l, ctx); in != nil {
		return append([]ffi.StreamInfo(nil), in.streams...)
	}
	if out := lookup[*output](l, ctx); out != nil {
		return append([]ffi.StreamInfo(nil), out.streams...)
	}
	return nil
}

func (l *Library) FormatReadFrame(ctx, pkt ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	in, p := lookup[*input](l, ctx), lookup[*packet](l, pkt)
	if in == nil || p == nil {
		return averror.CodeInvalid
	}
	if in.next >= len(in.packets) {
		return averror.CodeEOF
	}
	src := in.packets[in.next]
	in.next++
	p.unref()
	p.buf = &buffer{planes: [][]byte{append([]byte(nil), src.Data...)}, refs: 1}
	p.data = p.buf.planes[0]
	p.info = ffi.PacketInfo{PTS: src.PTS, DTS: src.PTS, StreamIndex: src.StreamIndex}
	if src.Key {
		p.info.Flags = 1
	}
	return 0
}

// FormatSeek positions the input on a seek point of one stream. Stream -1
// seeks the first video stream, or stream 0, with ts in microseconds. Key
// packets are the seek points; with SeekAny, or when the stream has no key
// packets, every packet is.
func (l *Library) FormatSeek(ctx ffi.Ptr, stream int32, ts int64, flags int32) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	in := lookup[*input](l, ctx)
	if in == nil || int(stream) >= len(in.streams) || stream < -1 {
		return averror.CodeInvalid
	}
	if flags&(ffi.SeekByte|ffi.SeekFrame) != 0 {
		return codePerm
	}
	if stream < 0 {
		stream = 0
		for _, s := range in.streams {
			if s.MediaType == ffi.MediaTypeVideo {
				stream = s.Index
				break
			}
		}
		if len(in.streams) == 0 {
			return codePerm
		}
		tb := in.streams[stream]
		if tb.TimeBaseNum > 0 && tb.TimeBaseDen > 0 {
			ts = ts * int64(tb.TimeBaseDen) / (int64(tb.TimeBaseNum) * 1_000_000)
		}
	}
	var points, keys []int
	for i, p := range in.packets {
		if p.StreamIndex != stream {
			continue
		}
		points = append(points, i)
		if p.Key {
			keys = append(keys, i)
		}
	}
	if flags&ffi.SeekAny == 0 && len(keys) > 0 {
		points = keys
	}
	target := -1
	for _, i := range points {
		pts := in.packets[i].PTS
		if flags&ffi.SeekBackward != 0 {
			if pts <= ts {
				target = i
			}
			continue
		}
		if pts >= ts {
			target = i
			break
		}
	}
	if target < 0 {
		return codePerm
	}
	in.next = target
	return 0
}
