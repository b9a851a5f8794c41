package ffitest

import (
	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// buffer is a reference-counted payload shared by frames or packets.
type buffer struct {
	planes [][]byte
	refs   int
}

func (b *buffer) clone() *buffer {
	c := &buffer{planes: make([][]byte, len(b.planes)), refs: 1}
	for i, p := range b.planes {
		c.planes[i] = append([]byte(nil), p...)
	}
	return c
}

type frame struct {
	info ffi.FrameInfo
	buf  *buffer
}

func (*frame) kind() string { return "frame" }

func emptyFrameInfo() ffi.FrameInfo {
	return ffi.FrameInfo{Format: -1, PTS: ffi.NoPTS}
}

func (l *Library) FrameAlloc() ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(&frame{info: emptyFrameInfo()})
}

func (l *Library) FrameFree(f *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f == nil {
		return
	}
	if fr := lookup[*frame](l, *f); fr != nil {
		fr.unref()
		l.remove(*f)
	}
	*f = nil
}

func (fr *frame) unref() {
	if fr.buf != nil {
		fr.buf.refs--
	}
	fr.buf = nil
	fr.info = emptyFrameInfo()
}

func (l *Library) FrameRef(dst, src ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, s := lookup[*frame](l, dst), lookup[*frame](l, src)
	if d == nil || s == nil {
		return averror.CodeInvalid
	}
	d.unref()
	d.info = s.info
	if s.buf != nil {
		s.buf.refs++
		d.buf = s.buf
	}
	return 0
}

func (l *Library) FrameUnref(f ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fr := lookup[*frame](l, f); fr != nil {
		fr.unref()
	}
}

// bytesPerSample returns the size of one sample of an AVSampleFormat.
func bytesPerSample(format int32) int {
	switch format {
	case 0, 5:
		return 1
	case 1, 6:
		return 2
	case 2, 3, 7, 8:
		return 4
	default:
		return 8
	}
}

func planarSampleFormat(format int32) bool {
	return format >= 5 && format <= 9 || format == 11
}

func videoPlanes(w, h, format int32) [][]byte {
	switch format {
	case 0: // yuv420p
		cw, ch := (w+1)/2, (h+1)/2
		return [][]byte{make([]byte, w*h), make([]byte, cw*ch), make([]byte, cw*ch)}
	case 2, 3: // rgb24, bgr24
		return [][]byte{make([]byte, w*h*3)}
	case 26, 28: // rgba, bgra
		return [][]byte{make([]byte, w*h*4)}
	default:
		return [][]byte{make([]byte, w*h)}
	}
}

func audioPlanes(samples, channels, format int32) [][]byte {
	bps := bytesPerSample(format)
	if planarSampleFormat(format) {
		planes := make([][]byte, channels)
		for i := range planes {
			planes[i] = make([]byte, int(samples)*bps)
		}
		return planes
	}
	return [][]byte{make([]byte, int(samples)*int(channels)*bps)}
}

func allocPlanes(info ffi.FrameInfo) ([][]byte, int32) {
	switch {
	case info.Width > 0 && info.Height > 0 && info.Format >= 0:
		return videoPlanes(info.Width, info.Height, info.Format), 0
	case info.NbSamples > 0 && info.Channels > 0 && info.Format >= 0:
		return audioPlanes(info.NbSamples, info.Channels, info.Format), 0
	default:
		return nil, averror.CodeInvalid
	}
}

func (l *Library) FrameGetBuffer(f ffi.Ptr, info ffi.FrameInfo) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr := lookup[*frame](l, f)
	if fr == nil {
		return averror.CodeInvalid
	}
	planes, ret := allocPlanes(info)
	if ret < 0 {
		return ret
	}
	fr.unref()
	fr.info = info
	fr.buf = &buffer{planes: planes, refs: 1}
	return 0
}

func (l *Library) FrameIsWritable(f ffi.Ptr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr := lookup[*frame](l, f)
	return fr != nil && fr.buf != nil && fr.buf.refs == 1
}

func (l *Library) FrameMakeWritable(f ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr := lookup[*frame](l, f)
	if fr == nil || fr.buf == nil {
		return averror.CodeInvalid
	}
	if fr.buf.refs > 1 {
		fr.buf.refs--
		fr.buf = fr.buf.clone()
	}
	return 0
}

func (l *Library) FrameInfo(f ffi.Ptr) ffi.FrameInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fr := lookup[*frame](l, f); fr != nil {
		return fr.info
	}
	return emptyFrameInfo()
}

func (l *Library) FrameSetPTS(f ffi.Ptr, pts int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fr := lookup[*frame](l, f); fr != nil {
		fr.info.PTS = pts
	}
}

func (l *Library) FramePlane(f ffi.Ptr, plane int) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	fr := lookup[*frame](l, f)
	if fr == nil || fr.buf == nil || plane < 0 || plane >= len(fr.buf.planes) {
		return nil
	}
	return fr.buf.planes[plane]
}

// Packets.

type packet struct {
	info ffi.PacketInfo
	buf  *buffer
	data []byte
}

func (*packet) kind() string { return "packet" }

func emptyPacketInfo() ffi.PacketInfo {
	return ffi.PacketInfo{PTS: ffi.NoPTS, DTS: ffi.NoPTS}
}

func (p *packet) unref() {
	if p.buf != nil {
		p.buf.refs--
	}
	p.buf, p.data = nil, nil
	p.info = emptyPacketInfo()
}

func (l *Library) PacketAlloc() ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(&packet{info: emptyPacketInfo()})
}

func (l *Library) PacketFree(p *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p == nil {
		return
	}
	if pk := lookup[*packet](l, *p); pk != nil {
		pk.unref()
		l.remove(*p)
	}
	*p = nil
}

func (l *Library) PacketRef(dst, src ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, s := lookup[*packet](l, dst), lookup[*packet](l, src)
	if d == nil || s == nil {
		return averror.CodeInvalid
	}
	d.unref()
	d.info = s.info
	if s.buf == nil {
		if s.data != nil {
			d.buf = &buffer{planes: [][]byte{append([]byte(nil), s.data...)}, refs: 1}
			d.data = d.buf.planes[0]
		}
		return 0
	}
	s.buf.refs++
	d.buf, d.data = s.buf, s.data
	return 0
}

func (l *Library) PacketUnref(p ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pk := lookup[*packet](l, p); pk != nil {
		pk.unref()
	}
}

func (l *Library) PacketFromData(p ffi.Ptr, data []byte) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	pk := lookup[*packet](l, p)
	if pk == nil {
		return averror.CodeInvalid
	}
	pk.unref()
	pk.buf = &buffer{planes: [][]byte{append([]byte(nil), data...)}, refs: 1}
	pk.data = pk.buf.planes[0]
	return 0
}

func (l *Library) PacketData(p ffi.Ptr) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pk := lookup[*packet](l, p); pk != nil && len(pk.data) > 0 {
		return pk.data
	}
	return nil
}

func (l *Library) PacketIsWritable(p ffi.Ptr) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	pk := lookup[*packet](l, p)
	return pk != nil && pk.buf != nil && pk.buf.refs == 1
}

func (l *Library) PacketMakeWritable(p ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	pk := lookup[*packet](l, p)
	if pk == nil {
		return averror.CodeInvalid
	}
	if pk.buf == nil || pk.buf.refs == 1 {
		return 0
	}
	offset := len(pk.buf.planes[0]) - len(pk.data)
	pk.buf.refs--
	pk.buf = pk.buf.clone()
	pk.data = pk.buf.planes[0][offset:]
	return 0
}

func (l *Library) PacketInfo(p ffi.Ptr) ffi.PacketInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pk := lookup[*packet](l, p); pk != nil {
		return pk.info
	}
	return emptyPacketInfo()
}

func (l *Library) PacketSetInfo(p ffi.Ptr, info ffi.PacketInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pk := lookup[*packet](l, p); pk != nil {
		pk.info = info
	}
}

func (l *Library) PacketShrinkFront(p ffi.Ptr, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pk := lookup[*packet](l, p)
	if pk == nil || n <= 0 {
		return
	}
	n = min(n, len(pk.data))
	pk.data = pk.data[n:]
}
