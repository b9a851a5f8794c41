//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// Packet is a reference-counted AVPacket of compressed data.
type Packet struct {
	lib ffi.Library
	h   *handle.Owned[ffi.Ptr]
}

var _ handle.Shared[*Packet] = (*Packet)(nil)

func allocPacket(lib ffi.Library) (*Packet, error) {
	p := lib.PacketAlloc()
	if p == nil {
		return nil, averror.New(averror.OutOfMemory, "av_packet_alloc", "failed to allocate packet")
	}
	return &Packet{lib: lib, h: handle.Acquire(p, handle.Func(lib.PacketFree))}, nil
}

// NewPacket allocates an empty packet.
func NewPacket(opts ...Option) (*Packet, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return allocPacket(lib)
}

// NewPacketFromData allocates a packet holding a copy of data.
func NewPacketFromData(data []byte, opts ...Option) (*Packet, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	p, err := allocPacket(lib)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return p, nil
	}
	if code := lib.PacketFromData(p.raw(), data); code < 0 {
		_ = p.Close()
		return nil, codeErr(lib, code, "av_new_packet")
	}
	return p, nil
}

func (p *Packet) raw() ffi.Ptr {
	if p == nil {
		return nil
	}
	return p.h.Raw()
}

func (p *Packet) info() ffi.PacketInfo {
	if p.raw() == nil {
		return ffi.PacketInfo{PTS: ffi.NoPTS, DTS: ffi.NoPTS}
	}
	return p.lib.PacketInfo(p.raw())
}

func (p *Packet) update(fn func(*ffi.PacketInfo)) {
	if p.raw() == nil {
		return
	}
	info := p.lib.PacketInfo(p.raw())
	fn(&info)
	p.lib.PacketSetInfo(p.raw(), info)
}

// Data returns the payload. The slice aliases the packet buffer.
func (p *Packet) Data() []byte {
	if p.raw() == nil {
		return nil
	}
	return p.lib.PacketData(p.raw())
}

// Size returns the payload size in bytes.
func (p *Packet) Size() int {
	return len(p.Data())
}

// PTS returns the presentation timestamp, or NoPTS.
func (p *Packet) PTS() int64 { return p.info().PTS }

// DTS returns the decoding timestamp, or NoPTS.
func (p *Packet) DTS() int64 { return p.info().DTS }

// Duration returns the packet duration in stream time base units.
func (p *Packet) Duration() int64 { return p.info().Duration }

// StreamIndex returns the index of the stream the packet belongs to.
func (p *Packet) StreamIndex() int { return int(p.info().StreamIndex) }

// IsKeyFrame reports whether AV_PKT_FLAG_KEY is set.
func (p *Packet) IsKeyFrame() bool { return p.info().Flags&1 != 0 }

// SetPTS sets the presentation timestamp.
func (p *Packet) SetPTS(pts int64) {
	p.update(func(i *ffi.PacketInfo) { i.PTS = pts })
}

// SetDTS sets the decoding timestamp.
func (p *Packet) SetDTS(dts int64) {
	p.update(func(i *ffi.PacketInfo) { i.DTS = dts })
}

// SetStreamIndex sets the stream index.
func (p *Packet) SetStreamIndex(idx int) {
	p.update(func(i *ffi.PacketInfo) { i.StreamIndex = int32(idx) })
}

// RescaleTS converts the packet timestamps from time base from to to.
func (p *Packet) RescaleTS(from, to Rational) {
	p.update(func(i *ffi.PacketInfo) {
		if i.PTS != ffi.NoPTS {
			i.PTS = Rescale(i.PTS, from, to)
		}
		if i.DTS != ffi.NoPTS {
			i.DTS = Rescale(i.DTS, from, to)
		}
		i.Duration = Rescale(i.Duration, from, to)
	})
}

// Clone returns a new packet sharing p's payload.
func (p *Packet) Clone() (*Packet, error) {
	if p.raw() == nil {
		return nil, averror.New(averror.InvalidArgument, "packet.clone", "packet is closed")
	}
	c, err := allocPacket(p.lib)
	if err != nil {
		return nil, err
	}
	if code := p.lib.PacketRef(c.raw(), p.raw()); code < 0 {
		_ = c.Close()
		return nil, codeErr(p.lib, code, "av_packet_ref")
	}
	return c, nil
}

// IsReferenced reports whether p's payload is shared with another packet.
func (p *Packet) IsReferenced() bool {
	if p.Size() == 0 {
		return false
	}
	return !p.lib.PacketIsWritable(p.raw())
}

// MakeWritable copies a shared payload so p can be written without
// affecting other references.
func (p *Packet) MakeWritable(slot *averror.Slot) error {
	var err error
	if p.raw() == nil {
		err = averror.New(averror.InvalidArgument, "packet.make_writable", "packet is closed")
	} else {
		err = codeErr(p.lib, p.lib.PacketMakeWritable(p.raw()), "av_packet_make_writable")
	}
	return averror.Check(slot, err)
}

// Unref drops the payload, keeping the packet itself for reuse.
func (p *Packet) Unref() {
	if p.raw() != nil {
		p.lib.PacketUnref(p.raw())
	}
}

// Close frees the packet. It is safe to call more than once.
func (p *Packet) Close() error {
	if p == nil {
		return nil
	}
	return p.h.Close()
}

func (p *Packet) String() string {
	if p.raw() == nil {
		return "Packet(closed)"
	}
	info := p.info()
	return fmt.Sprintf("Packet(stream=%d pts=%d dts=%d size=%s key=%t)",
		info.StreamIndex, info.PTS, info.DTS, humanize.IBytes(uint64(p.Size())), info.Flags&1 != 0)
}
