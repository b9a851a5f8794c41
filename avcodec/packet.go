//go:build !ios && !android && (amd64 || arm64)

package avcodec

import (
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
)

// AVPacket field offsets (FFmpeg 6.x/7.x).
const (
	offsetPacketBuf         = 0
	offsetPacketPts         = 8
	offsetPacketDts         = 16
	offsetPacketData        = 24
	offsetPacketSize        = 32
	offsetPacketStreamIndex = 36
	offsetPacketFlags       = 40
	offsetPacketDuration    = 64
)

// PacketFlagKey marks a keyframe packet.
const PacketFlagKey = 0x0001

// PacketAlloc allocates an empty AVPacket.
func PacketAlloc() Packet {
	if avPacketAlloc == nil {
		return nil
	}
	return avPacketAlloc()
}

// PacketFree frees the packet and nils the pointer.
func PacketFree(pkt *Packet) {
	if pkt == nil || *pkt == nil || avPacketFree == nil {
		return
	}
	avPacketFree(pkt)
	*pkt = nil
}

// PacketRef makes dst reference the buffer of src.
func PacketRef(dst, src Packet) int32 {
	if avPacketRef == nil {
		return avutil.ENOSYS
	}
	return avPacketRef(dst, src)
}

// PacketUnref drops the packet's buffer reference and resets its fields.
func PacketUnref(pkt Packet) {
	if pkt == nil || avPacketUnref == nil {
		return
	}
	avPacketUnref(pkt)
}

// NewPacket allocates a reference-counted payload of size bytes.
func NewPacket(pkt Packet, size int32) int32 {
	if avNewPacket == nil {
		return avutil.ENOSYS
	}
	return avNewPacket(pkt, size)
}

// PacketMakeWritable copies the payload if it is shared.
func PacketMakeWritable(pkt Packet) int32 {
	if avPacketMakeWritable == nil {
		return avutil.ENOSYS
	}
	return avPacketMakeWritable(pkt)
}

// PacketIsWritable reports whether the payload is owned by pkt alone.
func PacketIsWritable(pkt Packet) bool {
	if pkt == nil {
		return false
	}
	buf := *(*unsafe.Pointer)(unsafe.Add(pkt, offsetPacketBuf))
	return buf != nil && avutil.BufferIsWritable(buf)
}

// PacketData returns the payload, aliasing library memory.
func PacketData(pkt Packet) []byte {
	if pkt == nil {
		return nil
	}
	data := *(*unsafe.Pointer)(unsafe.Add(pkt, offsetPacketData))
	size := *(*int32)(unsafe.Add(pkt, offsetPacketSize))
	if data == nil || size <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), int(size))
}

// PacketFromData allocates a payload for pkt and copies data into it.
func PacketFromData(pkt Packet, data []byte) int32 {
	if ret := NewPacket(pkt, int32(len(data))); ret < 0 {
		return ret
	}
	copy(PacketData(pkt), data)
	return 0
}

// PacketShrinkFront advances the payload start by n bytes.
func PacketShrinkFront(pkt Packet, n int) {
	if pkt == nil || n <= 0 {
		return
	}
	size := (*int32)(unsafe.Add(pkt, offsetPacketSize))
	if int32(n) > *size {
		n = int(*size)
	}
	data := (*unsafe.Pointer)(unsafe.Add(pkt, offsetPacketData))
	*data = unsafe.Add(*data, n)
	*size -= int32(n)
}

// PacketFields is the subset of AVPacket ffwrap reads and writes.
type PacketFields struct {
	PTS         int64
	DTS         int64
	Duration    int64
	StreamIndex int32
	Flags       int32
}

// GetPacketFields reads the timing fields of pkt.
func GetPacketFields(pkt Packet) PacketFields {
	if pkt == nil {
		return PacketFields{PTS: avutil.NoPTSValue, DTS: avutil.NoPTSValue}
	}
	return PacketFields{
		PTS:         *(*int64)(unsafe.Add(pkt, offsetPacketPts)),
		DTS:         *(*int64)(unsafe.Add(pkt, offsetPacketDts)),
		Duration:    *(*int64)(unsafe.Add(pkt, offsetPacketDuration)),
		StreamIndex: *(*int32)(unsafe.Add(pkt, offsetPacketStreamIndex)),
		Flags:       *(*int32)(unsafe.Add(pkt, offsetPacketFlags)),
	}
}

// SetPacketFields writes the timing fields of pkt.
func SetPacketFields(pkt Packet, f PacketFields) {
	if pkt == nil {
		return
	}
	*(*int64)(unsafe.Add(pkt, offsetPacketPts)) = f.PTS
	*(*int64)(unsafe.Add(pkt, offsetPacketDts)) = f.DTS
	*(*int64)(unsafe.Add(pkt, offsetPacketDuration)) = f.Duration
	*(*int32)(unsafe.Add(pkt, offsetPacketStreamIndex)) = f.StreamIndex
	*(*int32)(unsafe.Add(pkt, offsetPacketFlags)) = f.Flags
}
