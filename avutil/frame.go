//go:build !ios && !android && (amd64 || arm64)

package avutil

import "unsafe"

// NoPTSValue is AV_NOPTS_VALUE.
const NoPTSValue int64 = -9223372036854775808

// AVFrame field offsets, FFmpeg 6.x (avutil 58).
const (
	offsetData       = 0
	offsetLinesize   = 64
	offsetWidth      = 104
	offsetHeight     = 108
	offsetNbSamples  = 112
	offsetFormat     = 116
	offsetKeyFrame   = 120
	offsetPts        = 136
	offsetSampleRate = 216
	offsetChLayout   = 456 // AVChannelLayout ch_layout
)

func field[T any](frame Frame, off uintptr) *T {
	return (*T)(unsafe.Add(frame, off))
}

// FrameFields is the subset of AVFrame ffwrap reads and writes.
type FrameFields struct {
	Width      int32
	Height     int32
	Format     int32
	NbSamples  int32
	SampleRate int32
	Channels   int32
	PTS        int64
	KeyFrame   bool
}

// GetFrameFields reads the fields of frame.
func GetFrameFields(frame Frame) FrameFields {
	if frame == nil {
		return FrameFields{Format: -1, PTS: NoPTSValue}
	}
	return FrameFields{
		Width:      *field[int32](frame, offsetWidth),
		Height:     *field[int32](frame, offsetHeight),
		Format:     *field[int32](frame, offsetFormat),
		NbSamples:  *field[int32](frame, offsetNbSamples),
		SampleRate: *field[int32](frame, offsetSampleRate),
		Channels:   *field[int32](frame, offsetChLayout+4),
		PTS:        *field[int64](frame, offsetPts),
		KeyFrame:   *field[int32](frame, offsetKeyFrame) != 0,
	}
}

// SetFrameFields writes the format description of frame. Zero channel count
// leaves the channel layout untouched.
func SetFrameFields(frame Frame, f FrameFields) {
	if frame == nil {
		return
	}
	*field[int32](frame, offsetWidth) = f.Width
	*field[int32](frame, offsetHeight) = f.Height
	*field[int32](frame, offsetFormat) = f.Format
	*field[int32](frame, offsetNbSamples) = f.NbSamples
	*field[int32](frame, offsetSampleRate) = f.SampleRate
	*field[int64](frame, offsetPts) = f.PTS
	if f.Channels > 0 {
		ChannelLayoutDefault(unsafe.Add(frame, offsetChLayout), f.Channels)
	}
}

// SetFramePTS sets the presentation timestamp.
func SetFramePTS(frame Frame, pts int64) {
	if frame == nil {
		return
	}
	*field[int64](frame, offsetPts) = pts
}

// FramePlane returns plane of frame as a byte slice aliasing the frame
// buffer. rows is the number of lines the plane holds.
func FramePlane(frame Frame, plane int, rows int) []byte {
	if frame == nil || plane < 0 || plane >= 8 || rows <= 0 {
		return nil
	}
	data := (*[8]unsafe.Pointer)(unsafe.Add(frame, offsetData))[plane]
	linesize := (*[8]int32)(unsafe.Add(frame, offsetLinesize))[plane]
	if data == nil || linesize <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(data), int(linesize)*rows)
}

// FrameArrays returns the frame's data and linesize arrays in place.
func FrameArrays(frame Frame) (*[8]unsafe.Pointer, *[8]int32) {
	if frame == nil {
		return nil, nil
	}
	return field[[8]unsafe.Pointer](frame, offsetData), field[[8]int32](frame, offsetLinesize)
}
