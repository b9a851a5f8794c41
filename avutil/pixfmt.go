//go:build !ios && !android && (amd64 || arm64)

package avutil

// PixelFormat is an AVPixelFormat.
type PixelFormat int32

const (
	PixelFormatNone    PixelFormat = -1
	PixelFormatYUV420P PixelFormat = 0
	PixelFormatYUYV422 PixelFormat = 1
	PixelFormatRGB24   PixelFormat = 2
	PixelFormatBGR24   PixelFormat = 3
	PixelFormatYUV422P PixelFormat = 4
	PixelFormatYUV444P PixelFormat = 5
	PixelFormatGray8   PixelFormat = 8
	PixelFormatNV12    PixelFormat = 23
	PixelFormatRGBA    PixelFormat = 26
	PixelFormatBGRA    PixelFormat = 28
)

// PlaneRows returns how many lines plane p of a height-pixel image holds.
func (f PixelFormat) PlaneRows(height int32, p int) int {
	switch f {
	case PixelFormatYUV420P, PixelFormatNV12:
		if p == 0 {
			return int(height)
		}
		return int(height+1) / 2
	case PixelFormatYUV422P, PixelFormatYUV444P:
		return int(height)
	default:
		if p == 0 {
			return int(height)
		}
		return 0
	}
}

// SampleFormat is an AVSampleFormat.
type SampleFormat int32

const (
	SampleFormatNone SampleFormat = -1
	SampleFormatU8   SampleFormat = 0
	SampleFormatS16  SampleFormat = 1
	SampleFormatS32  SampleFormat = 2
	SampleFormatFlt  SampleFormat = 3
	SampleFormatDbl  SampleFormat = 4
	SampleFormatU8P  SampleFormat = 5
	SampleFormatS16P SampleFormat = 6
	SampleFormatS32P SampleFormat = 7
	SampleFormatFltP SampleFormat = 8
	SampleFormatDblP SampleFormat = 9
	SampleFormatS64  SampleFormat = 10
	SampleFormatS64P SampleFormat = 11
)

var sampleFormatNames = map[SampleFormat]string{
	SampleFormatU8:   "u8",
	SampleFormatS16:  "s16",
	SampleFormatS32:  "s32",
	SampleFormatFlt:  "flt",
	SampleFormatDbl:  "dbl",
	SampleFormatU8P:  "u8p",
	SampleFormatS16P: "s16p",
	SampleFormatS32P: "s32p",
	SampleFormatFltP: "fltp",
	SampleFormatDblP: "dblp",
	SampleFormatS64:  "s64",
	SampleFormatS64P: "s64p",
}

// String returns the FFmpeg name of the sample format.
func (f SampleFormat) String() string {
	if s, ok := sampleFormatNames[f]; ok {
		return s
	}
	return "none"
}

// Planar reports whether each channel is stored in its own plane.
func (f SampleFormat) Planar() bool {
	return f >= SampleFormatU8P && f <= SampleFormatDblP || f == SampleFormatS64P
}
