//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"strconv"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/avcodec"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// MediaType is an AVMediaType.
type MediaType int32

const (
	MediaTypeUnknown  MediaType = MediaType(ffi.MediaTypeUnknown)
	MediaTypeVideo    MediaType = MediaType(ffi.MediaTypeVideo)
	MediaTypeAudio    MediaType = MediaType(ffi.MediaTypeAudio)
	MediaTypeData     MediaType = MediaType(ffi.MediaTypeData)
	MediaTypeSubtitle MediaType = MediaType(ffi.MediaTypeSubtitle)
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// CodecID is an AVCodecID.
type CodecID = avcodec.CodecID

// Common codec IDs.
const (
	CodecIDNone     = avcodec.CodecIDNone
	CodecIDRawVideo = avcodec.CodecIDRAWVIDEO
	CodecIDMJPEG    = avcodec.CodecIDMJPEG
	CodecIDH264     = avcodec.CodecIDH264
	CodecIDHEVC     = avcodec.CodecIDHEVC
	CodecIDVP9      = avcodec.CodecIDVP9
	CodecIDAV1      = avcodec.CodecIDAV1
	CodecIDPCMS16LE = avcodec.CodecIDPCMS16LE
	CodecIDMP3      = avcodec.CodecIDMP3
	CodecIDAAC      = avcodec.CodecIDAAC
	CodecIDFLAC     = avcodec.CodecIDFLAC
	CodecIDOpus     = avcodec.CodecIDOpus
)

// Codec is an AVCodec descriptor. Descriptors are static in FFmpeg and are
// never freed.
type Codec struct {
	lib  ffi.Library
	raw  ffi.Ptr
	info ffi.CodecInfo
}

func findCodec(lib ffi.Library, raw ffi.Ptr, encoder bool, what string) (*Codec, error) {
	if raw == nil {
		code, kind := averror.CodeDecoderMissing, "decoder"
		if encoder {
			code, kind = averror.CodeEncoderMissing, "encoder"
		}
		return nil, averror.FromCode(code, "find_"+kind, kind+" not found: "+what)
	}
	return &Codec{lib: lib, raw: raw, info: lib.CodecInfo(raw)}, nil
}

// FindDecoder looks up a decoder by codec ID.
func FindDecoder(id CodecID, opts ...Option) (*Codec, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return findCodec(lib, lib.FindCodec(int32(id), false), false, "id "+strconv.Itoa(int(id)))
}

// FindEncoder looks up an encoder by codec ID.
func FindEncoder(id CodecID, opts ...Option) (*Codec, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return findCodec(lib, lib.FindCodec(int32(id), true), true, "id "+strconv.Itoa(int(id)))
}

// FindDecoderByName looks up a decoder by name, e.g. "h264".
func FindDecoderByName(name string, opts ...Option) (*Codec, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return findCodec(lib, lib.FindCodecByName(name, false), false, name)
}

// FindEncoderByName looks up an encoder by name, e.g. "libx264".
func FindEncoderByName(name string, opts ...Option) (*Codec, error) {
	lib, err := collect(opts).library()
	if err != nil {
		return nil, err
	}
	return findCodec(lib, lib.FindCodecByName(name, true), true, name)
}

// Name returns the short codec name, e.g. "h264".
func (c *Codec) Name() string { return c.info.Name }

// LongName returns the descriptive codec name.
func (c *Codec) LongName() string { return c.info.LongName }

// ID returns the codec ID.
func (c *Codec) ID() CodecID { return CodecID(c.info.ID) }

// MediaType returns the kind of media the codec handles.
func (c *Codec) MediaType() MediaType { return MediaType(c.info.MediaType) }

// IsEncoder reports whether the codec encodes.
func (c *Codec) IsEncoder() bool { return c.info.Encoder }

// formats walks one of the codec's sentinel-terminated int32 arrays.
func (c *Codec) formats(list ffi.FormatList) handle.List[ffi.Ptr] {
	end := list.Sentinel()
	return handle.NewList(c.lib.CodecFormats(c.raw, list),
		func(p ffi.Ptr) ffi.Ptr { return unsafe.Add(p, 4) },
		func(p ffi.Ptr) bool { return *(*int32)(p) == end },
	)
}

func collectInt32[T ~int32 | ~int](l handle.List[ffi.Ptr]) []T {
	var out []T
	for _, v := range l.All() {
		out = append(out, T(*(*int32)(v.Raw())))
	}
	return out
}

// PixelFormats returns the pixel formats the codec supports. Nil means the
// codec does not restrict them.
func (c *Codec) PixelFormats() []PixelFormat {
	return collectInt32[PixelFormat](c.formats(ffi.PixelFormats))
}

// SampleFormats returns the sample formats the codec supports.
func (c *Codec) SampleFormats() []SampleFormat {
	return collectInt32[SampleFormat](c.formats(ffi.SampleFormats))
}

// SampleRates returns the sample rates the codec supports.
func (c *Codec) SampleRates() []int {
	return collectInt32[int](c.formats(ffi.SampleRates))
}

// PixelFormatAt returns the i-th supported pixel format.
func (c *Codec) PixelFormatAt(i int, slot *averror.Slot) (PixelFormat, error) {
	v, err := c.formats(ffi.PixelFormats).At(i)
	if err != nil {
		return averror.Fail[PixelFormat](err).Deliver(slot)
	}
	return averror.Ok(PixelFormat(*(*int32)(v.Raw()))).Deliver(slot)
}

// SupportsPixelFormat reports whether the codec accepts pf. Codecs without a
// format list accept any format.
func (c *Codec) SupportsPixelFormat(pf PixelFormat) bool {
	l := c.formats(ffi.PixelFormats)
	if l.Empty() {
		return true
	}
	for _, v := range l.All() {
		if PixelFormat(*(*int32)(v.Raw())) == pf {
			return true
		}
	}
	return false
}

// SupportsSampleFormat reports whether the codec accepts sf.
func (c *Codec) SupportsSampleFormat(sf SampleFormat) bool {
	l := c.formats(ffi.SampleFormats)
	if l.Empty() {
		return true
	}
	for _, v := range l.All() {
		if SampleFormat(*(*int32)(v.Raw())) == sf {
			return true
		}
	}
	return false
}

func (c *Codec) String() string {
	return c.info.Name
}
