//go:build !ios && !android && (amd64 || arm64)

package ffi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/atomic"

	"github.com/obinnaokechukwu/ffwrap/avcodec"
	"github.com/obinnaokechukwu/ffwrap/avfilter"
	"github.com/obinnaokechukwu/ffwrap/avformat"
	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
	"github.com/obinnaokechukwu/ffwrap/internal/shim"
	"github.com/obinnaokechukwu/ffwrap/swresample"
	"github.com/obinnaokechukwu/ffwrap/swscale"
)

// native calls the FFmpeg shared libraries through the binding packages.
type native struct{}

// Default returns the Library backed by the system's FFmpeg libraries.
func Default() Library { return native{} }

var _ Library = native{}

func (native) Load() error {
	if err := bindings.Load(); err != nil {
		return err
	}
	for _, bind := range []func() error{avutil.Bind, avcodec.Bind, avformat.Bind} {
		if err := bind(); err != nil {
			return err
		}
	}
	// Optional libraries; their entry points report ENOSYS when missing.
	for _, bind := range []func() error{avfilter.Bind, swresample.Bind, swscale.Bind} {
		if err := bind(); err != nil && !errors.Is(err, bindings.ErrNotLoaded) {
			return err
		}
	}
	return shim.Load()
}

func versionString(name string, v uint32) string {
	return fmt.Sprintf("%s %d.%d.%d", name, v>>16, (v>>8)&0xff, v&0xff)
}

func (native) Version() string {
	parts := []string{
		versionString("avutil", avutil.Version()),
		versionString("avcodec", avcodec.Version()),
		versionString("avformat", avformat.Version()),
	}
	if v := avfilter.Version(); v != 0 {
		parts = append(parts, versionString("avfilter", v))
	}
	return strings.Join(parts, ", ")
}

func (native) Strerror(code int32) string { return avutil.ErrorString(code) }

func (native) FrameAlloc() Ptr { return avutil.FrameAlloc() }
func (native) FrameFree(f *Ptr) { avutil.FrameFree(f) }
func (native) FrameRef(dst, src Ptr) int32 { return avutil.FrameRef(dst, src) }
func (native) FrameUnref(f Ptr) { avutil.FrameUnref(f) }
func (native) FrameIsWritable(f Ptr) bool { return avutil.FrameIsWritable(f) }
func (native) FrameMakeWritable(f Ptr) int32 { return avutil.FrameMakeWritable(f) }
func (native) FrameSetPTS(f Ptr, pts int64) { avutil.SetFramePTS(f, pts) }

func (native) FrameGetBuffer(f Ptr, info FrameInfo) int32 {
	avutil.SetFrameFields(f, avutil.FrameFields(info))
	return avutil.FrameGetBuffer(f, 0)
}

func (native) FrameInfo(f Ptr) FrameInfo {
	return FrameInfo(avutil.GetFrameFields(f))
}

func (native) FramePlane(f Ptr, plane int) []byte {
	info := avutil.GetFrameFields(f)
	rows := 1
	if info.Width > 0 && info.Height > 0 {
		rows = avutil.PixelFormat(info.Format).PlaneRows(info.Height, plane)
	}
	return avutil.FramePlane(f, plane, rows)
}

func (native) PacketAlloc() Ptr { return avcodec.PacketAlloc() }
func (native) PacketFree(p *Ptr) { avcodec.PacketFree(p) }
func (native) PacketRef(dst, src Ptr) int32 { return avcodec.PacketRef(dst, src) }
func (native) PacketUnref(p Ptr) { avcodec.PacketUnref(p) }
func (native) PacketFromData(p Ptr, data []byte) int32 { return avcodec.PacketFromData(p, data) }
func (native) PacketData(p Ptr) []byte { return avcodec.PacketData(p) }
func (native) PacketIsWritable(p Ptr) bool { return avcodec.PacketIsWritable(p) }
func (native) PacketMakeWritable(p Ptr) int32 { return avcodec.PacketMakeWritable(p) }
func (native) PacketShrinkFront(p Ptr, n int) { avcodec.PacketShrinkFront(p, n) }

func (native) PacketInfo(p Ptr) PacketInfo {
	return PacketInfo(avcodec.GetPacketFields(p))
}

func (native) PacketSetInfo(p Ptr, info PacketInfo) {
	avcodec.SetPacketFields(p, avcodec.PacketFields(info))
}

func (native) DictSet(d *Ptr, key, value string) int32 { return avutil.DictSet(d, key, value, 0) }
func (native) DictNext(d, prev Ptr) Ptr { return avutil.DictNext(d, prev) }
func (native) DictEntry(e Ptr) (string, string) { return avutil.DictEntryKV(e) }
func (native) DictFree(d *Ptr) { avutil.DictFree(d) }

func (native) FindCodec(id int32, encoder bool) Ptr {
	if encoder {
		return avcodec.FindEncoder(avcodec.CodecID(id))
	}
	return avcodec.FindDecoder(avcodec.CodecID(id))
}

func (native) FindCodecByName(name string, encoder bool) Ptr {
	if encoder {
		return avcodec.FindEncoderByName(name)
	}
	return avcodec.FindDecoderByName(name)
}

func (native) CodecInfo(c Ptr) CodecInfo {
	f := avcodec.GetCodecFields(c)
	return CodecInfo{
		ID:        int32(f.ID),
		Name:      f.Name,
		LongName:  f.LongName,
		MediaType: f.MediaType,
		Encoder:   avcodec.IsEncoder(c),
	}
}

func (native) CodecFormats(c Ptr, list FormatList) Ptr {
	switch list {
	case PixelFormats:
		return avcodec.PixelFormats(c)
	case SampleFormats:
		return avcodec.SampleFormats(c)
	case SampleRates:
		return avcodec.SampleRates(c)
	default:
		return nil
	}
}

func (native) CodecContextAlloc(c Ptr) Ptr { return avcodec.AllocContext3(c) }
func (native) CodecContextFree(ctx *Ptr) { avcodec.FreeContext(ctx) }
func (native) CodecFlushBuffers(ctx Ptr) { avcodec.FlushBuffers(ctx) }

func (native) CodecContextConfigure(ctx Ptr, s CodecSettings) int32 {
	return avcodec.SetContextSettings(ctx, avcodec.ContextSettings(s))
}

func (native) CodecContextSettings(ctx Ptr) CodecSettings {
	return CodecSettings(avcodec.GetContextSettings(ctx))
}

func (native) CodecParametersToContext(ctx, par Ptr) int32 {
	return avcodec.ParametersToContext(ctx, par)
}

func (native) CodecOpen(ctx, c Ptr, opts *Ptr) int32 { return avcodec.Open2(ctx, c, opts) }
func (native) CodecSendPacket(ctx, pkt Ptr) int32 { return avcodec.SendPacket(ctx, pkt) }
func (native) CodecReceiveFrame(ctx, f Ptr) int32 { return avcodec.ReceiveFrame(ctx, f) }
func (native) CodecSendFrame(ctx, f Ptr) int32 { return avcodec.SendFrame(ctx, f) }
func (native) CodecReceivePacket(ctx, pkt Ptr) int32 { return avcodec.ReceivePacket(ctx, pkt) }

func (native) SwrAlloc(dst, src AudioFormat) (Ptr, int32) {
	return swresample.Alloc(swresample.Format(dst), swresample.Format(src))
}

func (native) SwrInit(s Ptr) int32 { return swresample.Init(s) }
func (native) SwrFree(s *Ptr) { swresample.Free(s) }
func (native) SwrConvertFrame(s, out, in Ptr) int32 { return swresample.ConvertFrame(s, out, in) }
func (native) SwrDelay(s Ptr, base int64) int64 { return swresample.Delay(s, base) }

func (native) SwsGetContext(src, dst VideoFormat, flags int32) Ptr {
	return swscale.GetContext(src.Width, src.Height, avutil.PixelFormat(src.PixelFormat),
		dst.Width, dst.Height, avutil.PixelFormat(dst.PixelFormat), flags)
}

func (native) SwsScaleFrame(s, dst, src Ptr) int32 { return swscale.ScaleFrame(s, dst, src) }
func (native) SwsFree(s Ptr) { swscale.FreeContext(s) }

func (native) FormatOpenInput(url string, opts *Ptr) (Ptr, int32) {
	return avformat.OpenInput(url, opts)
}

func (native) FormatFindStreamInfo(ctx Ptr) int32 { return avformat.FindStreamInfo(ctx) }
func (native) FormatCloseInput(ctx *Ptr) { avformat.CloseInput(ctx) }
func (native) FormatReadFrame(ctx, pkt Ptr) int32 { return avformat.ReadFrame(ctx, pkt) }

func (native) FormatSeek(ctx Ptr, stream int32, ts int64, flags int32) int32 {
	return avformat.SeekFrame(ctx, stream, ts, flags)
}

func (native) FormatOpenOutput(url, format string) (Ptr, int32) {
	return avformat.OpenOutput(url, format)
}

func (native) FormatCloseOutput(ctx *Ptr) { avformat.CloseOutput(ctx) }
func (native) FormatWriteHeader(ctx Ptr, opts *Ptr) int32 { return avformat.WriteHeader(ctx, opts) }
func (native) FormatWritePacket(ctx, pkt Ptr) int32 { return avformat.InterleavedWriteFrame(ctx, pkt) }
func (native) FormatWriteTrailer(ctx Ptr) int32 { return avformat.WriteTrailer(ctx) }

func (native) FormatNewStream(ctx, codecCtx, par Ptr, timeBaseNum, timeBaseDen int32) int32 {
	st := avformat.NewStream(ctx)
	if st == nil {
		return avutil.AVERROR_ENOMEM
	}
	dst := avformat.StreamCodecPar(st)
	var ret int32
	if codecCtx != nil {
		ret = avcodec.ParametersFromContext(dst, codecCtx)
	} else {
		ret = avcodec.ParametersCopy(dst, par)
		avcodec.ClearCodecTag(dst)
	}
	if ret < 0 {
		return ret
	}
	avformat.SetStreamTimeBase(st, timeBaseNum, timeBaseDen)
	return avformat.GetStreamFields(st).Index
}

func (native) FormatStreams(ctx Ptr) []StreamInfo {
	n := avformat.NumStreams(ctx)
	out := make([]StreamInfo, 0, n)
	for i := range n {
		f := avformat.GetStreamFields(avformat.GetStream(ctx, i))
		out = append(out, StreamInfo{
			Index:       f.Index,
			MediaType:   f.MediaType,
			CodecID:     int32(f.CodecID),
			Width:       f.Width,
			Height:      f.Height,
			Format:      f.Format,
			SampleRate:  f.SampleRate,
			TimeBaseNum: f.TimeBaseNum,
			TimeBaseDen: f.TimeBaseDen,
			Params:      f.Params,
		})
	}
	return out
}

func (native) FilterGraphAlloc() Ptr { return avfilter.GraphAlloc() }
func (native) FilterGraphFree(g *Ptr) { avfilter.GraphFree(g) }
func (native) FilterGraphConfig(g Ptr) int32 { return avfilter.GraphConfig(g) }
func (native) FilterInOutNext(io Ptr) Ptr { return avfilter.InOutNext(io) }
func (native) FilterInOutFree(io *Ptr) { avfilter.InOutFree(io) }

func (native) FilterGraphParse(g Ptr, desc string) (Ptr, Ptr, int32) {
	return avfilter.GraphParse2(g, desc)
}

func (native) FilterInOutTarget(io Ptr) (string, Ptr, int32) {
	return avfilter.InOutTarget(io)
}

func (native) FilterCreate(g Ptr, filter, name, args string) (Ptr, int32) {
	f := avfilter.GetByName(filter)
	if f == nil {
		return nil, avutil.AVERROR_FILTER_NOT_FOUND
	}
	return avfilter.GraphCreateFilter(g, f, name, args)
}

func (native) FilterLink(src Ptr, srcPad int32, dst Ptr, dstPad int32) int32 {
	return avfilter.Link(src, uint32(srcPad), dst, uint32(dstPad))
}

func (native) BufferSrcAddFrame(ctx, f Ptr) int32 { return avfilter.BufferSrcAddFrame(ctx, f) }
func (native) BufferSinkGetFrame(ctx, f Ptr) int32 { return avfilter.BufferSinkGetFrame(ctx, f) }

var (
	logFn       atomic.Pointer[LogFunc]
	logCBOnce   sync.Once
	logCBHandle uintptr
)

// logTrampoline receives each line the shim formatted.
func logTrampoline(_ unsafe.Pointer, level int32, msg *byte) {
	fn := logFn.Load()
	if fn == nil || *fn == nil {
		return
	}
	(*fn)(level, avutil.GoString(unsafe.Pointer(msg)))
}

func (native) SetLogCallback(fn LogFunc) error {
	if fn == nil {
		logFn.Store(nil)
		return shim.SetLogCallback(0)
	}
	logFn.Store(&fn)
	logCBOnce.Do(func() {
		logCBHandle = purego.NewCallback(logTrampoline)
	})
	return shim.SetLogCallback(logCBHandle)
}

func (native) SetLogLevel(level int32) {
	avutil.LogSetLevel(level)
	_ = shim.SetLogLevel(level)
}

func (native) Unload() error {
	logFn.Store(nil)
	_ = shim.SetLogCallback(0)
	return errors.Join(shim.Unload(), bindings.Unload())
}
