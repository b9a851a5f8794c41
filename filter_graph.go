//go:build !ios && !android && (amd64 || arm64)

package ffwrap

import (
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// FilterGraph is a configured libavfilter graph with one buffer source and
// one buffer sink per unlinked output of the description.
//
// Frames are pushed into the source and pulled from the sinks:
//
//	g, err := ffwrap.NewVideoFilterGraph("null", src, ffwrap.Rational{1, 25})
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
//	if err := g.Push(frame, nil); err != nil {
//	    return err
//	}
//	out, err := g.Pull(nil)
type FilterGraph struct {
	lib ffi.Library
	log logger.Logger
	h   *handle.Owned[ffi.Ptr]

	src     ffi.Ptr
	sinks   []ffi.Ptr
	inputs  []string
	outputs []string
	video   bool
}

// NewVideoFilterGraph builds desc for video frames described by src in
// time base tb.
func NewVideoFilterGraph(desc string, src VideoParams, tb Rational, opts ...Option) (*FilterGraph, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !tb.Valid() {
		tb = Rational{Num: 1, Den: 90000}
	}
	args := fmt.Sprintf("video_size=%dx%d:pix_fmt=%d:time_base=%d/%d:pixel_aspect=1/1",
		src.Width, src.Height, int(src.PixelFormat), tb.Num, tb.Den)
	return newFilterGraph(desc, true, args, opts)
}

// NewAudioFilterGraph builds desc for audio frames described by src. The
// time base is 1/SampleRate.
func NewAudioFilterGraph(desc string, src AudioParams, opts ...Option) (*FilterGraph, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	layout := src.ChannelLayout
	if layout == 0 {
		layout = DefaultChannelLayout(src.Channels)
	}
	args := fmt.Sprintf("time_base=1/%d:sample_rate=%d:sample_fmt=%d:channel_layout=0x%x",
		src.SampleRate, src.SampleRate, int(src.SampleFormat), uint64(layout))
	return newFilterGraph(desc, false, args, opts)
}

func newFilterGraph(desc string, video bool, srcArgs string, opts []Option) (*FilterGraph, error) {
	o := collect(opts)
	lib, err := o.library()
	if err != nil {
		return nil, err
	}
	p := lib.FilterGraphAlloc()
	if p == nil {
		return nil, averror.New(averror.OutOfMemory, "avfilter_graph_alloc", "cannot allocate filter graph")
	}
	g := &FilterGraph{
		lib:   lib,
		log:   o.logger().WithField("filters", desc),
		h:     handle.Acquire(p, handle.Func(lib.FilterGraphFree)),
		video: video,
	}
	if err := g.build(desc, srcArgs); err != nil {
		_ = g.Close()
		return nil, err
	}
	g.log.Debugf("configured with %d input(s) and %d output(s)", len(g.inputs), len(g.outputs))
	return g, nil
}

// inOuts is a view over an AVFilterInOut chain.
func (g *FilterGraph) inOuts(head ffi.Ptr) handle.List[ffi.Ptr] {
	return handle.NewList(head, g.lib.FilterInOutNext, nil)
}

func (g *FilterGraph) build(desc, srcArgs string) error {
	srcName, sinkName := "buffer", "buffersink"
	if !g.video {
		srcName, sinkName = "abuffer", "abuffersink"
	}

	ins, outs, code := g.lib.FilterGraphParse(g.h.Raw(), desc)
	defer g.lib.FilterInOutFree(&ins)
	defer g.lib.FilterInOutFree(&outs)
	if code < 0 {
		return codeErr(g.lib, code, "avfilter_graph_parse_ptr")
	}

	inputs := g.inOuts(ins)
	if n := inputs.Count(); n != 1 {
		return averror.New(averror.InvalidArgument, "avfilter_graph_parse_ptr",
			"filter graph %q has %d unlinked inputs, need 1", desc, n)
	}
	for _, v := range inputs.All() {
		name, ctx, pad := g.lib.FilterInOutTarget(v.Raw())
		src, code := g.lib.FilterCreate(g.h.Raw(), srcName, "src", srcArgs)
		if code < 0 {
			return codeErr(g.lib, code, "avfilter_graph_create_filter")
		}
		if code := g.lib.FilterLink(src, 0, ctx, pad); code < 0 {
			return codeErr(g.lib, code, "avfilter_link")
		}
		g.src = src
		g.inputs = append(g.inputs, name)
	}

	for i, v := range g.inOuts(outs).All() {
		name, ctx, pad := g.lib.FilterInOutTarget(v.Raw())
		sink, code := g.lib.FilterCreate(g.h.Raw(), sinkName, fmt.Sprintf("sink%d", i), "")
		if code < 0 {
			return codeErr(g.lib, code, "avfilter_graph_create_filter")
		}
		if code := g.lib.FilterLink(ctx, pad, sink, 0); code < 0 {
			return codeErr(g.lib, code, "avfilter_link")
		}
		g.sinks = append(g.sinks, sink)
		g.outputs = append(g.outputs, name)
	}
	if len(g.sinks) == 0 {
		return averror.New(averror.InvalidArgument, "avfilter_graph_parse_ptr", "filter graph %q has no outputs", desc)
	}

	return codeErr(g.lib, g.lib.FilterGraphConfig(g.h.Raw()), "avfilter_graph_config")
}

// Inputs returns the pad labels the buffer source feeds.
func (g *FilterGraph) Inputs() []string { return g.inputs }

// Outputs returns the pad labels of the sinks, in PullFrom order.
func (g *FilterGraph) Outputs() []string { return g.outputs }

func (g *FilterGraph) usable(op string) error {
	if g == nil || !g.h.Valid() {
		return averror.New(averror.NotOpen, op, "filter graph is closed")
	}
	return nil
}

// Push feeds frame into the graph. The graph takes its own reference; the
// caller keeps ownership of frame. A nil frame signals end of stream.
func (g *FilterGraph) Push(frame *Frame, slot *averror.Slot) error {
	err := g.usable("av_buffersrc_add_frame")
	if err == nil {
		if frame != nil && frame.raw() == nil {
			err = averror.New(averror.InvalidArgument, "av_buffersrc_add_frame", "frame is closed")
		} else {
			err = codeErr(g.lib, g.lib.BufferSrcAddFrame(g.src, frame.raw()), "av_buffersrc_add_frame")
		}
	}
	return averror.Check(slot, err)
}

// Pull returns the next frame of the first output, or nil when the graph
// needs more input. After the end of stream has been pushed and every
// frame pulled, it fails with AVERROR_EOF.
func (g *FilterGraph) Pull(slot *averror.Slot) (*Frame, error) {
	return g.PullFrom(0, slot)
}

// PullFrom is Pull for output i.
func (g *FilterGraph) PullFrom(i int, slot *averror.Slot) (*Frame, error) {
	return averror.Of(g.pull(i)).Deliver(slot)
}

func (g *FilterGraph) pull(i int) (*Frame, error) {
	if err := g.usable("av_buffersink_get_frame"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(g.sinks) {
		return nil, averror.New(averror.OutOfRange, "av_buffersink_get_frame",
			"output %d out of range for %d outputs", i, len(g.sinks))
	}
	f, err := allocFrame(g.lib)
	if err != nil {
		return nil, err
	}
	code := g.lib.BufferSinkGetFrame(g.sinks[i], f.raw())
	if code == averror.CodeAgain {
		_ = f.Close()
		return nil, nil
	}
	if code < 0 {
		_ = f.Close()
		return nil, codeErr(g.lib, code, "av_buffersink_get_frame")
	}
	return f, nil
}

// Close frees the graph and any frames still queued in it. It is safe to
// call more than once.
func (g *FilterGraph) Close() error {
	if g == nil || g.h == nil {
		return nil
	}
	g.src, g.sinks = nil, nil
	return g.h.Close()
}

func (g *FilterGraph) String() string {
	return fmt.Sprintf("FilterGraph(%v -> %v)", g.inputs, g.outputs)
}
