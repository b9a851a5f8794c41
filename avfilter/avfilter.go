//go:build !ios && !android && (amd64 || arm64)

// Package avfilter binds libavfilter graph construction and the
// buffer source and sink endpoints.
package avfilter

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/avutil"
	"github.com/obinnaokechukwu/ffwrap/internal/bindings"
)

type (
	// Graph is an AVFilterGraph.
	Graph = unsafe.Pointer
	// Context is an AVFilterContext.
	Context = unsafe.Pointer
	// Filter is an AVFilter.
	Filter = unsafe.Pointer
	// InOut is an AVFilterInOut list node.
	InOut = unsafe.Pointer
)

var (
	avfilterVersion           func() uint32
	avfilterGraphAlloc        func() unsafe.Pointer
	avfilterGraphFree         func(graph *unsafe.Pointer)
	avfilterGraphConfig       func(graph, logCtx unsafe.Pointer) int32
	avfilterGraphParse2       func(graph unsafe.Pointer, filters string, inputs, outputs *unsafe.Pointer) int32
	avfilterGraphCreateFilter func(filtCtx *unsafe.Pointer, filt unsafe.Pointer, name, args string, opaque, graph unsafe.Pointer) int32
	avfilterGetByName         func(name string) unsafe.Pointer
	avfilterLink              func(src unsafe.Pointer, srcPad uint32, dst unsafe.Pointer, dstPad uint32) int32
	avfilterInOutFree         func(inout *unsafe.Pointer)

	avBuffersrcAddFrameFlags func(ctx, frame unsafe.Pointer, flags int32) int32
	avBuffersinkGetFrame     func(ctx, frame unsafe.Pointer) int32

	bindOnce sync.Once
	bindErr  error
)

// BufferSrcFlagKeepRef makes the source take a new reference instead of
// moving the frame.
const BufferSrcFlagKeepRef = 8

// Bind registers the libavfilter symbols.
func Bind() error {
	bindOnce.Do(func() {
		if !bindings.Has(bindings.AVFilter) {
			bindErr = bindings.ErrNotLoaded
			return
		}
		lib := bindings.AVFilter
		bindings.Register(&avfilterVersion, lib, "avfilter_version")
		bindings.Register(&avfilterGraphAlloc, lib, "avfilter_graph_alloc")
		bindings.Register(&avfilterGraphFree, lib, "avfilter_graph_free")
		bindings.Register(&avfilterGraphConfig, lib, "avfilter_graph_config")
		bindings.Register(&avfilterGraphParse2, lib, "avfilter_graph_parse2")
		bindings.Register(&avfilterGraphCreateFilter, lib, "avfilter_graph_create_filter")
		bindings.Register(&avfilterGetByName, lib, "avfilter_get_by_name")
		bindings.Register(&avfilterLink, lib, "avfilter_link")
		bindings.Register(&avfilterInOutFree, lib, "avfilter_inout_free")

		bindings.Register(&avBuffersrcAddFrameFlags, lib, "av_buffersrc_add_frame_flags")
		bindings.Register(&avBuffersinkGetFrame, lib, "av_buffersink_get_frame")
	})
	return bindErr
}

// Version returns the packed libavfilter version, or 0 if not bound.
func Version() uint32 {
	if avfilterVersion == nil {
		return 0
	}
	return avfilterVersion()
}

// GraphAlloc allocates an empty filter graph.
func GraphAlloc() Graph {
	if avfilterGraphAlloc == nil {
		return nil
	}
	return avfilterGraphAlloc()
}

// GraphFree frees the graph and every filter in it.
func GraphFree(graph *Graph) {
	if graph == nil || *graph == nil || avfilterGraphFree == nil {
		return
	}
	avfilterGraphFree(graph)
	*graph = nil
}

// GraphConfig validates links and negotiates formats.
func GraphConfig(graph Graph) int32 {
	if avfilterGraphConfig == nil {
		return avutil.ENOSYS
	}
	return avfilterGraphConfig(graph, nil)
}

// GraphParse2 adds the filters described by desc to graph and returns its
// unconnected input and output pads.
func GraphParse2(graph Graph, desc string) (inputs, outputs InOut, ret int32) {
	if avfilterGraphParse2 == nil {
		return nil, nil, avutil.ENOSYS
	}
	ret = avfilterGraphParse2(graph, desc, &inputs, &outputs)
	runtime.KeepAlive(desc)
	return inputs, outputs, ret
}

// GetByName finds a registered filter.
func GetByName(name string) Filter {
	if avfilterGetByName == nil {
		return nil
	}
	return avfilterGetByName(name)
}

// GraphCreateFilter instantiates filter in graph.
func GraphCreateFilter(graph Graph, filter Filter, name, args string) (Context, int32) {
	if avfilterGraphCreateFilter == nil {
		return nil, avutil.ENOSYS
	}
	var ctx unsafe.Pointer
	ret := avfilterGraphCreateFilter(&ctx, filter, name, args, nil, graph)
	if ret < 0 {
		return nil, ret
	}
	return ctx, 0
}

// Link connects a source pad to a destination pad.
func Link(src Context, srcPad uint32, dst Context, dstPad uint32) int32 {
	if avfilterLink == nil {
		return avutil.ENOSYS
	}
	return avfilterLink(src, srcPad, dst, dstPad)
}

// BufferSrcAddFrame pushes frame into a buffer source. A nil frame marks
// end of stream.
func BufferSrcAddFrame(ctx Context, frame avutil.Frame) int32 {
	if avBuffersrcAddFrameFlags == nil {
		return avutil.ENOSYS
	}
	return avBuffersrcAddFrameFlags(ctx, frame, BufferSrcFlagKeepRef)
}

// BufferSinkGetFrame pulls a filtered frame from a buffer sink.
func BufferSinkGetFrame(ctx Context, frame avutil.Frame) int32 {
	if avBuffersinkGetFrame == nil {
		return avutil.ENOSYS
	}
	return avBuffersinkGetFrame(ctx, frame)
}

// AVFilterInOut layout.
const (
	offsetInOutName      = 0
	offsetInOutFilterCtx = 8
	offsetInOutPadIdx    = 16
	offsetInOutNext      = 24
)

// InOutNext returns the next node of the list.
func InOutNext(inout InOut) InOut {
	if inout == nil {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Add(inout, offsetInOutNext))
}

// InOutTarget returns the label, filter and pad a node refers to.
func InOutTarget(inout InOut) (name string, ctx Context, pad int32) {
	if inout == nil {
		return "", nil, 0
	}
	name = avutil.GoString(*(*unsafe.Pointer)(unsafe.Add(inout, offsetInOutName)))
	ctx = *(*unsafe.Pointer)(unsafe.Add(inout, offsetInOutFilterCtx))
	pad = *(*int32)(unsafe.Add(inout, offsetInOutPadIdx))
	return name, ctx, pad
}

// InOutFree frees a whole list and nils the pointer.
func InOutFree(inout *InOut) {
	if inout == nil || *inout == nil || avfilterInOutFree == nil {
		return
	}
	avfilterInOutFree(inout)
	*inout = nil
}
