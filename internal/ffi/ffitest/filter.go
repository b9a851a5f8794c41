package ffitest

import (
	"strconv"
	"strings"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// Filters the fake graph parser knows and their output pad counts.
var filterOutputs = map[string]int{
	"null":  1,
	"anull": 1,
	"copy":  1,
	"split": 2,
}

type graph struct {
	filters    []*filterCtx
	configured bool
}

func (*graph) kind() string { return "filter_graph" }

type filterCtx struct {
	graph   *graph
	name    string
	filter  string
	args    string
	outputs []*filterCtx // linked destination per output pad
	hasIn   bool         // input pad linked

	// buffersink queue
	queue []ffi.Ptr
	eof   bool
}

func (*filterCtx) kind() string { return "filter" }

func (f *filterCtx) isSource() bool { return f.filter == "buffer" || f.filter == "abuffer" }
func (f *filterCtx) isSink() bool   { return f.filter == "buffersink" || f.filter == "abuffersink" }

type inOut struct {
	name string
	ctx  *filterCtx
	pad  int32
	next *inOut
}

func (*inOut) kind() string { return "inout" }

func (l *Library) FilterGraphAlloc() ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(&graph{})
}

func (l *Library) FilterGraphFree(g *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if g == nil {
		return
	}
	if gr := lookup[*graph](l, *g); gr != nil {
		for _, f := range gr.filters {
			for _, fr := range f.queue {
				l.freeFrameLocked(fr)
			}
			l.remove(ptrOf(f))
		}
		l.remove(*g)
	}
	*g = nil
}

func (l *Library) freeFrameLocked(p ffi.Ptr) {
	if fr := lookup[*frame](l, p); fr != nil {
		fr.unref()
		l.remove(p)
	}
}

func (l *Library) newFilterLocked(g *graph, filter, name, args string) *filterCtx {
	f := &filterCtx{graph: g, name: name, filter: filter, args: args}
	n := 1
	if f.isSink() {
		n = 0
	} else if c, ok := filterOutputs[filter]; ok {
		n = c
	}
	f.outputs = make([]*filterCtx, n)
	g.filters = append(g.filters, f)
	l.add(f)
	return f
}

func (l *Library) FilterGraphParse(g ffi.Ptr, desc string) (ffi.Ptr, ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gr := lookup[*graph](l, g)
	if gr == nil {
		return nil, nil, averror.CodeInvalid
	}
	names := strings.Split(desc, ",")
	for _, n := range names {
		if _, ok := filterOutputs[strings.TrimSpace(n)]; !ok {
			return nil, nil, averror.CodeFilterMissing
		}
	}
	var first, prev *filterCtx
	for i, n := range names {
		f := l.newFilterLocked(gr, strings.TrimSpace(n), "Parsed_"+strings.TrimSpace(n)+"_"+strconv.Itoa(i), "")
		if prev != nil {
			prev.outputs[0] = f
			f.hasIn = true
		} else {
			first = f
		}
		prev = f
	}

	in := &inOut{name: "in", ctx: first}
	l.add(in)
	var head, tail *inOut
	for pad := range prev.outputs {
		o := &inOut{name: "out", ctx: prev, pad: int32(pad)}
		if len(prev.outputs) > 1 {
			o.name = "out" + strconv.Itoa(pad)
		}
		l.add(o)
		if head == nil {
			head = o
		} else {
			tail.next = o
		}
		tail = o
	}
	return ptrOf(in), ptrOf(head), 0
}

func (l *Library) FilterGraphConfig(g ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	gr := lookup[*graph](l, g)
	if gr == nil {
		return averror.CodeInvalid
	}
	for _, f := range gr.filters {
		if !f.isSource() && !f.hasIn {
			return averror.CodeInvalid
		}
		for _, o := range f.outputs {
			if o == nil {
				return averror.CodeInvalid
			}
		}
	}
	gr.configured = true
	return 0
}

func (l *Library) FilterInOutNext(io ffi.Ptr) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := lookup[*inOut](l, io); n != nil && n.next != nil {
		return ptrOf(n.next)
	}
	return nil
}

func (l *Library) FilterInOutTarget(io ffi.Ptr) (string, ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := lookup[*inOut](l, io)
	if n == nil {
		return "", nil, 0
	}
	return n.name, ptrOf(n.ctx), n.pad
}

func (l *Library) FilterInOutFree(io *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if io == nil {
		return
	}
	for n := lookup[*inOut](l, *io); n != nil; n = n.next {
		l.remove(ptrOf(n))
	}
	*io = nil
}

func (l *Library) FilterCreate(g ffi.Ptr, filter, name, args string) (ffi.Ptr, int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gr := lookup[*graph](l, g)
	if gr == nil {
		return nil, averror.CodeInvalid
	}
	switch filter {
	case "buffer", "abuffer", "buffersink", "abuffersink":
	default:
		if _, ok := filterOutputs[filter]; !ok {
			return nil, averror.CodeFilterMissing
		}
	}
	if (filter == "buffer" || filter == "abuffer") && args == "" {
		return nil, averror.CodeInvalid
	}
	return ptrOf(l.newFilterLocked(gr, filter, name, args)), 0
}

func (l *Library) FilterLink(src ffi.Ptr, srcPad int32, dst ffi.Ptr, dstPad int32) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, d := lookup[*filterCtx](l, src), lookup[*filterCtx](l, dst)
	if s == nil || d == nil || srcPad < 0 || int(srcPad) >= len(s.outputs) || dstPad != 0 || d.isSource() {
		return averror.CodeInvalid
	}
	s.outputs[srcPad] = d
	d.hasIn = true
	return 0
}

func (l *Library) BufferSrcAddFrame(ctx, f ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := lookup[*filterCtx](l, ctx)
	if src == nil || !src.isSource() || !src.graph.configured {
		return averror.CodeInvalid
	}
	// follow pad 0 down to the sink
	sink := src
	for !sink.isSink() {
		sink = sink.outputs[0]
	}
	if sink.eof {
		return averror.CodeEOF
	}
	fr := lookup[*frame](l, f)
	if fr == nil {
		sink.eof = true
		return 0
	}
	cp := &frame{info: fr.info, buf: fr.buf}
	if cp.buf != nil {
		cp.buf.refs++
	}
	sink.queue = append(sink.queue, l.add(cp))
	return 0
}

func (l *Library) BufferSinkGetFrame(ctx, f ffi.Ptr) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	sink := lookup[*filterCtx](l, ctx)
	out := lookup[*frame](l, f)
	if sink == nil || out == nil || !sink.isSink() {
		return averror.CodeInvalid
	}
	if len(sink.queue) == 0 {
		if sink.eof {
			return averror.CodeEOF
		}
		return averror.CodeAgain
	}
	p := sink.queue[0]
	sink.queue = sink.queue[1:]
	q := lookup[*frame](l, p)
	out.unref()
	out.info, out.buf = q.info, q.buf
	l.remove(p)
	return 0
}
