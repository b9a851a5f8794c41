// Package ffitest provides an in-memory ffi.Library with deterministic
// codecs, converters, demuxer, muxer and filter graph, so the wrapper can
// be tested without FFmpeg installed.
//
// Codecs registered by New:
//
//   - "marker" (decoder, video, id MarkerID): buffers packet bytes; every
//     0xFF byte completes a frame. A packet starting with 0xEE is rejected
//     with AVERROR_INVALIDDATA. Draining turns buffered bytes into a last
//     frame.
//   - "markerenc" (encoder, video, id MarkerID): emits one packet per frame
//     with a one-frame delay. Requires non-zero dimensions.
//   - "toneenc" (encoder, audio, id ToneID): one packet per frame, no delay.
//
// Handles are Go pointers; the fake keeps every live object in a registry,
// which also backs Live for leak checks.
package ffitest

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// Codec IDs of the fake codecs.
const (
	MarkerID int32 = 900
	ToneID   int32 = 901
)

// Library is the fake. The zero value is not usable; call New.
type Library struct {
	mu sync.Mutex

	objects map[ffi.Ptr]object
	codecs  []*codec
	inputs  map[string]inputSpec
	written map[string][]InputPacket

	failures   map[string]int32
	loadErr    error
	loads      int
	unloads    int
	logFn      ffi.LogFunc
	logLevel   int32
	swrLatency int64
}

type object interface{ kind() string }

// Option configures the fake.
type Option func(*Library)

// WithLoadError makes Load fail with err.
func WithLoadError(err error) Option {
	return func(l *Library) { l.loadErr = err }
}

// WithResamplerLatency sets how many input samples the resampler holds
// back. The default is 8.
func WithResamplerLatency(samples int64) Option {
	return func(l *Library) { l.swrLatency = samples }
}

// New returns a fake library with the fake codecs registered.
func New(opts ...Option) *Library {
	l := &Library{
		objects:    make(map[ffi.Ptr]object),
		inputs:     make(map[string]inputSpec),
		written:    make(map[string][]InputPacket),
		failures:   make(map[string]int32),
		logLevel:   32,
		swrLatency: 8,
	}
	l.codecs = []*codec{
		{info: ffi.CodecInfo{ID: MarkerID, Name: "marker", LongName: "Marker test decoder", MediaType: ffi.MediaTypeVideo}},
		{
			info:    ffi.CodecInfo{ID: MarkerID, Name: "markerenc", LongName: "Marker test encoder", MediaType: ffi.MediaTypeVideo, Encoder: true},
			pixFmts: []int32{0, 2, -1},
		},
		{
			info:       ffi.CodecInfo{ID: ToneID, Name: "toneenc", LongName: "Tone test encoder", MediaType: ffi.MediaTypeAudio, Encoder: true},
			sampleFmts: []int32{1, 8, -1},
			rates:      []int32{44100, 48000, 0},
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

var _ ffi.Library = (*Library)(nil)

func (l *Library) add(o object) ffi.Ptr {
	p := ptrOf(o)
	l.objects[p] = o
	return p
}

func ptrOf(o object) ffi.Ptr {
	switch v := o.(type) {
	case *frame:
		return unsafe.Pointer(v)
	case *packet:
		return unsafe.Pointer(v)
	case *dict:
		return unsafe.Pointer(v)
	case *dictEntry:
		return unsafe.Pointer(v)
	case *codecCtx:
		return unsafe.Pointer(v)
	case *swr:
		return unsafe.Pointer(v)
	case *sws:
		return unsafe.Pointer(v)
	case *input:
		return unsafe.Pointer(v)
	case *streamParams:
		return unsafe.Pointer(v)
	case *output:
		return unsafe.Pointer(v)
	case *graph:
		return unsafe.Pointer(v)
	case *filterCtx:
		return unsafe.Pointer(v)
	case *inOut:
		return unsafe.Pointer(v)
	default:
		panic(fmt.Sprintf("ffitest: unknown object %T", o))
	}
}

func lookup[T object](l *Library, p ffi.Ptr) T {
	var zero T
	if p == nil {
		return zero
	}
	o, ok := l.objects[p].(T)
	if !ok {
		return zero
	}
	return o
}

func (l *Library) remove(p ffi.Ptr) {
	delete(l.objects, p)
}

// Live returns the number of live objects of each kind.
func (l *Library) Live() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int)
	for _, o := range l.objects {
		switch o.(type) {
		case *dictEntry, *streamParams, *inOut:
			// owned by their container
			continue
		}
		out[o.kind()]++
	}
	return out
}

// FailNext makes the next call of the named C entry point, e.g.
// "avcodec_send_frame", return code instead of running.
func (l *Library) FailNext(entry string, code int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[entry] = code
}

func (l *Library) failLocked(entry string) int32 {
	code, ok := l.failures[entry]
	if !ok {
		return 0
	}
	delete(l.failures, entry)
	return code
}

// LiveTotal returns the number of live top-level objects.
func (l *Library) LiveTotal() int {
	n := 0
	for _, c := range l.Live() {
		n += c
	}
	return n
}

// Loads returns how many times Load was called.
func (l *Library) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// Unloads returns how many times Unload was called.
func (l *Library) Unloads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unloads
}

// LogLevel returns the level last passed to SetLogLevel.
func (l *Library) LogLevel() int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logLevel
}

// Log emits a line through the installed log callback, the way av_log
// would.
func (l *Library) Log(level int32, msg string) {
	l.mu.Lock()
	fn, limit := l.logFn, l.logLevel
	l.mu.Unlock()
	if fn != nil && level <= limit {
		fn(level, msg)
	}
}

func (l *Library) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	return l.loadErr
}

func (l *Library) Unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unloads++
	l.logFn = nil
	return nil
}

func (l *Library) Version() string { return "ffitest 1.0.0" }

var messages = map[int32]string{
	averror.CodeEOF:            "End of file",
	averror.CodeAgain:          "Resource temporarily unavailable",
	averror.CodeInvalid:        "Invalid argument",
	averror.CodeNoMemory:       "Cannot allocate memory",
	averror.CodeNotFound:       "No such file or directory",
	averror.CodeInvalidData:    "Invalid data found when processing input",
	averror.CodeOptionNotFound: "Option not found",
	averror.CodeInputChanged:   "Input changed",
	averror.CodeOutputChanged:  "Output changed",
	averror.CodeFilterMissing:  "Filter not found",
	codePerm:                   "Operation not permitted",
}

func (l *Library) Strerror(code int32) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return fmt.Sprintf("Error number %d occurred", code)
}

func (l *Library) SetLogCallback(fn ffi.LogFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logFn = fn
	return nil
}

func (l *Library) SetLogLevel(level int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logLevel = level
}

// logLocked emits from inside a locked section without holding the lock
// during the callback.
func (l *Library) logLocked(level int32, format string, args ...any) func() {
	fn, limit := l.logFn, l.logLevel
	if fn == nil || level > limit {
		return func() {}
	}
	msg := fmt.Sprintf(format, args...)
	return func() { fn(level, msg) }
}

// Dictionaries.

type dict struct {
	entries []*dictEntry
}

func (*dict) kind() string { return "dict" }

type dictEntry struct {
	key, value string
	index      int
}

func (*dictEntry) kind() string { return "dict_entry" }

func (l *Library) DictSet(d *ffi.Ptr, key, value string) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d == nil || key == "" {
		return averror.CodeInvalid
	}
	dd := lookup[*dict](l, *d)
	if dd == nil {
		dd = &dict{}
		*d = l.add(dd)
	}
	for _, e := range dd.entries {
		if e.key == key {
			e.value = value
			return 0
		}
	}
	e := &dictEntry{key: key, value: value, index: len(dd.entries)}
	dd.entries = append(dd.entries, e)
	l.add(e)
	return 0
}

func (l *Library) DictNext(d, prev ffi.Ptr) ffi.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	dd := lookup[*dict](l, d)
	if dd == nil {
		return nil
	}
	next := 0
	if e := lookup[*dictEntry](l, prev); e != nil {
		next = e.index + 1
	}
	if next >= len(dd.entries) {
		return nil
	}
	return ptrOf(dd.entries[next])
}

func (l *Library) DictEntry(e ffi.Ptr) (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ee := lookup[*dictEntry](l, e); ee != nil {
		return ee.key, ee.value
	}
	return "", ""
}

func (l *Library) DictFree(d *ffi.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d == nil {
		return
	}
	l.freeDictLocked(*d)
	*d = nil
}

func (l *Library) freeDictLocked(p ffi.Ptr) {
	dd := lookup[*dict](l, p)
	if dd == nil {
		return
	}
	for _, e := range dd.entries {
		l.remove(ptrOf(e))
	}
	l.remove(p)
}

// consumeOptions removes the keys accept handles from *opts and frees the
// dictionary when nothing is left, like avcodec_open2 does.
func (l *Library) consumeOptionsLocked(opts *ffi.Ptr, accept func(key, value string) int32) int32 {
	if opts == nil {
		return 0
	}
	dd := lookup[*dict](l, *opts)
	if dd == nil {
		return 0
	}
	var left []*dictEntry
	for _, e := range dd.entries {
		ret := accept(e.key, e.value)
		switch {
		case ret < 0 && ret != averror.CodeOptionNotFound:
			return ret
		case ret == averror.CodeOptionNotFound:
			left = append(left, e)
		default:
			l.remove(ptrOf(e))
		}
	}
	for i, e := range left {
		e.index = i
	}
	dd.entries = left
	if len(left) == 0 {
		l.remove(*opts)
		*opts = nil
	}
	return 0
}

// Keys returns the sorted keys of a live dictionary, for assertions.
func (l *Library) Keys(d ffi.Ptr) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	dd := lookup[*dict](l, d)
	if dd == nil {
		return nil
	}
	keys := make([]string, 0, len(dd.entries))
	for _, e := range dd.entries {
		keys = append(keys, e.key)
	}
	sort.Strings(keys)
	return keys
}
