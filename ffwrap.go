//go:build !ios && !android && (amd64 || arm64)

// Package ffwrap wraps the FFmpeg C libraries (libavcodec, libavformat,
// libavfilter, libswresample, libswscale and libavutil) without cgo.
//
// The libraries are loaded at runtime through purego. Every library resource
// is held by a handle.Owned and released exactly once, either by Close or by
// the owner it was moved to.
//
// Fallible operations take an *averror.Slot as their last argument. With a
// nil slot the failure is returned as an *averror.Error; with a non-nil slot
// the outcome is written into the slot and the returned error is nil:
//
//	var slot averror.Slot
//	res, _ := ctx.Decode(pkt, 0, &slot)
//	if slot.Failed() {
//	    // inspect slot.Err()
//	}
//
// Basic decoding:
//
//	in, err := ffwrap.OpenInput("video.mp4", nil)
//	if err != nil {
//	    return err
//	}
//	defer in.Close()
//
//	dec, err := ffwrap.NewDecoderContextFromStream(in.BestStream(ffwrap.MediaTypeVideo))
//	...
package ffwrap

import (
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"go.uber.org/atomic"

	"github.com/obinnaokechukwu/ffwrap/averror"
	"github.com/obinnaokechukwu/ffwrap/handle"
	"github.com/obinnaokechukwu/ffwrap/internal/ffi"
)

// options configure library objects and Init.
type options struct {
	lib        ffi.Library
	log        logger.Logger
	threads    int
	scaleFlags ScaleFlags
}

// Option is a functional option for constructors and Init.
type Option func(*options)

// WithLibrary selects the library implementation. Objects created with it
// never touch the process-wide library.
func WithLibrary(lib ffi.Library) Option {
	return func(o *options) {
		o.lib = lib
	}
}

// WithLogger sets the logger an object reports its state changes to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithThreadCount sets the codec thread count. Zero lets FFmpeg decide.
func WithThreadCount(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithScaleFlags sets the rescaler algorithm.
func WithScaleFlags(flags ScaleFlags) Option {
	return func(o *options) {
		o.scaleFlags = flags
	}
}

func collect(opts []Option) *options {
	o := &options{scaleFlags: ScaleBicubic}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// library returns the implementation objects built with o should use,
// loading the process-wide one on first use.
func (o *options) library() (ffi.Library, error) {
	if o.lib != nil {
		return o.lib, nil
	}
	return std.library()
}

func (o *options) logger() logger.Logger {
	if o.log != nil {
		return o.log
	}
	return std.logger()
}

// runtime is the process-wide library state.
type runtime struct {
	once    sync.Once
	err     error
	lib     atomic.Pointer[ffi.Library]
	log     atomic.Pointer[logger.Logger]
	down    atomic.Bool
	shutMu  sync.Mutex
	pending func() int64
}

var std = newRuntime()

func newRuntime() *runtime {
	return &runtime{pending: handle.Outstanding}
}

func (r *runtime) init(opts ...Option) error {
	if r.down.Load() {
		return averror.New(averror.NotLoaded, "init", "library shut down")
	}
	r.once.Do(func() {
		o := collect(opts)
		lib := o.lib
		if lib == nil {
			lib = ffi.Default()
		}
		if err := lib.Load(); err != nil {
			r.err = averror.Wrap(averror.NotLoaded, "init", err)
			return
		}
		r.lib.Store(&lib)
		if o.log != nil {
			r.err = r.setLogger(o.log)
		}
	})
	return r.err
}

func (r *runtime) library() (ffi.Library, error) {
	if err := r.init(); err != nil {
		return nil, err
	}
	if r.down.Load() {
		return nil, averror.New(averror.NotLoaded, "init", "library shut down")
	}
	return *r.lib.Load(), nil
}

func (r *runtime) logger() logger.Logger {
	if l := r.log.Load(); l != nil {
		return *l
	}
	return defaultLogger
}

func (r *runtime) shutdown() error {
	r.shutMu.Lock()
	defer r.shutMu.Unlock()
	if r.down.Load() {
		return nil
	}
	if n := r.pending(); n > 0 {
		return averror.New(averror.InvalidArgument, "shutdown", "%d handles outstanding", n)
	}
	r.down.Store(true)
	// a later Init must not load
	r.once.Do(func() {})
	lib := r.lib.Load()
	if lib == nil {
		return nil
	}
	r.logger().Debugf("unloading %s", (*lib).Version())
	if err := (*lib).Unload(); err != nil {
		return averror.Wrap(averror.LibraryReported, "shutdown", err)
	}
	return nil
}

var defaultLogger = logrus.Default().WithLevel(logger.LevelWarning)

// Init loads the FFmpeg libraries. It is safe to call more than once; later
// calls return the result of the first. Constructors call it on demand.
func Init(opts ...Option) error {
	return std.init(opts...)
}

// Shutdown unloads the libraries. It fails with averror.InvalidArgument while
// any owned handle is still open. After a successful Shutdown the package
// cannot be initialized again; a second Shutdown does nothing.
func Shutdown() error {
	return std.shutdown()
}

// IsLoaded reports whether Init has succeeded and Shutdown has not run.
func IsLoaded() bool {
	return std.lib.Load() != nil && !std.down.Load()
}

// Version describes the loaded library versions.
func Version() string {
	lib, err := std.library()
	if err != nil {
		return ""
	}
	return lib.Version()
}

// codeErr converts an AVERROR return into an error with the library's
// message. Non-negative codes yield nil.
func codeErr(lib ffi.Library, code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return averror.FromCode(code, op, lib.Strerror(code))
}
