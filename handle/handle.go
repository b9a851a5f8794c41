// Package handle provides ownership wrappers for raw library handles.
//
// An Owned handle holds a raw handle exclusively and releases it through its
// Deleter exactly once. A View borrows a raw handle owned elsewhere. A List
// walks an intrusive, null-terminated structure without copying its nodes.
package handle

import "go.uber.org/atomic"

// Deleter releases a raw handle. It is never called with the zero value.
type Deleter[T comparable] func(raw T)

// Noop returns a Deleter that does nothing.
func Noop[T comparable]() Deleter[T] {
	return func(T) {}
}

// Func adapts the library's free(&ptr) convention, where the free function
// also nulls the caller's pointer.
func Func[T comparable](free func(*T)) Deleter[T] {
	return func(raw T) {
		free(&raw)
	}
}

var outstanding atomic.Int64

// Outstanding returns the number of live, non-null Owned handles in the
// process.
func Outstanding() int64 {
	return outstanding.Load()
}

// Owned exclusively owns a raw handle.
type Owned[T comparable] struct {
	raw     T
	deleter Deleter[T]
	held    atomic.Bool
}

// Acquire takes ownership of raw. A zero raw yields an empty, invalid handle.
func Acquire[T comparable](raw T, d Deleter[T]) *Owned[T] {
	h := &Owned[T]{deleter: d}
	h.adopt(raw)
	return h
}

func (h *Owned[T]) adopt(raw T) {
	var zero T
	if raw == zero {
		return
	}
	h.raw = raw
	h.held.Store(true)
	outstanding.Inc()
}

func (h *Owned[T]) take() (T, bool) {
	var zero T
	if h == nil || !h.held.CompareAndSwap(true, false) {
		return zero, false
	}
	raw := h.raw
	h.raw = zero
	outstanding.Dec()
	return raw, true
}

// Raw returns the raw handle, or the zero value once released.
func (h *Owned[T]) Raw() T {
	var zero T
	if h == nil {
		return zero
	}
	return h.raw
}

// Valid reports whether h holds a raw handle.
func (h *Owned[T]) Valid() bool {
	return h != nil && h.held.Load()
}

// View returns a non-owning view of the raw handle.
func (h *Owned[T]) View() View[T] {
	return ViewOf(h.Raw())
}

// Release gives up ownership without calling the deleter.
func (h *Owned[T]) Release() T {
	raw, _ := h.take()
	return raw
}

// Close releases the raw handle through the deleter. Later calls do nothing.
func (h *Owned[T]) Close() error {
	raw, ok := h.take()
	if ok && h.deleter != nil {
		h.deleter(raw)
	}
	return nil
}

// Move transfers the raw handle to a new Owned; h becomes empty.
func (h *Owned[T]) Move() *Owned[T] {
	raw, _ := h.take()
	var d Deleter[T]
	if h != nil {
		d = h.deleter
	}
	return Acquire(raw, d)
}

// Reset closes the current raw handle and takes ownership of raw.
func (h *Owned[T]) Reset(raw T) {
	_ = h.Close()
	h.adopt(raw)
}

// Shared is implemented by reference-counted payloads. Clone returns a new
// owner of the same storage; the storage is freed when the last owner
// closes.
type Shared[T any] interface {
	Clone() (T, error)
	IsReferenced() bool
	Close() error
}
