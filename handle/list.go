package handle

import (
	"iter"

	"github.com/obinnaokechukwu/ffwrap/averror"
)

// List is a forward-only view over an intrusive linked structure: a C list
// chained through a next pointer, or a sentinel-terminated array.
//
// The list is walked on every call; nothing is cached. Mutating the
// underlying structure during a walk is undefined.
type List[T comparable] struct {
	head  T
	next  func(T) T
	isEnd func(T) bool
}

// NewList returns a List starting at head. The walk stops at the zero value
// or at the first node for which isEnd returns true. isEnd may be nil.
func NewList[T comparable](head T, next func(T) T, isEnd func(T) bool) List[T] {
	return List[T]{head: head, next: next, isEnd: isEnd}
}

func (l List[T]) end(n T) bool {
	var zero T
	return n == zero || (l.isEnd != nil && l.isEnd(n))
}

// All yields each node with its index. It can be ranged over repeatedly.
func (l List[T]) All() iter.Seq2[int, View[T]] {
	return func(yield func(int, View[T]) bool) {
		i := 0
		for n := l.head; !l.end(n); n = l.next(n) {
			if !yield(i, ViewOf(n)) {
				return
			}
			i++
		}
	}
}

// Count walks the whole list.
func (l List[T]) Count() int {
	n := 0
	for range l.All() {
		n++
	}
	return n
}

// Empty reports whether the list has no nodes.
func (l List[T]) Empty() bool {
	return l.end(l.head)
}

// At returns the node at index i. Indexes outside [0, Count()) fail with
// averror.OutOfRange.
func (l List[T]) At(i int) (View[T], error) {
	if i >= 0 {
		n := 0
		for idx, v := range l.All() {
			if idx == i {
				return v, nil
			}
			n++
		}
		return View[T]{}, averror.New(averror.OutOfRange, "list.at", "index %d out of range for list of %d nodes", i, n)
	}
	return View[T]{}, averror.New(averror.OutOfRange, "list.at", "negative index %d", i)
}
