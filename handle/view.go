package handle

// View refers to a raw handle owned by something else. It has no deleter and
// must not be used after its owner releases the handle.
type View[T comparable] struct {
	raw T
}

// ViewOf wraps raw without taking ownership.
func ViewOf[T comparable](raw T) View[T] {
	return View[T]{raw: raw}
}

// Raw returns the borrowed raw handle.
func (v View[T]) Raw() T {
	return v.raw
}

// Valid reports whether the view refers to a non-null handle.
func (v View[T]) Valid() bool {
	var zero T
	return v.raw != zero
}
