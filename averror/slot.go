package averror

// State is the state of a Slot.
type State int

const (
	// StateUnset means no operation has written to the slot yet.
	StateUnset State = iota
	// StateOK means the last operation succeeded.
	StateOK
	// StateFailed means the last operation failed; Err holds the failure.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateFailed:
		return "failed"
	default:
		return "unset"
	}
}

// Slot receives the outcome of an operation called in slot form.
// The zero value is ready to use.
type Slot struct {
	state State
	err   *Error
}

// State returns the slot state.
func (s *Slot) State() State {
	return s.state
}

// Failed reports whether the last operation failed.
func (s *Slot) Failed() bool {
	return s.state == StateFailed
}

// Err returns the failure, or nil.
func (s *Slot) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// Failure returns the structured failure, or nil.
func (s *Slot) Failure() *Error {
	return s.err
}

// Reset returns the slot to StateUnset.
func (s *Slot) Reset() {
	s.state = StateUnset
	s.err = nil
}

func (s *Slot) set(e *Error) {
	if e == nil {
		s.state, s.err = StateOK, nil
		return
	}
	s.state, s.err = StateFailed, e
}

// Result is the value-or-error an operation computes before it reaches the
// caller through Deliver.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Of adapts a (value, error) pair.
func Of[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// Deliver hands the result to the caller. With a nil slot a failure is
// returned as *Error. With a non-nil slot the outcome is stored in the slot
// and the returned error is nil. On failure the value is always the zero T.
func (r Result[T]) Deliver(slot *Slot) (T, error) {
	e := From(r.Err)
	v := r.Value
	if e != nil {
		var zero T
		v = zero
	}
	if slot != nil {
		slot.set(e)
		return v, nil
	}
	if e != nil {
		return v, e
	}
	return v, nil
}

// Unwrap is Deliver in returning form.
func (r Result[T]) Unwrap() (T, error) {
	return r.Deliver(nil)
}

// Into stores the outcome in slot and returns the value. A nil slot panics
// on failure, like Must.
func (r Result[T]) Into(slot *Slot) T {
	if slot == nil {
		return Must(r.Unwrap())
	}
	v, _ := r.Deliver(slot)
	return v
}

// Check delivers a value-less outcome.
func Check(slot *Slot, err error) error {
	_, err = Result[struct{}]{Err: err}.Deliver(slot)
	return err
}

// Must panics with the *Error if err is non-nil.
func Must[T any](v T, err error) T {
	if e := From(err); e != nil {
		panic(e)
	}
	return v
}
