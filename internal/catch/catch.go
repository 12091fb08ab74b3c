// Package catch confines the effect of a panicking task to a capturable
// result, so that a worker goroutine survives the panic and the collector
// can re-deliver it on the caller's goroutine.
package catch

// Do runs fn in the current goroutine and captures its return or panic.
func Do[T any](fn func() (T, error)) (r Result[T]) {
	defer func() {
		if !r.returned {
			r.panicked = true
			r.panicval = recover()
		}
	}()
	r.value, r.err = fn()
	r.returned = true
	return
}

// Return constructs a synthetic result capturing "return value, err".
func Return[T any](value T, err error) Result[T] {
	return Result[T]{returned: true, value: value, err: err}
}

// Panic constructs a synthetic result capturing "panic(panicval)".
func Panic[T any](panicval any) Result[T] {
	return Result[T]{panicked: true, panicval: panicval}
}

// Result captures the outcome of one task: a normal return or a panic.
// The zero Result behaves as if capturing the return of a zero T and a nil
// error.
type Result[T any] struct {
	returned bool
	panicked bool
	value    T
	err      error
	panicval any
}

// Unwrap delivers the captured outcome to the current goroutine, either
// returning the captured value and error or re-panicking with the captured
// panic value.
func (r Result[T]) Unwrap() (T, error) {
	if r.panicked {
		panic(r.panicval)
	}
	return r.value, r.err
}

// Panicked is true if this result captures a panic.
func (r Result[T]) Panicked() bool {
	return r.panicked
}

// Recovered returns the captured panic value, if any.
func (r Result[T]) Recovered() any {
	return r.panicval
}
