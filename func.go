package parmap

import (
	"errors"

	"go.skyrmion.dev/parmap/internal/callshape"
	"go.skyrmion.dev/parmap/internal/procpool"
	"go.skyrmion.dev/parmap/internal/taskref"
)

// Call is one normalized task invocation: the ordered positional arguments
// and keyword arguments for a single run of the target function.
type Call = callshape.Call

// Target is the uniform signature for mapped functions.
type Target = taskref.Target

// ErrNoTarget is returned when a zero [Func] is dispatched.
var ErrNoTarget = errors.New("parmap: no target function provided")

// ErrProcessTarget is returned when [ModeProcess] is used with a [Func]
// that carries no registered name.
var ErrProcessTarget = errors.New("parmap: process mode requires a function registered by name")

// Func identifies the function to map. It is a tagged descriptor: either a
// direct callable, usable under the goroutine and serial strategies, or a
// registered name that a fresh worker process can re-resolve, as the
// process strategy requires.
type Func struct {
	name string
	fn   Target
}

// Direct wraps an in-process callable. The resulting Func cannot be used
// with [ModeProcess], since a live function value cannot cross the process
// boundary.
func Direct(fn Target) Func {
	return Func{fn: fn}
}

// Register adds fn to the process-global registry under name and returns a
// Func usable with every strategy. Registration should happen during
// package initialization so that subprocess workers, which re-run the same
// initialization, can resolve the name too. Register panics if the name is
// already taken.
func Register(name string, fn Target) Func {
	taskref.Register(name, fn)
	return Func{name: name, fn: fn}
}

// Named references a previously registered function without requiring the
// registration to have happened yet; resolution failures surface when the
// Func is dispatched.
func Named(name string) Func {
	return Func{name: name}
}

func (f Func) target() (Target, error) {
	switch {
	case f.fn != nil:
		return f.fn, nil
	case f.name != "":
		return taskref.Resolve(f.name)
	default:
		return nil, ErrNoTarget
	}
}

// RegisterType records a payload or result type for transfer to and from
// subprocess workers. Basic scalars, []any, []string, and map[string]any
// are pre-registered; anything else appearing inside Args, Kwargs, or a
// task result under [ModeProcess] must be registered on both sides, which
// in practice means calling RegisterType during package initialization.
func RegisterType(v any) {
	procpool.RegisterType(v)
}

// WorkerMain hands the current process over to the subprocess worker loop
// if it was spawned as one. Binaries using [ModeProcess] must call it at
// the top of main (or TestMain) before any other work; it returns
// immediately in ordinary processes and never returns in workers.
func WorkerMain() {
	procpool.Main()
}
