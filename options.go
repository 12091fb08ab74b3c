package parmap

import (
	"errors"
	"runtime"

	"go.skyrmion.dev/parmap/internal/log"
)

// Mode selects the execution strategy for one map call.
type Mode string

const (
	// ModeProcess distributes tasks across a fixed pool of subprocess
	// workers. No memory is shared between tasks, and the target function
	// must be registered by name; see [Register] and [WorkerMain].
	ModeProcess Mode = "process"

	// ModeThread distributes tasks across a fixed pool of goroutines
	// sharing this process's memory. The target function and the common
	// arguments are shared read-only across tasks by convention; nothing
	// guards against targets that mutate shared state.
	ModeThread Mode = "thread"

	// ModeSerial runs tasks one at a time in input order, with no
	// parallelism. A baseline and debugging mode.
	ModeSerial Mode = "serial"

	// ModeNested is declared but intentionally not implemented: a pool of
	// processes each running a pool of goroutines. Dispatching under it
	// fails with [ErrNestedMode].
	ModeNested Mode = "nested"
)

// WorkersAuto selects the host's logical CPU count as the worker count.
const WorkersAuto = 0

// ErrNestedMode is returned when dispatching under [ModeNested].
var ErrNestedMode = errors.New("parmap: nested mode is not implemented")

// ErrSubworkers is returned when [WithSubworkers] is combined with any
// mode other than [ModeNested].
var ErrSubworkers = errors.New("parmap: subworkers are only valid in nested mode")

// Option configures one map call.
type Option func(*config)

type config struct {
	mode          Mode
	workers       int
	subworkers    int
	subworkersSet bool
}

func newConfig(opts []Option) config {
	cfg := config{mode: ModeProcess, workers: WorkersAuto}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// workerCount resolves [WorkersAuto] against the host. This is the only
// place the library consults the host environment; the dispatch paths
// receive an already-resolved count.
func (c config) workerCount() int {
	if c.workers <= 0 {
		return runtime.NumCPU()
	}
	return c.workers
}

// WithMode selects the execution strategy. The default is [ModeProcess].
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithWorkers sets the worker count. The default, [WorkersAuto], uses the
// host's logical CPU count.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithSubworkers sets the per-worker subworker count for [ModeNested].
// Supplying it under any other mode is a validation error.
func WithSubworkers(n int) Option {
	return func(c *config) {
		c.subworkers = n
		c.subworkersSet = true
	}
}

// EnableVerboseLogging turns on verbose logging of worker lifecycle events
// through the standard log package.
func EnableVerboseLogging() {
	log.EnableVerbose()
}
