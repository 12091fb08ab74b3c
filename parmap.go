package parmap

import (
	"fmt"

	"go.skyrmion.dev/parmap/internal/callshape"
	"go.skyrmion.dev/parmap/internal/pool"
	"go.skyrmion.dev/parmap/internal/procpool"
	"go.skyrmion.dev/parmap/internal/transpose"
)

// Inputs supplies tasks as an ordered sequence in exactly one of the three
// shapes. A nil shape field is unset; a non-nil empty one describes zero
// tasks.
type Inputs = callshape.Inputs

// KeyedInputs supplies tasks as a map from caller-chosen keys to per-task
// inputs. Results come back as a map over the same keys.
type KeyedInputs[K comparable] = callshape.Keyed[K]

// Validation and transpose failures, re-exported for errors.Is matching.
var (
	// ErrShape is returned when zero or multiple task shapes are supplied.
	ErrShape = callshape.ErrShape
	// ErrArgName is returned when ArgName is combined with a shape other
	// than Values.
	ErrArgName = callshape.ErrArgName
	// ErrNotRecord is returned by [MapTransposed] when a task result is not
	// a map[string]any.
	ErrNotRecord = transpose.ErrNotRecord
	// ErrHeterogeneousRecords is returned by [MapTransposed] when task
	// results do not share an identical key set.
	ErrHeterogeneousRecords = transpose.ErrHeterogeneous
)

// Map runs f once per task described by in and returns the results in
// input order. It blocks until the whole batch completes and fails as a
// whole on the first task error in input order.
func Map(f Func, in Inputs, opts ...Option) ([]any, error) {
	calls, err := callshape.Normalize(in)
	if err != nil {
		return nil, err
	}
	return dispatch(f, calls, newConfig(opts))
}

// MapKeyed is [Map] for keyed inputs: the result of each task is paired
// with the key that supplied its input.
func MapKeyed[K comparable](f Func, in KeyedInputs[K], opts ...Option) (map[K]any, error) {
	index, calls, err := callshape.NormalizeKeyed(in)
	if err != nil {
		return nil, err
	}
	out, err := dispatch(f, calls, newConfig(opts))
	if err != nil {
		return nil, err
	}
	keyed := make(map[K]any, len(index))
	for i, key := range index {
		keyed[key] = out[i]
	}
	return keyed, nil
}

// MapTransposed is [Map] followed by a deep transpose of the results:
// every task must return a map[string]any with an identical key set, and
// the output maps each shared key to the input-ordered sequence of
// per-task values for that key. Any key whose entire value sequence
// consists of maps is transposed again, recursively. A zero-task batch
// yields an empty map.
//
// Transposing keyed inputs is not supported; keyed and transposed output
// shapes are distinct calls by construction.
func MapTransposed(f Func, in Inputs, opts ...Option) (map[string]any, error) {
	out, err := Map(f, in, opts...)
	if err != nil {
		return nil, err
	}
	return transpose.Records(out)
}

// dispatch fans the normalized calls out under the configured strategy and
// collects results in input order. All mode validation happens here,
// before any task runs.
func dispatch(f Func, calls []callshape.Call, cfg config) ([]any, error) {
	if cfg.subworkersSet && cfg.mode != ModeNested {
		return nil, ErrSubworkers
	}

	switch cfg.mode {
	case ModeProcess:
		if f.name == "" {
			return nil, ErrProcessTarget
		}
		if len(calls) == 0 {
			return []any{}, nil
		}
		return procpool.Run(f.name, calls, cfg.workerCount())

	case ModeThread, ModeSerial:
		fn, err := f.target()
		if err != nil {
			return nil, err
		}
		if len(calls) == 0 {
			return []any{}, nil
		}
		if cfg.mode == ModeThread {
			return pool.Run(cfg.workerCount(), len(calls), func(i int) (any, error) {
				return fn(calls[i])
			})
		}
		results := make([]any, len(calls))
		for i, call := range calls {
			if results[i], err = fn(call); err != nil {
				return nil, err
			}
		}
		return results, nil

	case ModeNested:
		return nil, ErrNestedMode

	default:
		return nil, fmt.Errorf("parmap: unknown mode %q", cfg.mode)
	}
}
