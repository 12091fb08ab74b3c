// Package procpool executes tasks across a pool of subprocess workers.
//
// Each worker is a fresh execution of the current binary, selected by an
// environment variable that [Main] recognizes. The parent streams
// gob-encoded indexed calls to a worker's standard input and reads indexed
// replies from its standard output, so no memory is shared between tasks
// and nothing but plain data crosses the process boundary. The target
// function itself never crosses: the parent sends its registered name, and
// the worker re-resolves that name against its own package initialization
// (see the taskref package).
//
// Because the reply stream uses standard output, target functions must not
// write to os.Stdout when run under this pool.
package procpool

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.skyrmion.dev/parmap/internal/callshape"
	"go.skyrmion.dev/parmap/internal/catch"
	"go.skyrmion.dev/parmap/internal/log"
	"go.skyrmion.dev/parmap/internal/taskref"
)

// workerEnv names the target function in a process that should serve as a
// worker rather than run normally.
const workerEnv = "PARMAP_WORKER_FUNC"

// job is one unit of work sent from the parent to a worker.
type job struct {
	Index int
	Call  callshape.Call
}

// reply reports one completed job back to the parent. A non-empty Err is
// the text of the task's error or panic.
type reply struct {
	Index int
	Value any
	Err   string
}

func init() {
	// Concrete types carried inside interface-typed fields must be known to
	// gob on both sides of the pipe. Callers with richer payload types
	// register them via RegisterType.
	for _, v := range []any{
		int(0), int32(0), int64(0), uint(0), uint64(0),
		float32(0), float64(0), false, "",
		[]any{}, []string{}, []int{}, []float64{},
		map[string]any{},
	} {
		gob.Register(v)
	}
}

// RegisterType records a payload or result type for transfer across the
// worker boundary. Values of unregistered concrete types inside Args,
// Kwargs, or results cause the batch to fail with an encoding error.
func RegisterType(v any) {
	gob.Register(v)
}

// Run executes one call per worker-pool task and returns the results in
// input order. The function registered as name is re-resolved inside each
// worker; Run resolves it locally first so an unregistered name fails
// before any process is spawned.
func Run(name string, calls []callshape.Call, workers int) ([]any, error) {
	if _, err := taskref.Resolve(name); err != nil {
		return nil, err
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("parmap: locating worker executable: %w", err)
	}

	if workers > len(calls) {
		workers = len(calls)
	}

	var (
		results    = make([]any, len(calls))
		taskErrs   = make([]error, len(calls))
		workerErrs = make([]error, workers)
		wg         sync.WaitGroup
	)
	for w := range workers {
		// Round-robin assignment. Each worker's index set is disjoint, so
		// the workers' goroutines never write the same slice elements.
		var assigned []int
		for i := w; i < len(calls); i += workers {
			assigned = append(assigned, i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			workerErrs[w] = runWorker(exe, name, w, calls, assigned, results, taskErrs)
		}()
	}
	wg.Wait()

	if err := errors.Join(workerErrs...); err != nil {
		return nil, err
	}
	for _, err := range taskErrs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// runWorker drives a single subprocess: feed it the assigned calls, then
// read one reply per call and file the outcomes by index.
func runWorker(exe, name string, w int, calls []callshape.Call, assigned []int, results []any, taskErrs []error) error {
	log.Verbosef("[proc]\tstarting worker %d for %s (%d tasks)", w, name, len(assigned))

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), workerEnv+"="+name)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("parmap: worker %d: %w", w, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("parmap: worker %d: %w", w, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("parmap: worker %d: %w", w, err)
	}

	encDone := make(chan error, 1)
	go func() {
		defer stdin.Close()
		enc := gob.NewEncoder(stdin)
		for _, i := range assigned {
			if err := enc.Encode(job{Index: i, Call: calls[i]}); err != nil {
				encDone <- err
				return
			}
		}
		encDone <- nil
	}()

	dec := gob.NewDecoder(stdout)
	for range assigned {
		var r reply
		if err := dec.Decode(&r); err != nil {
			cmd.Wait()
			return fmt.Errorf("parmap: worker %d: reading reply: %w", w, errors.Join(err, <-encDone))
		}
		if r.Err != "" {
			taskErrs[r.Index] = errors.New(r.Err)
			continue
		}
		results[r.Index] = r.Value
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("parmap: worker %d: %w", w, err)
	}
	log.Verbosef("[proc]\tworker %d finished", w)
	return nil
}

// Main hands the current process over to the worker loop if it was spawned
// as a subprocess worker. Call it at the top of main (or TestMain, for test
// binaries that use process mode) before any other work; it returns
// immediately in ordinary processes and never returns in workers.
func Main() {
	name := os.Getenv(workerEnv)
	if name == "" {
		return
	}
	os.Exit(serve(name))
}

func serve(name string) int {
	fn, err := taskref.Resolve(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parmap worker:", err)
		return 2
	}

	dec := gob.NewDecoder(os.Stdin)
	enc := gob.NewEncoder(os.Stdout)
	for {
		var j job
		if err := dec.Decode(&j); err != nil {
			if errors.Is(err, io.EOF) {
				return 0
			}
			fmt.Fprintln(os.Stderr, "parmap worker: reading job:", err)
			return 1
		}

		r := reply{Index: j.Index}
		res := catch.Do(func() (any, error) { return fn(j.Call) })
		if res.Panicked() {
			r.Err = fmt.Sprintf("panic: %v", res.Recovered())
		} else if value, err := res.Unwrap(); err != nil {
			r.Err = err.Error()
		} else {
			r.Value = value
		}

		if err := enc.Encode(r); err != nil {
			fmt.Fprintln(os.Stderr, "parmap worker: writing reply:", err)
			return 1
		}
	}
}
