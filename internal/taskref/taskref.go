// Package taskref maintains the process-global registry of named target
// functions.
//
// Process-pool workers are fresh executions of the current binary, so a
// target function cannot cross that boundary as a live value. Instead the
// parent sends the function's registered name, and the child re-resolves it
// against the same registrations performed by its own package
// initialization. The registry makes that requirement an explicit contract
// rather than an implicit serialization capability.
package taskref

import (
	"fmt"
	"sync"

	"go.skyrmion.dev/parmap/internal/callshape"
)

// Target is the uniform signature for mapped functions: it receives one
// normalized call and produces the task's result.
type Target func(callshape.Call) (any, error)

var (
	mu    sync.Mutex
	funcs = make(map[string]Target)
)

// Register adds fn to the registry under name. It panics if the name is
// already taken or fn is nil, since registration is expected to happen once
// during package initialization.
func Register(name string, fn Target) {
	if fn == nil {
		panic(fmt.Sprintf("taskref: registering nil function as %q", name))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := funcs[name]; ok {
		panic(fmt.Sprintf("taskref: %q is already registered", name))
	}
	funcs[name] = fn
}

// Resolve returns the function registered under name.
func Resolve(name string) (Target, error) {
	mu.Lock()
	defer mu.Unlock()
	if fn, ok := funcs[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("parmap: no function registered as %q", name)
}
