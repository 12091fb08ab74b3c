// Package pool runs int-indexed tasks across a fixed set of worker
// goroutines, collecting results in submission order.
package pool

import (
	"sync"

	"github.com/gammazero/deque"

	"go.skyrmion.dev/parmap/internal/catch"
)

// Pool executes a handler once per submitted index using a fixed number of
// worker goroutines. Results are retrieved in the order indexes are passed
// to [Pool.Collect], regardless of completion order. A pool is intended to
// serve a single batch: submit, collect, close.
type Pool[V any] struct {
	handle func(int) (V, error)

	tasks   map[int]*task[V]
	tasksMu sync.Mutex

	pending   deque.Deque[int]
	pendingMu sync.Mutex

	// ready is buffered to the worker count and carries "readiness tokens"
	// that wake a worker to pull from the pending queue. Every push attempts
	// one non-blocking send; a full buffer already guarantees that every
	// worker will eventually wake.
	ready chan struct{}
}

// New creates a pool of exactly workers goroutines that call handle to
// complete each submitted index. The caller must Close the pool when no
// more indexes will be submitted.
func New[V any](workers int, handle func(int) (V, error)) *Pool[V] {
	p := &Pool[V]{
		handle: handle,
		tasks:  make(map[int]*task[V]),
		ready:  make(chan struct{}, workers),
	}
	for range workers {
		go p.run()
	}
	return p
}

// Run is the batch convenience over [Pool]: it submits indexes 0 through
// n-1 to a fresh pool, collects their results in order, and closes the
// pool.
func Run[V any](workers, n int, handle func(int) (V, error)) ([]V, error) {
	p := New(workers, handle)
	defer p.Close()

	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	p.Submit(indexes...)
	return p.Collect(indexes...)
}

// Submit queues the provided indexes for handling, in the order given.
// Indexes already submitted are ignored.
func (p *Pool[V]) Submit(indexes ...int) {
	var fresh []int

	p.tasksMu.Lock()
	for _, i := range indexes {
		if _, ok := p.tasks[i]; ok {
			continue
		}
		p.tasks[i] = &task[V]{done: make(chan struct{})}
		fresh = append(fresh, i)
	}
	p.tasksMu.Unlock()

	for _, i := range fresh {
		p.push(i)
	}
}

// Collect blocks until each of the provided indexes has been handled and
// returns their values in the same order. If a task returned an error,
// Collect returns the first error with respect to the given index order
// without waiting for subsequent tasks. If a task panicked, Collect
// re-panics with the task's panic value.
func (p *Pool[V]) Collect(indexes ...int) ([]V, error) {
	values := make([]V, len(indexes))
	for i, idx := range indexes {
		p.tasksMu.Lock()
		t := p.tasks[idx]
		p.tasksMu.Unlock()
		if t == nil {
			panic("pool: collecting an index that was never submitted")
		}

		<-t.done
		var err error
		values[i], err = t.result.Unwrap()
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Close indicates that no more indexes will be submitted, allowing the
// workers to drain the pending queue and exit. The behavior of all Pool
// methods after Close is undefined.
func (p *Pool[V]) Close() {
	close(p.ready)
}

func (p *Pool[V]) run() {
	if _, ok := <-p.ready; !ok {
		return
	}

	for {
		i, ok := p.tryPop()
		if !ok {
			if _, ready := <-p.ready; ready {
				continue
			}
			return
		}

		p.complete(i)

		// Drop one surplus readiness token so tokens cannot outnumber
		// pending indexes.
		select {
		case <-p.ready:
		default:
		}
	}
}

func (p *Pool[V]) complete(i int) {
	p.tasksMu.Lock()
	t := p.tasks[i]
	p.tasksMu.Unlock()

	defer close(t.done)
	t.result = catch.Do(func() (V, error) { return p.handle(i) })
}

func (p *Pool[V]) push(i int) {
	p.pendingMu.Lock()
	p.pending.PushBack(i)
	p.pendingMu.Unlock()

	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *Pool[V]) tryPop() (i int, ok bool) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	if p.pending.Len() > 0 {
		i = p.pending.PopFront()
		ok = true
	}
	return
}

type task[V any] struct {
	done   chan struct{}
	result catch.Result[V]
}
