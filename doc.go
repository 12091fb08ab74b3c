/*
Package parmap provides a batch fan-out/fan-in map over independent inputs.

A map call takes a target function, a set of per-task inputs in one of four
calling conventions, and an execution strategy: a pool of subprocess
workers, a pool of goroutines, or no parallelism at all. All tasks are
issued at once, the call blocks until the whole batch completes, and
results come back in input order regardless of completion order. Inputs
supplied as a keyed map come back as a map over the same keys, and a
sequence of uniform map records can be reshaped into one record of
per-key sequences.

The batch is all-or-nothing: the first task failure, in input order, fails
the whole call, and there is no cancellation, retry, or partial-result
recovery.

Binaries that use [ModeProcess] must call [WorkerMain] at the top of main
so they can serve as their own subprocess workers, and must make the
target function resolvable in a fresh process by registering it with
[Register].
*/
package parmap
