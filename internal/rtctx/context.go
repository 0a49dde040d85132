// Package rtctx carries the per-task, worker-side handles that the dataset
// graph's source and shuffle code call through: the blob store, the
// cross-worker read-stream port, the task dispatcher, the local scratch
// directory, and the worker's shared memory manager. Kept as its own leaf
// package (rather than folded into internal/dataset or internal/pipeline) so
// both can depend on it without an import cycle — dataset's source operators
// call through it to materialize partitions, and the pipeline/shuffle/driver
// packages construct and thread it through a task's execution. See
// internal/driver.RunJob, which issues every partition task through
// Context.Dispatch instead of running it inline.
package rtctx

import (
	"context"

	"distcalc/internal/memstore"
	"distcalc/internal/ports"

	"github.com/google/uuid"
)

// Context is the "handle passed into the iterate call, not shared state"
// spec §9 asks for in place of a partition holding a back-pointer to its
// memory manager.
type Context struct {
	Blob        ports.BlobStore
	ReadStream  ports.ReadStreamPort
	Dispatcher  ports.Dispatcher
	ScratchDir  string
	Mem         *memstore.Manager
	WorkerID    string
	ColumnarNew func(path string, write bool) (any, error)
}

// dispatcher returns c.Dispatcher, or a fresh LocalDispatcher over c's own
// worker ID if the caller never set one. Kept unexported: callers that care
// which dispatcher they get should set the field themselves.
func (c *Context) dispatcher() ports.Dispatcher {
	if c.Dispatcher != nil {
		return c.Dispatcher
	}
	return ports.NewLocalDispatcher(c.WorkerID)
}

// Dispatch runs fn through c's Dispatcher and blocks for its result, turning
// the port's asynchronous callback back into a synchronous call for
// callers (internal/driver's bounded fan-out) that already manage their own
// concurrency window.
func (c *Context) Dispatch(ctx context.Context, fn func() (any, error)) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	c.dispatcher().RunTask(ctx, func() (any, error) { return fn() }, func(result any, err error) {
		done <- outcome{result, err}
	})
	o := <-done
	return o.result, o.err
}

// NewShuffleFileName returns a fresh path under this context's scratch
// directory, following spec §4.6's literal
// "{worker-scratch}/shuffle/{uuid}" convention.
func (c *Context) NewShuffleFileName() string {
	return c.ScratchDir + "/shuffle/" + uuid.New().String()
}
