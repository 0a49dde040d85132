package ports

import (
	"context"
	"fmt"
)

// LocalDispatcher is the reference Dispatcher: it runs every task in its own
// goroutine on the calling process rather than shipping it to a remote
// worker. Grounded on the teacher's internal/worker/executor.go Executor,
// whose pool just spawns a goroutine per task behind a semaphore; the
// concurrency bound itself lives at the call site (internal/driver's
// errgroup limit), so this dispatcher does not impose one of its own.
//
// task must be a func() (any, error): the unit of work the caller already
// closed over. A real cluster's Dispatcher would instead serialize a task
// descriptor and route it to a WorkerPort; the local one has nowhere to
// route to, so it just runs the closure.
type LocalDispatcher struct {
	worker WorkerPort
}

// NewLocalDispatcher builds a LocalDispatcher backed by a single worker
// identified by workerID.
func NewLocalDispatcher(workerID string) *LocalDispatcher {
	return &LocalDispatcher{worker: localWorker{id: workerID}}
}

func (d *LocalDispatcher) RunTask(ctx context.Context, task any, callback func(result any, err error)) {
	fn, ok := task.(func() (any, error))
	if !ok {
		callback(nil, fmt.Errorf("ports: LocalDispatcher.RunTask: task is %T, want func() (any, error)", task))
		return
	}
	go func() {
		result, err := fn()
		callback(result, err)
	}()
}

func (d *LocalDispatcher) Workers() []WorkerPort {
	return []WorkerPort{d.worker}
}

// localWorker is the single worker a LocalDispatcher reports: it always
// prefers itself, since there is nowhere else to place a task.
type localWorker struct {
	id string
}

func (w localWorker) ID() string { return w.id }

func (w localWorker) PreferredLocationScore(hint string) int {
	if hint == w.id {
		return 1
	}
	return 0
}
