// Package driver is the action driver (spec §4.5 steps 3-5): given a tail
// dataset, it runs that dataset's map stages, dispatches one task per
// result-stage partition within a bounded concurrency window, and folds
// the per-partition partial results into a single value in partition order
// regardless of completion order. Grounded on the teacher's
// internal/master/scheduler.go dispatch loop (pending-queue plus
// round-robin worker assignment), with concurrency generalized from its
// hand-rolled channel semaphore to golang.org/x/sync/errgroup, matching
// grailbio-bigslice's fan-out idiom. Every partition task is issued through
// rtctx.Context.Dispatch, the driver's own view of spec §6's
// runTask(task, callback) port, rather than run inline: the errgroup still
// owns the concurrency window (spec §4.5's MaxBusy), but the unit of work
// itself always crosses the ports.Dispatcher boundary, so a runtime that
// wants to place tasks on remote workers only has to swap the
// rtctx.Context's Dispatcher, not this package.
package driver

import (
	"context"
	"log"
	"os"
	"runtime"
	"sync"

	"distcalc/internal/dataset"
	"distcalc/internal/planner"
	"distcalc/internal/rtctx"

	"golang.org/x/sync/errgroup"
)

var logger = log.New(os.Stderr, "[driver] ", log.LstdFlags)

// Options configures one job's dispatch (spec §4.5 step 4).
type Options struct {
	// MaxBusy bounds concurrently in-flight partition tasks. <=0 defaults
	// to runtime.NumCPU(). take/top set this to 1: sequential dispatch is
	// the only mode that can short-circuit mid-job (see Satisfied below).
	MaxBusy int
	// Descending issues (and combines) partitions from the last index to
	// the first, spec §4.5's "_lifo" order — used by operations that read
	// more naturally from the tail of a dataset.
	Descending bool
}

// PerPartition computes one partition's partial result from its realized
// elements. pid is the partition's own index, needed by actions like save
// that name their output per partition.
type PerPartition func(pid int, elems []any) (any, error)

// Combine folds one more partial result into the running accumulator, in
// partition order.
type Combine func(acc, partial any) any

// Satisfied, when non-nil, is checked after folding each partial result
// (sequential dispatch only, i.e. Options.MaxBusy == 1): once it returns
// true, no further partitions are read. take/top rely on this to avoid
// realizing partitions past the point where they already have enough.
type Satisfied func(acc any) bool

// RunJob runs tail's map stages, then its result stage, and returns the
// combined result. perPartition and combine together are this job's
// action: e.g. count's perPartition returns len(elems) and its combine
// sums two ints; collect's perPartition returns elems verbatim and its
// combine appends.
func RunJob(ctx *rtctx.Context, tail *dataset.Dataset, opts Options, perPartition PerPartition, init any, combine Combine, satisfied Satisfied) (any, error) {
	if err := planner.RunStages(ctx, tail); err != nil {
		return nil, err
	}
	parts, err := tail.GetPartitions()
	if err != nil {
		return nil, err
	}
	n := len(parts)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if opts.Descending {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	maxBusy := opts.MaxBusy
	if maxBusy <= 0 {
		maxBusy = runtime.NumCPU()
	}
	logger.Printf("dispatching %d partition task(s) for dataset %d (max busy %d)", n, tail.ID, maxBusy)

	partitionTask := func(pid int) func() (any, error) {
		return func() (any, error) {
			elems, err := planner.Realize(ctx, tail, pid)
			if err != nil {
				return nil, err
			}
			return perPartition(pid, elems)
		}
	}

	if maxBusy <= 1 {
		result := init
		for _, pid := range order {
			partial, err := ctx.Dispatch(context.Background(), partitionTask(pid))
			if err != nil {
				return nil, err
			}
			result = combine(result, partial)
			if satisfied != nil && satisfied(result) {
				break
			}
		}
		return result, nil
	}

	tmp := make([]any, n)
	have := make([]bool, n)
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxBusy)
	for _, pid := range order {
		pid := pid
		g.Go(func() error {
			partial, err := ctx.Dispatch(context.Background(), partitionTask(pid))
			if err != nil {
				return err
			}
			mu.Lock()
			tmp[pid] = partial
			have[pid] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	result := init
	for _, pid := range order {
		if !have[pid] {
			continue
		}
		result = combine(result, tmp[pid])
	}
	return result, nil
}
