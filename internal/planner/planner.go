// Package planner cuts a dataset DAG into stages at its shuffle boundaries
// and realizes individual partitions on demand (spec §4.5 steps 1-3).
// Grounded on the teacher's internal/master/api.go HandleSubmitJob, which
// splits a JobRequest.Graph into per-node task sets ahead of a shuffle
// boundary, and zhoubolei-GoSpark/scheduler.go's buildDagRun, which walks
// dependencies distinguishing narrow from wide to decide where to cut.
package planner

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"distcalc/internal/dataset"
	"distcalc/internal/memstore"
	"distcalc/internal/pipeline"
	"distcalc/internal/rtctx"
	"distcalc/internal/shuffle"

	"golang.org/x/sync/errgroup"
)

var logger = log.New(os.Stderr, "[planner] ", log.LstdFlags)

// Stages returns every wide dataset that tail depends on (directly or
// through any number of narrow/union hops), in dependency order: an
// ancestor always appears before any wide dataset that depends on it. If
// tail is itself wide, it is the last element. A tail reachable from its
// sources through narrow/union hops alone (no shuffle) returns an empty
// slice: there is nothing to plan beyond the single result stage.
func Stages(tail *dataset.Dataset) []*dataset.Dataset {
	visited := map[int64]bool{}
	var order []*dataset.Dataset
	var visit func(d *dataset.Dataset)
	visit = func(d *dataset.Dataset) {
		if visited[d.ID] {
			return
		}
		visited[d.ID] = true
		for _, p := range d.Parents {
			visit(p)
		}
		if d.IsWide() {
			order = append(order, d)
		}
	}
	visit(tail)
	return order
}

// RunMapStage executes every map task feeding wide: for each of wide's
// parents (one, or two for coGroup/Cartesian), for each of that parent's
// partitions, realize the narrow chain feeding into wide from that
// partition and spill it via shuffle.WriteMapSide. Marks wide Executed once
// every map task has completed (spec §4.5 step 2).
func RunMapStage(ctx *rtctx.Context, wide *dataset.Dataset) error {
	logger.Printf("map stage starting for dataset %d", wide.ID)
	var g errgroup.Group
	g.SetLimit(max(1, runtime.NumCPU()))
	for side, parent := range wide.Parents {
		side, parent := side, parent
		parts, err := parent.GetPartitions()
		if err != nil {
			return fmt.Errorf("planner: stage %d: %w", wide.ID, err)
		}
		for _, part := range parts {
			part := part
			g.Go(func() error {
				elems, err := Realize(ctx, parent, part.Index)
				if err != nil {
					return fmt.Errorf("planner: stage %d map task (side %d, partition %d): %w", wide.ID, side, part.Index, err)
				}
				if err := shuffle.WriteMapSide(ctx, wide, part.Index, side, elems); err != nil {
					return fmt.Errorf("planner: stage %d map task (side %d, partition %d): %w", wide.ID, side, part.Index, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	wide.Executed = true
	logger.Printf("map stage complete for dataset %d", wide.ID)
	return nil
}

// Realize resolves dataset d's partitionIndex'th partition into its
// concrete element sequence, honoring persistence (a Persistent dataset's
// partition buffer is populated on first access and reused thereafter
// until it's evicted, spec §4.2) and dispatching by kind: sources
// materialize directly, wide datasets read their already-written shuffle
// output, unions forward to whichever parent produced the requested
// output index, and everything else runs the fused narrow chain
// internal/pipeline builds back to the nearest boundary.
func Realize(ctx *rtctx.Context, d *dataset.Dataset, partitionIndex int) ([]any, error) {
	parts, err := d.GetPartitions()
	if err != nil {
		return nil, err
	}
	if partitionIndex < 0 || partitionIndex >= len(parts) {
		return nil, fmt.Errorf("planner: dataset %d has no partition %d", d.ID, partitionIndex)
	}
	part := parts[partitionIndex]

	if d.Persistent {
		if part.Buffer == nil {
			part.Buffer = memstore.NewPartitionBuffer(ctx.Mem)
		}
		if !part.Buffer.Evicted() && part.Buffer.Data() != nil {
			return part.Buffer.Data(), nil
		}
	}

	elems, err := computeElements(ctx, d, part)
	if err != nil {
		return nil, err
	}
	if d.Persistent && !part.Buffer.Evicted() {
		for _, e := range elems {
			part.Buffer.Append(e)
		}
	}
	return elems, nil
}

func computeElements(ctx *rtctx.Context, d *dataset.Dataset, part *dataset.Partition) ([]any, error) {
	switch {
	case d.IsSource():
		return d.Materialize(ctx, part)
	case d.IsWide():
		if !d.Executed {
			return nil, fmt.Errorf("planner: dataset %d read before its map stage ran", d.ID)
		}
		return shuffle.ReadReduceSide(ctx, d, part.Index)
	case d.Kind == dataset.KindUnion:
		leftParts, err := d.Parents[0].GetPartitions()
		if err != nil {
			return nil, err
		}
		if part.ParentIndex == nil {
			return nil, fmt.Errorf("planner: union dataset %d partition %d has no parent index", d.ID, part.Index)
		}
		if part.Index < len(leftParts) {
			return Realize(ctx, d.Parents[0], *part.ParentIndex)
		}
		return Realize(ctx, d.Parents[1], *part.ParentIndex)
	default:
		plan, err := pipeline.Build(d)
		if err != nil {
			return nil, err
		}
		baseElems, err := Realize(ctx, plan.Base, part.Index)
		if err != nil {
			return nil, err
		}
		return pipeline.Run(plan, part.Index, baseElems, nil)
	}
}

// RunStages executes every map stage tail depends on, in dependency order,
// so that by the time the caller starts dispatching tail's own result-stage
// tasks every wide ancestor it (transitively) reads from already has its
// shuffle files written (spec §4.5 steps 1-2).
func RunStages(ctx *rtctx.Context, tail *dataset.Dataset) error {
	stages := Stages(tail)
	if len(stages) > 0 {
		logger.Printf("dataset %d has %d shuffle stage(s) ahead of its result stage", tail.ID, len(stages))
	}
	for _, wide := range stages {
		if wide.Executed {
			continue
		}
		if err := RunMapStage(ctx, wide); err != nil {
			return err
		}
	}
	return nil
}
