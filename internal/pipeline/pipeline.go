// Package pipeline implements the fused per-partition narrow-chain executor
// (spec §4.4): every narrow transform between a shuffle boundary (or a
// source) and the next shuffle boundary (or the action) runs as a single
// pass over that partition's elements, with no intermediate slice
// materializing the whole partition between stages. Grounded on the
// teacher's internal/worker/executor.go executeMapSide, whose scan loop
// (`for scanner.Scan() { ... processFn(line) ... }`) applies its whole
// operator chain to one line at a time rather than buffering per stage.
package pipeline

import (
	"fmt"

	"distcalc/internal/dataset"
)

// Plan is the narrow-chain that produces one partition of tail: Base is the
// nearest source, wide, union or persisted dataset upstream (whichever
// comes first walking backward; see Build), and Ops is every narrow
// transform between Base and Tail, in execution order.
type Plan struct {
	Base *dataset.Dataset
	Ops  []dataset.NarrowOp
	Tail *dataset.Dataset
}

// Build walks tail's parent chain backward until it hits a source, a wide
// (shuffle-boundary) dataset, a union, or a persisted dataset — all four
// are places pipeline fusion stops: the first three need their input
// assembled a different way (materialize a source, read shuffle files, or
// dispatch to one of two distinct upstream chains), and a persisted
// dataset needs to be independently realized and cached rather than
// silently inlined into a chain that runs past it on every access.
func Build(tail *dataset.Dataset) (*Plan, error) {
	var ops []dataset.NarrowOp
	d := tail
	for !d.IsSource() && !d.IsWide() && d.Kind != dataset.KindUnion {
		op, ok := d.Op.(dataset.NarrowOp)
		if !ok {
			return nil, fmt.Errorf("pipeline: dataset %d (kind %s) is not a narrow op", d.ID, d.Kind)
		}
		ops = append(ops, op)
		if len(d.Parents) != 1 {
			return nil, fmt.Errorf("pipeline: narrow dataset %d has %d parents, want 1", d.ID, len(d.Parents))
		}
		parent := d.Parents[0]
		if parent.Persistent {
			d = parent
			break
		}
		d = parent
	}
	// ops was built walking tail -> base; reverse it into base -> tail
	// execution order.
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return &Plan{Base: d, Ops: ops, Tail: tail}, nil
}

// instantiate resolves each op against partitionIndex, giving Stateful ops
// (currently only Sample) a fresh instance so concurrently executing
// partition tasks never share mutable state (spec §5).
func instantiate(ops []dataset.NarrowOp, partitionIndex int) []dataset.NarrowOp {
	out := make([]dataset.NarrowOp, len(ops))
	for i, op := range ops {
		if s, ok := op.(dataset.Stateful); ok {
			out[i] = s.NewInstance(partitionIndex)
		} else {
			out[i] = op
		}
	}
	return out
}

// Run executes plan.Ops over input one element at a time: each input
// element is pushed through the whole chain before the next one starts, so
// at most one element's worth of intermediate output for the deepest stage
// exists at once, rather than one full-partition slice per stage. sink, if
// non-nil, receives every element that survives the chain. internal/planner
// passes nil and buffers a persisted partition's elements itself, in
// Realize, after Run returns.
func Run(plan *Plan, partitionIndex int, input []any, sink func(any)) ([]any, error) {
	ops := instantiate(plan.Ops, partitionIndex)
	var out []any
	for _, v := range input {
		cur := []any{v}
		for _, op := range ops {
			next, err := op.Transform(cur)
			if err != nil {
				return nil, fmt.Errorf("pipeline: dataset %d: %w", plan.Tail.ID, err)
			}
			cur = next
			if len(cur) == 0 {
				break
			}
		}
		for _, r := range cur {
			if sink != nil {
				sink(r)
			}
			out = append(out, r)
		}
	}
	return out, nil
}
