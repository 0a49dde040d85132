// Narrow transforms (spec §4.3): each exposes a pure transform(batch) ->
// batch and participates in pipeline fusion (internal/pipeline). Grounded
// on the teacher's executor.go processFn dispatch (a switch over
// task.Operation.Type selecting a udf.Get*Function-looked-up closure),
// generalized from Record to any and widened to cover the full narrow
// catalog spec §4.3 names.
package dataset

import (
	"fmt"

	"distcalc/internal/common"
	"distcalc/internal/rng"
	"distcalc/internal/udf"
)

// NarrowOp is implemented by every payload of a narrow-kind Dataset.
// Transform is called once per single-element input batch by the fused
// pipeline loop (spec §4.4).
type NarrowOp interface {
	Transform(batch []any) ([]any, error)
}

// Stateful is implemented by narrow ops that carry per-partition mutable
// state (currently only SampleOp's RNG). The pipeline chain builder calls
// NewInstance once per partition task instead of reusing the Dataset's
// shared Op value across concurrently executing tasks.
type Stateful interface {
	NewInstance(partitionIndex int) NarrowOp
}

// MapOp applies a MapperFn 1:1.
type MapOp struct {
	Ref  string
	Args any
}

func (o *MapOp) Transform(batch []any) ([]any, error) {
	fn, err := udf.Mapper(o.Ref)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(batch))
	for i, v := range batch {
		out[i] = fn(v, o.Args)
	}
	return out, nil
}

// FlatMapOp applies a FlatMapperFn, 1 input to N outputs.
type FlatMapOp struct {
	Ref  string
	Args any
}

func (o *FlatMapOp) Transform(batch []any) ([]any, error) {
	fn, err := udf.FlatMapper(o.Ref)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, v := range batch {
		out = append(out, fn(v, o.Args)...)
	}
	return out, nil
}

// MapValuesOp applies a MapperFn to the value half of a common.Pair,
// leaving the key untouched.
type MapValuesOp struct {
	Ref  string
	Args any
}

func (o *MapValuesOp) Transform(batch []any) ([]any, error) {
	fn, err := udf.Mapper(o.Ref)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(batch))
	for i, v := range batch {
		p, ok := v.(common.Pair)
		if !ok {
			return nil, fmt.Errorf("mapValues: element is not a Pair: %#v", v)
		}
		out[i] = common.Pair{Key: p.Key, Value: fn(p.Value, o.Args)}
	}
	return out, nil
}

// FlatMapValuesOp applies a FlatMapperFn to the value half of a
// common.Pair, re-pairing the same key with each produced value.
type FlatMapValuesOp struct {
	Ref  string
	Args any
}

func (o *FlatMapValuesOp) Transform(batch []any) ([]any, error) {
	fn, err := udf.FlatMapper(o.Ref)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, v := range batch {
		p, ok := v.(common.Pair)
		if !ok {
			return nil, fmt.Errorf("flatMapValues: element is not a Pair: %#v", v)
		}
		for _, nv := range fn(p.Value, o.Args) {
			out = append(out, common.Pair{Key: p.Key, Value: nv})
		}
	}
	return out, nil
}

// FilterOp keeps only elements for which a FilterFn returns true.
type FilterOp struct {
	Ref  string
	Args any
}

func (o *FilterOp) Transform(batch []any) ([]any, error) {
	fn, err := udf.Filter(o.Ref)
	if err != nil {
		return nil, err
	}
	var out []any
	for _, v := range batch {
		if fn(v, o.Args) {
			out = append(out, v)
		}
	}
	return out, nil
}

// SampleOp draws a deterministic subset per spec §4.1/§9: Bernoulli when
// WithReplacement is false, Poisson otherwise, backed by the fixed xorshift
// generator seeded exactly as spec §9 mandates. Sample is the one narrow op
// with per-partition mutable state (the generator advances across calls),
// so it implements Stateful: the pipeline builder gives each partition's
// task its own fresh instance rather than sharing one across concurrent
// tasks (spec §5: per-task state never shared across tasks).
type SampleOp struct {
	Fraction        float64
	WithReplacement bool
	Seed            uint32
	gen             *rng.XorShift
}

// NewInstance returns a fresh SampleOp with its own generator, seeded
// exactly as configured (spec §9 pins the seed, not a per-partition
// derivation of it, so every partition draws from the same reproducible
// sequence).
func (o *SampleOp) NewInstance(_ int) NarrowOp {
	return &SampleOp{Fraction: o.Fraction, WithReplacement: o.WithReplacement, Seed: o.Seed, gen: rng.New(o.Seed)}
}

func (o *SampleOp) Transform(batch []any) ([]any, error) {
	if o.gen == nil {
		o.gen = rng.New(o.Seed)
	}
	var out []any
	for _, v := range batch {
		if o.WithReplacement {
			count := o.gen.Poisson(o.Fraction)
			for i := 0; i < count; i++ {
				out = append(out, v)
			}
		} else if o.gen.Float64() < o.Fraction {
			out = append(out, v)
		}
	}
	return out, nil
}

// UnionOp is the identity transform: a union partition simply proxies its
// single parent partition's elements unchanged (spec §4.3). The pipeline
// never runs it: pipeline.Build stops at a union, and internal/planner
// realizes a union partition by forwarding to the parent partition it
// proxies.
type UnionOp struct{}

func (o *UnionOp) Transform(batch []any) ([]any, error) { return batch, nil }

// --- builder methods on *Dataset -------------------------------------------

func newNarrow(kind Kind, parent *Dataset, op NarrowOp) *Dataset {
	return &Dataset{ID: newID(), Parents: []*Dataset{parent}, Kind: kind, Op: op}
}

func (d *Dataset) Map(ref string, args any) *Dataset {
	return newNarrow(KindMap, d, &MapOp{Ref: ref, Args: args})
}

func (d *Dataset) FlatMap(ref string, args any) *Dataset {
	return newNarrow(KindFlatMap, d, &FlatMapOp{Ref: ref, Args: args})
}

func (d *Dataset) MapValues(ref string, args any) *Dataset {
	return newNarrow(KindMapValues, d, &MapValuesOp{Ref: ref, Args: args})
}

func (d *Dataset) FlatMapValues(ref string, args any) *Dataset {
	return newNarrow(KindFlatMapValues, d, &FlatMapValuesOp{Ref: ref, Args: args})
}

func (d *Dataset) Filter(ref string, args any) *Dataset {
	return newNarrow(KindFilter, d, &FilterOp{Ref: ref, Args: args})
}

func (d *Dataset) Sample(fraction float64, withReplacement bool, seed uint32) *Dataset {
	return newNarrow(KindSample, d, &SampleOp{Fraction: fraction, WithReplacement: withReplacement, Seed: seed})
}

// Union concatenates this dataset with other: the result has
// len(d.partitions) + len(other.partitions) partitions, each an identity
// proxy of the corresponding source partition (spec §4.3).
func (d *Dataset) Union(other *Dataset) *Dataset {
	return &Dataset{ID: newID(), Parents: []*Dataset{d, other}, Kind: KindUnion, Op: &UnionOp{}}
}

// Persist marks d so its partitions are buffered on first iteration and
// reused thereafter, subject to eviction (spec §4.2).
func (d *Dataset) Persist() *Dataset {
	d.Persistent = true
	return d
}
