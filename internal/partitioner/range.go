package partitioner

import (
	"fmt"
	"sort"

	"distcalc/internal/dataset"
	"distcalc/internal/udf"
)

// CollectFunc runs tail as a job and returns every element it produces,
// exactly what a `collect` action does. RangePartitioner takes one as a
// parameter, rather than importing internal/driver directly, so that this
// package doesn't need to depend on the action driver, the planner or the
// shuffle subsystem — the range partitioner's sampling sub-job is a fully
// ordinary job from the driver's point of view (spec §4.1: "the range
// partitioner's Init runs its own job against the same core"), and the
// caller (whoever is already holding a driver) is in the best position to
// supply that.
type CollectFunc func(tail *dataset.Dataset) ([]any, error)

// RangePartitioner buckets keys into NumPartitions ordered, non-overlapping
// ranges determined by sampling the dataset once at construction time (spec
// §4.1). Its buckets are always in ascending key order; a descending sortBy
// is realized by the caller reading result partitions back to front, not by
// reversing the partitioner itself, so the same RangePartitioner value
// could in principle back both an ascending and a descending sortBy over
// the same key distribution.
type RangePartitioner struct {
	n       int
	bounds  []any
	compare udf.CompareFn
}

// NewRangePartitioner returns a partitioner with n buckets; call Init
// before using it.
func NewRangePartitioner(n int) *RangePartitioner {
	if n <= 0 {
		n = 1
	}
	return &RangePartitioner{n: n}
}

// Init samples parent (drawing fraction of its elements with the given
// seed, spec §9's deterministic sampler), extracts a sort key from each
// sample via keyRef, sorts and deduplicates the sampled keys, and picks
// n-1 evenly spaced upper bounds from them. With at least n distinct
// sampled keys the bounds are distinct; with fewer, bounds repeat and the
// buckets between two equal bounds stay empty.
func (r *RangePartitioner) Init(parent *dataset.Dataset, keyRef string, args any, seed uint32, fraction float64, compareRef string, collect CollectFunc) error {
	cmp, err := udf.Compare(compareRef)
	if err != nil {
		return err
	}
	keyFn, err := udf.Key(keyRef)
	if err != nil {
		return err
	}
	samples, err := collect(parent.Sample(fraction, false, seed))
	if err != nil {
		return fmt.Errorf("range partitioner: sampling sub-job failed: %w", err)
	}
	keys := make([]any, len(samples))
	for i, s := range samples {
		keys[i] = keyFn(s, args)
	}
	sort.Slice(keys, func(i, j int) bool { return cmp(keys[i], keys[j]) < 0 })
	uniq := keys[:0:0]
	for i, k := range keys {
		if i == 0 || cmp(k, uniq[len(uniq)-1]) != 0 {
			uniq = append(uniq, k)
		}
	}
	r.compare = cmp
	if r.n <= 1 || len(uniq) == 0 {
		r.bounds = nil
		return nil
	}
	bounds := make([]any, 0, r.n-1)
	for i := 1; i < r.n; i++ {
		idx := i * len(uniq) / r.n
		if idx >= len(uniq) {
			idx = len(uniq) - 1
		}
		bounds = append(bounds, uniq[idx])
	}
	r.bounds = bounds
	return nil
}

func (r *RangePartitioner) NumPartitions() int { return r.n }

// PartitionIndexOf returns the smallest index i with key strictly less
// than bounds[i], clamped to [0, n) (spec §4.1). With no samples observed
// (empty dataset, or Init never called), every key falls into bucket 0.
func (r *RangePartitioner) PartitionIndexOf(key any) int {
	if r.compare == nil {
		return 0
	}
	idx := 0
	for idx < len(r.bounds) && r.compare(key, r.bounds[idx]) >= 0 {
		idx++
	}
	if idx >= r.n {
		idx = r.n - 1
	}
	return idx
}
