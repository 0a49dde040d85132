package partitioner_test

import (
	"testing"

	"distcalc/internal/dataset"
	"distcalc/internal/driver"
	"distcalc/internal/memstore"
	"distcalc/internal/partitioner"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
)

func newTestContext(t *testing.T) *rtctx.Context {
	t.Helper()
	return &rtctx.Context{
		Blob:       ports.LocalFS{},
		ScratchDir: t.TempDir(),
		Mem:        memstore.NewManager(1 << 30),
		WorkerID:   "test-worker",
	}
}

func TestRangePartitionerOrdersKeysAscending(t *testing.T) {
	ctx := newTestContext(t)
	data := make([]any, 0, 200)
	for i := 199; i >= 0; i-- {
		data = append(data, i)
	}
	src := dataset.Parallelize(data, 4)

	rp := partitioner.NewRangePartitioner(4)
	collect := func(tail *dataset.Dataset) ([]any, error) { return driver.Collect(ctx, tail) }
	if err := rp.Init(src, "identity_key", nil, 1, 1.0, "natural_order", collect); err != nil {
		t.Fatalf("Init: %v", err)
	}

	// Every element in a lower-numbered partition must be <= every element
	// in a higher-numbered partition (spec's range-partitioner balance
	// property).
	buckets := make(map[int][]int)
	for _, v := range data {
		idx := rp.PartitionIndexOf(v)
		buckets[idx] = append(buckets[idx], v.(int))
	}
	maxSeen := -1
	for b := 0; b < rp.NumPartitions(); b++ {
		for _, v := range buckets[b] {
			if v < maxSeen {
				t.Fatalf("partition %d contains %d, which is less than a value already seen in an earlier partition (%d)", b, v, maxSeen)
			}
		}
		for _, v := range buckets[b] {
			if v > maxSeen {
				maxSeen = v
			}
		}
	}
}

func TestRangePartitionerEmptyDatasetFallsIntoBucketZero(t *testing.T) {
	ctx := newTestContext(t)
	src := dataset.Parallelize(nil, 1)
	rp := partitioner.NewRangePartitioner(3)
	collect := func(tail *dataset.Dataset) ([]any, error) { return driver.Collect(ctx, tail) }
	if err := rp.Init(src, "identity_key", nil, 1, 1.0, "natural_order", collect); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if idx := rp.PartitionIndexOf(42); idx != 0 {
		t.Errorf("PartitionIndexOf on empty sample = %d, want 0", idx)
	}
}
