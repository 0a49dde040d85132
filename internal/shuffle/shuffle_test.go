package shuffle_test

import (
	"testing"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/memstore"
	"distcalc/internal/planner"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
	"distcalc/internal/shuffle"
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

func TestWriteMapSideThenReadReduceSideRoundTripsReduceByKey(t *testing.T) {
	ctx := newTestContext(t)
	base := dataset.Parallelize([]any{
		common.Pair{Key: "a", Value: 1},
		common.Pair{Key: "b", Value: 2},
		common.Pair{Key: "a", Value: 3},
	}, 1)
	wide := base.ReduceByKey("sum_ints", nil, 2)

	if err := planner.RunMapStage(ctx, wide); err != nil {
		t.Fatalf("RunMapStage: %v", err)
	}
	if !wide.Executed {
		t.Fatal("RunMapStage should mark wide Executed")
	}

	totalRecords := 0
	sums := map[string]int{}
	for out := 0; out < 2; out++ {
		records, err := shuffle.ReadReduceSide(ctx, wide, out)
		if err != nil {
			t.Fatalf("ReadReduceSide(%d): %v", out, err)
		}
		totalRecords += len(records)
		for _, r := range records {
			p := r.(common.Pair)
			var v int
			switch t := p.Value.(type) {
			case int:
				v = t
			case float64:
				v = int(t)
			}
			sums[p.Key.(string)] = v
		}
	}
	if totalRecords != 2 {
		t.Fatalf("expected 2 distinct keys across both output partitions, got %d records", totalRecords)
	}
	if sums["a"] != 4 {
		t.Errorf(`sums["a"] = %d, want 4`, sums["a"])
	}
	if sums["b"] != 2 {
		t.Errorf(`sums["b"] = %d, want 2`, sums["b"])
	}
}

func TestReadReduceSideBeforeMapStageIsRejectedByPlanner(t *testing.T) {
	ctx := newTestContext(t)
	base := dataset.Parallelize([]any{common.Pair{Key: "a", Value: 1}}, 1)
	wide := base.ReduceByKey("sum_ints", nil, 1)
	if _, err := planner.Realize(ctx, wide, 0); err == nil {
		t.Fatal("expected an error realizing a wide dataset before its map stage ran")
	}
}
