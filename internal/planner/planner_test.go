package planner_test

import (
	"testing"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/memstore"
	"distcalc/internal/planner"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
	"distcalc/internal/udf"
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

func init() {
	udf.Register("pn_inc", udf.MapperFn(func(v any, _ any) any { return v.(int) + 1 }))
}

func TestStagesEmptyForPurelyNarrowGraph(t *testing.T) {
	tail := dataset.Parallelize([]any{1, 2}, 1).Map("pn_inc", nil)
	if stages := planner.Stages(tail); len(stages) != 0 {
		t.Fatalf("Stages() = %v, want empty for a narrow-only graph", stages)
	}
}

func TestStagesFindsWideAncestorsInDependencyOrder(t *testing.T) {
	base := dataset.Parallelize([]any{common.Pair{Key: "a", Value: 1}}, 1)
	first := base.GroupByKey(1)
	stages := planner.Stages(first)
	if len(stages) != 1 || stages[0] != first {
		t.Fatalf("Stages(first) = %v, want [first]", stages)
	}
}

func TestRealizeMaterializesSourcePartition(t *testing.T) {
	ctx := newTestContext(t)
	src := dataset.Parallelize([]any{10, 20, 30}, 1)
	elems, err := planner.Realize(ctx, src, 0)
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("len(elems) = %d, want 3", len(elems))
	}
}

func TestRealizeOutOfRangePartitionErrors(t *testing.T) {
	ctx := newTestContext(t)
	src := dataset.Parallelize([]any{1}, 1)
	if _, err := planner.Realize(ctx, src, 5); err == nil {
		t.Fatal("expected an error for an out-of-range partition index")
	}
}

func TestRunStagesMarksWideDatasetExecuted(t *testing.T) {
	ctx := newTestContext(t)
	base := dataset.Parallelize([]any{
		common.Pair{Key: "a", Value: 1},
		common.Pair{Key: "b", Value: 2},
		common.Pair{Key: "a", Value: 3},
	}, 2)
	grouped := base.GroupByKey(2)
	if grouped.Executed {
		t.Fatal("wide dataset should not start Executed")
	}
	if err := planner.RunStages(ctx, grouped); err != nil {
		t.Fatalf("RunStages: %v", err)
	}
	if !grouped.Executed {
		t.Fatal("RunStages should mark the wide dataset Executed")
	}
}
