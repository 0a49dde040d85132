package pipeline_test

import (
	"testing"

	"distcalc/internal/dataset"
	"distcalc/internal/pipeline"
	"distcalc/internal/udf"
)

func init() {
	udf.Register("pl_inc", udf.MapperFn(func(v any, _ any) any { return v.(int) + 1 }))
}

func TestBuildFusesNarrowChainBackToSource(t *testing.T) {
	src := dataset.Parallelize([]any{1, 2, 3}, 1)
	tail := src.Map("pl_inc", nil).Map("pl_inc", nil).Filter("pl_even", nil)
	udf.Register("pl_even", udf.FilterFn(func(v any, _ any) bool { return v.(int)%2 == 0 }))

	plan, err := pipeline.Build(tail)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Base != src {
		t.Fatalf("Base = dataset %d, want the source dataset %d", plan.Base.ID, src.ID)
	}
	if len(plan.Ops) != 3 {
		t.Fatalf("len(Ops) = %d, want 3 (map, map, filter)", len(plan.Ops))
	}
}

func TestBuildStopsAtPersistedAncestor(t *testing.T) {
	src := dataset.Parallelize([]any{1, 2, 3}, 1)
	persisted := src.Map("pl_inc", nil).Persist()
	tail := persisted.Map("pl_inc", nil)

	plan, err := pipeline.Build(tail)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Base != persisted {
		t.Fatalf("Base = dataset %d, want the persisted dataset %d", plan.Base.ID, persisted.ID)
	}
	if len(plan.Ops) != 1 {
		t.Fatalf("len(Ops) = %d, want 1 (only the op past the persisted boundary)", len(plan.Ops))
	}
}

func TestRunAppliesChainElementAtATime(t *testing.T) {
	src := dataset.Parallelize([]any{1, 2, 3}, 1)
	tail := src.Map("pl_inc", nil)
	plan, err := pipeline.Build(tail)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := pipeline.Run(plan, 0, []any{1, 2, 3}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []any{2, 3, 4}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRunSinkReceivesSurvivingElements(t *testing.T) {
	src := dataset.Parallelize([]any{1, 2, 3, 4}, 1)
	udf.Register("pl_even2", udf.FilterFn(func(v any, _ any) bool { return v.(int)%2 == 0 }))
	tail := src.Filter("pl_even2", nil)
	plan, err := pipeline.Build(tail)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var sunk []any
	out, err := pipeline.Run(plan, 0, []any{1, 2, 3, 4}, func(v any) { sunk = append(sunk, v) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sunk) != len(out) {
		t.Fatalf("sink received %d elements, Run returned %d", len(sunk), len(out))
	}
}
