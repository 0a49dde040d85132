package dataset

import (
	"testing"

	"distcalc/internal/common"
	"distcalc/internal/udf"
)

func init() {
	udf.Register("test_double", udf.MapperFn(func(v any, _ any) any { return v.(int) * 2 }))
	udf.Register("test_repeat", udf.FlatMapperFn(func(v any, args any) []any {
		n := args.(int)
		out := make([]any, n)
		for i := range out {
			out[i] = v
		}
		return out
	}))
	udf.Register("test_even", udf.FilterFn(func(v any, _ any) bool { return v.(int)%2 == 0 }))
}

func TestMapOpTransform(t *testing.T) {
	op := &MapOp{Ref: "test_double"}
	out, err := op.Transform([]any{1, 2, 3})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := []any{2, 4, 6}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestFlatMapOpTransform(t *testing.T) {
	op := &FlatMapOp{Ref: "test_repeat", Args: 3}
	out, err := op.Transform([]any{"x"})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestFilterOpTransform(t *testing.T) {
	op := &FilterOp{Ref: "test_even"}
	out, err := op.Transform([]any{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(out) != 2 || out[0] != 2 || out[1] != 4 {
		t.Errorf("out = %v, want [2 4]", out)
	}
}

func TestMapValuesOpRequiresPair(t *testing.T) {
	op := &MapValuesOp{Ref: "test_double"}
	if _, err := op.Transform([]any{5}); err == nil {
		t.Fatal("expected error for non-Pair element")
	}
	out, err := op.Transform([]any{common.Pair{Key: "k", Value: 5}})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	p := out[0].(common.Pair)
	if p.Key != "k" || p.Value != 10 {
		t.Errorf("out[0] = %+v, want {k 10}", p)
	}
}

func TestSampleOpIsStatefulAndReproducible(t *testing.T) {
	base := &SampleOp{Fraction: 0.5, Seed: 99}
	a := base.NewInstance(0).(*SampleOp)
	b := base.NewInstance(0).(*SampleOp)

	input := make([]any, 500)
	for i := range input {
		input[i] = i
	}
	outA, err := a.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	outB, err := b.Transform(input)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(outA) != len(outB) {
		t.Fatalf("two fresh instances from the same seed disagreed: %d vs %d elements", len(outA), len(outB))
	}
	for i := range outA {
		if outA[i] != outB[i] {
			t.Fatalf("element %d diverged: %v vs %v", i, outA[i], outB[i])
		}
	}
}

func TestUnionOpIsIdentity(t *testing.T) {
	op := &UnionOp{}
	in := []any{1, 2, 3}
	out, err := op.Transform(in)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestBuilderMethodsChainParentage(t *testing.T) {
	src := Parallelize([]any{1, 2, 3}, 1)
	mapped := src.Map("test_double", nil)
	if len(mapped.Parents) != 1 || mapped.Parents[0] != src {
		t.Fatal("Map did not record its parent correctly")
	}
	if mapped.IsSource() {
		t.Fatal("a mapped dataset must not be a source")
	}
	if mapped.IsWide() {
		t.Fatal("Map must be a narrow op")
	}
}

func TestUnionPartitionCount(t *testing.T) {
	a := Parallelize([]any{1, 2}, 2)
	b := Parallelize([]any{3, 4, 5}, 3)
	u := a.Union(b)
	parts, err := u.GetPartitions()
	if err != nil {
		t.Fatalf("GetPartitions: %v", err)
	}
	if len(parts) != 5 {
		t.Fatalf("len(parts) = %d, want 5", len(parts))
	}
}

func TestPersistMarksDataset(t *testing.T) {
	d := Parallelize([]any{1}, 1)
	if d.Persistent {
		t.Fatal("dataset should not start persistent")
	}
	d.Persist()
	if !d.Persistent {
		t.Fatal("Persist() should set Persistent")
	}
}
