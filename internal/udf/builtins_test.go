package udf

import (
	"testing"

	"distcalc/internal/common"
)

func TestTokenizeLowercasesAndStripsPunctuation(t *testing.T) {
	fn, err := FlatMapper("tokenize")
	if err != nil {
		t.Fatalf("FlatMapper: %v", err)
	}
	got := fn("Hello, World!", nil)
	want := []any{"hello", "world"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNotEmptyFilter(t *testing.T) {
	fn, err := Filter("not_empty")
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if fn("  ", nil) {
		t.Error("whitespace-only string should be filtered out")
	}
	if !fn("x", nil) {
		t.Error("non-empty string should pass")
	}
}

func TestSumIntsAcceptsBothIntAndFloat64(t *testing.T) {
	fn, err := Reducer("sum_ints")
	if err != nil {
		t.Fatalf("Reducer: %v", err)
	}
	if got := fn(3, 4, nil); got.(int) != 7 {
		t.Errorf("sum_ints(3, 4) = %v, want 7", got)
	}
	if got := fn(3.0, 4, nil); got.(int) != 7 {
		t.Errorf("sum_ints(3.0, 4) = %v, want 7", got)
	}
}

func TestAppendReduceAndCombine(t *testing.T) {
	reducer, err := Reducer("append_reduce")
	if err != nil {
		t.Fatalf("Reducer: %v", err)
	}
	acc := reducer([]any{}, 1, nil)
	acc = reducer(acc, 2, nil)
	if len(acc.([]any)) != 2 {
		t.Fatalf("acc = %v, want 2 elements", acc)
	}

	combiner, err := Combiner("append_combine")
	if err != nil {
		t.Fatalf("Combiner: %v", err)
	}
	merged := combiner([]any{1}, []any{2, 3}, nil)
	if len(merged.([]any)) != 3 {
		t.Fatalf("merged = %v, want 3 elements", merged)
	}
}

func TestKeepFirstIgnoresLaterValues(t *testing.T) {
	reducer, err := Reducer("keep_first")
	if err != nil {
		t.Fatalf("Reducer: %v", err)
	}
	if got := reducer("first", "second", nil); got != "first" {
		t.Errorf("keep_first(first, second) = %v, want first", got)
	}
}

func TestPairKeyExtractsKey(t *testing.T) {
	fn, err := Key("pair_key")
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if got := fn(common.Pair{Key: "k", Value: 1}, nil); got != "k" {
		t.Errorf("pair_key = %v, want k", got)
	}
}

func TestNaturalOrderCompare(t *testing.T) {
	fn, err := Compare("natural_order")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if fn(1, 2) >= 0 {
		t.Error("natural_order(1, 2) should be negative")
	}
	if fn("b", "a") <= 0 {
		t.Error(`natural_order("b", "a") should be positive`)
	}
	if fn(5, 5) != 0 {
		t.Error("natural_order(5, 5) should be zero")
	}
}

func TestLookupUnknownNameErrors(t *testing.T) {
	if _, err := Mapper("does_not_exist"); err == nil {
		t.Fatal("expected an error for an unregistered mapper")
	}
}

func TestLookupWrongTypeErrors(t *testing.T) {
	Register("wrong_type_test", MapperFn(func(v any, _ any) any { return v }))
	if _, err := Filter("wrong_type_test"); err == nil {
		t.Fatal("expected an error looking up a MapperFn as a FilterFn")
	}
}
