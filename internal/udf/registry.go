// Package udf is the named-function registry spec §9 calls for in place of
// shipping closures across the driver/worker boundary: "the core only sees
// {fn-ref, args} pairs, never environment captures." A Dataset operator
// payload carries a Ref (a stable string key) plus an Args value (anything
// JSON-marshalable); the worker executing the task looks the function up
// here by Ref.
//
// This is a direct generalization of the teacher's
// internal/udf/functions.go: same map[string]interface{} registry with
// typed accessors, but the payload type widens from Record (a text line)
// to any, since this engine's elements are not restricted to text.
package udf

import "fmt"

// MapperFn transforms one element into one element, with args as its
// captured free variables (spec §9).
type MapperFn func(v any, args any) any

// FlatMapperFn transforms one element into zero or more elements.
type FlatMapperFn func(v any, args any) []any

// FilterFn decides whether to keep an element.
type FilterFn func(v any, args any) bool

// KeyFn extracts a key from an element, used by SortBy and by the range
// partitioner's sampling sub-job.
type KeyFn func(v any, args any) any

// ReducerFn folds one value into an accumulator on the AggregateByKey map
// side: acc' = reducer(acc, value, args).
type ReducerFn func(acc any, value any, args any) any

// CombinerFn folds two accumulators together on the AggregateByKey reduce
// side, and is also the action driver's partial-result combiner:
// result' = combiner(result, partial, args).
type CombinerFn func(a any, b any, args any) any

// CompareFn orders two keys: negative if a < b, positive if a > b, zero
// otherwise, matching spec §4.3's "<, >, else 0" contract exactly.
type CompareFn func(a, b any) int

// CloneFn deep-clones a user-provided initial accumulator so each key in an
// AggregateByKey map-side buffer starts from an independent copy (spec
// §4.3: "Initial accumulator is deep-cloned per key from a user-provided
// init").
type CloneFn func(init any) any

var registry = map[string]any{}

// Register installs fn under name, overwriting any previous registration.
// Called during process init by the code that owns fn's free variables,
// mirroring the teacher's package-level UDFRegistry literal.
func Register(name string, fn any) {
	registry[name] = fn
}

func lookup[T any](name string) (T, error) {
	var zero T
	raw, ok := registry[name]
	if !ok {
		return zero, fmt.Errorf("udf: no function registered under %q", name)
	}
	fn, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("udf: function %q is not of the requested type", name)
	}
	return fn, nil
}

func Mapper(name string) (MapperFn, error)     { return lookup[MapperFn](name) }
func FlatMapper(name string) (FlatMapperFn, error) { return lookup[FlatMapperFn](name) }
func Filter(name string) (FilterFn, error)     { return lookup[FilterFn](name) }
func Key(name string) (KeyFn, error)           { return lookup[KeyFn](name) }
func Reducer(name string) (ReducerFn, error)   { return lookup[ReducerFn](name) }
func Combiner(name string) (CombinerFn, error) { return lookup[CombinerFn](name) }
func Compare(name string) (CompareFn, error)   { return lookup[CompareFn](name) }
func Clone(name string) (CloneFn, error)       { return lookup[CloneFn](name) }

// Identity is a stock CloneFn for accumulators that are already value types
// (ints, strings, immutable structs) and need no deep copy.
func Identity(init any) any { return init }

func init() {
	Register("identity_clone", CloneFn(Identity))
}
