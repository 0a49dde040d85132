// Wide (shuffle-boundary) operators, spec §4.3. Unlike narrow.go's NarrowOp,
// these payload structs don't implement a shared Transform method: the
// map-side buffering and reduce-side combining they describe span an entire
// stage rather than a single element, so the algorithm itself lives in
// internal/shuffle, which type-switches on a wide Dataset's Op. This file
// only defines the payload data and the builder methods that construct it,
// whereas narrow.go's payload types double as their own executor.
package dataset

// AggregateByKeyOp backs reduceByKey, groupByKey, coGroup and distinct: a
// single shuffle-and-combine shape covering spec §4.3's whole keyed-reduce
// family.
//
//   - CoGroup is set for the two-parent form: the map side tags every
//     record's origin left/right instead of running a reducer, and the
//     reduce side concatenates same-key values from each side into a
//     common.CoGroupValue.
//   - IdentityKey is set for distinct: the record itself (not a Pair) is
//     the key, and the map side re-emits the raw value rather than a Pair.
//   - Otherwise Init/CloneRef seed a per-key accumulator (nil Init means
//     "seed the accumulator from the first value observed for that key",
//     the shape reduceByKey needs), ReducerRef folds one more value into an
//     accumulator, and CombinerRef merges two accumulators produced by
//     different upstream map tasks for the same key.
type AggregateByKeyOp struct {
	Init        any
	CloneRef    string
	ReducerRef  string
	CombinerRef string
	Args        any
	CoGroup     bool
	IdentityKey bool
	Partitioner Partitioner
}

// SortByOp backs sortBy/sortByKey: a range partitioner buckets keys into
// non-overlapping, ordered ranges on the map side; the reduce side
// concatenates its shuffle files and performs a single in-memory stable
// sort.
type SortByOp struct {
	KeyRef      string
	Args        any
	Ascending   bool
	CompareRef  string
	Partitioner Partitioner
}

// PartitionByOp repartitions a Pair dataset by key with no reduction: same
// map side as AggregateByKeyOp, but every record survives to the reduce
// side unchanged.
type PartitionByOp struct {
	Partitioner Partitioner
}

// CartesianOp pairs every element of the left dataset with every element of
// the right one. The map side spills each source partition to its own
// file; the reduce side has no keyed partitioner at all; output partition p
// reads left partition p/pright and right partition p%pright (spec §4.3).
type CartesianOp struct{}

// resolveWidth returns numPartitions if positive, else the parent's own
// partition count (falling back to 1 on error, since a caller that can't
// even list the parent's partitions has bigger problems than shuffle
// width).
func resolveWidth(parent *Dataset, numPartitions int) int {
	if numPartitions > 0 {
		return numPartitions
	}
	parts, err := parent.GetPartitions()
	if err != nil || len(parts) == 0 {
		return 1
	}
	return len(parts)
}

func newWide(kind Kind, parents []*Dataset, op any, numPartitions int) *Dataset {
	return &Dataset{ID: newID(), Parents: parents, Kind: kind, Op: op, NumPartitionsHint: numPartitions}
}

// ReduceByKey merges same-key values pairwise via reducerRef, applied both
// to fold a new value into a running accumulator and to merge two partial
// accumulators from different upstream partitions.
func (d *Dataset) ReduceByKey(reducerRef string, args any, numPartitions int) *Dataset {
	n := resolveWidth(d, numPartitions)
	op := &AggregateByKeyOp{ReducerRef: reducerRef, CombinerRef: reducerRef, Args: args, Partitioner: newHashPartitioner(n)}
	return newWide(KindAggregateByKey, []*Dataset{d}, op, n)
}

// GroupByKey collects every value under a key into a slice, preserving no
// particular order across upstream partitions.
func (d *Dataset) GroupByKey(numPartitions int) *Dataset {
	n := resolveWidth(d, numPartitions)
	op := &AggregateByKeyOp{
		Init:        []any{},
		CloneRef:    "empty_slice_clone",
		ReducerRef:  "append_reduce",
		CombinerRef: "append_combine",
		Partitioner: newHashPartitioner(n),
	}
	return newWide(KindAggregateByKey, []*Dataset{d}, op, n)
}

// CoGroup pairs same-key values from d and other into a common.CoGroupValue
// per key (spec §4.3's two-parent AggregateByKey form).
func (d *Dataset) CoGroup(other *Dataset, numPartitions int) *Dataset {
	n := resolveWidth(d, numPartitions)
	op := &AggregateByKeyOp{CoGroup: true, Partitioner: newHashPartitioner(n)}
	return newWide(KindAggregateByKey, []*Dataset{d, other}, op, n)
}

// Distinct drops duplicate elements by canonical-key identity, keeping the
// first occurrence seen (spec §8's algebraic property: order within a
// partition is otherwise unspecified). Elements are not Pairs: the element
// itself is both key and payload.
func (d *Dataset) Distinct(numPartitions int) *Dataset {
	n := resolveWidth(d, numPartitions)
	op := &AggregateByKeyOp{
		ReducerRef:  "keep_first",
		CombinerRef: "keep_first_combine",
		IdentityKey: true,
		Partitioner: newHashPartitioner(n),
	}
	return newWide(KindAggregateByKey, []*Dataset{d}, op, n)
}

// PartitionBy repartitions d by key with no reduction; every record
// survives, just relocated to the partition its key hashes (or ranges) to.
func (d *Dataset) PartitionBy(partitioner Partitioner) *Dataset {
	op := &PartitionByOp{Partitioner: partitioner}
	return newWide(KindPartitionBy, []*Dataset{d}, op, partitioner.NumPartitions())
}

// SortBy orders elements by a KeyFn-extracted key using partitioner (a
// caller-supplied range partitioner: see internal/partitioner.RangePartitioner,
// whose Init runs a sampling sub-job before this call). compareRef breaks
// ties/orders keys; ascending=false negates it.
func (d *Dataset) SortBy(keyRef string, args any, ascending bool, compareRef string, partitioner Partitioner) *Dataset {
	op := &SortByOp{KeyRef: keyRef, Args: args, Ascending: ascending, CompareRef: compareRef, Partitioner: partitioner}
	return newWide(KindSortBy, []*Dataset{d}, op, partitioner.NumPartitions())
}

// SortByKey is SortBy specialized to Pair elements, ordering by the pair's
// key half.
func (d *Dataset) SortByKey(ascending bool, compareRef string, partitioner Partitioner) *Dataset {
	return d.SortBy("pair_key", nil, ascending, compareRef, partitioner)
}

// Cartesian pairs every element of d with every element of other. Its
// output width defaults to len(d partitions) * len(other partitions); see
// defaultWideWidth's CartesianOp branch.
func (d *Dataset) Cartesian(other *Dataset) *Dataset {
	return newWide(KindCartesian, []*Dataset{d, other}, &CartesianOp{}, 0)
}
