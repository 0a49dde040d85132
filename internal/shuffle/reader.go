package shuffle

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
	"distcalc/internal/udf"
)

// openDescriptor returns a stream for desc, going through ctx's local blob
// store when desc was produced by this worker and through the cross-worker
// ReadStreamPort otherwise (spec §4.6: "a reduce task on a different worker
// fetches it via the read-stream port").
func openDescriptor(ctx *rtctx.Context, desc ports.FileDescriptor) (io.ReadCloser, error) {
	if desc.Host == "" || desc.Host == ctx.WorkerID {
		return ctx.Blob.Open(desc.Path)
	}
	if ctx.ReadStream == nil {
		return nil, fmt.Errorf("shuffle: no read-stream port configured to fetch %s from %s", desc.Path, desc.Host)
	}
	return ctx.ReadStream.GetReadStream(context.Background(), desc)
}

// eachLine decodes desc's newline-delimited records into dst (a pointer to
// a fresh value on each iteration) and calls fn for each successfully
// decoded record.
func eachLine(ctx *rtctx.Context, desc ports.FileDescriptor, newDst func() any, fn func(any) error) error {
	rc, err := openDescriptor(ctx, desc)
	if err != nil {
		return err
	}
	defer rc.Close()
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, flushBufferSize), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		dst := newDst()
		if err := common.DecodeRecord(line, dst); err != nil {
			return err
		}
		if err := fn(derefAny(dst)); err != nil {
			return err
		}
	}
	return sc.Err()
}

func derefAny(dst any) any {
	switch d := dst.(type) {
	case *any:
		return *d
	case *common.Pair:
		return *d
	default:
		return dst
	}
}

// ReadReduceSide reads every file registered for outputPartitionIndex on
// wide, applies the operator-specific cross-partition combine, and returns
// the finished reduce-side element sequence for that output partition (spec
// §4.6 step 3 / §4.5 step 3).
func ReadReduceSide(ctx *rtctx.Context, wide *dataset.Dataset, outputPartitionIndex int) ([]any, error) {
	switch op := wide.Op.(type) {
	case *dataset.AggregateByKeyOp:
		return readAggregateReduceSide(ctx, wide, op, outputPartitionIndex)
	case *dataset.PartitionByOp:
		return readConcatReduceSide(ctx, wide, outputPartitionIndex)
	case *dataset.SortByOp:
		return readSortByReduceSide(ctx, wide, op, outputPartitionIndex)
	case *dataset.CartesianOp:
		return readCartesianReduceSide(ctx, wide, outputPartitionIndex)
	default:
		return nil, fmt.Errorf("shuffle: dataset %d has unrecognized wide op %T", wide.ID, wide.Op)
	}
}

// readConcatReduceSide just concatenates every file's records in the order
// its descriptors were registered; used by partitionBy, which does no
// reduction.
func readConcatReduceSide(ctx *rtctx.Context, wide *dataset.Dataset, outputPartitionIndex int) ([]any, error) {
	var out []any
	for _, desc := range wide.FilesFor(outputPartitionIndex) {
		if err := eachLine(ctx, desc, func() any { return new(common.Pair) }, func(v any) error {
			out = append(out, v)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readAggregateReduceSide(ctx *rtctx.Context, wide *dataset.Dataset, op *dataset.AggregateByKeyOp, outputPartitionIndex int) ([]any, error) {
	var combiner udf.CombinerFn
	var err error
	if !op.CoGroup {
		combinerRef := op.CombinerRef
		if combinerRef == "" {
			combinerRef = op.ReducerRef
		}
		combiner, err = udf.Combiner(combinerRef)
		if err != nil {
			// ReduceByKey names one ReducerFn for both roles; it has the
			// same signature as a CombinerFn, so it merges accumulators too.
			reducer, rerr := udf.Reducer(combinerRef)
			if rerr != nil {
				return nil, err
			}
			combiner = udf.CombinerFn(reducer)
		}
	}

	byKey := map[string]*keyedAcc{}
	order := []string{}

	merge := func(key, value any) {
		ks := common.CanonicalKey(key)
		entry, ok := byKey[ks]
		if !ok {
			entry = &keyedAcc{key: key, acc: value}
			byKey[ks] = entry
			order = append(order, ks)
			return
		}
		if op.CoGroup {
			l := entry.acc.(*common.CoGroupValue)
			r := value.(*common.CoGroupValue)
			l.Left = append(l.Left.([]any), r.Left.([]any)...)
			l.Right = append(l.Right.([]any), r.Right.([]any)...)
			return
		}
		entry.acc = combiner(entry.acc, value, op.Args)
	}

	for _, desc := range wide.FilesFor(outputPartitionIndex) {
		if op.IdentityKey {
			err = eachLine(ctx, desc, func() any { return new(any) }, func(v any) error {
				merge(v, v)
				return nil
			})
		} else if op.CoGroup {
			err = eachLine(ctx, desc, func() any { return new(common.Pair) }, func(v any) error {
				p := v.(common.Pair)
				cg, ok := p.Value.(map[string]any)
				var val *common.CoGroupValue
				if ok {
					val = &common.CoGroupValue{Left: cg["l"], Right: cg["r"]}
				} else {
					val, _ = p.Value.(*common.CoGroupValue)
				}
				merge(p.Key, val)
				return nil
			})
		} else {
			err = eachLine(ctx, desc, func() any { return new(common.Pair) }, func(v any) error {
				p := v.(common.Pair)
				merge(p.Key, p.Value)
				return nil
			})
		}
		if err != nil {
			return nil, err
		}
	}

	out := make([]any, 0, len(order))
	for _, ks := range order {
		entry := byKey[ks]
		if op.IdentityKey {
			out = append(out, entry.acc)
		} else if op.CoGroup {
			out = append(out, common.Pair{Key: entry.key, Value: *entry.acc.(*common.CoGroupValue)})
		} else {
			out = append(out, common.Pair{Key: entry.key, Value: entry.acc})
		}
	}
	return out, nil
}

func readSortByReduceSide(ctx *rtctx.Context, wide *dataset.Dataset, op *dataset.SortByOp, outputPartitionIndex int) ([]any, error) {
	records, err := readConcatReduceSide(ctx, wide, outputPartitionIndex)
	if err != nil {
		return nil, err
	}
	keyFn, err := udf.Key(op.KeyRef)
	if err != nil {
		return nil, err
	}
	cmp, err := udf.Compare(op.CompareRef)
	if err != nil {
		return nil, err
	}
	sortStable(records, func(a, b any) int {
		c := cmp(keyFn(a, op.Args), keyFn(b, op.Args))
		if !op.Ascending {
			c = -c
		}
		return c
	})
	return records, nil
}

func readCartesianReduceSide(ctx *rtctx.Context, wide *dataset.Dataset, outputPartitionIndex int) ([]any, error) {
	leftParts, err := wide.Parents[0].GetPartitions()
	if err != nil {
		return nil, err
	}
	rightParts, err := wide.Parents[1].GetPartitions()
	if err != nil {
		return nil, err
	}
	pright := len(rightParts)
	if pright == 0 {
		return nil, nil
	}
	p1 := outputPartitionIndex / pright
	p2 := outputPartitionIndex % pright

	var left, right []any
	for _, desc := range wide.FilesFor(p1) {
		if err := eachLine(ctx, desc, func() any { return new(any) }, func(v any) error {
			left = append(left, v)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	for _, desc := range wide.FilesFor(len(leftParts) + p2) {
		if err := eachLine(ctx, desc, func() any { return new(any) }, func(v any) error {
			right = append(right, v)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	out := make([]any, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, common.Pair{Key: l, Value: r})
		}
	}
	return out, nil
}
