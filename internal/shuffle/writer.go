// Package shuffle implements the map-side spill and reduce-side fetch that
// realize a wide dataset's partitioning (spec §4.6): every map task writes
// one newline-delimited file per output partition under
// {worker-scratch}/shuffle/{uuid}, flushing a 64KiB buffer. Records are
// JSON-encoded by common.EncodeRecord, not by the canonical key encoder, so
// numbers come back as float64 on the reduce side. Every
// reduce task concatenates the files registered for its output partition
// and finishes the operator-specific combine described in
// internal/dataset/wide.go. Grounded on the teacher's
// internal/worker/executor.go createPartitionWriters/generateMeta
// (per-partition file-per-bucket writers, metadata registered back on the
// job) and downloadAndMerge (reduce-side concatenate-then-decode loop).
package shuffle

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
	"distcalc/internal/udf"
)

const flushBufferSize = 64 * 1024

var logger = log.New(os.Stderr, "[shuffle] ", log.LstdFlags)

// keyedAcc is a per-key map-side accumulator: the original key (kept
// alongside its canonical string so the emitted record carries the real
// value, not its serialized form) and whatever the operator has folded
// into it so far.
type keyedAcc struct {
	key any
	acc any
}

// WriteMapSide runs the map side of wide's shuffle for one upstream
// partition's worth of input, producing one file per output bucket under
// ctx's scratch directory and registering each as a ports.FileDescriptor on
// wide. side distinguishes left (0) from right (1) parent input; it is
// ignored by every op except CoGroup and Cartesian, which have two parents.
func WriteMapSide(ctx *rtctx.Context, wide *dataset.Dataset, sourcePartitionIndex, side int, input []any) error {
	switch op := wide.Op.(type) {
	case *dataset.AggregateByKeyOp:
		return writeAggregateMapSide(ctx, wide, op, sourcePartitionIndex, side, input)
	case *dataset.PartitionByOp:
		return writePartitionByMapSide(ctx, wide, op, input)
	case *dataset.SortByOp:
		return writeSortByMapSide(ctx, wide, op, input)
	case *dataset.CartesianOp:
		return writeCartesianMapSide(ctx, wide, sourcePartitionIndex, side, input)
	default:
		return fmt.Errorf("shuffle: dataset %d has unrecognized wide op %T", wide.ID, wide.Op)
	}
}

// bucketWriter buffers one output file per bucket for the duration of a map
// task, flushing each in Close.
type bucketWriter struct {
	ctx     *rtctx.Context
	wide    *dataset.Dataset
	buckets map[int]*bufio.Writer
	files   map[int]*bufferedFile
}

type bufferedFile struct {
	path string
	wc   interface {
		Close() error
	}
}

func newBucketWriter(ctx *rtctx.Context, wide *dataset.Dataset) *bucketWriter {
	return &bucketWriter{ctx: ctx, wide: wide, buckets: map[int]*bufio.Writer{}, files: map[int]*bufferedFile{}}
}

func (bw *bucketWriter) writer(bucket int) (*bufio.Writer, error) {
	if w, ok := bw.buckets[bucket]; ok {
		return w, nil
	}
	path := bw.ctx.NewShuffleFileName()
	if err := bw.ctx.Blob.MkdirAll(bw.ctx.ScratchDir + "/shuffle"); err != nil {
		return nil, err
	}
	wc, err := bw.ctx.Blob.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(wc, flushBufferSize)
	bw.buckets[bucket] = w
	bw.files[bucket] = &bufferedFile{path: path, wc: wc}
	return w, nil
}

func (bw *bucketWriter) writeRecord(bucket int, v any) error {
	w, err := bw.writer(bucket)
	if err != nil {
		return err
	}
	line, err := common.EncodeRecord(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func (bw *bucketWriter) close() error {
	for bucket, w := range bw.buckets {
		if err := w.Flush(); err != nil {
			return err
		}
		f := bw.files[bucket]
		if err := f.wc.Close(); err != nil {
			return err
		}
		size, err := bw.ctx.Blob.Size(f.path)
		if err != nil {
			return err
		}
		bw.wide.RegisterFile(bucket, ports.FileDescriptor{Host: bw.ctx.WorkerID, Path: f.path, Size: size})
		logger.Printf("dataset %d bucket %d: spilled %s (%d bytes)", bw.wide.ID, bucket, f.path, size)
	}
	return nil
}

// --- AggregateByKey / distinct / coGroup ------------------------------------

func writeAggregateMapSide(ctx *rtctx.Context, wide *dataset.Dataset, op *dataset.AggregateByKeyOp, sourcePartitionIndex, side int, input []any) error {
	var reducer udf.ReducerFn
	var clone udf.CloneFn
	var err error
	if !op.CoGroup {
		reducer, err = udf.Reducer(op.ReducerRef)
		if err != nil {
			return err
		}
		if op.Init != nil {
			cloneRef := op.CloneRef
			if cloneRef == "" {
				cloneRef = "identity_clone"
			}
			clone, err = udf.Clone(cloneRef)
			if err != nil {
				return err
			}
		}
	}

	buckets := map[int]map[string]*keyedAcc{}
	bucketOf := func(k any) int { return op.Partitioner.PartitionIndexOf(k) }

	for _, v := range input {
		var key, value any
		if op.IdentityKey {
			key, value = v, v
		} else {
			p, ok := v.(common.Pair)
			if !ok {
				return fmt.Errorf("shuffle: dataset %d expected a Pair, got %#v", wide.ID, v)
			}
			key, value = p.Key, p.Value
		}
		b := bucketOf(key)
		perKey, ok := buckets[b]
		if !ok {
			perKey = map[string]*keyedAcc{}
			buckets[b] = perKey
		}
		ks := common.CanonicalKey(key)
		entry, ok := perKey[ks]
		if !ok {
			entry = &keyedAcc{key: key}
			perKey[ks] = entry
			if op.CoGroup {
				entry.acc = &common.CoGroupValue{Left: []any{}, Right: []any{}}
			} else if op.IdentityKey {
				entry.acc = value
				continue
			} else if op.Init != nil {
				entry.acc = reducer(clone(op.Init), value, op.Args)
				continue
			} else {
				entry.acc = value
				continue
			}
		}
		switch {
		case op.CoGroup:
			cg := entry.acc.(*common.CoGroupValue)
			if side == 0 {
				cg.Left = append(cg.Left.([]any), value)
			} else {
				cg.Right = append(cg.Right.([]any), value)
			}
		case op.IdentityKey:
			// keep_first: leave entry.acc unchanged, but still route
			// through the registered reducer so a differently-registered
			// dedup policy is honored.
			entry.acc = reducer(entry.acc, value, op.Args)
		default:
			entry.acc = reducer(entry.acc, value, op.Args)
		}
	}

	bw := newBucketWriter(ctx, wide)
	for bucket, perKey := range buckets {
		for _, entry := range perKey {
			var rec any
			if op.IdentityKey {
				rec = entry.acc
			} else if op.CoGroup {
				rec = common.Pair{Key: entry.key, Value: *entry.acc.(*common.CoGroupValue)}
			} else {
				rec = common.Pair{Key: entry.key, Value: entry.acc}
			}
			if err := bw.writeRecord(bucket, rec); err != nil {
				return err
			}
		}
	}
	return bw.close()
}

// --- PartitionBy -------------------------------------------------------------

func writePartitionByMapSide(ctx *rtctx.Context, wide *dataset.Dataset, op *dataset.PartitionByOp, input []any) error {
	bw := newBucketWriter(ctx, wide)
	for _, v := range input {
		p, ok := v.(common.Pair)
		if !ok {
			return fmt.Errorf("shuffle: partitionBy dataset %d expected a Pair, got %#v", wide.ID, v)
		}
		bucket := op.Partitioner.PartitionIndexOf(p.Key)
		if err := bw.writeRecord(bucket, v); err != nil {
			return err
		}
	}
	return bw.close()
}

// --- SortBy / SortByKey -------------------------------------------------------

func writeSortByMapSide(ctx *rtctx.Context, wide *dataset.Dataset, op *dataset.SortByOp, input []any) error {
	keyFn, err := udf.Key(op.KeyRef)
	if err != nil {
		return err
	}
	bw := newBucketWriter(ctx, wide)
	for _, v := range input {
		k := keyFn(v, op.Args)
		bucket := op.Partitioner.PartitionIndexOf(k)
		if err := bw.writeRecord(bucket, v); err != nil {
			return err
		}
	}
	return bw.close()
}

// --- Cartesian -----------------------------------------------------------------

// writeCartesianMapSide spills every element of one source partition to a
// single file, with no key-based bucketing: the reduce side pairs whole
// source partitions by index, not by key (spec §4.3). side 0's file is
// registered under bucket sourcePartitionIndex; side 1's is registered
// under bucket (left partition count + sourcePartitionIndex), so both
// share wide.Files without a second dataset field.
func writeCartesianMapSide(ctx *rtctx.Context, wide *dataset.Dataset, sourcePartitionIndex, side int, input []any) error {
	bucket := sourcePartitionIndex
	if side == 1 {
		leftParts, err := wide.Parents[0].GetPartitions()
		if err != nil {
			return err
		}
		bucket = len(leftParts) + sourcePartitionIndex
	}
	bw := newBucketWriter(ctx, wide)
	for _, v := range input {
		if err := bw.writeRecord(bucket, v); err != nil {
			return err
		}
	}
	return bw.close()
}
