// Action surface built on top of RunJob (spec §4.5, §4.3's action catalog,
// plus stream(opts), supplemented from original_source/). Every action is a
// thin (perPartition, combine, satisfied) triple; the concurrency,
// ordering and short-circuit rules all live in driver.go.
package driver

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"distcalc/internal/common"
	"distcalc/internal/dataset"
	"distcalc/internal/planner"
	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
	"distcalc/internal/udf"
)

// Count returns the number of elements in tail.
func Count(ctx *rtctx.Context, tail *dataset.Dataset) (int, error) {
	res, err := RunJob(ctx, tail, Options{},
		func(_ int, elems []any) (any, error) { return len(elems), nil },
		0,
		func(acc, partial any) any { return acc.(int) + partial.(int) },
		nil)
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// Collect materializes every element of tail into one slice, in partition
// order (reverse partition order when tail's nearest wide ancestor is a
// descending sortBy, since a RangePartitioner's buckets are always
// ascending and a descending sort is realized by reading them back to
// front, spec §4.1/§8).
func Collect(ctx *rtctx.Context, tail *dataset.Dataset) ([]any, error) {
	res, err := RunJob(ctx, tail, Options{Descending: tail.ReadDescending()},
		func(_ int, elems []any) (any, error) { return elems, nil },
		[]any{},
		func(acc, partial any) any { return append(acc.([]any), partial.([]any)...) },
		nil)
	if err != nil {
		return nil, err
	}
	return res.([]any), nil
}

// reduceBox distinguishes "this partition produced a value" from "this
// partition was empty", so an empty partition never poisons the combine
// with a zero value the reducer never asked for.
type reduceBox struct {
	ok bool
	v  any
}

// Reduce folds every element together with reducerRef, associatively:
// within a partition first, then across partitions. Returns ok=false if
// tail has no elements at all.
func Reduce(ctx *rtctx.Context, tail *dataset.Dataset, reducerRef string, args any) (any, bool, error) {
	reducer, err := udf.Reducer(reducerRef)
	if err != nil {
		return nil, false, err
	}
	res, err := RunJob(ctx, tail, Options{},
		func(_ int, elems []any) (any, error) {
			if len(elems) == 0 {
				return reduceBox{}, nil
			}
			acc := elems[0]
			for _, e := range elems[1:] {
				acc = reducer(acc, e, args)
			}
			return reduceBox{ok: true, v: acc}, nil
		},
		reduceBox{},
		func(acc, partial any) any {
			a, p := acc.(reduceBox), partial.(reduceBox)
			if !p.ok {
				return a
			}
			if !a.ok {
				return p
			}
			return reduceBox{ok: true, v: reducer(a.v, p.v, args)}
		},
		nil)
	if err != nil {
		return nil, false, err
	}
	b := res.(reduceBox)
	return b.v, b.ok, nil
}

// Aggregate folds every element into zero via seqRef within a partition,
// then merges partition accumulators with combRef. cloneRef deep-clones
// zero once per partition so every partition starts from an independent
// copy (the same requirement AggregateByKey's map side has, spec §4.3).
func Aggregate(ctx *rtctx.Context, tail *dataset.Dataset, zero any, cloneRef, seqRef string, seqArgs any, combRef string, combArgs any) (any, error) {
	clone, err := udf.Clone(cloneRef)
	if err != nil {
		return nil, err
	}
	seq, err := udf.Reducer(seqRef)
	if err != nil {
		return nil, err
	}
	comb, err := udf.Combiner(combRef)
	if err != nil {
		return nil, err
	}
	return RunJob(ctx, tail, Options{},
		func(_ int, elems []any) (any, error) {
			acc := clone(zero)
			for _, e := range elems {
				acc = seq(acc, e, seqArgs)
			}
			return acc, nil
		},
		clone(zero),
		func(acc, partial any) any { return comb(acc, partial, combArgs) },
		nil)
}

// Take returns the first n elements of tail in partition order, reading
// only as many partitions as needed (spec §4.5's short-circuit-on-max:
// dispatch is forced sequential, MaxBusy=1, since that's the only mode
// that can stop before scanning every partition).
func Take(ctx *rtctx.Context, tail *dataset.Dataset, n int) ([]any, error) {
	if n <= 0 {
		return nil, nil
	}
	res, err := RunJob(ctx, tail, Options{MaxBusy: 1},
		func(_ int, elems []any) (any, error) { return elems, nil },
		[]any{},
		func(acc, partial any) any {
			a := acc.([]any)
			for _, e := range partial.([]any) {
				if len(a) >= n {
					break
				}
				a = append(a, e)
			}
			return a
		},
		func(acc any) bool { return len(acc.([]any)) >= n },
	)
	if err != nil {
		return nil, err
	}
	return res.([]any), nil
}

// First returns tail's first element, if any.
func First(ctx *rtctx.Context, tail *dataset.Dataset) (any, bool, error) {
	res, err := Take(ctx, tail, 1)
	if err != nil {
		return nil, false, err
	}
	if len(res) == 0 {
		return nil, false, nil
	}
	return res[0], true, nil
}

// reversed returns a copy of elems with its order flipped.
func reversed(elems []any) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[len(out)-1-i] = e
	}
	return out
}

// Top returns the last n elements of tail in reverse partition order (spec
// §8: "top(n) equals the last n elements in reverse partition order").
// Like Take it dispatches sequentially (MaxBusy=1, the only mode that can
// short-circuit mid-job) but walks partitions from the last index to the
// first (Descending) and reads each partition's own elements back to
// front, so it can stop as soon as n elements are collected from the tail
// instead of scanning every partition.
func Top(ctx *rtctx.Context, tail *dataset.Dataset, n int) ([]any, error) {
	if n <= 0 {
		return nil, nil
	}
	res, err := RunJob(ctx, tail, Options{MaxBusy: 1, Descending: true},
		func(_ int, elems []any) (any, error) { return reversed(elems), nil },
		[]any{},
		func(acc, partial any) any {
			a := acc.([]any)
			for _, e := range partial.([]any) {
				if len(a) >= n {
					break
				}
				a = append(a, e)
			}
			return a
		},
		func(acc any) bool { return len(acc.([]any)) >= n },
	)
	if err != nil {
		return nil, err
	}
	return res.([]any), nil
}

// ForEach applies mapperRef to every element for its side effects; any
// value it returns is discarded.
func ForEach(ctx *rtctx.Context, tail *dataset.Dataset, mapperRef string, args any) error {
	fn, err := udf.Mapper(mapperRef)
	if err != nil {
		return err
	}
	_, err = RunJob(ctx, tail, Options{},
		func(_ int, elems []any) (any, error) {
			for _, e := range elems {
				fn(e, args)
			}
			return nil, nil
		},
		nil,
		func(acc, _ any) any { return acc },
		nil)
	return err
}

// SaveOptions configures Save's output, spec §6's save(path, opts). Only
// the gzip option is implemented here; a parquet option would need a
// ports.ColumnarWriter binding this module never links (spec §1 places
// columnar file formats out of scope for the core).
type SaveOptions struct {
	// Gzip compresses each part file with gzip, named part-NNNNN.gz instead
	// of part-NNNNN.
	Gzip bool
}

// Save writes one part-NNNNN file per partition under dir, in the same
// newline-delimited JSON record format shuffle files use
// (common.EncodeRecord, not the canonical key encoder).
func Save(ctx *rtctx.Context, tail *dataset.Dataset, out ports.BlobStore, dir string, opts SaveOptions) error {
	if err := out.MkdirAll(dir); err != nil {
		return err
	}
	_, err := RunJob(ctx, tail, Options{},
		func(pid int, elems []any) (any, error) {
			path := fmt.Sprintf("%s/part-%05d", dir, pid)
			if opts.Gzip {
				path += ".gz"
			}
			wc, err := out.Create(path)
			if err != nil {
				return nil, err
			}
			defer wc.Close()
			w, closeCompressor := compressWriter(wc, opts.Gzip)
			bw := bufio.NewWriterSize(w, flushBufferSize)
			for _, e := range elems {
				line, err := common.EncodeRecord(e)
				if err != nil {
					return nil, err
				}
				if _, err := bw.Write(line); err != nil {
					return nil, err
				}
				if err := bw.WriteByte('\n'); err != nil {
					return nil, err
				}
			}
			if err := bw.Flush(); err != nil {
				return nil, err
			}
			return nil, closeCompressor()
		},
		nil,
		func(acc, _ any) any { return acc },
		nil)
	return err
}

// compressWriter wraps w in a gzip.Writer when gzipped is set, returning the
// writer to use and a close func that flushes/closes the compressor (a
// no-op when gzipped is false, since the caller's own wc.Close handles the
// uncompressed case).
func compressWriter(w io.Writer, gzipped bool) (io.Writer, func() error) {
	if !gzipped {
		return w, func() error { return nil }
	}
	zw := gzip.NewWriter(w)
	return zw, zw.Close
}

const flushBufferSize = 64 * 1024

// StreamOptions configures Stream, spec §6's stream(opts). Gzip compresses
// the spill file exactly as Save's does; End caps the total number of
// elements delivered across all partitions (0 means unbounded), letting a
// caller stop a stream early without inspecting every spilled file.
type StreamOptions struct {
	Gzip bool
	End  int
}

// Stream realizes tail one partition at a time, spilling each partition to
// a scratch file before piping its records back to the caller over a
// channel (spec's supplemented stream(opts) action): a slow consumer only
// ever holds one partition's worth of unread disk-backed data, instead of
// the whole dataset materialized in memory the way Collect does.
func Stream(ctx *rtctx.Context, tail *dataset.Dataset, opts StreamOptions) (<-chan any, <-chan error) {
	out := make(chan any, 256)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		if err := planner.RunStages(ctx, tail); err != nil {
			errc <- err
			return
		}
		parts, err := tail.GetPartitions()
		if err != nil {
			errc <- err
			return
		}
		delivered := 0
		for _, part := range parts {
			if opts.End > 0 && delivered >= opts.End {
				return
			}
			n, err := streamPartition(ctx, tail, part.Index, opts, out)
			if err != nil {
				errc <- err
				return
			}
			delivered += n
		}
	}()
	return out, errc
}

// streamPartition spills one partition's elements to a scratch file, then
// re-reads and delivers them over out, stopping early once opts.End total
// elements have been delivered across the whole stream. Returns the number
// of elements it delivered.
func streamPartition(ctx *rtctx.Context, tail *dataset.Dataset, partitionIndex int, opts StreamOptions, out chan<- any) (int, error) {
	elems, err := planner.Realize(ctx, tail, partitionIndex)
	if err != nil {
		return 0, err
	}
	if err := ctx.Blob.MkdirAll(ctx.ScratchDir + "/shuffle"); err != nil {
		return 0, err
	}
	path := ctx.NewShuffleFileName()
	if opts.Gzip {
		path += ".gz"
	}
	wc, err := ctx.Blob.Create(path)
	if err != nil {
		return 0, err
	}
	w, closeCompressor := compressWriter(wc, opts.Gzip)
	bw := bufio.NewWriterSize(w, flushBufferSize)
	for _, e := range elems {
		line, err := common.EncodeRecord(e)
		if err != nil {
			wc.Close()
			return 0, err
		}
		if _, err := bw.Write(line); err != nil {
			wc.Close()
			return 0, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			wc.Close()
			return 0, err
		}
	}
	if err := bw.Flush(); err != nil {
		wc.Close()
		return 0, err
	}
	if err := closeCompressor(); err != nil {
		wc.Close()
		return 0, err
	}
	if err := wc.Close(); err != nil {
		return 0, err
	}

	rc, err := ctx.Blob.Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	var r io.Reader = rc
	if opts.Gzip {
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		r = zr
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, flushBufferSize), 16*1024*1024)
	delivered := 0
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var v any
		if err := common.DecodeRecord(sc.Bytes(), &v); err != nil {
			return delivered, err
		}
		out <- v
		delivered++
		if opts.End > 0 && delivered >= opts.End {
			return delivered, sc.Err()
		}
	}
	return delivered, sc.Err()
}
