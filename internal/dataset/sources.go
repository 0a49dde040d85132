// Sources (spec §4.3, §4.7): datasets with no parents. Grounded on the
// teacher's internal/worker/executor.go executeMapSide, which opens a file
// and scans it line by line; generalized here into byte-range splitting
// (text), whole-file single partition (gzip, columnar), one-partition-per
// listed object (directory/bucket), and a generic index-driven source
// (parallelize, range).
package dataset

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"distcalc/internal/rtctx"
)

// sourceOp is implemented by every payload that can appear on a Dataset
// with no parents: split lays out partitions, materialize produces the
// element sequence for one of them.
type sourceOp interface {
	split(d *Dataset) ([]*Partition, error)
	materialize(ctx *rtctx.Context, p *Partition) ([]any, error)
}

// --- source constructors ----------------------------------------------------

// Parallelize turns an in-memory slice into a Dataset, spec §4.3's most
// basic source.
func Parallelize(data []any, numPartitions int) *Dataset {
	op := &ParallelizeOp{Data: data, NumPartitions: numPartitions}
	return &Dataset{ID: newID(), Kind: KindParallelize, Op: op, NumPartitionsHint: numPartitions}
}

// Range generates integers [start, end) by step across numPartitions
// partitions, never materializing the whole sequence up front.
func Range(start, end, step, numPartitions int) *Dataset {
	op := &RangeOp{Start: start, End: end, Step: step, NumPartitions: numPartitions}
	return &Dataset{ID: newID(), Kind: KindRange, Op: op, NumPartitionsHint: numPartitions}
}

// TextFile splits a text file into numPartitions newline-aligned byte
// ranges (spec §4.7). blob is the BlobStore both split and materialize
// read through; preferredLocation, if non-nil, supplies an HDFS-style
// per-partition location hint.
func TextFile(path string, numPartitions int, blob interface {
	Open(path string) (io.ReadCloser, error)
	Size(path string) (int64, error)
}, preferredLocation func(byteOffset int64) string) *Dataset {
	op := &TextFileOp{Path: path, NumPartitions: numPartitions, Blob: blob, PreferredLocation: preferredLocation}
	return &Dataset{ID: newID(), Kind: KindTextFile, Op: op, NumPartitionsHint: numPartitions}
}

// GzipFile decompresses a single gzip file into one partition.
func GzipFile(path string) *Dataset {
	return &Dataset{ID: newID(), Kind: KindGzipFile, Op: &GzipFileOp{Path: path}, NumPartitionsHint: 1}
}

// ColumnarFile reads a single columnar file (via the runtime's
// ports.ColumnarReader binding) into one partition.
func ColumnarFile(path string) *Dataset {
	return &Dataset{ID: newID(), Kind: KindColumnarFile, Op: &ColumnarFileOp{Path: path}, NumPartitionsHint: 1}
}

// Listing produces one partition per object matched under basePath.
func Listing(basePath, glob string, maxFiles int, blob interface {
	List(prefix, glob string, maxFiles int) ([]string, error)
}) *Dataset {
	op := &ListingOp{BasePath: basePath, Glob: glob, MaxFiles: maxFiles, Blob: blob}
	return &Dataset{ID: newID(), Kind: KindListing, Op: op}
}

// Materialize produces part's element sequence. d must be a source dataset
// (IsSource() true); it is the only exported entry point into sourceOp,
// used by internal/planner to realize a source partition without needing
// to know which concrete source kind backs it.
func (d *Dataset) Materialize(ctx *rtctx.Context, part *Partition) ([]any, error) {
	src, ok := d.Op.(sourceOp)
	if !ok {
		return nil, fmt.Errorf("dataset %d: not a source dataset", d.ID)
	}
	return src.materialize(ctx, part)
}

// --- generic index-driven source (parallelize, range) ---------------------

// ParallelizeOp splits an in-memory slice into NumPartitions roughly equal
// contiguous chunks, exactly the way a driver hands out user-supplied data.
type ParallelizeOp struct {
	Data          []any
	NumPartitions int
}

func (p *ParallelizeOp) split(d *Dataset) ([]*Partition, error) {
	n := p.NumPartitions
	if n <= 0 {
		n = 1
	}
	out := make([]*Partition, n)
	for i := range out {
		out[i] = &Partition{DatasetID: d.ID, Index: i}
	}
	return out, nil
}

func (p *ParallelizeOp) materialize(_ *rtctx.Context, part *Partition) ([]any, error) {
	n := p.NumPartitions
	if n <= 0 {
		n = 1
	}
	lo, hi := chunkBounds(len(p.Data), n, part.Index)
	return append([]any(nil), p.Data[lo:hi]...), nil
}

// chunkBounds splits length elements into n roughly-equal contiguous
// ranges and returns the [lo, hi) bounds of range i.
func chunkBounds(length, n, i int) (int, int) {
	base := length / n
	rem := length % n
	lo := i*base + minInt(i, rem)
	hi := lo + base
	if i < rem {
		hi++
	}
	if hi > length {
		hi = length
	}
	if lo > length {
		lo = length
	}
	return lo, hi
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RangeOp generates integers [Start, End) by Step, split across
// NumPartitions partitions without ever materializing the whole range.
type RangeOp struct {
	Start, End, Step int
	NumPartitions    int
}

func (r *RangeOp) split(d *Dataset) ([]*Partition, error) {
	n := r.NumPartitions
	if n <= 0 {
		n = 1
	}
	out := make([]*Partition, n)
	for i := range out {
		out[i] = &Partition{DatasetID: d.ID, Index: i}
	}
	return out, nil
}

func (r *RangeOp) materialize(_ *rtctx.Context, part *Partition) ([]any, error) {
	n := r.NumPartitions
	if n <= 0 {
		n = 1
	}
	count := 0
	if r.Step != 0 {
		count = (r.End - r.Start + r.Step - 1) / r.Step
		if count < 0 {
			count = 0
		}
	}
	lo, hi := chunkBounds(count, n, part.Index)
	out := make([]any, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, r.Start+i*r.Step)
	}
	return out, nil
}

// --- text source (local/HDFS files) ---------------------------------------

// TextFileOp splits a file into N byte ranges rounded forward to the next
// newline, so partitions cover disjoint, whole lines (spec §4.7). Blob is
// resolved at construction time (spec places the concrete filesystem/cloud
// binding out of scope for the core; ports.LocalFS is the reference
// implementation) so both split (planning time) and materialize (task
// execution time) go through the same port.
type TextFileOp struct {
	Path              string
	NumPartitions     int
	Blob              blobOpener
	PreferredLocation func(byteOffset int64) string // HDFS block host hint
}

// blobOpener is the narrow slice of ports.BlobStore that source splitting
// needs; declared locally so this file doesn't have to import ports just
// for a two-method interface.
type blobOpener interface {
	Open(path string) (io.ReadCloser, error)
	Size(path string) (int64, error)
}

func (t *TextFileOp) split(d *Dataset) ([]*Partition, error) {
	size, err := t.Blob.Size(t.Path)
	if err != nil {
		return nil, fmt.Errorf("text source %s: %w", t.Path, err)
	}
	rc, err := t.Blob.Open(t.Path)
	if err != nil {
		return nil, fmt.Errorf("text source %s: %w", t.Path, err)
	}
	defer rc.Close()
	n := t.NumPartitions
	if n <= 0 {
		n = 1
	}
	bounds, err := newlineAlignedBounds(rc, size, n)
	if err != nil {
		return nil, err
	}
	out := make([]*Partition, len(bounds)-1)
	for i := range out {
		loc := ""
		if t.PreferredLocation != nil {
			loc = t.PreferredLocation(bounds[i])
		}
		out[i] = &Partition{DatasetID: d.ID, Index: i, Path: t.Path, PreferredLocation: loc}
	}
	return out, nil
}

func (t *TextFileOp) materialize(ctx *rtctx.Context, part *Partition) ([]any, error) {
	size, err := t.Blob.Size(t.Path)
	if err != nil {
		return nil, err
	}
	rc, err := t.Blob.Open(t.Path)
	if err != nil {
		return nil, err
	}
	n := t.NumPartitions
	if n <= 0 {
		n = 1
	}
	bounds, err := newlineAlignedBounds(rc, size, n)
	rc.Close()
	if err != nil {
		return nil, err
	}
	rc2, err := t.Blob.Open(t.Path)
	if err != nil {
		return nil, err
	}
	defer rc2.Close()
	rs, ok := rc2.(io.ReadSeeker)
	if !ok {
		return nil, fmt.Errorf("text source %s: underlying reader is not seekable", t.Path)
	}
	return readByteRangeLines(rs, bounds[part.Index], bounds[part.Index+1])
}

// --- gzip source ------------------------------------------------------------

// GzipFileOp decompresses a single gzip file into one partition (spec
// §4.3).
type GzipFileOp struct {
	Path string
}

func (g *GzipFileOp) split(d *Dataset) ([]*Partition, error) {
	return []*Partition{{DatasetID: d.ID, Index: 0, Path: g.Path}}, nil
}

func (g *GzipFileOp) materialize(ctx *rtctx.Context, _ *Partition) ([]any, error) {
	rc, err := ctx.Blob.Open(g.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	zr, err := gzip.NewReader(rc)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var out []any
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// --- columnar source --------------------------------------------------------

// ColumnarFileOp reads a single columnar file into one partition via the
// runtime-supplied ports.ColumnarReader (spec §1: columnar bindings are out
// of scope for the core).
type ColumnarFileOp struct {
	Path string
}

func (c *ColumnarFileOp) split(d *Dataset) ([]*Partition, error) {
	return []*Partition{{DatasetID: d.ID, Index: 0, Path: c.Path}}, nil
}

func (c *ColumnarFileOp) materialize(ctx *rtctx.Context, _ *Partition) ([]any, error) {
	if ctx.ColumnarNew == nil {
		return nil, fmt.Errorf("columnar source %s: runtime has no columnar reader binding", c.Path)
	}
	raw, err := ctx.ColumnarNew(c.Path, false)
	if err != nil {
		return nil, err
	}
	reader, ok := raw.(interface {
		ReadRow() (any, bool, error)
		Close() error
	})
	if !ok {
		return nil, fmt.Errorf("columnar source %s: binding did not return a ColumnarReader", c.Path)
	}
	defer reader.Close()
	var out []any
	for {
		row, ok, err := reader.ReadRow()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

// --- listing source ----------------------------------------------------------

// ListingOp produces one partition per object matched under BasePath,
// optionally glob-filtered and capped at MaxFiles (spec §4.3).
type ListingOp struct {
	BasePath string
	Glob     string
	MaxFiles int
	Blob     interface {
		List(prefix, glob string, maxFiles int) ([]string, error)
	}
}

func (l *ListingOp) split(d *Dataset) ([]*Partition, error) {
	matches, err := l.Blob.List(l.BasePath, l.Glob, l.MaxFiles)
	if err != nil {
		return nil, err
	}
	out := make([]*Partition, len(matches))
	for i, m := range matches {
		out[i] = &Partition{DatasetID: d.ID, Index: i, Path: m}
	}
	return out, nil
}

func (l *ListingOp) materialize(_ *rtctx.Context, part *Partition) ([]any, error) {
	return []any{part.Path}, nil
}
