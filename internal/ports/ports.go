// Package ports declares the typed boundaries between this engine's core
// (the dataset graph, planner, pipeline executor, shuffle subsystem and
// action driver) and the collaborators spec §1 places out of scope: the
// cluster membership/worker registry, the RPC transport, the on-disk block
// transfer mechanism, and the bindings to object storage and columnar file
// formats. The core calls through these interfaces; it never imports a
// cloud SDK or a columnar library directly (see DESIGN.md).
//
// The shape here — small, verb-named interfaces, one concern each — follows
// other_examples/go-sif-sif__datasource.go's PartitionLoader/DataSource
// split more than the teacher (whose worker/master packages hard-wire
// net/http calls instead of naming a port).
package ports

import (
	"context"
	"io"
)

// FileDescriptor identifies a shuffle-output or save-output file wherever
// it was written: which host produced it, its path there, and its size.
// This is the Go rendering of spec §4.6's {host, path, size} descriptor.
type FileDescriptor struct {
	Host string
	Path string
	Size int64
}

// ReadStreamPort obtains a byte stream for a file on any worker, local or
// remote. Reduce tasks use it to fetch upstream shuffle files (§4.6); save
// never needs it (it only writes).
type ReadStreamPort interface {
	GetReadStream(ctx context.Context, desc FileDescriptor) (io.ReadCloser, error)
}

// BlobStore is the local/cloud filesystem facade behind spec §6's
// lib.{fs,mkdirp,url} list: create a file for writing, open one for
// reading, list a directory/bucket (optionally by glob), and stat a path.
// The reference implementation, LocalFS in this package, wraps the local
// filesystem; S3/Azure implementations are supplied by the surrounding
// runtime.
type BlobStore interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	List(prefix string, glob string, maxFiles int) ([]string, error)
	Size(path string) (int64, error)
	MkdirAll(path string) error
}

// ColumnarWriter is opened once per partition at partition start and closed
// at partition end, per spec §6. The core never implements one: it is
// supplied by the runtime's columnar-format binding (e.g. Parquet).
type ColumnarWriter interface {
	WriteRow(row any) error
	Flush() error
	Close() error
}

// ColumnarReader is the read-side counterpart, used by the single-partition
// columnar source (spec §4.3).
type ColumnarReader interface {
	ReadRow() (any, bool, error)
	Close() error
}

// WorkerPort is the identity and dispatch endpoint of one worker, per
// spec §6's worker[] port list.
type WorkerPort interface {
	ID() string
	PreferredLocationScore(hint string) int
}

// Dispatcher runs one task on some worker and invokes callback with the
// task's result or an error. It is the Go rendering of spec §6's
// runTask(task, callback). The task is opaque here: LocalDispatcher
// expects a func() (any, error) closure, which is what
// rtctx.Context.Dispatch passes it.
type Dispatcher interface {
	RunTask(ctx context.Context, task any, callback func(result any, err error))
	Workers() []WorkerPort
}
