package dataset

import "distcalc/internal/memstore"

// Partition is a unit of parallel work within one dataset (spec §3).
type Partition struct {
	DatasetID         int64
	Index             int
	ParentIndex       *int   // set for narrow 1:1 mappings
	PreferredLocation string // e.g. an HDFS block's host (spec §4.7)
	Path              string // set for file-backed sources

	// Buffer is populated only when the owning dataset is Persistent; it is
	// created lazily by internal/planner.Realize on first iteration (spec
	// §3 lifecycle).
	Buffer *memstore.PartitionBuffer
}
