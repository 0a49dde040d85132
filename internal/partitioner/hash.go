// Package partitioner implements spec §4.1's two partitioner families as
// standalone, externally constructible values: HashPartitioner for the
// common keyed-shuffle case, and RangePartitioner for sortBy/sortByKey,
// which needs a sampling sub-job run against the dataset graph before it
// can answer PartitionIndexOf. Grounded on zhoubolei-GoSpark's
// PartitionType (Hash/Range) constants, which that repo declares but never
// implements.
package partitioner

import "distcalc/internal/common"

// HashPartitioner assigns a key to partition
// hash(canonicalKey(key)) mod NumPartitions, using the exact fixed
// polynomial rolling hash spec §4.1 mandates so every worker computes the
// same assignment for the same key. dataset.hashPartitioner is the same
// algorithm kept unexported inside internal/dataset to avoid an import
// cycle (RangePartitioner below needs to build sample Datasets, so this
// package already depends on internal/dataset); this exported copy is the
// one callers outside a Dataset builder method (tests, an explicit
// PartitionBy call) construct directly.
type HashPartitioner struct {
	N int
}

func NewHashPartitioner(n int) *HashPartitioner {
	if n <= 0 {
		n = 1
	}
	return &HashPartitioner{N: n}
}

func (h *HashPartitioner) NumPartitions() int { return h.N }

func (h *HashPartitioner) PartitionIndexOf(key any) int {
	return int(common.PolynomialHash32(common.CanonicalKey(key))) % h.N
}
