package dataset

import "distcalc/internal/common"

// hashPartitioner is the Partitioner the keyed wide builders (reduceByKey,
// groupByKey, coGroup, distinct) install; PartitionBy instead takes its
// partitioner from the caller. It implements the exact algorithm spec
// §4.1 mandates: canonical-serialize the key, run it through the fixed
// polynomial rolling hash, reduce modulo the partition count.
//
// internal/partitioner.HashPartitioner is the public, standalone copy of
// this same algorithm (both delegate to common.PolynomialHash32) for use
// outside of a Dataset builder call, e.g. from tests or a caller assembling
// a PartitionBy with an explicit partitioner. It's a separate type only to
// avoid an import cycle: internal/partitioner also hosts RangePartitioner,
// which needs to construct sample Datasets and so must import this
// package.
type hashPartitioner struct {
	n int
}

func newHashPartitioner(n int) *hashPartitioner {
	if n <= 0 {
		n = 1
	}
	return &hashPartitioner{n: n}
}

func (h *hashPartitioner) NumPartitions() int { return h.n }

func (h *hashPartitioner) PartitionIndexOf(key any) int {
	return int(common.PolynomialHash32(common.CanonicalKey(key))) % h.n
}
