package common

// PolynomialHash32 implements spec §4.1's mandated hash-partitioner
// algorithm: a fixed polynomial rolling hash (multiplier 31), with the
// accumulator reduced to a signed 32-bit value and its absolute value
// taken, so that any two workers hashing the same canonical key string
// agree on the same partition id. Deliberately hand-rolled rather than
// delegating to a library hash (e.g. spaolacci/murmur3, which
// grailbio-bigslice uses for its own frame hash-partitioning) because the
// spec pins the exact bit behaviour, which a general-purpose hash function
// does not promise to reproduce.
func PolynomialHash32(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = 31*h + int32(s[i])
	}
	if h < 0 {
		if h == -h {
			// int32 has no positive counterpart for math.MinInt32; treat
			// it as zero rather than overflow back to a negative value.
			return 0
		}
		h = -h
	}
	return h
}
