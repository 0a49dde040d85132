package partitioner

import "testing"

func TestHashPartitionerDeterministicAndInRange(t *testing.T) {
	p := NewHashPartitioner(4)
	keys := []any{"alpha", "beta", 42, 42.0, "gamma"}
	for _, k := range keys {
		idx := p.PartitionIndexOf(k)
		if idx < 0 || idx >= 4 {
			t.Fatalf("PartitionIndexOf(%v) = %d, out of [0,4)", k, idx)
		}
		if again := p.PartitionIndexOf(k); again != idx {
			t.Fatalf("PartitionIndexOf(%v) not stable: %d then %d", k, idx, again)
		}
	}
}

func TestHashPartitionerClampsNonPositiveN(t *testing.T) {
	p := NewHashPartitioner(0)
	if p.NumPartitions() != 1 {
		t.Fatalf("NumPartitions() = %d, want 1", p.NumPartitions())
	}
}

func TestHashPartitionerSameKeySamePartitionAcrossInstances(t *testing.T) {
	a := NewHashPartitioner(8)
	b := NewHashPartitioner(8)
	if a.PartitionIndexOf("shared-key") != b.PartitionIndexOf("shared-key") {
		t.Fatal("two independently constructed partitioners disagreed on the same key")
	}
}
