package memstore

import "testing"

func TestPartitionBufferAppendAndData(t *testing.T) {
	mgr := NewManager(1 << 30)
	buf := NewPartitionBuffer(mgr)
	for i := 0; i < 5; i++ {
		buf.Append(i)
	}
	if buf.Evicted() {
		t.Fatal("buffer should not be evicted well under the ceiling")
	}
	if len(buf.Data()) != 5 {
		t.Fatalf("len(Data()) = %d, want 5", len(buf.Data()))
	}
}

func TestPartitionBufferEvictsOnceCeilingExceeded(t *testing.T) {
	mgr := NewManager(1) // any sampled batch will exceed this
	buf := NewPartitionBuffer(mgr)
	// Eviction is only checked every sampleEvery elements, so push past
	// one full sampling window.
	for i := 0; i < sampleEvery+1; i++ {
		buf.Append("x")
	}
	if !buf.Evicted() {
		t.Fatal("expected buffer to be evicted after exceeding a tiny ceiling")
	}
	if buf.Data() != nil {
		t.Fatal("evicted buffer must drop its data")
	}
	if mgr.Used() != 0 {
		t.Fatalf("Manager.Used() = %d after eviction, want 0 (released back)", mgr.Used())
	}
}

func TestPartitionBufferEvictionIsMonotonic(t *testing.T) {
	mgr := NewManager(1)
	buf := NewPartitionBuffer(mgr)
	for i := 0; i < sampleEvery+1; i++ {
		buf.Append("x")
	}
	if !buf.Evicted() {
		t.Fatal("expected eviction")
	}
	// Further appends after eviction must stay no-ops.
	buf.Append("y")
	if buf.Data() != nil {
		t.Fatal("appending after eviction should not repopulate the buffer")
	}
}

func TestManagerReserveAndRelease(t *testing.T) {
	mgr := NewManager(100)
	if exceeded := mgr.reserve(50); exceeded {
		t.Fatal("reserving 50 of 100 should not exceed the ceiling")
	}
	if exceeded := mgr.reserve(60); !exceeded {
		t.Fatal("reserving another 60 (110 total) should exceed the ceiling")
	}
	mgr.release(60)
	if mgr.Used() != 50 {
		t.Fatalf("Used() = %d, want 50 after releasing 60 of 110", mgr.Used())
	}
}
