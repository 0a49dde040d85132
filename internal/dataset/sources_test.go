package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"distcalc/internal/ports"
	"distcalc/internal/rtctx"
)

func TestParallelizeSplitsIntoRoughlyEqualPartitions(t *testing.T) {
	data := make([]any, 0, 10)
	for i := 0; i < 10; i++ {
		data = append(data, i)
	}
	d := Parallelize(data, 3)
	parts, err := d.GetPartitions()
	if err != nil {
		t.Fatalf("GetPartitions: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(parts))
	}
	total := 0
	for _, p := range parts {
		elems, err := d.Materialize(nil, p)
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		total += len(elems)
	}
	if total != 10 {
		t.Fatalf("total materialized elements = %d, want 10", total)
	}
}

func TestRangeGeneratesWithoutMaterializingWholeSequence(t *testing.T) {
	d := Range(0, 10, 2, 2)
	parts, err := d.GetPartitions()
	if err != nil {
		t.Fatalf("GetPartitions: %v", err)
	}
	var all []any
	for _, p := range parts {
		elems, err := d.Materialize(nil, p)
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		all = append(all, elems...)
	}
	if len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5 (0,2,4,6,8)", len(all))
	}
}

func TestTextFileSplitsOnNewlineBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	content := "line one\nline two\nline three\nline four\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	blob := ports.LocalFS{}
	d := TextFile(path, 2, blob, nil)
	parts, err := d.GetPartitions()
	if err != nil {
		t.Fatalf("GetPartitions: %v", err)
	}

	ctx := &rtctx.Context{Blob: blob}
	var lines []any
	for _, p := range parts {
		elems, err := d.Materialize(ctx, p)
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		lines = append(lines, elems...)
	}
	if len(lines) != 4 {
		t.Fatalf("len(lines) = %d, want 4, got %v", len(lines), lines)
	}
	if lines[0] != "line one" || lines[3] != "line four" {
		t.Errorf("unexpected line contents: %v", lines)
	}
}
