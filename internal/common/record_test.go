package common

import "testing"

func TestCanonicalKeyDistinguishesIntFromFloat(t *testing.T) {
	if CanonicalKey(1) == CanonicalKey(1.0) {
		t.Fatal("expected int and float64 keys to serialize differently")
	}
}

func TestCanonicalKeyStableAcrossMapOrder(t *testing.T) {
	a := map[string]any{"x": 1, "y": 2}
	b := map[string]any{"y": 2, "x": 1}
	if CanonicalKey(a) != CanonicalKey(b) {
		t.Fatalf("expected map key order to be normalized: %q vs %q", CanonicalKey(a), CanonicalKey(b))
	}
}

func TestCanonicalKeyDistinguishesStringConcatenation(t *testing.T) {
	// Without length prefixing, ["ab","c"] and ["a","bc"] could collide.
	l1 := CanonicalKey([]any{"ab", "c"})
	l2 := CanonicalKey([]any{"a", "bc"})
	if l1 == l2 {
		t.Fatalf("expected length-prefixed encoding to distinguish %q from %q", l1, l2)
	}
}

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	p := Pair{Key: "k", Value: 3}
	line, err := EncodeRecord(p)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	var out Pair
	if err := DecodeRecord(line, &out); err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if out.Key != "k" {
		t.Errorf("key = %v, want k", out.Key)
	}
	// JSON round-trips numbers as float64; this is documented in DESIGN.md
	// as an accepted property of the wire format.
	if v, ok := out.Value.(float64); !ok || v != 3 {
		t.Errorf("value = %#v, want float64(3)", out.Value)
	}
}
