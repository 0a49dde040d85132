package common

import "testing"

func TestPolynomialHash32IsDeterministic(t *testing.T) {
	inputs := []string{"", "a", "hello", "s:5:hello", "the quick brown fox"}
	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			a := PolynomialHash32(s)
			b := PolynomialHash32(s)
			if a != b {
				t.Fatalf("PolynomialHash32(%q) not stable across calls: %d vs %d", s, a, b)
			}
			if a < 0 {
				t.Fatalf("PolynomialHash32(%q) returned negative value %d", s, a)
			}
		})
	}
}

func TestPolynomialHash32DistinguishesInputs(t *testing.T) {
	if PolynomialHash32("abc") == PolynomialHash32("abd") {
		t.Fatal("expected different hashes for different strings")
	}
}
