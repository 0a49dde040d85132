package shuffle

import "sort"

// sortStable orders records in place using cmp (negative means a before b),
// preserving relative order of equal elements, per spec §4.3's "stable
// comparator" requirement for sortBy's reduce side.
func sortStable(records []any, cmp func(a, b any) int) {
	sort.SliceStable(records, func(i, j int) bool {
		return cmp(records[i], records[j]) < 0
	})
}
