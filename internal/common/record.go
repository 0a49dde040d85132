// Package common holds the small, dependency-free types shared across the
// dataset graph, the shuffle subsystem and the action driver: the record
// shapes that flow through pipelines, and the canonical key encoder used to
// key map-side shuffle buffers.
package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pair is a keyed record. Wide operators (AggregateByKey, SortBy,
// PartitionBy, Cartesian) all traffic in Pairs; narrow operators generally
// see bare elements (any).
type Pair struct {
	Key   any `json:"k"`
	Value any `json:"v"`
}

// CoGroupValue is the reduce-side record shape produced when two parents
// feed the same AggregateByKey (i.e. a coGroup): the left and right
// accumulator lists tagged by origin, per spec §4.3.
type CoGroupValue struct {
	Left  any `json:"l"`
	Right any `json:"r"`
}

// CanonicalKey renders v as the canonical textual serialization spec §9
// requires for map-side shuffle-buffer keys: sorted map-entry order,
// integers distinguished from floats, strings length-prefixed so that,
// e.g., {1,2} and {2,1} collide as maps but never with a list or a string.
// Two workers serializing the same key must produce identical output, so
// this never delegates to map iteration order or encoding/json (whose map
// key order is sorted for strings but does not distinguish int/float).
func CanonicalKey(v any) string {
	var b strings.Builder
	encodeCanonical(&b, v)
	return b.String()
}

func encodeCanonical(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("n:")
	case bool:
		if t {
			b.WriteString("b:1")
		} else {
			b.WriteString("b:0")
		}
	case int:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int32:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(t, 10))
	case float32:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(float64(t), 'g', -1, 64))
	case float64:
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case string:
		b.WriteString("s:")
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	case []any:
		b.WriteString("l:")
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeCanonical(b, e)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("m:")
		b.WriteString(strconv.Itoa(len(keys)))
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeCanonical(b, k)
			b.WriteByte(':')
			encodeCanonical(b, t[k])
		}
		b.WriteByte('}')
	default:
		// Anything else (structs, pointers) falls back to its formatted
		// representation; still deterministic across workers as long as
		// %v is stable for the type, which holds for the plain value
		// types this engine's UDFs are expected to traffic in.
		b.WriteString("o:")
		fmt.Fprintf(b, "%v", t)
	}
}
