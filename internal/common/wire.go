package common

import "encoding/json"

// EncodeRecord renders a record (a Pair, a CoGroupValue, or a bare element)
// as one line of the newline-delimited wire format spec §4.6 and §6
// describe for shuffle files and save output. The teacher's whole stack
// (internal/worker/executor.go, internal/master/api.go) already speaks
// encoding/json end to end, so this keeps that choice rather than inventing
// a second wire codec on top of the canonical key encoder above, which
// exists only to key in-memory maps, not to go on disk.
func EncodeRecord(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRecord parses one line back into dst, which must be a pointer.
func DecodeRecord(line []byte, dst any) error {
	return json.Unmarshal(line, dst)
}
