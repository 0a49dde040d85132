package dataset

import (
	"bufio"
	"io"
)

// newlineAlignedBounds divides [0, size) into n candidate ranges and rounds
// each interior boundary forward to the next newline, per spec §4.7: "each
// partition reads whole lines and adjacent partitions are disjoint and
// cover the file." Returns n+1 boundaries (bounds[i], bounds[i+1]) is
// partition i's byte range.
func newlineAlignedBounds(r io.Reader, size int64, n int) ([]int64, error) {
	if n <= 0 {
		n = 1
	}
	raw := make([]int64, n+1)
	for i := 0; i <= n; i++ {
		raw[i] = int64(i) * size / int64(n)
	}
	raw[n] = size

	br, ok := r.(io.ReadSeeker)
	bounds := make([]int64, n+1)
	bounds[0] = 0
	bounds[n] = size
	for i := 1; i < n; i++ {
		if !ok {
			// Without a seekable reader the raw boundary is used as is:
			// it is not rounded to a newline, so a line can be split
			// across two partitions.
			bounds[i] = raw[i]
			continue
		}
		pos, err := roundForwardToNewline(br, raw[i], size)
		if err != nil {
			return nil, err
		}
		bounds[i] = pos
	}
	return bounds, nil
}

func roundForwardToNewline(rs io.ReadSeeker, from, size int64) (int64, error) {
	if from >= size {
		return size, nil
	}
	if _, err := rs.Seek(from, io.SeekStart); err != nil {
		return 0, err
	}
	br := bufio.NewReader(rs)
	pos := from
	for pos < size {
		b, err := br.ReadByte()
		if err == io.EOF {
			return size, nil
		}
		if err != nil {
			return 0, err
		}
		pos++
		if b == '\n' {
			return pos, nil
		}
	}
	return size, nil
}

// readByteRangeLines reads [lo, hi) from r and splits it into lines. A
// final line with no terminating newline (only possible at end of file,
// since interior bounds sit just after a newline) is returned as well.
func readByteRangeLines(r io.ReadSeeker, lo, hi int64) ([]any, error) {
	if lo >= hi {
		return nil, nil
	}
	if _, err := r.Seek(lo, io.SeekStart); err != nil {
		return nil, err
	}
	limited := io.LimitReader(r, hi-lo)
	sc := bufio.NewScanner(limited)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var out []any
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}
