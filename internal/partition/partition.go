// Package partition splits a global entry count into contiguous ranges and
// hands them out in claims.
package partition

import (
	"fmt"
	"slices"
)

// Range is the half-open entry interval [First, Last).
type Range struct {
	First uint64
	Last  uint64
}

// Len returns the number of entries in the range.
func (r Range) Len() uint64 {
	return r.Last - r.First
}

// Contains reports whether entry lies in the range.
func (r Range) Contains(entry uint64) bool {
	return entry >= r.First && entry < r.Last
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.First, r.Last)
}

// Compute splits [0, total) into at most chunks ascending, contiguous,
// non-overlapping ranges of ceil(total/chunks) entries; only the last range
// may be shorter. chunks is clamped to [1, total].
func Compute(total uint64, chunks int) []Range {
	if total == 0 {
		return nil
	}
	n := uint64(max(chunks, 1))
	n = min(n, total)

	size := (total + n - 1) / n
	out := make([]Range, 0, (total+size-1)/size)
	for first := uint64(0); first < total; first += size {
		out = append(out, Range{First: first, Last: min(first+size, total)})
	}
	return out
}

// Queue holds a full partition and the subset not yet claimed.
// It is not safe for concurrent use.
type Queue struct {
	all  []Range
	next int
}

// NewQueue creates a queue over ranges, which must be ascending.
func NewQueue(ranges []Range) *Queue {
	return &Queue{all: slices.Clone(ranges)}
}

// Claim removes and returns up to limit ranges in ascending order; limit <= 0
// claims all remaining. It returns nil once the queue is exhausted.
func (q *Queue) Claim(limit int) []Range {
	rest := len(q.all) - q.next
	if rest == 0 {
		return nil
	}
	n := rest
	if limit > 0 && limit < rest {
		n = limit
	}
	out := slices.Clone(q.all[q.next : q.next+n])
	q.next += n
	return out
}

// Remaining returns the number of unclaimed ranges.
func (q *Queue) Remaining() int {
	return len(q.all) - q.next
}

// All returns a copy of the full partition.
func (q *Queue) All() []Range {
	return slices.Clone(q.all)
}

// Reset makes every range available again.
func (q *Queue) Reset() {
	q.next = 0
}
