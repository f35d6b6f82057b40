// Package sequence assigns gap-free invoice numbers across a batch.
package sequence

import "fmt"

// Assignment is the numbered sequence for one batch plus the counter value
// the caller must persist for the next batch. The sequencer holds no state
// of its own; the counter is supplied by and returned to the caller.
type Assignment struct {
	Numbers   []string
	NextStart int64
}

// Assign numbers n orders starting at start, in source order. Numbers are
// rendered as prefix plus the value zero-padded to at least three digits;
// wider values keep their full width. n = 0 is a no-op, not an error.
func Assign(prefix string, start int64, n int) Assignment {
	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		numbers[i] = Format(prefix, start+int64(i))
	}
	return Assignment{Numbers: numbers, NextStart: start + int64(n)}
}

// Format renders a single invoice number.
func Format(prefix string, number int64) string {
	return fmt.Sprintf("%s%03d", prefix, number)
}
