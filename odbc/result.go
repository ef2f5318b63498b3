// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

// Result reports the outcome of a statement executed through Exec.
type Result struct {
	rowsAffected int64
	warns        []Diagnostic
}

// RowsAffected returns the summed affected-row count across every
// result the statement produced. Drivers report -1 per result when the
// count is unknown; such results contribute nothing to the sum, and
// when no result reported a usable count RowsAffected returns -1.
func (r *Result) RowsAffected() int64 {
	return r.rowsAffected
}

// sumAffected folds per-result SQLRowCount values into one total.
// Negative counts mean the driver does not know; they are skipped, and
// a statement where every count was unknown totals -1 instead of a
// misleading zero.
func sumAffected(counts []int64) int64 {
	var sum int64
	known := false
	for _, c := range counts {
		if c >= 0 {
			sum += c
			known = true
		}
	}
	if !known {
		return -1
	}
	return sum
}

// Warnings returns non-fatal diagnostics the driver reported during
// execution.
func (r *Result) Warnings() []Diagnostic {
	return r.warns
}
