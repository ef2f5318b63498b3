// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"errors"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// ErrCursorInvalid is reported by Err when the cursor's statement or
// connection was closed underneath it before it was exhausted.
var ErrCursorInvalid = errors.New("cursor invalidated by statement close")

// Cursor iterates over one result set, one row at a time:
//
//	cur, err := stmt.Query(ctx)
//	...
//	defer cur.Close()
//	for cur.Next() {
//		v := cur.Value(0)
//		...
//	}
//	if err := cur.Err(); err != nil {
//		...
//	}
//
// All columns of the current row are decoded during Next, so Value
// never touches the driver. A Cursor must not be used from multiple
// goroutines at once.
type Cursor struct {
	s      *Stmt
	row    []Value
	names  map[string]int
	warns  []Diagnostic
	err    error
	closed bool
}

func newCursor(s *Stmt) *Cursor {
	names := make(map[string]int, len(s.cols))
	for i, c := range s.cols {
		if _, dup := names[c.Name()]; !dup {
			names[c.Name()] = i
		}
	}
	return &Cursor{s: s, row: make([]Value, len(s.cols)), names: names, warns: s.warns}
}

// Next fetches the next row. It returns false at the end of the result
// set or on error; the two are told apart with Err.
func (c *Cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	ret := api.SQLFetch(c.s.h)
	if ret == api.SQL_NO_DATA {
		return false
	}
	if IsError(ret) {
		c.err = c.s.c.newError(FetchError, "SQLFetch", c.s.h)
		return false
	}
	if ret == api.SQL_SUCCESS_WITH_INFO {
		// non-fatal driver diagnostics, e.g. value truncation
		c.warns = append(c.warns, describeHandle(c.s.h)...)
	}
	for i := range c.row {
		v, err := c.s.cols[i].Value(c.s.h, i)
		if err != nil {
			c.err = err
			return false
		}
		c.row[i] = v
	}
	return true
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Value returns column i of the current row. It must only be called
// after Next returned true; i must be a valid column index.
func (c *Cursor) Value(i int) Value {
	return c.row[i]
}

// ValueByName returns the named column of the current row. When the
// result set has duplicate column names the first one wins.
func (c *Cursor) ValueByName(name string) (Value, bool) {
	i, ok := c.names[name]
	if !ok {
		return Value{}, false
	}
	return c.row[i], true
}

// Columns describes the result set columns in result order.
func (c *Cursor) Columns() []ColumnInfo {
	infos := make([]ColumnInfo, len(c.s.cols))
	for i, col := range c.s.cols {
		infos[i] = col.Info()
	}
	return infos
}

// Warnings returns non-fatal diagnostics reported by execution and
// accumulated while fetching.
func (c *Cursor) Warnings() []Diagnostic {
	return c.warns
}

// Close releases the result set. The statement can be executed again
// afterwards. Close is idempotent.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.s.cursorClosed()
}
