// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// Stmt is a prepared statement. Binding and execution are separate
// steps: Bind validates and binds the whole argument list, Exec or
// Query then runs the statement. Parameter buffers are consumed by an
// execution, so Bind must be called again before the statement can be
// executed another time.
//
// A Stmt must not be used from multiple goroutines at once.
type Stmt struct {
	c      *Conn
	query  string
	h      api.SQLHSTMT
	params []Parameter
	cols   []Column

	// direct statements skip SQLPrepare and execute through
	// SQLExecDirect; they take no parameters
	direct bool
	// closeOnCursorClose ties the statement lifetime to its cursor,
	// used by Conn.Query
	closeOnCursorClose bool

	mu       sync.Mutex
	bound    bool
	executed bool
	closed   bool
	cursor   *Cursor
	// non-fatal diagnostics reported by the last execution
	warns []Diagnostic
}

// Prepare compiles query on the connection. Parameter markers are '?'.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	if c.closed.Load() {
		return nil, errors.New("connection is closed")
	}
	var out api.SQLHANDLE
	ret := api.SQLAllocHandle(api.SQL_HANDLE_STMT, api.SQLHANDLE(c.h), &out)
	if IsError(ret) {
		return nil, c.newError(HandleAllocationFailed, "SQLAllocHandle", c.h)
	}
	h := api.SQLHSTMT(out)
	c.env.Stats.updateHandleCount(api.SQL_HANDLE_STMT, 1)

	b := api.StringToUTF16(query)
	ret = api.SQLPrepare(h, (*api.SQLWCHAR)(unsafe.Pointer(&b[0])), api.SQL_NTS)
	if IsError(ret) {
		defer c.env.releaseHandle(h)
		return nil, c.newError(ExecutionError, "SQLPrepare", h)
	}
	ps, err := extractParameters(h)
	if err != nil {
		defer c.env.releaseHandle(h)
		return nil, err
	}
	s := &Stmt{c: c, query: query, h: h, params: ps}
	c.addStmt(s)
	return s, nil
}

// NumParams reports how many parameter markers the statement has.
func (s *Stmt) NumParams() int {
	return len(s.params)
}

// Bind validates all arguments against the described parameters and
// then binds them. The whole list is checked before the first bind, so
// a failed Bind leaves no partial bindings behind. Bind replaces any
// previous binding.
func (s *Stmt) Bind(args ...Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("statement is closed")
	}
	if len(args) != len(s.params) {
		return fmt.Errorf("wrong number of arguments %d, %d expected", len(args), len(s.params))
	}
	for i := range args {
		if err := s.params[i].CheckValue(args[i], i); err != nil {
			return err
		}
	}
	for i := range args {
		if err := s.params[i].BindValue(s.h, i, args[i]); err != nil {
			return err
		}
	}
	s.bound = true
	s.executed = false
	return nil
}

// Exec runs the statement and drains every result set it produces,
// returning the summed affected-row count. Use it for statements that
// do not return rows; a SELECT executed through Exec has its rows
// discarded.
func (s *Stmt) Exec(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.execLocked(ctx); err != nil {
		return nil, err
	}
	var counts []int64
	for {
		var c api.SQLLEN
		ret := api.SQLRowCount(s.h, &c)
		if IsError(ret) {
			return nil, s.c.newError(ExecutionError, "SQLRowCount", s.h)
		}
		counts = append(counts, int64(c))
		if ret = api.SQLMoreResults(s.h); ret == api.SQL_NO_DATA {
			break
		} else if IsError(ret) {
			return nil, s.c.newError(ExecutionError, "SQLMoreResults", s.h)
		}
	}
	return &Result{rowsAffected: sumAffected(counts), warns: s.warns}, nil
}

// Query runs the statement and returns a cursor over its first result
// set. The cursor must be closed before the statement can be executed
// again.
func (s *Stmt) Query(ctx context.Context) (*Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.execLocked(ctx); err != nil {
		return nil, err
	}
	if err := s.bindColumns(); err != nil {
		return nil, err
	}
	s.cursor = newCursor(s)
	return s.cursor, nil
}

func (s *Stmt) execLocked(ctx context.Context) error {
	if s.closed {
		return errors.New("statement is closed")
	}
	if s.cursor != nil {
		return errors.New("statement has an open cursor")
	}
	if len(s.params) > 0 {
		if !s.bound {
			return fmt.Errorf("%d arguments expected, none bound", len(s.params))
		}
		if s.executed {
			return errors.New("arguments consumed by previous execution, Bind again")
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.executed = true
	s.warns = nil
	return s.executeAsync(ctx)
}

// executeAsync runs SQLExecute in its own goroutine so a cancelled
// context can interrupt it with SQLCancel. SQLCancel makes the pending
// SQLExecute return; the goroutine is always waited for, so the handle
// is quiescent when executeAsync returns.
func (s *Stmt) executeAsync(ctx context.Context) error {
	cancelled := atomic.NewBool(false)
	done := make(chan error, 1)
	go func() {
		var ret api.SQLRETURN
		if s.direct {
			b := api.StringToUTF16(s.query)
			ret = api.SQLExecDirect(s.h,
				(*api.SQLWCHAR)(unsafe.Pointer(&b[0])), api.SQL_NTS)
		} else {
			ret = api.SQLExecute(s.h)
		}
		if ret != api.SQL_NO_DATA && IsError(ret) {
			done <- s.c.newError(ExecutionError, "SQLExecute", s.h)
			return
		}
		if ret == api.SQL_SUCCESS_WITH_INFO {
			s.warns = describeHandle(s.h)
		}
		done <- nil
	}()
	select {
	case <-ctx.Done():
		cancelled.Store(true)
		_ = api.SQLCancel(s.h)
		<-done
		s.c.log.Debug("statement cancelled", zap.String("query", s.query))
		return ctx.Err()
	case err := <-done:
		if err != nil && cancelled.Load() {
			return ctx.Err()
		}
		return err
	}
}

func (s *Stmt) bindColumns() error {
	// count columns
	var n api.SQLSMALLINT
	ret := api.SQLNumResultCols(s.h, &n)
	if IsError(ret) {
		return s.c.newError(ExecutionError, "SQLNumResultCols", s.h)
	}
	if n < 1 {
		return errors.New("statement did not create a result set")
	}
	// fetch column descriptions
	s.cols = make([]Column, n)
	binding := true
	for i := range s.cols {
		c, err := NewColumn(s.h, i)
		if err != nil {
			return err
		}
		s.cols[i] = c
		// Once we found one non-bindable column, we will not bind the rest.
		// http://www.easysoft.com/developer/languages/c/odbc-tutorial-fetching-results.html
		// ... One common restriction is that SQLGetData may only be called on columns after the last bound column. ...
		if !binding {
			continue
		}
		bound, err := s.cols[i].Bind(s.h, i)
		if err != nil {
			return err
		}
		if !bound {
			binding = false
		}
	}
	return nil
}

// cursorClosed is called by Cursor.Close with the cursor drained.
func (s *Stmt) cursorClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = nil
	if s.closed {
		return nil
	}
	if s.closeOnCursorClose {
		return s.closeLocked()
	}
	ret := api.SQLCloseCursor(s.h)
	if IsError(ret) {
		return s.c.newError(ExecutionError, "SQLCloseCursor", s.h)
	}
	return nil
}

// Close releases the statement handle. Closing a statement with an
// open cursor closes the cursor too. Close is idempotent.
func (s *Stmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Stmt) closeLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cursor != nil {
		// closed from above, not by Cursor.Close; later Next/Err on the
		// cursor must be distinguishable from clean exhaustion
		s.cursor.closed = true
		if s.cursor.err == nil {
			s.cursor.err = ErrCursorInvalid
		}
		s.cursor = nil
	}
	s.c.removeStmt(s)
	h := s.h
	s.h = api.SQLHSTMT(api.SQL_NULL_HSTMT)
	return s.c.env.releaseHandle(h)
}
