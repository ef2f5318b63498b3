// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"context"
	"errors"
	"sync"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

var (
	ErrTxAlreadyStarted = errors.New("already in a transaction")
	ErrTxCompleted      = errors.New("transaction already completed")
)

type IsolationLevel int

const (
	LevelDefault IsolationLevel = iota
	LevelReadUncommitted
	LevelReadCommitted
	LevelRepeatableRead
	LevelSerializable
)

var isolationAttr = map[IsolationLevel]uintptr{
	LevelReadUncommitted: api.SQL_TXN_READ_UNCOMMITTED,
	LevelReadCommitted:   api.SQL_TXN_READ_COMMITTED,
	LevelRepeatableRead:  api.SQL_TXN_REPEATABLE_READ,
	LevelSerializable:    api.SQL_TXN_SERIALIZABLE,
}

type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// Tx is a manual transaction. While it is open the connection runs
// with autocommit off; Commit or Rollback restores autocommit. Only
// one transaction can be open per connection.
type Tx struct {
	c    *Conn
	opts TxOptions
	mu   sync.Mutex
	done bool
}

// BeginTx turns autocommit off and applies the requested isolation
// level and access mode.
func (c *Conn) BeginTx(ctx context.Context, opts TxOptions) (*Tx, error) {
	if c.closed.Load() {
		return nil, errors.New("connection is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.tx != nil {
		c.mu.Unlock()
		return nil, ErrTxAlreadyStarted
	}
	tx := &Tx{c: c, opts: opts}
	c.tx = tx
	c.mu.Unlock()

	fail := func(err error) (*Tx, error) {
		c.mu.Lock()
		c.tx = nil
		c.mu.Unlock()
		return nil, err
	}
	if ret := api.SQLSetConnectUIntPtrAttr(c.h, api.SQL_ATTR_AUTOCOMMIT, api.SQL_AUTOCOMMIT_OFF, api.SQL_IS_UINTEGER); IsError(ret) {
		return fail(c.newError(ExecutionError, "SQLSetConnectAttr", c.h))
	}
	if attr, ok := isolationAttr[opts.Isolation]; ok {
		if ret := api.SQLSetConnectUIntPtrAttr(c.h, api.SQL_ATTR_TXN_ISOLATION, attr, api.SQL_IS_UINTEGER); IsError(ret) {
			return fail(c.newError(ExecutionError, "SQLSetConnectAttr", c.h))
		}
	}
	if opts.ReadOnly {
		if ret := api.SQLSetConnectUIntPtrAttr(c.h, api.SQL_ATTR_ACCESS_MODE, api.SQL_MODE_READ_ONLY, api.SQL_IS_UINTEGER); IsError(ret) {
			return fail(c.newError(ExecutionError, "SQLSetConnectAttr", c.h))
		}
	}
	return tx, nil
}

func (tx *Tx) Commit() error {
	return tx.endTx(api.SQL_COMMIT)
}

func (tx *Tx) Rollback() error {
	return tx.endTx(api.SQL_ROLLBACK)
}

func (tx *Tx) endTx(mode api.SQLSMALLINT) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return ErrTxCompleted
	}
	tx.done = true
	tx.c.mu.Lock()
	tx.c.tx = nil
	tx.c.mu.Unlock()

	if ret := api.SQLEndTran(api.SQL_HANDLE_DBC, api.SQLHANDLE(tx.c.h), mode); IsError(ret) {
		return tx.c.newError(ExecutionError, "SQLEndTran", tx.c.h)
	}
	if ret := api.SQLSetConnectUIntPtrAttr(tx.c.h, api.SQL_ATTR_AUTOCOMMIT, api.SQL_AUTOCOMMIT_ON, api.SQL_IS_UINTEGER); IsError(ret) {
		return tx.c.newError(ExecutionError, "SQLSetConnectAttr", tx.c.h)
	}
	if tx.opts.ReadOnly {
		if ret := api.SQLSetConnectUIntPtrAttr(tx.c.h, api.SQL_ATTR_ACCESS_MODE, api.SQL_MODE_READ_WRITE, api.SQL_IS_UINTEGER); IsError(ret) {
			return tx.c.newError(ExecutionError, "SQLSetConnectAttr", tx.c.h)
		}
	}
	return nil
}
