// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"context"
	"errors"
	"sync"
	"time"
	"unsafe"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// Conn is one database connection. Statements prepared on it are its
// children and are closed with it. A Conn is safe to pass between
// goroutines but not to use from several at once.
type Conn struct {
	env *Environment
	h   api.SQLHDBC
	log *zap.Logger

	closed atomic.Bool
	bad    atomic.Bool

	mu    sync.Mutex
	stmts map[*Stmt]struct{}
	tx    *Tx
}

// Connect opens a connection from the environment. The context only
// gates the attempt before the driver call; once dialing, the login
// timeout (from cfg or the context deadline, whichever is shorter)
// bounds it.
func (e *Environment) Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out api.SQLHANDLE
	ret := api.SQLAllocHandle(api.SQL_HANDLE_DBC, api.SQLHANDLE(e.h), &out)
	if IsError(ret) {
		return nil, NewError(HandleAllocationFailed, "SQLAllocHandle", e.h)
	}
	h := api.SQLHDBC(out)
	e.Stats.updateHandleCount(api.SQL_HANDLE_DBC, 1)

	if t := loginTimeout(ctx, time.Duration(cfg.LoginTimeout)); t > 0 {
		ret = api.SQLSetConnectUIntPtrAttr(h, api.SQL_ATTR_LOGIN_TIMEOUT,
			uintptr(t/time.Second), api.SQL_IS_UINTEGER)
		if IsError(ret) {
			defer e.releaseHandle(h)
			return nil, NewError(ConnectError, "SQLSetConnectAttr", h)
		}
	}

	if t := time.Duration(cfg.ConnTimeout); t > 0 {
		secs := uintptr(t / time.Second)
		if secs == 0 {
			secs = 1
		}
		ret = api.SQLSetConnectUIntPtrAttr(h, api.SQL_ATTR_CONNECTION_TIMEOUT,
			secs, api.SQL_IS_UINTEGER)
		if IsError(ret) {
			defer e.releaseHandle(h)
			return nil, NewError(ConnectError, "SQLSetConnectAttr", h)
		}
	}

	// connections start in autocommit mode; BeginTx turns it off
	ret = api.SQLSetConnectUIntPtrAttr(h, api.SQL_ATTR_AUTOCOMMIT,
		api.SQL_AUTOCOMMIT_ON, api.SQL_IS_UINTEGER)
	if IsError(ret) {
		defer e.releaseHandle(h)
		return nil, NewError(ConnectError, "SQLSetConnectAttr", h)
	}

	b := api.StringToUTF16(cfg.ConnectionString())
	ret = api.SQLDriverConnect(h, 0,
		(*api.SQLWCHAR)(unsafe.Pointer(&b[0])), api.SQL_NTS,
		nil, 0, nil, api.SQL_DRIVER_NOPROMPT)
	if IsError(ret) {
		defer e.releaseHandle(h)
		return nil, NewError(ConnectError, "SQLDriverConnect", h)
	}

	log := cfg.logger()
	log.Debug("connected",
		zap.String("server", cfg.Server),
		zap.String("database", cfg.Database))
	return &Conn{
		env:   e,
		h:     h,
		log:   log,
		stmts: make(map[*Stmt]struct{}),
	}, nil
}

// Connect opens a connection from the shared default environment.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	e, err := DefaultEnvironment()
	if err != nil {
		return nil, err
	}
	return e.Connect(ctx, cfg)
}

func loginTimeout(ctx context.Context, configured time.Duration) time.Duration {
	t := configured
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); t == 0 || d < t {
			t = d
		}
	}
	if t > 0 && t < time.Second {
		t = time.Second // ODBC login timeouts have second granularity
	}
	return t
}

// Exec prepares, binds and runs query in one call. With no arguments
// the prepare step is skipped and the query goes straight to the
// driver.
func (c *Conn) Exec(ctx context.Context, query string, args ...Value) (*Result, error) {
	s, err := c.stmtFor(query, args)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Exec(ctx)
}

// Query prepares, binds and runs query in one call. The statement is
// closed with the returned cursor.
func (c *Conn) Query(ctx context.Context, query string, args ...Value) (*Cursor, error) {
	s, err := c.stmtFor(query, args)
	if err != nil {
		return nil, err
	}
	s.closeOnCursorClose = true
	cur, err := s.Query(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	return cur, nil
}

func (c *Conn) stmtFor(query string, args []Value) (*Stmt, error) {
	if len(args) == 0 {
		return c.prepareDirect(query)
	}
	s, err := c.Prepare(query)
	if err != nil {
		return nil, err
	}
	if err := s.Bind(args...); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// prepareDirect allocates a statement that executes its query through
// SQLExecDirect, skipping the prepare round trip. Such statements take
// no parameters.
func (c *Conn) prepareDirect(query string) (*Stmt, error) {
	if c.closed.Load() {
		return nil, errors.New("connection is closed")
	}
	var out api.SQLHANDLE
	ret := api.SQLAllocHandle(api.SQL_HANDLE_STMT, api.SQLHANDLE(c.h), &out)
	if IsError(ret) {
		return nil, c.newError(HandleAllocationFailed, "SQLAllocHandle", c.h)
	}
	c.env.Stats.updateHandleCount(api.SQL_HANDLE_STMT, 1)
	s := &Stmt{c: c, query: query, h: api.SQLHSTMT(out), direct: true}
	c.addStmt(s)
	return s, nil
}

// Alive probes the driver for connection health. It reports false for
// closed connections and connections the driver declared dead. Drivers
// that do not implement the probe are assumed alive.
func (c *Conn) Alive() bool {
	if c.closed.Load() || c.bad.Load() {
		return false
	}
	var dead uintptr
	ret := api.SQLGetConnectUIntPtrAttr(c.h, api.SQL_ATTR_CONNECTION_DEAD, &dead, nil)
	if IsError(ret) {
		return true
	}
	if dead == api.SQL_CD_TRUE {
		c.bad.Store(true)
		return false
	}
	return true
}

// Close rolls back any open transaction, closes child statements,
// disconnects and releases the handle. Close is idempotent.
func (c *Conn) Close() (err error) {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	if c.tx != nil {
		tx := c.tx
		c.mu.Unlock()
		tx.Rollback()
		c.mu.Lock()
	}
	open := make([]*Stmt, 0, len(c.stmts))
	for s := range c.stmts {
		open = append(open, s)
	}
	c.mu.Unlock()
	for _, s := range open {
		if e := s.Close(); e != nil && err == nil {
			err = e
		}
	}

	h := c.h
	defer func() {
		c.h = api.SQLHDBC(api.SQL_NULL_HDBC)
		e := c.env.releaseHandle(h)
		if err == nil {
			err = e
		}
	}()
	ret := api.SQLDisconnect(h)
	if IsError(ret) {
		return NewError(ConnectError, "SQLDisconnect", h)
	}
	c.log.Debug("disconnected")
	return err
}

// newError builds a classified error and marks the connection bad when
// the diagnostics point at a broken link.
func (c *Conn) newError(kind Kind, apiName string, handle interface{}) error {
	err := NewError(kind, apiName, handle)
	var e *Error
	if errors.As(err, &e) && e.HasClass(ClassConnection) {
		c.bad.Store(true)
		c.log.Warn("connection marked dead", zap.String("api", apiName))
	}
	return err
}

func (c *Conn) addStmt(s *Stmt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stmts[s] = struct{}{}
}

func (c *Conn) removeStmt(s *Stmt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stmts, s)
}
