// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// Environment owns the ODBC environment handle. All connections are
// descendants of exactly one Environment and must be closed before it.
type Environment struct {
	Stats Stats

	h      api.SQLHENV
	closed atomic.Bool
}

// NewEnvironment allocates an ODBC v3 environment.
func NewEnvironment() (*Environment, error) {
	e := &Environment{}
	var out api.SQLHANDLE
	in := api.SQLHANDLE(api.SQL_NULL_HANDLE)
	ret := api.SQLAllocHandle(api.SQL_HANDLE_ENV, in, &out)
	if IsError(ret) {
		return nil, NewError(HandleAllocationFailed, "SQLAllocHandle", api.SQLHENV(in))
	}
	e.h = api.SQLHENV(out)
	e.Stats.updateHandleCount(api.SQL_HANDLE_ENV, 1)

	// will use ODBC v3
	ret = api.SQLSetEnvUIntPtrAttr(e.h, api.SQL_ATTR_ODBC_VERSION, api.SQL_OV_ODBC3, 0)
	if IsError(ret) {
		defer e.releaseHandle(e.h)
		return nil, NewError(HandleAllocationFailed, "SQLSetEnvAttr", e.h)
	}
	return e, nil
}

// Close releases the environment handle. All connections opened from
// this environment must be closed first; the driver manager fails the
// call otherwise. Close is idempotent.
func (e *Environment) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	h := e.h
	e.h = api.SQLHENV(api.SQL_NULL_HENV)
	return e.releaseHandle(h)
}

var (
	defaultEnv     *Environment
	defaultEnvErr  error
	defaultEnvOnce sync.Once
)

// DefaultEnvironment returns the process-wide shared environment,
// allocating it on first use. It stays alive for the process lifetime
// and backs the database/sql driver and the package-level Connect.
func DefaultEnvironment() (*Environment, error) {
	defaultEnvOnce.Do(func() {
		defaultEnv, defaultEnvErr = NewEnvironment()
	})
	return defaultEnv, defaultEnvErr
}
