// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"fmt"
	"sync"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// Stats counts live driver handles per type. Each Environment carries
// its own counters so leaked handles can be attributed.
type Stats struct {
	EnvCount  int
	ConnCount int
	StmtCount int
	mu        sync.Mutex
}

func (s *Stats) updateHandleCount(handleType api.SQLSMALLINT, change int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch handleType {
	case api.SQL_HANDLE_ENV:
		s.EnvCount += change
	case api.SQL_HANDLE_DBC:
		s.ConnCount += change
	case api.SQL_HANDLE_STMT:
		s.StmtCount += change
	default:
		panic(fmt.Errorf("unexpected handle type %d", handleType))
	}
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() (env, conn, stmt int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EnvCount, s.ConnCount, s.StmtCount
}
