// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"context"
	"flag"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var liveDSN = flag.String("dsn", "", "ODBC connection string for live database tests, e.g. driver={ODBC Driver 18 for SQL Server};server=localhost;uid=sa;pwd=...")

func liveConn(t *testing.T) *Conn {
	t.Helper()
	if *liveDSN == "" {
		t.Skip("no -dsn provided, skipping live database test")
	}
	c, err := Connect(context.Background(), &Config{DSN: *liveDSN})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	return c
}

func TestLiveSelectLiteral(t *testing.T) {
	c := liveConn(t)

	cur, err := c.Query(context.Background(), "select 1 as one, 'hello' as greeting")
	require.NoError(t, err)
	defer cur.Close()

	cols := cur.Columns()
	require.Len(t, cols, 2)
	require.Equal(t, "one", cols[0].Name)
	require.Equal(t, "greeting", cols[1].Name)

	require.True(t, cur.Next())
	one, ok := cur.Value(0).Int64()
	require.True(t, ok)
	require.Equal(t, int64(1), one)
	greeting, ok := cur.Value(1).Str()
	require.True(t, ok)
	require.Equal(t, "hello", greeting)

	require.False(t, cur.Next())
	require.NoError(t, cur.Err())
}

func TestLiveCursorEarlyClose(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	cur, err := c.Query(ctx, "select 1 union all select 2 union all select 3")
	require.NoError(t, err)
	require.True(t, cur.Next())
	require.NoError(t, cur.Close())
	require.NoError(t, cur.Err())
	// closing again is a no-op
	require.NoError(t, cur.Close())

	// the connection stays usable after an abandoned result set
	cur, err = c.Query(ctx, "select 42")
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	n, ok := cur.Value(0).Int64()
	require.True(t, ok)
	require.Equal(t, int64(42), n)
}

func TestLiveConnCloseReleasesDescendants(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	s, err := c.Prepare("select ?")
	require.NoError(t, err)

	cur, err := c.Query(ctx, "select 1 union all select 2")
	require.NoError(t, err)
	require.True(t, cur.Next())

	require.NoError(t, c.Close())

	// descendants are gone: the cursor reports invalidation, not clean
	// exhaustion, and the statement refuses to run
	require.False(t, cur.Next())
	require.ErrorIs(t, cur.Err(), ErrCursorInvalid)
	require.Error(t, s.Bind(Int64(1)))
	_, err = s.Exec(ctx)
	require.Error(t, err)
}

func TestLiveInsertRowCount(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, "create table #t (id int, name nvarchar(20))")
	require.NoError(t, err)

	res, err := c.Exec(ctx, "insert into #t (id, name) values (?, ?)",
		Int64(1), String("first"))
	require.NoError(t, err)
	require.Equal(t, int64(1), res.RowsAffected())

	res, err = c.Exec(ctx, "insert into #t (id, name) values (1, 'a'), (2, 'b')")
	require.NoError(t, err)
	require.Equal(t, int64(2), res.RowsAffected())

	// a SELECT pushed through Exec has no usable count; unknown must
	// not read as zero rows
	res, err = c.Exec(ctx, "select id from #t")
	require.NoError(t, err)
	require.Equal(t, int64(-1), res.RowsAffected())
}

func TestLiveSyntaxError(t *testing.T) {
	c := liveConn(t)

	_, err := c.Exec(context.Background(), "selec 1")
	require.Error(t, err)
	require.True(t, IsKind(err, ExecutionError))
	var e *Error
	require.ErrorAs(t, err, &e)
	require.True(t, e.HasClass(ClassSyntax), "diagnostics: %v", e.Diag)
}

func TestLiveTypeRoundTrip(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, `create table #types (
		b bit, i bigint, f float, d decimal(10,2),
		s nvarchar(50), raw varbinary(50), ts datetime2(3))`)
	require.NoError(t, err)

	dec, err := Decimal("12345.67")
	require.NoError(t, err)
	ts := time.Date(2024, time.March, 1, 12, 30, 45, 120_000_000, time.Local)

	s, err := c.Prepare("insert into #types values (?, ?, ?, ?, ?, ?, ?)")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Bind(
		Bool(true), Int64(-5), Float64(2.5), dec,
		String("héllo"), Bytes([]byte{0, 1, 2}), Timestamp(ts)))
	_, err = s.Exec(ctx)
	require.NoError(t, err)

	// a second execution without a fresh Bind must be refused
	_, err = s.Exec(ctx)
	require.Error(t, err)

	cur, err := c.Query(ctx, "select b, i, f, d, s, raw, ts from #types")
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())

	b, ok := cur.Value(0).Bool()
	require.True(t, ok)
	require.True(t, b)
	i, ok := cur.Value(1).Int64()
	require.True(t, ok)
	require.Equal(t, int64(-5), i)
	f, ok := cur.Value(2).Float64()
	require.True(t, ok)
	require.Equal(t, 2.5, f)
	ds, ok := cur.Value(3).Str()
	require.True(t, ok)
	require.Equal(t, "12345.67", ds)
	str, ok := cur.Value(4).Str()
	require.True(t, ok)
	require.Equal(t, "héllo", str)
	raw, ok := cur.Value(5).Bytes()
	require.True(t, ok)
	require.Equal(t, []byte{0, 1, 2}, raw)
	got, ok := cur.Value(6).Time()
	require.True(t, ok)
	require.True(t, got.Equal(ts), "got %v, want %v", got, ts)
}

func TestLiveNullRoundTrip(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, "create table #nulls (i int, s nvarchar(10))")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "insert into #nulls values (?, ?)",
		Null(TypeInt64), Null(TypeString))
	require.NoError(t, err)

	cur, err := c.Query(ctx, "select i, s from #nulls")
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	require.True(t, cur.Value(0).IsNull())
	require.Equal(t, TypeInt64, cur.Value(0).Type())
	require.True(t, cur.Value(1).IsNull())
}

func TestLiveTransaction(t *testing.T) {
	c := liveConn(t)
	ctx := context.Background()

	_, err := c.Exec(ctx, "create table #tx (id int)")
	require.NoError(t, err)

	tx, err := c.BeginTx(ctx, TxOptions{})
	require.NoError(t, err)
	_, err = c.Exec(ctx, "insert into #tx values (1)")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	cur, err := c.Query(ctx, "select count(*) from #tx")
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Next())
	n, _ := cur.Value(0).Int64()
	require.Equal(t, int64(0), n)
}

func TestLiveCancelLongQuery(t *testing.T) {
	c := liveConn(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := c.Exec(ctx, "waitfor delay '00:00:10'")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestLivePool(t *testing.T) {
	if *liveDSN == "" {
		t.Skip("no -dsn provided, skipping live database test")
	}
	e, err := DefaultEnvironment()
	require.NoError(t, err)
	p, err := NewPool(e, &Config{DSN: *liveDSN, PoolSize: 2})
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 4; i++ {
		pc, err := p.Acquire(context.Background())
		require.NoError(t, err)
		cur, err := pc.Conn().Query(context.Background(), fmt.Sprintf("select %d", i))
		require.NoError(t, err)
		require.True(t, cur.Next())
		require.NoError(t, cur.Close())
		pc.Release()
	}
	require.Equal(t, 1, p.Idle())
}
