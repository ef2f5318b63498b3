// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// The database/sql adapter. The explicit API (Environment, Conn, Stmt,
// Cursor) does the work; this layer only translates driver.Value
// traffic and lifetimes.

func init() {
	sql.Register("odbc", &sqlDriver{})
}

type sqlDriver struct{}

func (d *sqlDriver) Open(dsn string) (driver.Conn, error) {
	return d.open(context.Background(), dsn)
}

func (d *sqlDriver) open(ctx context.Context, dsn string) (driver.Conn, error) {
	e, err := DefaultEnvironment()
	if err != nil {
		return nil, err
	}
	c, err := e.Connect(ctx, &Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	return &drvConn{c: c}, nil
}

// OpenConnector implements driver.DriverContext.
func (d *sqlDriver) OpenConnector(dsn string) (driver.Connector, error) {
	return &connector{d: d, dsn: dsn}, nil
}

type connector struct {
	d   *sqlDriver
	dsn string
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	return c.d.open(ctx, c.dsn)
}

func (c *connector) Driver() driver.Driver {
	return c.d
}

type drvConn struct {
	c *Conn
}

func (c *drvConn) Prepare(query string) (driver.Stmt, error) {
	s, err := c.c.Prepare(query)
	if err != nil {
		return nil, c.maybeBad(err)
	}
	return &drvStmt{c: c, query: query, s: s}, nil
}

func (c *drvConn) Close() error {
	return c.c.Close()
}

func (c *drvConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

var sqlIsolation = map[sql.IsolationLevel]IsolationLevel{
	sql.LevelDefault:         LevelDefault,
	sql.LevelReadUncommitted: LevelReadUncommitted,
	sql.LevelReadCommitted:   LevelReadCommitted,
	sql.LevelRepeatableRead:  LevelRepeatableRead,
	sql.LevelSerializable:    LevelSerializable,
}

// BeginTx implements driver.ConnBeginTx.
func (c *drvConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	level, ok := sqlIsolation[sql.IsolationLevel(opts.Isolation)]
	if !ok {
		return nil, fmt.Errorf("unsupported isolation level %d", opts.Isolation)
	}
	tx, err := c.c.BeginTx(ctx, TxOptions{Isolation: level, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, c.maybeBad(err)
	}
	return tx, nil
}

// Ping implements driver.Pinger.
func (c *drvConn) Ping(ctx context.Context) error {
	if !c.c.Alive() {
		return driver.ErrBadConn
	}
	return nil
}

// ResetSession implements driver.SessionResetter.
func (c *drvConn) ResetSession(ctx context.Context) error {
	if c.c.closed.Load() || c.c.bad.Load() {
		return driver.ErrBadConn
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *drvConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	vals, err := namedToValues(args)
	if err != nil {
		return nil, err
	}
	r, err := c.c.Exec(ctx, query, vals...)
	if err != nil {
		return nil, c.maybeBad(err)
	}
	return &drvResult{r: r}, nil
}

// QueryContext implements driver.QueryerContext.
func (c *drvConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	vals, err := namedToValues(args)
	if err != nil {
		return nil, err
	}
	cur, err := c.c.Query(ctx, query, vals...)
	if err != nil {
		return nil, c.maybeBad(err)
	}
	return &drvRows{cur: cur}, nil
}

// maybeBad folds connection-class failures into driver.ErrBadConn so
// database/sql retires the connection.
func (c *drvConn) maybeBad(err error) error {
	if c.c.bad.Load() {
		return driver.ErrBadConn
	}
	return err
}

type drvStmt struct {
	c     *drvConn
	query string
	s     *Stmt
}

func (s *drvStmt) NumInput() int {
	return s.s.NumParams()
}

func (s *drvStmt) Close() error {
	return s.s.Close()
}

// stmtFor returns the statement to execute on. database/sql may run a
// prepared statement again while rows from the previous run are still
// open; ODBC forbids that on one handle, so a throwaway re-prepare is
// used for the overlapping run.
func (s *drvStmt) stmtFor(run func(*Stmt) error) error {
	s.s.mu.Lock()
	busy := s.s.cursor != nil
	s.s.mu.Unlock()
	if !busy {
		return run(s.s)
	}
	fresh, err := s.c.c.Prepare(s.query)
	if err != nil {
		return err
	}
	fresh.closeOnCursorClose = true
	if err := run(fresh); err != nil {
		fresh.Close()
		return err
	}
	return nil
}

func (s *drvStmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), driverToNamed(args))
}

func (s *drvStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), driverToNamed(args))
}

// ExecContext implements driver.StmtExecContext.
func (s *drvStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	vals, err := namedToValues(args)
	if err != nil {
		return nil, err
	}
	var res *Result
	err = s.stmtFor(func(st *Stmt) error {
		if err := st.Bind(vals...); err != nil {
			return err
		}
		r, err := st.Exec(ctx)
		if err != nil {
			return err
		}
		res = r
		if st != s.s {
			st.Close()
		}
		return nil
	})
	if err != nil {
		return nil, s.c.maybeBad(err)
	}
	return &drvResult{r: res}, nil
}

// QueryContext implements driver.StmtQueryContext.
func (s *drvStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	vals, err := namedToValues(args)
	if err != nil {
		return nil, err
	}
	var rows *drvRows
	err = s.stmtFor(func(st *Stmt) error {
		if err := st.Bind(vals...); err != nil {
			return err
		}
		cur, err := st.Query(ctx)
		if err != nil {
			return err
		}
		rows = &drvRows{cur: cur}
		return nil
	})
	if err != nil {
		return nil, s.c.maybeBad(err)
	}
	return rows, nil
}

type drvResult struct {
	r *Result
}

func (r *drvResult) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported")
}

func (r *drvResult) RowsAffected() (int64, error) {
	return r.r.RowsAffected(), nil
}

type drvRows struct {
	cur *Cursor
}

func (r *drvRows) Columns() []string {
	infos := r.cur.Columns()
	names := make([]string, len(infos))
	for i := range infos {
		names[i] = infos[i].Name
	}
	return names
}

func (r *drvRows) Next(dest []driver.Value) error {
	if !r.cur.Next() {
		if err := r.cur.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	for i := range dest {
		dest[i] = toDriverValue(r.cur.Value(i))
	}
	return nil
}

func (r *drvRows) Close() error {
	return r.cur.Close()
}

// ColumnTypeDatabaseTypeName implements driver.RowsColumnTypeDatabaseTypeName.
func (r *drvRows) ColumnTypeDatabaseTypeName(index int) string {
	info := r.cur.Columns()[index]
	return sqlTypeString(api.SQLSMALLINT(info.SQLType))
}

// ColumnTypeNullable implements driver.RowsColumnTypeNullable.
func (r *drvRows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return r.cur.Columns()[index].Nullable, true
}

func namedToValues(args []driver.NamedValue) ([]Value, error) {
	vals := make([]Value, len(args))
	for _, a := range args {
		if a.Name != "" {
			return nil, errors.New("named parameters are not supported")
		}
		v, err := fromDriverValue(a.Value)
		if err != nil {
			return nil, err
		}
		vals[a.Ordinal-1] = v
	}
	return vals, nil
}

func driverToNamed(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, a := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: a}
	}
	return named
}

func fromDriverValue(v driver.Value) (Value, error) {
	switch d := v.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Bool(d), nil
	case int64:
		return Int64(d), nil
	case float64:
		return Float64(d), nil
	case string:
		return String(d), nil
	case []byte:
		return Bytes(d), nil
	case time.Time:
		return Timestamp(d), nil
	}
	return Value{}, fmt.Errorf("unsupported argument type %T", v)
}

func toDriverValue(v Value) driver.Value {
	if v.IsNull() {
		return nil
	}
	switch v.Type() {
	case TypeBool:
		b, _ := v.Bool()
		return b
	case TypeInt64:
		i, _ := v.Int64()
		return i
	case TypeFloat64:
		f, _ := v.Float64()
		return f
	case TypeDecimal, TypeString:
		s, _ := v.Str()
		return s
	case TypeBytes:
		b, _ := v.Bytes()
		return b
	case TypeDate, TypeTime, TypeTimestamp:
		t, _ := v.Time()
		return t
	case TypeRaw:
		b, _, _ := v.RawBytes()
		return b
	}
	return nil
}
