package arrowodbc

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nobie-org/arrow-odbc/odbc"
	"github.com/nobie-org/arrow-odbc/odbc/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCursor struct {
	cols []odbc.ColumnInfo
	rows [][]odbc.Value
	pos  int
	err  error
}

func (c *fakeCursor) Columns() []odbc.ColumnInfo { return c.cols }

func (c *fakeCursor) Next() bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Value(i int) odbc.Value { return c.rows[c.pos-1][i] }

func (c *fakeCursor) Err() error {
	if c.pos >= len(c.rows) {
		return c.err
	}
	return nil
}

func col(name string, sqltype int16, size int64, decimal int16, nullable bool) odbc.ColumnInfo {
	return odbc.ColumnInfo{
		Name: name, SQLType: sqltype, Size: size, Decimal: decimal, Nullable: nullable,
	}
}

func TestSchemaInference(t *testing.T) {
	cols := []odbc.ColumnInfo{
		col("flag", int16(api.SQL_BIT), 1, 0, true),
		col("tiny", int16(api.SQL_TINYINT), 3, 0, false),
		col("small", int16(api.SQL_SMALLINT), 5, 0, false),
		col("id", int16(api.SQL_INTEGER), 10, 0, false),
		col("big", int16(api.SQL_BIGINT), 19, 0, false),
		col("r", int16(api.SQL_REAL), 7, 0, true),
		col("d", int16(api.SQL_DOUBLE), 15, 0, true),
		col("born", int16(api.SQL_TYPE_DATE), 10, 0, true),
		col("at_ms", int16(api.SQL_TYPE_TIMESTAMP), 23, 3, true),
		col("at_s", int16(api.SQL_TYPE_TIMESTAMP), 19, 0, true),
		col("amount", int16(api.SQL_DECIMAL), 10, 2, true),
		col("huge", int16(api.SQL_NUMERIC), 40, 2, true),
		col("name", int16(api.SQL_WVARCHAR), 50, 0, true),
		col("hash", int16(api.SQL_BINARY), 16, 0, false),
		col("blob", int16(api.SQL_VARBINARY), 0, 0, true),
	}
	schema := SchemaFromColumns(cols)

	want := []arrow.DataType{
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8,
		arrow.PrimitiveTypes.Int16,
		arrow.PrimitiveTypes.Int32,
		arrow.PrimitiveTypes.Int64,
		arrow.PrimitiveTypes.Float32,
		arrow.PrimitiveTypes.Float64,
		arrow.FixedWidthTypes.Date32,
		&arrow.TimestampType{Unit: arrow.Millisecond},
		&arrow.TimestampType{Unit: arrow.Second},
		&arrow.Decimal128Type{Precision: 10, Scale: 2},
		arrow.BinaryTypes.String, // precision beyond Decimal128 stays text
		arrow.BinaryTypes.String,
		&arrow.FixedSizeBinaryType{ByteWidth: 16},
		arrow.BinaryTypes.Binary,
	}
	require.Equal(t, len(want), schema.NumFields())
	for i, dt := range want {
		f := schema.Field(i)
		require.True(t, arrow.TypeEqual(dt, f.Type), "field %q: got %s, want %s", f.Name, f.Type, dt)
		require.Equal(t, cols[i].Nullable, f.Nullable, "field %q nullable", f.Name)
	}
}

func newTestCursor() *fakeCursor {
	return &fakeCursor{
		cols: []odbc.ColumnInfo{
			col("id", int16(api.SQL_INTEGER), 10, 0, false),
			col("name", int16(api.SQL_WVARCHAR), 50, 0, true),
			col("score", int16(api.SQL_DOUBLE), 15, 0, true),
		},
		rows: [][]odbc.Value{
			{odbc.Int64(1), odbc.String("ada"), odbc.Float64(9.5)},
			{odbc.Int64(2), odbc.Null(odbc.TypeString), odbc.Float64(7.25)},
			{odbc.Int64(3), odbc.String("grace"), odbc.Null(odbc.TypeFloat64)},
			{odbc.Int64(4), odbc.String("linus"), odbc.Float64(0)},
			{odbc.Int64(5), odbc.String("ken"), odbc.Float64(-1)},
		},
	}
}

func TestReaderBatches(t *testing.T) {
	r, err := NewReader(newTestCursor(), WithMaxBatchSize(2))
	require.NoError(t, err)
	defer r.Release()

	var lens []int
	var ids []int32
	var names []string
	var nameNulls int
	for r.Next() {
		rec := r.Record()
		lens = append(lens, int(rec.NumRows()))
		idCol := rec.Column(0).(*array.Int32)
		nameCol := rec.Column(1).(*array.String)
		for i := 0; i < int(rec.NumRows()); i++ {
			ids = append(ids, idCol.Value(i))
			if nameCol.IsNull(i) {
				nameNulls++
			} else {
				names = append(names, nameCol.Value(i))
			}
		}
	}
	require.NoError(t, r.Err())
	require.Equal(t, []int{2, 2, 1}, lens)
	require.Equal(t, []int32{1, 2, 3, 4, 5}, ids)
	require.Equal(t, []string{"ada", "grace", "linus", "ken"}, names)
	require.Equal(t, 1, nameNulls)
}

func TestReaderDecimalAndTemporal(t *testing.T) {
	born := time.Date(1815, time.December, 10, 0, 0, 0, 0, time.Local)
	at := time.Date(2024, time.March, 1, 12, 30, 45, 120*int(time.Millisecond), time.UTC)
	amount, err := odbc.Decimal("123.45")
	require.NoError(t, err)

	cur := &fakeCursor{
		cols: []odbc.ColumnInfo{
			col("born", int16(api.SQL_TYPE_DATE), 10, 0, true),
			col("at", int16(api.SQL_TYPE_TIMESTAMP), 23, 3, true),
			col("amount", int16(api.SQL_DECIMAL), 10, 2, true),
		},
		rows: [][]odbc.Value{
			{odbc.Date(born), odbc.Timestamp(at), amount},
			{odbc.Null(odbc.TypeDate), odbc.Null(odbc.TypeTimestamp), odbc.Null(odbc.TypeDecimal)},
		},
	}
	r, err := NewReader(cur)
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	rec := r.Record()
	require.Equal(t, int64(2), rec.NumRows())

	dates := rec.Column(0).(*array.Date32)
	require.Equal(t, arrow.Date32FromTime(born), dates.Value(0))
	require.True(t, dates.IsNull(1))

	stamps := rec.Column(1).(*array.Timestamp)
	wantTS, err := arrow.TimestampFromTime(at, arrow.Millisecond)
	require.NoError(t, err)
	require.Equal(t, wantTS, stamps.Value(0))
	require.True(t, stamps.IsNull(1))

	decs := rec.Column(2).(*array.Decimal128)
	wantDec, err := decimal128.FromString("123.45", 10, 2)
	require.NoError(t, err)
	require.Equal(t, wantDec, decs.Value(0))
	require.True(t, decs.IsNull(1))

	require.False(t, r.Next())
	require.NoError(t, r.Err())
}

func TestReaderExplicitSchema(t *testing.T) {
	// read integer ids into Int64 instead of the inferred Int32
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	r, err := NewReader(newTestCursor(), WithArrowSchema(schema))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	rec := r.Record()
	require.Equal(t, int64(1), rec.Column(0).(*array.Int64).Value(0))
}

func TestReaderSchemaFieldCountMismatch(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	_, err := NewReader(newTestCursor(), WithArrowSchema(schema))
	require.Error(t, err)
}

func TestReaderUnsupportedArrowType(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	_, err := NewReader(newTestCursor(), WithArrowSchema(schema))
	require.ErrorIs(t, err, ErrUnsupportedArrowType)
}

func TestReaderMaxTextSize(t *testing.T) {
	cur := &fakeCursor{
		cols: []odbc.ColumnInfo{col("name", int16(api.SQL_WVARCHAR), 0, 0, true)},
		rows: [][]odbc.Value{{odbc.String("abcdefgh")}},
	}
	r, err := NewReader(cur, WithMaxTextSize(3))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, r.Next())
	require.Equal(t, "abc", r.Record().Column(0).(*array.String).Value(0))
}

func TestReaderBadBatchSize(t *testing.T) {
	_, err := NewReader(newTestCursor(), WithMaxBatchSize(0))
	require.Error(t, err)
}

func TestReaderEmptyResultSet(t *testing.T) {
	cur := newTestCursor()
	cur.rows = nil
	r, err := NewReader(cur)
	require.NoError(t, err)
	defer r.Release()

	require.False(t, r.Next())
	require.NoError(t, r.Err())
}
