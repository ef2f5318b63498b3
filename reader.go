// Package arrowodbc reads ODBC result sets into Apache Arrow record
// batches. The schema is inferred from the cursor's column metadata, or
// supplied explicitly, and rows are accumulated into batches of at most
// MaxBatchSize rows.
package arrowodbc

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/atomic"

	"github.com/nobie-org/arrow-odbc/odbc"
	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// ErrUnsupportedArrowType is returned when a requested schema contains
// a field type the reader cannot fill from an ODBC cursor.
var ErrUnsupportedArrowType = errors.New("unsupported arrow type")

// DefaultMaxBatchSize bounds record batch length unless overridden.
const DefaultMaxBatchSize = 1024

// Cursor is the part of odbc.Cursor the reader consumes.
type Cursor interface {
	Next() bool
	Err() error
	Value(i int) odbc.Value
	Columns() []odbc.ColumnInfo
}

type Option func(*options)

type options struct {
	maxBatchSize int
	maxTextSize  int
	schema       *arrow.Schema
	mem          memory.Allocator
}

// WithMaxBatchSize caps how many rows one record batch holds.
func WithMaxBatchSize(n int) Option {
	return func(o *options) { o.maxBatchSize = n }
}

// WithMaxTextSize truncates textual values longer than n bytes instead
// of growing batches without bound.
func WithMaxTextSize(n int) Option {
	return func(o *options) { o.maxTextSize = n }
}

// WithArrowSchema skips inference and reads into the given schema. The
// field count must match the cursor's column count.
func WithArrowSchema(schema *arrow.Schema) Option {
	return func(o *options) { o.schema = schema }
}

// WithAllocator sets the allocator backing the record builders.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// SchemaFromColumns infers the Arrow schema for a result set:
//
//	BIT                    Boolean
//	TINYINT                Int8
//	SMALLINT               Int16
//	INTEGER                Int32
//	BIGINT                 Int64
//	REAL                   Float32
//	FLOAT, DOUBLE          Float64
//	DATE                   Date32
//	TIMESTAMP              Timestamp, unit from fractional digits
//	DECIMAL, NUMERIC p<=38 Decimal128(p, s)
//	BINARY                 FixedSizeBinary
//	VARBINARY              Binary
//	unknown driver types   Binary
//	everything textual     Utf8
//
// Decimals wider than 38 digits stay textual.
func SchemaFromColumns(cols []odbc.ColumnInfo) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     arrowType(c),
			Nullable: c.Nullable,
		}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(c odbc.ColumnInfo) arrow.DataType {
	switch c.SQLType {
	case api.SQL_BIT:
		return arrow.FixedWidthTypes.Boolean
	case api.SQL_TINYINT:
		return arrow.PrimitiveTypes.Int8
	case api.SQL_SMALLINT:
		return arrow.PrimitiveTypes.Int16
	case api.SQL_INTEGER:
		return arrow.PrimitiveTypes.Int32
	case api.SQL_BIGINT:
		return arrow.PrimitiveTypes.Int64
	case api.SQL_REAL:
		return arrow.PrimitiveTypes.Float32
	case api.SQL_FLOAT, api.SQL_DOUBLE:
		return arrow.PrimitiveTypes.Float64
	case api.SQL_TYPE_DATE:
		return arrow.FixedWidthTypes.Date32
	case api.SQL_TYPE_TIMESTAMP, api.SQL_TIMESTAMP:
		return &arrow.TimestampType{Unit: timestampUnit(c.Decimal)}
	case api.SQL_NUMERIC, api.SQL_DECIMAL:
		if c.Size > 0 && c.Size <= 38 {
			return &arrow.Decimal128Type{
				Precision: int32(c.Size),
				Scale:     int32(c.Decimal),
			}
		}
		return arrow.BinaryTypes.String
	case api.SQL_BINARY:
		if c.Size > 0 {
			return &arrow.FixedSizeBinaryType{ByteWidth: int(c.Size)}
		}
		return arrow.BinaryTypes.Binary
	case api.SQL_VARBINARY, api.SQL_LONGVARBINARY:
		return arrow.BinaryTypes.Binary
	}
	if c.Type == odbc.TypeRaw {
		return arrow.BinaryTypes.Binary
	}
	return arrow.BinaryTypes.String
}

// timestampUnit picks the coarsest Arrow unit that still holds every
// fractional digit the column carries.
func timestampUnit(decimalDigits int16) arrow.TimeUnit {
	switch {
	case decimalDigits <= 0:
		return arrow.Second
	case decimalDigits <= 3:
		return arrow.Millisecond
	case decimalDigits <= 6:
		return arrow.Microsecond
	default:
		return arrow.Nanosecond
	}
}

type appendFunc func(b array.Builder, v odbc.Value) error

// Reader drains a cursor into Arrow records. It satisfies the
// array.RecordReader contract: Next advances to the next batch, Record
// is valid until the following Next or Release.
type Reader struct {
	cur       Cursor
	schema    *arrow.Schema
	bldr      *array.RecordBuilder
	appenders []appendFunc

	maxRows int
	rec     arrow.Record
	err     error
	refs    atomic.Int64
}

// NewReader builds a reader over cur. The cursor must be positioned
// before its first row; the reader takes over iteration but not
// ownership, closing the cursor stays with the caller.
func NewReader(cur Cursor, opts ...Option) (*Reader, error) {
	o := options{
		maxBatchSize: DefaultMaxBatchSize,
		mem:          memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxBatchSize < 1 {
		return nil, fmt.Errorf("max batch size %d is not positive", o.maxBatchSize)
	}
	cols := cur.Columns()
	schema := o.schema
	if schema == nil {
		schema = SchemaFromColumns(cols)
	} else if schema.NumFields() != len(cols) {
		return nil, fmt.Errorf("schema has %d fields, result set has %d columns",
			schema.NumFields(), len(cols))
	}
	appenders := make([]appendFunc, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		a, err := newAppender(schema.Field(i).Type, o.maxTextSize)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", schema.Field(i).Name, err)
		}
		appenders[i] = a
	}
	r := &Reader{
		cur:       cur,
		schema:    schema,
		bldr:      array.NewRecordBuilder(o.mem, schema),
		appenders: appenders,
		maxRows:   o.maxBatchSize,
	}
	r.refs.Store(1)
	return r, nil
}

func (r *Reader) Schema() *arrow.Schema { return r.schema }

// Next reads up to MaxBatchSize rows into the next record. It returns
// false once the cursor is drained or an error occurred.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	rows := 0
	for rows < r.maxRows && r.cur.Next() {
		for i, app := range r.appenders {
			if err := app(r.bldr.Field(i), r.cur.Value(i)); err != nil {
				r.err = fmt.Errorf("column %q: %w", r.schema.Field(i).Name, err)
				return false
			}
		}
		rows++
	}
	if err := r.cur.Err(); err != nil {
		r.err = err
		return false
	}
	if rows == 0 {
		return false
	}
	r.rec = r.bldr.NewRecord()
	return true
}

// Record returns the current batch. It is released by the next call to
// Next or Release; Retain it to keep it longer.
func (r *Reader) Record() arrow.Record { return r.rec }

func (r *Reader) Err() error { return r.err }

func (r *Reader) Retain() { r.refs.Inc() }

func (r *Reader) Release() {
	if r.refs.Dec() != 0 {
		return
	}
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	r.bldr.Release()
}

func newAppender(dt arrow.DataType, maxTextSize int) (appendFunc, error) {
	switch dt := dt.(type) {
	case *arrow.BooleanType:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			val, ok := v.Bool()
			if !ok {
				return conversionErr(v, dt)
			}
			b.(*array.BooleanBuilder).Append(val)
			return nil
		}, nil
	case *arrow.Int8Type:
		return intAppender(dt, func(b array.Builder, i int64) {
			b.(*array.Int8Builder).Append(int8(i))
		}), nil
	case *arrow.Int16Type:
		return intAppender(dt, func(b array.Builder, i int64) {
			b.(*array.Int16Builder).Append(int16(i))
		}), nil
	case *arrow.Int32Type:
		return intAppender(dt, func(b array.Builder, i int64) {
			b.(*array.Int32Builder).Append(int32(i))
		}), nil
	case *arrow.Int64Type:
		return intAppender(dt, func(b array.Builder, i int64) {
			b.(*array.Int64Builder).Append(i)
		}), nil
	case *arrow.Float32Type:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			f, ok := v.Float64()
			if !ok {
				return conversionErr(v, dt)
			}
			b.(*array.Float32Builder).Append(float32(f))
			return nil
		}, nil
	case *arrow.Float64Type:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			f, ok := v.Float64()
			if !ok {
				return conversionErr(v, dt)
			}
			b.(*array.Float64Builder).Append(f)
			return nil
		}, nil
	case *arrow.Date32Type:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			t, ok := v.Time()
			if !ok {
				return conversionErr(v, dt)
			}
			b.(*array.Date32Builder).Append(arrow.Date32FromTime(t))
			return nil
		}, nil
	case *arrow.TimestampType:
		unit := dt.Unit
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			t, ok := v.Time()
			if !ok {
				return conversionErr(v, dt)
			}
			ts, err := arrow.TimestampFromTime(t, unit)
			if err != nil {
				return err
			}
			b.(*array.TimestampBuilder).Append(ts)
			return nil
		}, nil
	case *arrow.Decimal128Type:
		prec, scale := dt.Precision, dt.Scale
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			s, ok := v.Str()
			if !ok {
				return conversionErr(v, dt)
			}
			n, err := decimal128.FromString(s, prec, scale)
			if err != nil {
				return err
			}
			b.(*array.Decimal128Builder).Append(n)
			return nil
		}, nil
	case *arrow.StringType:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			s, ok := textOf(v)
			if !ok {
				return conversionErr(v, dt)
			}
			if maxTextSize > 0 && len(s) > maxTextSize {
				s = s[:maxTextSize]
			}
			b.(*array.StringBuilder).Append(s)
			return nil
		}, nil
	case *arrow.BinaryType:
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			data, ok := bytesOf(v)
			if !ok {
				return conversionErr(v, dt)
			}
			b.(*array.BinaryBuilder).Append(data)
			return nil
		}, nil
	case *arrow.FixedSizeBinaryType:
		width := dt.ByteWidth
		return func(b array.Builder, v odbc.Value) error {
			if v.IsNull() {
				b.AppendNull()
				return nil
			}
			data, ok := bytesOf(v)
			if !ok {
				return conversionErr(v, dt)
			}
			if len(data) != width {
				return fmt.Errorf("fixed size binary: got %d bytes, want %d", len(data), width)
			}
			b.(*array.FixedSizeBinaryBuilder).Append(data)
			return nil
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedArrowType, dt)
}

func intAppender(dt arrow.DataType, add func(array.Builder, int64)) appendFunc {
	return func(b array.Builder, v odbc.Value) error {
		if v.IsNull() {
			b.AppendNull()
			return nil
		}
		i, ok := v.Int64()
		if !ok {
			if bv, isBool := v.Bool(); isBool {
				i, ok = 0, true
				if bv {
					i = 1
				}
			}
		}
		if !ok {
			return conversionErr(v, dt)
		}
		add(b, i)
		return nil
	}
}

// textOf renders any value as text the way its column would print it.
func textOf(v odbc.Value) (string, bool) {
	if s, ok := v.Str(); ok {
		return s, true
	}
	if t, ok := v.Time(); ok {
		switch v.Type() {
		case odbc.TypeDate:
			return t.Format("2006-01-02"), true
		case odbc.TypeTimestamp:
			return t.Format("2006-01-02 15:04:05.999999999"), true
		}
		return t.Format("15:04:05.999999999"), true
	}
	switch v.Type() {
	case odbc.TypeBool, odbc.TypeInt64, odbc.TypeFloat64:
		return v.String(), true
	}
	return "", false
}

func bytesOf(v odbc.Value) ([]byte, bool) {
	if data, ok := v.Bytes(); ok {
		return data, true
	}
	data, _, ok := v.RawBytes()
	return data, ok
}

func conversionErr(v odbc.Value, dt arrow.DataType) error {
	return fmt.Errorf("cannot append %s value to %s column", v.Type(), dt)
}
