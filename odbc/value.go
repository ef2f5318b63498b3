package odbc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

// Type tags a Value with the SQL type family it carries.
type Type int

const (
	TypeBool Type = iota + 1
	TypeInt64
	TypeFloat64
	TypeDecimal
	TypeString
	TypeBytes
	TypeDate
	TypeTime
	TypeTimestamp
	TypeRaw
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeDecimal:
		return "decimal"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeTimestamp:
		return "timestamp"
	case TypeRaw:
		return "raw"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Value is a closed union over the supported SQL types. The zero Value
// is an untyped NULL. Nullability is carried next to the type tag, so a
// NULL integer column still reports TypeInt64.
//
// Decimals keep their exact textual form instead of being collapsed to
// a float. Values of types the driver reports but this package does not
// understand surface as TypeRaw with the undecoded bytes.
type Value struct {
	typ  Type
	null bool

	b   bool
	i   int64
	f   float64
	s   string
	buf []byte
	t   time.Time

	sqlType api.SQLSMALLINT // TypeRaw only
}

func Bool(v bool) Value      { return Value{typ: TypeBool, b: v} }
func Int64(v int64) Value    { return Value{typ: TypeInt64, i: v} }
func Float64(v float64) Value { return Value{typ: TypeFloat64, f: v} }
func String(v string) Value  { return Value{typ: TypeString, s: v} }
func Bytes(v []byte) Value   { return Value{typ: TypeBytes, buf: v} }

// Decimal wraps the exact decimal literal v, e.g. "12345.6789".
func Decimal(v string) (Value, error) {
	if !validDecimal(v) {
		return Value{}, newKindError(ConversionError, "malformed decimal literal %q", v)
	}
	return Value{typ: TypeDecimal, s: v}, nil
}

func Date(v time.Time) Value      { return Value{typ: TypeDate, t: v} }
func Time(v time.Time) Value      { return Value{typ: TypeTime, t: v} }
func Timestamp(v time.Time) Value { return Value{typ: TypeTimestamp, t: v} }

// Null returns the NULL value of type t.
func Null(t Type) Value { return Value{typ: t, null: true} }

// Raw wraps bytes of a SQL type this package has no decoding for.
func Raw(sqlType int16, data []byte) Value {
	return Value{typ: TypeRaw, sqlType: api.SQLSMALLINT(sqlType), buf: data}
}

func (v Value) Type() Type   { return v.typ }
func (v Value) IsNull() bool { return v.null || v.typ == 0 }

func (v Value) Bool() (val, ok bool)        { return v.b, v.typ == TypeBool && !v.null }
func (v Value) Int64() (int64, bool)        { return v.i, v.typ == TypeInt64 && !v.null }
func (v Value) Float64() (float64, bool)    { return v.f, v.typ == TypeFloat64 && !v.null }
func (v Value) Bytes() ([]byte, bool)       { return v.buf, v.typ == TypeBytes && !v.null }
func (v Value) Time() (time.Time, bool) {
	ok := (v.typ == TypeDate || v.typ == TypeTime || v.typ == TypeTimestamp) && !v.null
	return v.t, ok
}

// Str returns the textual payload of string and decimal values.
func (v Value) Str() (string, bool) {
	ok := (v.typ == TypeString || v.typ == TypeDecimal) && !v.null
	return v.s, ok
}

// RawBytes returns the undecoded payload and driver SQL type of a raw
// value.
func (v Value) RawBytes() (data []byte, sqlType int16, ok bool) {
	return v.buf, int16(v.sqlType), v.typ == TypeRaw && !v.null
}

func (v Value) String() string {
	if v.IsNull() {
		return fmt.Sprintf("NULL(%s)", v.typ)
	}
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt64:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeDecimal, TypeString:
		return v.s
	case TypeBytes:
		return fmt.Sprintf("%x", v.buf)
	case TypeDate:
		return v.t.Format("2006-01-02")
	case TypeTime:
		return v.t.Format("15:04:05")
	case TypeTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case TypeRaw:
		return fmt.Sprintf("raw(%d):%x", v.sqlType, v.buf)
	}
	return "invalid"
}

func validDecimal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
