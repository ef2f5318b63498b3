// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

type BufferLen api.SQLLEN

func (l *BufferLen) IsNull() bool {
	return *l == api.SQL_NULL_DATA
}

func (l *BufferLen) GetData(h api.SQLHSTMT, idx int, ctype api.SQLSMALLINT, buf []byte) api.SQLRETURN {
	return api.SQLGetData(h, api.SQLUSMALLINT(idx+1), ctype,
		api.SQLPOINTER(unsafe.Pointer(&buf[0])), api.SQLLEN(len(buf)),
		(*api.SQLLEN)(l))
}

func (l *BufferLen) Bind(h api.SQLHSTMT, idx int, ctype api.SQLSMALLINT, buf []byte) api.SQLRETURN {
	return api.SQLBindCol(h, api.SQLUSMALLINT(idx+1), ctype,
		api.SQLPOINTER(unsafe.Pointer(&buf[0])), api.SQLLEN(len(buf)),
		(*api.SQLLEN)(l))
}

// ColumnInfo is the driver-reported shape of one result column.
type ColumnInfo struct {
	Name     string
	SQLType  int16 // driver type code as reported by SQLDescribeCol
	Type     Type  // type family values of this column decode to
	Size     int64 // column size: precision for decimals, length for strings
	Decimal  int16 // decimal digits (scale)
	Nullable bool
}

// Column provides access to row columns.
type Column interface {
	Name() string
	Info() ColumnInfo
	Bind(h api.SQLHSTMT, idx int) (bool, error)
	Value(h api.SQLHSTMT, idx int) (Value, error)
}

func describeColumn(h api.SQLHSTMT, idx int, namebuf []uint16) (namelen int, sqltype api.SQLSMALLINT, size api.SQLULEN, decimal, nullable api.SQLSMALLINT, ret api.SQLRETURN) {
	var l api.SQLSMALLINT
	ret = api.SQLDescribeCol(h, api.SQLUSMALLINT(idx+1),
		(*api.SQLWCHAR)(unsafe.Pointer(&namebuf[0])),
		api.SQLSMALLINT(len(namebuf)), &l,
		&sqltype, &size, &decimal, &nullable)
	return int(l), sqltype, size, decimal, nullable, ret
}

func NewColumn(h api.SQLHSTMT, idx int) (Column, error) {
	namebuf := make([]uint16, 150)
	namelen, sqltype, size, decimal, nullable, ret := describeColumn(h, idx, namebuf)
	if ret == api.SQL_SUCCESS_WITH_INFO && namelen > len(namebuf) {
		// try again with bigger buffer
		namebuf = make([]uint16, namelen)
		namelen, sqltype, size, decimal, nullable, ret = describeColumn(h, idx, namebuf)
	}
	if IsError(ret) {
		return nil, NewError(ExecutionError, "SQLDescribeCol", h)
	}
	if namelen > len(namebuf) {
		// still complaining about buffer size
		return nil, errors.New("failed to allocate column name buffer")
	}
	b := &BaseColumn{
		info: ColumnInfo{
			Name:     api.UTF16ToString(namebuf[:namelen]),
			SQLType:  int16(sqltype),
			Size:     int64(size),
			Decimal:  int16(decimal),
			Nullable: nullable != api.SQL_NO_NULLS,
		},
	}
	switch sqltype {
	case api.SQL_BIT:
		return NewBindableColumn(b, api.SQL_C_BIT, TypeBool, 1), nil
	case api.SQL_TINYINT, api.SQL_SMALLINT, api.SQL_INTEGER:
		return NewBindableColumn(b, api.SQL_C_LONG, TypeInt64, 4), nil
	case api.SQL_BIGINT:
		return NewBindableColumn(b, api.SQL_C_SBIGINT, TypeInt64, 8), nil
	case api.SQL_FLOAT, api.SQL_REAL, api.SQL_DOUBLE:
		return NewBindableColumn(b, api.SQL_C_DOUBLE, TypeFloat64, 8), nil
	case api.SQL_NUMERIC, api.SQL_DECIMAL:
		// fetched as text so no precision is lost; room for sign,
		// decimal point and null-terminator on top of the digits
		return NewVariableWidthColumn(b, api.SQL_C_CHAR, TypeDecimal, size+3)
	case api.SQL_TYPE_TIMESTAMP, api.SQL_TIMESTAMP:
		var v api.SQL_TIMESTAMP_STRUCT
		return NewBindableColumn(b, api.SQL_C_TYPE_TIMESTAMP, TypeTimestamp, int(unsafe.Sizeof(v))), nil
	case api.SQL_TYPE_DATE:
		var v api.SQL_DATE_STRUCT
		return NewBindableColumn(b, api.SQL_C_DATE, TypeDate, int(unsafe.Sizeof(v))), nil
	case api.SQL_TYPE_TIME:
		var v api.SQL_TIME_STRUCT
		return NewBindableColumn(b, api.SQL_C_TIME, TypeTime, int(unsafe.Sizeof(v))), nil
	case api.SQL_SS_TIME2:
		var v api.SQL_SS_TIME2_STRUCT
		return NewBindableColumn(b, api.SQL_C_BINARY, TypeTime, int(unsafe.Sizeof(v))), nil
	case api.SQL_GUID:
		var v api.SQLGUID
		return NewBindableColumn(b, api.SQL_C_GUID, TypeString, int(unsafe.Sizeof(v))), nil
	case api.SQL_CHAR, api.SQL_VARCHAR:
		return NewVariableWidthColumn(b, api.SQL_C_CHAR, TypeString, size)
	case api.SQL_WCHAR, api.SQL_WVARCHAR:
		return NewVariableWidthColumn(b, api.SQL_C_WCHAR, TypeString, size)
	case api.SQL_BINARY, api.SQL_VARBINARY:
		return NewVariableWidthColumn(b, api.SQL_C_BINARY, TypeBytes, size)
	case api.SQL_LONGVARCHAR:
		return NewVariableWidthColumn(b, api.SQL_C_CHAR, TypeString, 0)
	case api.SQL_WLONGVARCHAR, api.SQL_SS_XML:
		return NewVariableWidthColumn(b, api.SQL_C_WCHAR, TypeString, 0)
	case api.SQL_LONGVARBINARY:
		return NewVariableWidthColumn(b, api.SQL_C_BINARY, TypeBytes, 0)
	default:
		// unknown driver type: fetch the raw bytes instead of failing
		// the whole statement
		return NewVariableWidthColumn(b, api.SQL_C_BINARY, TypeRaw, 0)
	}
}

// BaseColumn implements common column functionality.
type BaseColumn struct {
	info  ColumnInfo
	CType api.SQLSMALLINT
}

func (c *BaseColumn) Name() string {
	return c.info.Name
}

func (c *BaseColumn) Info() ColumnInfo {
	return c.info
}

func (c *BaseColumn) Value(buf []byte) (Value, error) {
	var p unsafe.Pointer
	if len(buf) > 0 {
		p = unsafe.Pointer(&buf[0])
	}
	switch c.CType {
	case api.SQL_C_BIT:
		return Bool(buf[0] != 0), nil
	case api.SQL_C_LONG:
		return Int64(int64(*((*int32)(p)))), nil
	case api.SQL_C_SBIGINT:
		return Int64(*((*int64)(p))), nil
	case api.SQL_C_DOUBLE:
		return Float64(*((*float64)(p))), nil
	case api.SQL_C_CHAR:
		if c.info.Type == TypeDecimal {
			return Value{typ: TypeDecimal, s: strings.TrimSpace(string(buf))}, nil
		}
		return String(string(buf)), nil
	case api.SQL_C_WCHAR:
		if p == nil {
			return String(""), nil
		}
		s := (*[1 << 28]uint16)(p)[: len(buf)/2 : len(buf)/2]
		return String(string(api.UTF16ToUTF8(s))), nil
	case api.SQL_C_TYPE_TIMESTAMP:
		t := (*api.SQL_TIMESTAMP_STRUCT)(p)
		r := time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
			int(t.Hour), int(t.Minute), int(t.Second), int(t.Fraction),
			time.Local)
		return Timestamp(r), nil
	case api.SQL_C_GUID:
		t := (*api.SQLGUID)(p)
		var p1, p2 string
		for _, d := range t.Data4[:2] {
			p1 += fmt.Sprintf("%02x", d)
		}
		for _, d := range t.Data4[2:] {
			p2 += fmt.Sprintf("%02x", d)
		}
		r := fmt.Sprintf("%08x-%04x-%04x-%s-%s",
			t.Data1, t.Data2, t.Data3, p1, p2)
		return String(r), nil
	case api.SQL_C_DATE:
		t := (*api.SQL_DATE_STRUCT)(p)
		r := time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
			0, 0, 0, 0, time.Local)
		return Date(r), nil
	case api.SQL_C_TIME:
		t := (*api.SQL_TIME_STRUCT)(p)
		r := time.Date(1, time.January, 1,
			int(t.Hour), int(t.Minute), int(t.Second), 0, time.Local)
		return Time(r), nil
	case api.SQL_C_BINARY:
		if c.info.SQLType == int16(api.SQL_SS_TIME2) {
			t := (*api.SQL_SS_TIME2_STRUCT)(p)
			r := time.Date(1, time.January, 1,
				int(t.Hour), int(t.Minute), int(t.Second), int(t.Fraction),
				time.Local)
			return Time(r), nil
		}
		// buf may be the bound fetch buffer, rewritten on the next
		// SQLFetch; the returned Value outlives that
		data := make([]byte, len(buf))
		copy(data, buf)
		if c.info.Type == TypeRaw {
			return Raw(c.info.SQLType, data), nil
		}
		return Bytes(data), nil
	}
	return Value{}, &Error{
		Kind:    ConversionError,
		Message: fmt.Sprintf("unsupported column ctype %d", c.CType),
		Target:  c.info.Name,
	}
}

// BindableColumn allows access to columns that can have their buffers
// bound. Once bound at start, they are written to by odbc driver every
// time it fetches new row. This saves on syscall and, perhaps, some
// buffer copying. BindableColumn can be left unbound, then it behaves
// like NonBindableColumn when user reads data from it.
type BindableColumn struct {
	*BaseColumn
	IsBound         bool
	IsVariableWidth bool
	Size            int
	Len             BufferLen
	Buffer          []byte
}

func NewBindableColumn(b *BaseColumn, ctype api.SQLSMALLINT, t Type, bufSize int) *BindableColumn {
	b.CType = ctype
	b.info.Type = t
	c := &BindableColumn{BaseColumn: b, Size: bufSize}
	l := 8 // always use small starting buffer
	if c.Size > l {
		l = c.Size
	}
	c.Buffer = make([]byte, l)
	return c
}

func NewVariableWidthColumn(b *BaseColumn, ctype api.SQLSMALLINT, t Type, colWidth api.SQLULEN) (Column, error) {
	if colWidth == 0 || colWidth > 1024 {
		b.CType = ctype
		b.info.Type = t
		return &NonBindableColumn{b}, nil
	}
	l := int(colWidth)
	switch ctype {
	case api.SQL_C_WCHAR:
		l += 1 // room for null-termination character
		l *= 2 // wchars take 2 bytes each
	case api.SQL_C_CHAR:
		l += 1 // room for null-termination character
	case api.SQL_C_BINARY:
		// nothing to do
	default:
		return nil, fmt.Errorf("do not know how wide column of ctype %d is", ctype)
	}
	c := NewBindableColumn(b, ctype, t, l)
	c.IsVariableWidth = true
	return c, nil
}

func (c *BindableColumn) Bind(h api.SQLHSTMT, idx int) (bool, error) {
	ret := c.Len.Bind(h, idx, c.CType, c.Buffer)
	if IsError(ret) {
		return false, NewError(ExecutionError, "SQLBindCol", h)
	}
	c.IsBound = true
	return true, nil
}

func (c *BindableColumn) Value(h api.SQLHSTMT, idx int) (Value, error) {
	if !c.IsBound {
		ret := c.Len.GetData(h, idx, c.CType, c.Buffer)
		if IsError(ret) {
			return Value{}, NewError(FetchError, "SQLGetData", h)
		}
	}
	if c.Len.IsNull() {
		return Null(c.info.Type), nil
	}
	if !c.IsVariableWidth && int(c.Len) != c.Size {
		return Value{}, fmt.Errorf("wrong column #%d length %d returned, %d expected", idx, c.Len, c.Size)
	}
	return c.BaseColumn.Value(c.Buffer[:c.Len])
}

// NonBindableColumn provide access to columns, that can't be bound.
// These are of character or binary type, and, usually, there is no
// limit for their width.
type NonBindableColumn struct {
	*BaseColumn
}

func (c *NonBindableColumn) Bind(h api.SQLHSTMT, idx int) (bool, error) {
	return false, nil
}

func (c *NonBindableColumn) Value(h api.SQLHSTMT, idx int) (Value, error) {
	var l BufferLen
	var total []byte
	b := make([]byte, 1024)
loop:
	for {
		ret := l.GetData(h, idx, c.CType, b)
		switch ret {
		case api.SQL_SUCCESS:
			if l.IsNull() {
				return Null(c.info.Type), nil
			}
			if int(l) > len(b) {
				return Value{}, fmt.Errorf("too much data returned: %d bytes returned, but buffer size is %d", l, cap(b))
			}
			total = append(total, b[:l]...)
			break loop
		case api.SQL_SUCCESS_WITH_INFO:
			err := NewError(FetchError, "SQLGetData", h).(*Error)
			if len(err.Diag) > 0 && err.Diag[0].State != "01004" {
				return Value{}, err
			}
			i := len(b)
			switch c.CType {
			case api.SQL_C_WCHAR:
				i -= 2 // remove wchar (2 bytes) null-termination character
			case api.SQL_C_CHAR:
				i-- // remove null-termination character
			}
			total = append(total, b[:i]...)
			if l != api.SQL_NO_TOTAL {
				// odbc gives us a hint about remaining data,
				// lets get it in one go.
				n := int(l) // total bytes for our data
				n -= i      // subtract already received
				n += 2      // room for biggest (wchar) null-terminator
				if len(b) < n {
					b = make([]byte, n)
				}
			}
		default:
			return Value{}, NewError(FetchError, "SQLGetData", h)
		}
	}
	return c.BaseColumn.Value(total)
}

// sqlTypeString names a driver type code for diagnostics.
func sqlTypeString(sqltype api.SQLSMALLINT) string {
	switch sqltype {
	case api.SQL_BIT:
		return "BIT"
	case api.SQL_TINYINT:
		return "TINYINT"
	case api.SQL_SMALLINT:
		return "SMALLINT"
	case api.SQL_INTEGER:
		return "INTEGER"
	case api.SQL_BIGINT:
		return "BIGINT"
	case api.SQL_NUMERIC:
		return "NUMERIC"
	case api.SQL_DECIMAL:
		return "DECIMAL"
	case api.SQL_FLOAT:
		return "FLOAT"
	case api.SQL_REAL:
		return "REAL"
	case api.SQL_DOUBLE:
		return "DOUBLE"
	case api.SQL_CHAR:
		return "CHAR"
	case api.SQL_VARCHAR:
		return "VARCHAR"
	case api.SQL_LONGVARCHAR:
		return "LONGVARCHAR"
	case api.SQL_WCHAR:
		return "WCHAR"
	case api.SQL_WVARCHAR:
		return "WVARCHAR"
	case api.SQL_WLONGVARCHAR:
		return "WLONGVARCHAR"
	case api.SQL_BINARY:
		return "BINARY"
	case api.SQL_VARBINARY:
		return "VARBINARY"
	case api.SQL_LONGVARBINARY:
		return "LONGVARBINARY"
	case api.SQL_TYPE_DATE:
		return "DATE"
	case api.SQL_TYPE_TIME:
		return "TIME"
	case api.SQL_SS_TIME2:
		return "TIME"
	case api.SQL_TYPE_TIMESTAMP, api.SQL_TIMESTAMP:
		return "TIMESTAMP"
	case api.SQL_GUID:
		return "GUID"
	case api.SQL_SS_XML:
		return "XML"
	}
	return fmt.Sprintf("type(%d)", int(sqltype))
}
