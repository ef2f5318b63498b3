// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"strings"
	"unsafe"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

type Parameter struct {
	SQLType api.SQLSMALLINT
	Decimal api.SQLSMALLINT
	Size    api.SQLULEN
	Data    interface{} // to keep data away from gc

	// isDescribed is false when the driver does not implement
	// SQLDescribeParam (e.g. FreeTDS); the parameter type is then
	// derived from the bound value instead.
	isDescribed bool
}

// CheckValue verifies, without touching the driver, that v can be
// represented for this parameter. It is called for the whole argument
// list before the first bind so that no partial binds reach the driver.
func (p *Parameter) CheckValue(v Value, idx int) error {
	if v.IsNull() {
		return nil
	}
	if v.typ == 0 {
		return &Error{Kind: UnsupportedType, Message: "untyped value", Column: idx}
	}
	if !p.isDescribed {
		return nil
	}
	if !typeBindable(p.SQLType, v.typ) {
		return &Error{
			Kind:    UnsupportedType,
			Message: "cannot bind " + v.typ.String() + " parameter",
			Column:  idx,
			Target:  sqlTypeString(p.SQLType),
		}
	}
	return nil
}

// typeBindable reports whether a value of Type t can be sent to a
// parameter the driver described as sqltype. Unknown target types are
// accepted; the driver has the final word there.
func typeBindable(sqltype api.SQLSMALLINT, t Type) bool {
	switch sqltype {
	case api.SQL_BIT:
		return t == TypeBool || t == TypeInt64
	case api.SQL_TINYINT, api.SQL_SMALLINT, api.SQL_INTEGER, api.SQL_BIGINT:
		return t == TypeInt64 || t == TypeBool
	case api.SQL_NUMERIC, api.SQL_DECIMAL:
		return t == TypeDecimal || t == TypeInt64 || t == TypeFloat64
	case api.SQL_FLOAT, api.SQL_REAL, api.SQL_DOUBLE:
		return t == TypeFloat64 || t == TypeInt64 || t == TypeDecimal
	case api.SQL_CHAR, api.SQL_VARCHAR, api.SQL_LONGVARCHAR,
		api.SQL_WCHAR, api.SQL_WVARCHAR, api.SQL_WLONGVARCHAR,
		api.SQL_SS_XML, api.SQL_GUID:
		return t == TypeString
	case api.SQL_BINARY, api.SQL_VARBINARY, api.SQL_LONGVARBINARY:
		return t == TypeBytes || t == TypeRaw
	case api.SQL_TYPE_DATE:
		return t == TypeDate || t == TypeTimestamp
	case api.SQL_TYPE_TIME, api.SQL_SS_TIME2:
		return t == TypeTime || t == TypeTimestamp
	case api.SQL_TYPE_TIMESTAMP, api.SQL_TIMESTAMP:
		return t == TypeTimestamp || t == TypeDate
	}
	return true
}

func (p *Parameter) BindValue(h api.SQLHSTMT, idx int, v Value) error {
	var ctype, sqltype, decimal api.SQLSMALLINT
	var size api.SQLULEN
	var buflen, plen api.SQLLEN
	var buf unsafe.Pointer
	switch v.typ {
	case 0, TypeBool:
		// an untyped NULL is sent as a null BIT; the described type
		// overrides below when the driver told us better
		var b byte
		if v.b {
			b = 1
		}
		ctype = api.SQL_C_BIT
		p.Data = &b
		buf = unsafe.Pointer(&b)
		sqltype = api.SQL_BIT
		size = 1
	case TypeInt64:
		d := v.i
		ctype = api.SQL_C_SBIGINT
		p.Data = &d
		buf = unsafe.Pointer(&d)
		sqltype = api.SQL_BIGINT
	case TypeFloat64:
		d := v.f
		ctype = api.SQL_C_DOUBLE
		p.Data = &d
		buf = unsafe.Pointer(&d)
		sqltype = api.SQL_DOUBLE
	case TypeDecimal:
		b := append([]byte(v.s), 0)
		ctype = api.SQL_C_CHAR
		p.Data = &b[0]
		buf = unsafe.Pointer(&b[0])
		buflen = api.SQLLEN(len(b) - 1)
		plen = buflen
		sqltype = api.SQL_DECIMAL
		prec, scale := decimalShape(v.s)
		size = api.SQLULEN(prec)
		decimal = api.SQLSMALLINT(scale)
	case TypeString:
		ctype = api.SQL_C_WCHAR
		b := api.StringToUTF16(v.s)
		p.Data = &b[0]
		buf = unsafe.Pointer(&b[0])
		l := len(b)
		l -= 1 // remove terminating 0
		size = api.SQLULEN(l)
		l *= 2 // every char takes 2 bytes
		buflen = api.SQLLEN(l)
		plen = buflen
		sqltype = api.SQL_WCHAR
	case TypeBytes, TypeRaw:
		ctype = api.SQL_C_BINARY
		b := make([]byte, len(v.buf))
		copy(b, v.buf)
		if len(b) == 0 {
			b = []byte{0}
			plen = 0
		} else {
			plen = api.SQLLEN(len(v.buf))
		}
		p.Data = &b[0]
		buf = unsafe.Pointer(&b[0])
		buflen = api.SQLLEN(len(v.buf))
		size = api.SQLULEN(len(v.buf))
		sqltype = api.SQL_BINARY
	case TypeDate:
		y, m, day := v.t.Date()
		b := api.SQL_DATE_STRUCT{
			Year:  api.SQLSMALLINT(y),
			Month: api.SQLUSMALLINT(m),
			Day:   api.SQLUSMALLINT(day),
		}
		ctype = api.SQL_C_DATE
		p.Data = &b
		buf = unsafe.Pointer(&b)
		sqltype = api.SQL_TYPE_DATE
		size = 10
	case TypeTime:
		b := api.SQL_TIME_STRUCT{
			Hour:   api.SQLUSMALLINT(v.t.Hour()),
			Minute: api.SQLUSMALLINT(v.t.Minute()),
			Second: api.SQLUSMALLINT(v.t.Second()),
		}
		ctype = api.SQL_C_TIME
		p.Data = &b
		buf = unsafe.Pointer(&b)
		sqltype = api.SQL_TYPE_TIME
		size = 8
	case TypeTimestamp:
		y, m, day := v.t.Date()
		b := api.SQL_TIMESTAMP_STRUCT{
			Year:     api.SQLSMALLINT(y),
			Month:    api.SQLUSMALLINT(m),
			Day:      api.SQLUSMALLINT(day),
			Hour:     api.SQLUSMALLINT(v.t.Hour()),
			Minute:   api.SQLUSMALLINT(v.t.Minute()),
			Second:   api.SQLUSMALLINT(v.t.Second()),
			Fraction: api.SQLUINTEGER(v.t.Nanosecond()),
		}
		ctype = api.SQL_C_TYPE_TIMESTAMP
		p.Data = &b
		buf = unsafe.Pointer(&b)
		sqltype = api.SQL_TYPE_TIMESTAMP
		size = 23 // yyyy-mm-dd hh:mm:ss.fff
	default:
		return &Error{Kind: UnsupportedType, Message: "cannot bind " + v.typ.String() + " parameter", Column: idx}
	}
	if v.IsNull() {
		plen = api.SQL_NULL_DATA
	}
	if p.isDescribed {
		sqltype = p.SQLType
		decimal = p.Decimal
		size = p.Size
	}
	ret := api.SQLBindParameter(h, api.SQLUSMALLINT(idx+1),
		api.SQL_PARAM_INPUT, ctype, sqltype, size, decimal,
		api.SQLPOINTER(buf), buflen, &plen)
	if IsError(ret) {
		return NewError(UnsupportedType, "SQLBindParameter", h)
	}
	return nil
}

// decimalShape derives (precision, scale) from a decimal literal.
func decimalShape(s string) (prec, scale int) {
	s = strings.TrimLeft(s, "+-")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		scale = len(s) - i - 1
		prec = len(s) - 1
	} else {
		prec = len(s)
	}
	return prec, scale
}

func extractParameters(h api.SQLHSTMT) ([]Parameter, error) {
	// count parameters
	var n, nullable api.SQLSMALLINT
	ret := api.SQLNumParams(h, &n)
	if IsError(ret) {
		return nil, NewError(ExecutionError, "SQLNumParams", h)
	}
	if n <= 0 {
		// no parameters
		return nil, nil
	}
	ps := make([]Parameter, n)
	// fetch param descriptions; not every driver implements
	// SQLDescribeParam (FreeTDS does not), undescribed parameters then
	// take their type from the bound value
	for i := range ps {
		p := &ps[i]
		ret = api.SQLDescribeParam(h, api.SQLUSMALLINT(i+1),
			&p.SQLType, &p.Size, &p.Decimal, &nullable)
		if IsError(ret) {
			break
		}
		p.isDescribed = true
	}
	return ps, nil
}
