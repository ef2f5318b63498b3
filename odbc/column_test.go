package odbc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

func TestBufferLenIsNull(t *testing.T) {
	l := BufferLen(api.SQL_NULL_DATA)
	require.True(t, l.IsNull())
	l = BufferLen(4)
	require.False(t, l.IsNull())
	l = BufferLen(0)
	require.False(t, l.IsNull())
}

func TestSQLTypeString(t *testing.T) {
	require.Equal(t, "INTEGER", sqlTypeString(api.SQL_INTEGER))
	require.Equal(t, "WVARCHAR", sqlTypeString(api.SQL_WVARCHAR))
	require.Equal(t, "DECIMAL", sqlTypeString(api.SQL_DECIMAL))
	require.Equal(t, "TIMESTAMP", sqlTypeString(api.SQL_TYPE_TIMESTAMP))
	require.Equal(t, "type(-9999)", sqlTypeString(api.SQLSMALLINT(-9999)))
}

func TestTypeBindable(t *testing.T) {
	tests := []struct {
		sqltype api.SQLSMALLINT
		typ     Type
		want    bool
	}{
		{api.SQL_BIT, TypeBool, true},
		{api.SQL_BIT, TypeString, false},
		{api.SQL_INTEGER, TypeInt64, true},
		{api.SQL_INTEGER, TypeString, false},
		{api.SQL_DECIMAL, TypeDecimal, true},
		{api.SQL_DECIMAL, TypeInt64, true},
		{api.SQL_DECIMAL, TypeBytes, false},
		{api.SQL_DOUBLE, TypeFloat64, true},
		{api.SQL_WVARCHAR, TypeString, true},
		{api.SQL_WVARCHAR, TypeInt64, false},
		{api.SQL_VARBINARY, TypeBytes, true},
		{api.SQL_VARBINARY, TypeString, false},
		{api.SQL_TYPE_DATE, TypeDate, true},
		{api.SQL_TYPE_DATE, TypeTimestamp, true},
		{api.SQL_TYPE_TIMESTAMP, TypeTime, false},
		{api.SQL_SS_TIME2, TypeTime, true},
		// unknown driver types defer to the driver
		{api.SQLSMALLINT(-9999), TypeString, true},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, typeBindable(tc.sqltype, tc.typ),
			"sqltype %d, type %s", tc.sqltype, tc.typ)
	}
}

func TestBinaryColumnValueSurvivesBufferReuse(t *testing.T) {
	c := &BaseColumn{
		info:  ColumnInfo{Name: "data", SQLType: int16(api.SQL_VARBINARY), Type: TypeBytes},
		CType: api.SQL_C_BINARY,
	}
	buf := []byte{1, 2, 3}
	v, err := c.Value(buf)
	require.NoError(t, err)
	got, ok := v.Bytes()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)

	// the next fetch rewrites the bound buffer in place
	buf[0] = 99
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestRawColumnValueSurvivesBufferReuse(t *testing.T) {
	c := &BaseColumn{
		info:  ColumnInfo{Name: "odd", SQLType: -9999, Type: TypeRaw},
		CType: api.SQL_C_BINARY,
	}
	buf := []byte{7, 8}
	v, err := c.Value(buf)
	require.NoError(t, err)
	got, sqltype, ok := v.RawBytes()
	require.True(t, ok)
	require.Equal(t, int16(-9999), sqltype)

	buf[0] = 0
	require.Equal(t, []byte{7, 8}, got)
}

func TestCheckValueUndescribed(t *testing.T) {
	// drivers without SQLDescribeParam accept any value shape
	p := &Parameter{}
	require.NoError(t, p.CheckValue(String("x"), 0))
	require.NoError(t, p.CheckValue(Int64(1), 0))
	require.NoError(t, p.CheckValue(Null(TypeString), 0))
}

func TestCheckValueDescribed(t *testing.T) {
	p := &Parameter{SQLType: api.SQL_INTEGER, isDescribed: true}
	require.NoError(t, p.CheckValue(Int64(1), 0))
	// NULL binds to anything
	require.NoError(t, p.CheckValue(Null(TypeString), 0))

	err := p.CheckValue(String("x"), 3)
	require.Error(t, err)
	require.True(t, IsKind(err, UnsupportedType))
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 3, e.Column)
	require.Equal(t, "INTEGER", e.Target)
}
