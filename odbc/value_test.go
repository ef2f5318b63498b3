package odbc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValueAccessors(t *testing.T) {
	b, ok := Bool(true).Bool()
	require.True(t, ok)
	require.True(t, b)

	i, ok := Int64(-42).Int64()
	require.True(t, ok)
	require.Equal(t, int64(-42), i)

	f, ok := Float64(1.5).Float64()
	require.True(t, ok)
	require.Equal(t, 1.5, f)

	s, ok := String("hello").Str()
	require.True(t, ok)
	require.Equal(t, "hello", s)

	data, ok := Bytes([]byte{1, 2, 3}).Bytes()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, data)

	now := time.Now()
	got, ok := Timestamp(now).Time()
	require.True(t, ok)
	require.True(t, got.Equal(now))
}

func TestValueTypeMismatch(t *testing.T) {
	// accessing through the wrong accessor reports !ok, never a panic
	_, ok := Int64(7).Bool()
	require.False(t, ok)
	_, ok = String("x").Int64()
	require.False(t, ok)
	_, ok = Bool(true).Str()
	require.False(t, ok)
	_, ok = Int64(7).Time()
	require.False(t, ok)
}

func TestValueNull(t *testing.T) {
	v := Null(TypeInt64)
	require.True(t, v.IsNull())
	require.Equal(t, TypeInt64, v.Type())
	_, ok := v.Int64()
	require.False(t, ok)

	// the zero Value is an untyped NULL
	var zero Value
	require.True(t, zero.IsNull())
}

func TestDecimal(t *testing.T) {
	for _, good := range []string{"0", "1", "-1", "+1", "12345.6789", "-0.001", ".5", "5."} {
		v, err := Decimal(good)
		require.NoError(t, err, good)
		s, ok := v.Str()
		require.True(t, ok)
		require.Equal(t, good, s)
	}
	for _, bad := range []string{"", "-", ".", "1.2.3", "1e5", "12a", " 1"} {
		_, err := Decimal(bad)
		require.Error(t, err, bad)
		require.True(t, IsKind(err, ConversionError), bad)
	}
}

func TestRawValue(t *testing.T) {
	v := Raw(-360, []byte{0xde, 0xad})
	data, sqltype, ok := v.RawBytes()
	require.True(t, ok)
	require.Equal(t, int16(-360), sqltype)
	require.Equal(t, []byte{0xde, 0xad}, data)

	// raw bytes are not visible through the generic bytes accessor
	_, ok = v.Bytes()
	require.False(t, ok)
}

func TestDecimalShape(t *testing.T) {
	tests := []struct {
		in          string
		prec, scale int
	}{
		{"0", 1, 0},
		{"12345", 5, 0},
		{"-12345", 5, 0},
		{"12345.6789", 9, 4},
		{"-0.001", 4, 3},
	}
	for _, tc := range tests {
		prec, scale := decimalShape(tc.in)
		require.Equal(t, tc.prec, prec, tc.in)
		require.Equal(t, tc.scale, scale, tc.in)
	}
}
