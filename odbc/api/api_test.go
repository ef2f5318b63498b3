// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func TestUTF16ToUTF8(t *testing.T) {
	enc := func(s string) []uint16 { return utf16.Encode([]rune(s)) }

	require.Equal(t, []byte("hello"), UTF16ToUTF8(enc("hello")))
	require.Equal(t, []byte("héllo"), UTF16ToUTF8(enc("héllo")))

	// surrogate pair
	require.Equal(t, []byte("𝄞"), UTF16ToUTF8(enc("𝄞")))

	// terminating NUL and everything after it is dropped
	require.Equal(t, []byte("ab"), UTF16ToUTF8([]uint16{'a', 'b', 0, 'c'}))

	// unpaired surrogate decodes to the replacement character
	require.Equal(t, []byte(string(replacementChar)), UTF16ToUTF8([]uint16{0xd800}))

	require.Empty(t, UTF16ToUTF8(nil))
}

func TestStringToUTF16RoundTrip(t *testing.T) {
	b := StringToUTF16("héllo")
	require.Equal(t, uint16(0), b[len(b)-1])
	require.Equal(t, "héllo", UTF16ToString(b))
}
