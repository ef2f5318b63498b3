// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows && (amd64 || arm64)

package api

type (
	SQLLEN  int64
	SQLULEN uint64
)
