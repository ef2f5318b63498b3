// Copyright 2012 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package odbc

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/nobie-org/arrow-odbc/odbc/api"
)

func IsError(ret api.SQLRETURN) bool {
	return !(ret == api.SQL_SUCCESS || ret == api.SQL_SUCCESS_WITH_INFO)
}

// Kind partitions driver failures by the stage they occur at.
type Kind int

const (
	InvalidConfig Kind = iota + 1
	ConnectError
	HandleAllocationFailed
	UnsupportedType
	ExecutionError
	ConversionError
	FetchError
	PoolTimeout
)

func (k Kind) String() string {
	switch k {
	case InvalidConfig:
		return "invalid config"
	case ConnectError:
		return "connect error"
	case HandleAllocationFailed:
		return "handle allocation failed"
	case UnsupportedType:
		return "unsupported type"
	case ExecutionError:
		return "execution error"
	case ConversionError:
		return "conversion error"
	case FetchError:
		return "fetch error"
	case PoolTimeout:
		return "pool timeout"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Class is the coarse SQLSTATE classification of a single diagnostic.
type Class int

const (
	ClassUnclassified Class = iota
	ClassConnection
	ClassSyntax
	ClassConstraint
	ClassTruncation
)

func (c Class) String() string {
	switch c {
	case ClassConnection:
		return "connection"
	case ClassSyntax:
		return "syntax"
	case ClassConstraint:
		return "constraint"
	case ClassTruncation:
		return "truncation"
	}
	return "unclassified"
}

// Diagnostic is one driver-reported diagnostic record.
type Diagnostic struct {
	State       string
	NativeError int
	Message     string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("{%s} %s", d.State, d.Message)
}

// Class classifies the diagnostic by its SQLSTATE.
func (d Diagnostic) Class() Class {
	return Classify(d.State)
}

// Classify maps a five-character SQLSTATE onto a Class. Diagnostics
// with malformed states classify as unclassified rather than failing.
func Classify(state string) Class {
	if len(state) != 5 {
		return ClassUnclassified
	}
	switch state[:2] {
	case "08":
		// connection exception class, includes link failures (08S01)
		return ClassConnection
	case "28":
		// invalid authorization
		return ClassConnection
	case "42", "37":
		return ClassSyntax
	case "23":
		return ClassConstraint
	case "2A":
		// direct SQL syntax error or access rule violation
		return ClassSyntax
	case "22":
		if state == "22001" {
			return ClassTruncation
		}
		return ClassUnclassified
	case "01":
		if state == "01004" {
			return ClassTruncation
		}
		return ClassUnclassified
	case "HY":
		if state == "HYT00" || state == "HYT01" {
			return ClassConnection
		}
		return ClassUnclassified
	}
	return ClassUnclassified
}

// Error is the structured error for any failed driver operation. Diag
// preserves the diagnostics in the order the driver reported them,
// most specific first.
type Error struct {
	Kind    Kind
	APIName string
	Message string
	Diag    []Diagnostic

	// Column and Target are set on conversion failures only.
	Column int
	Target string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("odbc: ")
	b.WriteString(e.Kind.String())
	if e.APIName != "" {
		b.WriteString(": ")
		b.WriteString(e.APIName)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Diag) > 0 {
		ss := make([]string, len(e.Diag))
		for i, d := range e.Diag {
			ss[i] = d.String()
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(ss, "\n"))
	}
	return b.String()
}

// HasClass reports whether any attached diagnostic belongs to class c.
func (e *Error) HasClass(c Class) bool {
	for _, d := range e.Diag {
		if d.Class() == c {
			return true
		}
	}
	return false
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func newKindError(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// NewError builds an *Error of kind k from the diagnostics currently
// attached to handle by apiName.
func NewError(k Kind, apiName string, handle interface{}) error {
	err := &Error{Kind: k, APIName: apiName}
	err.Diag = describeHandle(handle)
	return err
}

// describeHandle drains the diagnostic records attached to handle, in
// driver order. A broken SQLGetDiagRec ends the walk; whatever was
// collected so far is returned.
func describeHandle(handle interface{}) []Diagnostic {
	h, ht := ToHandleAndType(handle)
	var diag []Diagnostic
	var ne api.SQLINTEGER
	state := make([]uint16, 6)
	msg := make([]uint16, api.SQL_MAX_MESSAGE_LENGTH)
	for i := 1; ; i++ {
		ret := api.SQLGetDiagRec(ht, h, api.SQLSMALLINT(i),
			(*api.SQLWCHAR)(unsafe.Pointer(&state[0])), &ne,
			(*api.SQLWCHAR)(unsafe.Pointer(&msg[0])),
			api.SQLSMALLINT(len(msg)), nil)
		if ret == api.SQL_NO_DATA || IsError(ret) {
			break
		}
		diag = append(diag, Diagnostic{
			State:       api.UTF16ToString(state),
			NativeError: int(ne),
			Message:     api.UTF16ToString(msg),
		})
	}
	return diag
}
