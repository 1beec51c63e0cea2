//go:build linux

package prctl

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	default:
		return "none"
	}
}

// Value is an attribute value: an integer, a string, or absent.
// The zero Value is absent.
type Value struct {
	kind Kind
	i    int64
	s    string
}

// Int returns an integer Value.
func Int(n int64) Value { return Value{kind: KindInt, i: n} }

// Text returns a string Value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsZero() bool { return v.kind == KindNone }

// Int returns the integer held by v and whether v is an integer.
func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

// Text returns the string held by v and whether v is a string.
func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindText
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Any returns the Go value held by v: int64, string, or nil.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindText:
		return v.s
	default:
		return nil
	}
}

// ParseValue converts command-line or request text into a Value of kind k.
// Integers accept the usual Go prefixes (0x, 0o, 0b).
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindText:
		return Text(s), nil
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: parse %q as integer: %v", ErrTypeMismatch, s, err)
		}
		return Int(n), nil
	default:
		return Value{}, fmt.Errorf("%w: no value of kind %v", ErrTypeMismatch, k)
	}
}
