//go:build linux

package prctl

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorKind classifies a failed control call.
type ErrorKind int

const (
	// InvalidOption: option index outside the table. No syscall is made.
	InvalidOption ErrorKind = iota + 1
	// TypeMismatch: the value variant does not match the option. No syscall is made.
	TypeMismatch
	// SystemCallFailed: prctl(2) reported failure; Errno holds the cause.
	SystemCallFailed
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidOption:
		return "invalid option"
	case TypeMismatch:
		return "option/value type error"
	case SystemCallFailed:
		return "system call failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against an *Error of the matching kind.
var (
	ErrInvalidOption    = errors.New("prctl: invalid option")
	ErrTypeMismatch     = errors.New("prctl: option/value type error")
	ErrSystemCallFailed = errors.New("prctl: system call failed")

	// ErrUnterminatedName is reported when the kernel fills the name
	// buffer without a terminating NUL.
	ErrUnterminatedName = errors.New("prctl: name buffer not NUL-terminated")
)

// Error is returned by every failing control call.
type Error struct {
	Kind   ErrorKind
	Option Option
	// Op is "get" or "set"; empty when the call never got that far.
	Op    string
	Errno syscall.Errno
	Err   error
}

func (e *Error) Error() string {
	msg := "prctl"
	if e.Op != "" {
		msg += " " + e.Op
	}
	msg += " " + e.Option.String() + ": " + e.Kind.String()
	switch {
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	case e.Errno != 0:
		msg += ": " + e.Errno.Error()
	}
	return msg
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidOption:
		return e.Kind == InvalidOption
	case ErrTypeMismatch:
		return e.Kind == TypeMismatch
	case ErrSystemCallFailed:
		return e.Kind == SystemCallFailed
	}
	return false
}

// Unwrap exposes the wrapped error and the errno, so errors.Is(err, unix.EPERM)
// works on syscall failures.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Errno != 0 {
		errs = append(errs, e.Errno)
	}
	return errs
}

// ErrnoOf returns the errno attached to err, or 0.
func ErrnoOf(err error) syscall.Errno {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Errno
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

func mismatch(d Descriptor, op string, v Value) error {
	return &Error{
		Kind:   TypeMismatch,
		Option: d.Option,
		Op:     op,
		Err:    fmt.Errorf("%s expects %v value, got %v", d.Name, d.Kind, v.Kind()),
	}
}

func sysFailed(d Descriptor, op string, err error) error {
	e := &Error{Kind: SystemCallFailed, Option: d.Option, Op: op, Errno: ErrnoOf(err)}
	if e.Errno == 0 {
		e.Errno = syscall.EIO
		e.Err = err
	}
	return e
}
