//go:build linux

package prctl

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Syscaller issues prctl(2) requests. The kernel is the only production
// implementation; tests substitute their own.
type Syscaller interface {
	// PrctlWord passes arg by value.
	PrctlWord(code int, arg uintptr) (int, error)
	// PrctlBuffer passes the address of buf. buf must not be empty.
	PrctlBuffer(code int, buf []byte) (int, error)
}

type kernel struct{}

// Kernel returns the Syscaller backed by the running kernel.
func Kernel() Syscaller { return kernel{} }

func (kernel) PrctlWord(code int, arg uintptr) (int, error) {
	return unix.PrctlRetInt(code, arg, 0, 0, 0)
}

func (kernel) PrctlBuffer(code int, buf []byte) (int, error) {
	return unix.PrctlRetInt(code, uintptr(unsafe.Pointer(&buf[0])), 0, 0, 0)
}
