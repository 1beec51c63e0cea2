//go:build linux

// Package prctl reads and writes per-process kernel attributes through
// prctl(2). Attributes are addressed by a small Option index; Control
// performs a get when no value is supplied and a set otherwise.
//
// See http://man7.org/linux/man-pages/man2/prctl.2.html
package prctl

import (
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Option is the index of an attribute in the option table.
type Option int

const (
	PDeathSig Option = iota
	Dumpable
	Unalign
	KeepCaps
	FPEmu
	FPExc
	Timing
	Name

	// MinOption is the lowest valid option index.
	MinOption = PDeathSig
)

// ResultConvention says where the kernel puts the answer to a get request.
type ResultConvention int

const (
	// ResultReturn: the syscall return value is the result.
	ResultReturn ResultConvention = iota
	// ResultBufferInt: the kernel writes an int into the buffer.
	ResultBufferInt
	// ResultBufferText: the kernel writes a NUL-terminated string into the buffer.
	ResultBufferText
)

// Descriptor describes one attribute.
type Descriptor struct {
	Option      Option
	Name        string
	Description string
	GetCode     int
	SetCode     int
	Kind        Kind
	Result      ResultConvention
	// ThreadScoped is set for attributes the kernel tracks per thread
	// rather than per process.
	ThreadScoped bool
}

var options = buildTable()

func buildTable() []Descriptor {
	t := []Descriptor{
		{
			Name:         "PDEATHSIG",
			Description:  "Receive signal (as defined by value) on parent exit",
			GetCode:      unix.PR_GET_PDEATHSIG,
			SetCode:      unix.PR_SET_PDEATHSIG,
			Kind:         KindInt,
			Result:       ResultBufferInt,
			ThreadScoped: true,
		},
		{
			Name:        "DUMPABLE",
			Description: "Whether core dumps are produced for this process",
			GetCode:     unix.PR_GET_DUMPABLE,
			SetCode:     unix.PR_SET_DUMPABLE,
			Kind:        KindInt,
		},
		{
			Name:         "UNALIGN",
			Description:  "Unaligned access control bits (if meaningful)",
			GetCode:      unix.PR_GET_UNALIGN,
			SetCode:      unix.PR_SET_UNALIGN,
			Kind:         KindInt,
			ThreadScoped: true,
		},
		{
			Name:         "KEEPCAPS",
			Description:  "Whether or not to drop capabilities on setuid() away from uid 0",
			GetCode:      unix.PR_GET_KEEPCAPS,
			SetCode:      unix.PR_SET_KEEPCAPS,
			Kind:         KindInt,
			ThreadScoped: true,
		},
		{
			Name:         "FPEMU",
			Description:  "Floating-point emulation control bits (if meaningful)",
			GetCode:      unix.PR_GET_FPEMU,
			SetCode:      unix.PR_SET_FPEMU,
			Kind:         KindInt,
			ThreadScoped: true,
		},
		{
			Name:         "FPEXC",
			Description:  "Floating-point exception mode (if meaningful)",
			GetCode:      unix.PR_GET_FPEXC,
			SetCode:      unix.PR_SET_FPEXC,
			Kind:         KindInt,
			ThreadScoped: true,
		},
		{
			Name:        "TIMING",
			Description: "Whether we use statistical process timing or accurate timestamp",
			GetCode:     unix.PR_GET_TIMING,
			SetCode:     unix.PR_SET_TIMING,
			Kind:        KindInt,
		},
		{
			Name:         "NAME",
			Description:  "Process name",
			GetCode:      unix.PR_GET_NAME,
			SetCode:      unix.PR_SET_NAME,
			Kind:         KindText,
			Result:       ResultBufferText,
			ThreadScoped: true,
		},
	}
	if supportsEndianOption {
		t = append(t, endianDescriptor)
	}
	for i := range t {
		t[i].Option = Option(i)
	}
	return t
}

// MaxOption returns the highest valid option index for this build.
func MaxOption() Option {
	return Option(len(options) - 1)
}

// Valid reports whether o is inside the option table.
func (o Option) Valid() bool {
	return o >= MinOption && o <= MaxOption()
}

func (o Option) String() string {
	if !o.Valid() {
		return "Option(" + strconv.Itoa(int(o)) + ")"
	}
	return options[o].Name
}

// Options returns a copy of the option table in index order.
func Options() []Descriptor {
	out := make([]Descriptor, len(options))
	copy(out, options)
	return out
}

// Lookup returns the descriptor for o, or an InvalidOption error.
func Lookup(o Option) (Descriptor, error) {
	if !o.Valid() {
		return Descriptor{}, &Error{Kind: InvalidOption, Option: o}
	}
	return options[o], nil
}

// ByName resolves an option name such as "NAME" or "pdeathsig".
func ByName(name string) (Option, bool) {
	name = strings.TrimSpace(name)
	for _, d := range options {
		if strings.EqualFold(d.Name, name) {
			return d.Option, true
		}
	}
	return 0, false
}
