//go:build linux && !prctl_noendian

package prctl

import "golang.org/x/sys/unix"

const supportsEndianOption = true

// Endian is only present on builds that expose PR_GET_ENDIAN.
const Endian Option = Name + 1

var endianDescriptor = Descriptor{
	Name:         "ENDIAN",
	Description:  "Process endianess",
	GetCode:      unix.PR_GET_ENDIAN,
	SetCode:      unix.PR_SET_ENDIAN,
	Kind:         KindInt,
	ThreadScoped: true,
}
