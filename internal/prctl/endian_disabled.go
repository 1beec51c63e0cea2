//go:build linux && prctl_noendian

package prctl

const supportsEndianOption = false

var endianDescriptor Descriptor
