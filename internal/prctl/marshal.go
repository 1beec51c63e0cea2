//go:build linux

package prctl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"syscall"
)

// maxBufferLen is well over TASK_COMM_LEN (16), the longest thing the
// kernel writes back for any supported option.
const maxBufferLen = 1024

// encode converts v into the prctl argument for d. NAME travels as a
// NUL-terminated byte slice; everything else as a machine word.
func encode(d Descriptor, v Value) (word uintptr, buf []byte, err error) {
	switch d.Kind {
	case KindText:
		s, ok := v.Text()
		if !ok {
			return 0, nil, mismatch(d, "set", v)
		}
		buf = make([]byte, len(s)+1)
		copy(buf, s)
		return 0, buf, nil
	default:
		n, ok := v.Int()
		if !ok {
			return 0, nil, mismatch(d, "set", v)
		}
		if int64(int(n)) != n {
			return 0, nil, &Error{
				Kind:   TypeMismatch,
				Option: d.Option,
				Op:     "set",
				Err:    fmt.Errorf("%d does not fit a machine word", n),
			}
		}
		return uintptr(int(n)), nil, nil
	}
}

func (c *Controller) set(d Descriptor, v Value) error {
	word, buf, err := encode(d, v)
	if err != nil {
		return err
	}

	var ret int
	if buf != nil {
		ret, err = c.sys.PrctlBuffer(d.SetCode, buf)
	} else {
		ret, err = c.sys.PrctlWord(d.SetCode, word)
	}
	if err != nil || ret < 0 {
		return sysFailed(d, "set", err)
	}
	return nil
}

func (c *Controller) get(d Descriptor) (Value, error) {
	buf := make([]byte, maxBufferLen)

	ret, err := c.sys.PrctlBuffer(d.GetCode, buf)
	if err != nil || ret < 0 {
		return Value{}, sysFailed(d, "get", err)
	}
	return decode(d, ret, buf)
}

// decode picks the result out of ret or buf according to d.Result.
func decode(d Descriptor, ret int, buf []byte) (Value, error) {
	switch d.Result {
	case ResultBufferInt:
		return Int(int64(int32(binary.NativeEndian.Uint32(buf[:4])))), nil
	case ResultBufferText:
		end := bytes.IndexByte(buf, 0)
		if end < 0 {
			return Value{}, &Error{
				Kind:   SystemCallFailed,
				Option: d.Option,
				Op:     "get",
				Errno:  syscall.EOVERFLOW,
				Err:    ErrUnterminatedName,
			}
		}
		return Text(string(buf[:end])), nil
	default:
		return Int(int64(ret)), nil
	}
}
