//go:build linux

package prctl

import (
	"github.com/aspect-build/prctl/internal/logx"
)

// Controller dispatches control calls to a Syscaller. It holds no state
// beyond the Syscaller and is safe for concurrent use.
type Controller struct {
	sys Syscaller
}

// NewController returns a Controller that issues requests through sys,
// or through the kernel when sys is nil.
func NewController(sys Syscaller) *Controller {
	if sys == nil {
		sys = Kernel()
	}
	return &Controller{sys: sys}
}

var std = NewController(nil)

// Control reads opt when v is absent and writes v to opt otherwise.
// A successful write returns the zero Value.
//
// Thread-scoped attributes (see Descriptor.ThreadScoped) apply to the
// calling OS thread; lock it with runtime.LockOSThread when a write must
// be observed by a later read.
func (c *Controller) Control(opt Option, v Value) (Value, error) {
	d, err := Lookup(opt)
	if err != nil {
		logx.Debugf("prctl: %v", err)
		return Value{}, err
	}

	if v.IsZero() {
		out, err := c.get(d)
		if err != nil {
			logx.Debugf("prctl get %s: %v", d.Name, err)
			return Value{}, err
		}
		logx.Debugf("prctl get %s = %v", d.Name, out)
		return out, nil
	}

	if err := c.set(d, v); err != nil {
		logx.Debugf("prctl set %s=%v: %v", d.Name, v, err)
		return Value{}, err
	}
	logx.Debugf("prctl set %s=%v", d.Name, v)
	return Value{}, nil
}

// Get reads opt.
func (c *Controller) Get(opt Option) (Value, error) {
	return c.Control(opt, Value{})
}

// Set writes v to opt. An absent v is a TypeMismatch rather than a read.
func (c *Controller) Set(opt Option, v Value) error {
	if v.IsZero() {
		d, err := Lookup(opt)
		if err != nil {
			return err
		}
		return mismatch(d, "set", v)
	}
	_, err := c.Control(opt, v)
	return err
}

// Control calls Control on the kernel-backed Controller.
func Control(opt Option, v Value) (Value, error) { return std.Control(opt, v) }

// Get calls Get on the kernel-backed Controller.
func Get(opt Option) (Value, error) { return std.Get(opt) }

// Set calls Set on the kernel-backed Controller.
func Set(opt Option, v Value) error { return std.Set(opt, v) }
