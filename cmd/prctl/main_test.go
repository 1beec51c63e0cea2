package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type stubKernel struct{}

func (stubKernel) PrctlWord(code int, arg uintptr) (int, error) { return 0, nil }

func (stubKernel) PrctlBuffer(code int, buf []byte) (int, error) {
	switch code {
	case unix.PR_GET_NAME:
		copy(buf, "stub")
	case unix.PR_GET_DUMPABLE:
		return 1, nil
	case unix.PR_GET_UNALIGN:
		return -1, unix.EINVAL
	}
	return 0, nil
}

func TestParseOption(t *testing.T) {
	o, err := parseOption("keepcaps")
	require.NoError(t, err)
	assert.Equal(t, prctl.KeepCaps, o)

	o, err = parseOption("7")
	require.NoError(t, err)
	assert.Equal(t, prctl.Name, o)

	_, err = parseOption("99")
	assert.ErrorIs(t, err, prctl.ErrInvalidOption)

	_, err = parseOption("SECCOMP")
	assert.Error(t, err)
}

func TestParseAssignment(t *testing.T) {
	o, v, err := parseAssignment("NAME", "worker-1")
	require.NoError(t, err)
	assert.Equal(t, prctl.Name, o)
	assert.Equal(t, prctl.Text("worker-1"), v)

	_, v, err = parseAssignment("dumpable", "0")
	require.NoError(t, err)
	assert.Equal(t, prctl.Int(0), v)

	_, _, err = parseAssignment("DUMPABLE", "x")
	assert.ErrorIs(t, err, prctl.ErrTypeMismatch)
}

func TestParseSignal(t *testing.T) {
	for _, s := range []string{"KILL", "sigkill", "SIGKILL", "9"} {
		sig, err := parseSignal(s)
		require.NoError(t, err, s)
		assert.Equal(t, unix.SIGKILL, sig, s)
	}
	_, err := parseSignal("NOPE")
	assert.Error(t, err)
}

func TestBuildExecPlan(t *testing.T) {
	plan, err := buildExecPlan("TERM", []string{"TIMING=0", "fpexc=0x0"})
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, prctl.PDeathSig, plan[0].opt)
	assert.Equal(t, prctl.Int(int64(unix.SIGTERM)), plan[0].val)
	assert.Equal(t, prctl.Timing, plan[1].opt)
	assert.Equal(t, prctl.FPExc, plan[2].opt)

	_, err = buildExecPlan("", []string{"TIMING"})
	assert.Error(t, err)

	_, err = buildExecPlan("", []string{"TIMING=fast"})
	assert.ErrorIs(t, err, prctl.ErrTypeMismatch)
}

func TestListOptions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listOptions(&buf, prctl.NewController(stubKernel{})))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(prctl.Options())+1)
	assert.Contains(t, lines[0], "NAME")

	out := buf.String()
	assert.Contains(t, out, `"stub"`)
	assert.Contains(t, out, "error: invalid argument")
}

func TestExitCode(t *testing.T) {
	err := &prctl.Error{Kind: prctl.SystemCallFailed, Option: prctl.KeepCaps, Op: "set", Errno: unix.EPERM}
	assert.Equal(t, int(unix.EPERM), exitCode(err))
	assert.Equal(t, 1, exitCode(&prctl.Error{Kind: prctl.InvalidOption, Option: 42}))
}
