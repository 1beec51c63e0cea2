package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/aspect-build/prctl/internal/logx"
	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// assignment is one OPTION=VALUE pair applied before exec.
type assignment struct {
	opt prctl.Option
	val prctl.Value
}

func newExecCmd() *cobra.Command {
	var (
		pdeathsig string
		sets      []string
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- <command> [args...]",
		Short: "Apply attributes, then replace this process with a command",
		Long: `Apply the requested attributes to the current thread and execve(2) into
the target command. The kernel resets some attributes across execve
(DUMPABLE, KEEPCAPS and NAME among them); PDEATHSIG is preserved unless
the target is set-user-ID or set-group-ID.`,
		Example: `  prctl exec --pdeathsig KILL -- ./worker
  prctl exec --set TIMING=0 --set FPEXC=0 -- ./worker`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := buildExecPlan(pdeathsig, sets)
			if err != nil {
				return err
			}
			return execWith(plan, args)
		},
	}

	cmd.Flags().StringVar(&pdeathsig, "pdeathsig", "", "Signal delivered when the parent exits (name like KILL/SIGTERM or number)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "OPTION=VALUE to apply before exec (repeatable)")
	return cmd
}

func buildExecPlan(pdeathsig string, sets []string) ([]assignment, error) {
	var plan []assignment
	if pdeathsig != "" {
		sig, err := parseSignal(pdeathsig)
		if err != nil {
			return nil, err
		}
		plan = append(plan, assignment{opt: prctl.PDeathSig, val: prctl.Int(int64(sig))})
	}
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: expected OPTION=VALUE", s)
		}
		opt, v, err := parseAssignment(name, raw)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		plan = append(plan, assignment{opt: opt, val: v})
	}
	return plan, nil
}

// parseSignal accepts "KILL", "SIGKILL" or "9".
func parseSignal(s string) (unix.Signal, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return unix.Signal(n), nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal %q", s)
}

// execWith applies plan on a locked OS thread and replaces the process
// with args. It only returns on failure.
func execWith(plan []assignment, args []string) error {
	runtime.LockOSThread()
	// Never unlocked: on success execve replaces the process.

	ppid := os.Getppid()
	for _, a := range plan {
		if err := prctl.Set(a.opt, a.val); err != nil {
			return err
		}
		logx.Debugf("exec: %s=%v applied", a.opt, a.val)
	}

	// The parent may have exited before PDEATHSIG was armed.
	if os.Getppid() != ppid {
		return fmt.Errorf("parent exited before attributes were applied")
	}

	binary, err := exec.LookPath(args[0])
	if err != nil {
		return fmt.Errorf("command not found: %s", args[0])
	}
	logx.Debugf("exec: %s %v", binary, args[1:])
	return unix.Exec(binary, args, os.Environ())
}
