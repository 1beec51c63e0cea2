package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aspect-build/prctl/internal/logx"
	"github.com/aspect-build/prctl/internal/prctl"
	"github.com/aspect-build/prctl/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose  bool
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "prctl",
		Short: "Query and modify per-process kernel attributes via prctl(2)",
		Long: `prctl reads and writes the per-process attributes managed by prctl(2):
PDEATHSIG, DUMPABLE, UNALIGN, KEEPCAPS, FPEMU, FPEXC, TIMING, NAME and ENDIAN.

"get" and "set" act on the prctl process itself; use "exec" to apply
attributes and then replace the process with another command.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logx.Configure(logLevel, verbose)
		},
	}
	rootCmd.SetVersionTemplate(version.String("prctl") + "\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logs (same as --log-level debug)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (or PRCTL_LOG_LEVEL)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newExecCmd())
	return rootCmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List supported options with their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			return listOptions(cmd.OutOrStdout(), prctl.NewController(nil))
		},
	}
}

func listOptions(w io.Writer, ctrl *prctl.Controller) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tVALUE\tDESCRIPTION")
	for _, d := range prctl.Options() {
		v, err := ctrl.Get(d.Option)
		value := v.String()
		if err != nil {
			value = "error: " + prctl.ErrnoOf(err).Error()
		} else if d.Kind == prctl.KindText {
			value = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.Option, d.Name, value, d.Description)
	}
	return tw.Flush()
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <OPTION>",
		Short: "Print the current value of an option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := parseOption(args[0])
			if err != nil {
				return err
			}
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			v, err := prctl.Get(opt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <OPTION> <VALUE>",
		Short: "Set an option on the prctl process and print the resulting value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, v, err := parseAssignment(args[0], args[1])
			if err != nil {
				return err
			}
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			if err := prctl.Set(opt, v); err != nil {
				return err
			}
			cur, err := prctl.Get(opt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cur)
			return nil
		},
	}
}

// parseOption accepts an option name (case-insensitive) or its index.
func parseOption(s string) (prctl.Option, error) {
	if o, ok := prctl.ByName(s); ok {
		return o, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if _, err := prctl.Lookup(prctl.Option(n)); err != nil {
			return 0, err
		}
		return prctl.Option(n), nil
	}
	return 0, fmt.Errorf("unknown option %q (run \"prctl list\")", s)
}

func parseAssignment(name, raw string) (prctl.Option, prctl.Value, error) {
	opt, err := parseOption(name)
	if err != nil {
		return 0, prctl.Value{}, err
	}
	d, err := prctl.Lookup(opt)
	if err != nil {
		return 0, prctl.Value{}, err
	}
	v, err := prctl.ParseValue(d.Kind, raw)
	if err != nil {
		return 0, prctl.Value{}, fmt.Errorf("%s: %w", d.Name, err)
	}
	return opt, v, nil
}

// exitCode maps a failed kernel call to its errno so scripts can tell
// EPERM from EINVAL; every other failure exits 1.
func exitCode(err error) int {
	fmt.Fprintf(os.Stderr, "prctl: %v\n", err)
	if errno := prctl.ErrnoOf(err); errno != 0 && errno < 126 {
		return int(errno)
	}
	return 1
}
