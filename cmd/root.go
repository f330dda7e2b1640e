package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	exitOK       = 0
	exitStartup  = 1 // bad arguments, bad configuration or bind failure
	exitListener = 2 // listener failed while serving
)

// Version is overridden at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

func printBanner(w io.Writer) {
	fmt.Fprint(w, `
	 ___  ___ | |__   ___   _ __
	/ _ \/ __|| '_ \ / _ \ | '__|
	|  __/ (__ | | | | (_) || |
	\___|\___||_| |_|\___/ |_|
	`)
	fmt.Fprintln(w)
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "echor",
		Short:         "Concurrent TCP echo server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newProbeCmd(), newVersionCmd())
	return rootCmd
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	log.Error(err)
	return exitStartup
}

func Execute() int {
	return Run(context.Background(), os.Args[1:])
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "echor", Version)
		},
	}
}
