package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ocahooks/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ocahooks [paths...]",
	Args:  cobra.ArbitraryArgs,
	Short: "Odoo module linter with autofix",
	Long: `ocahooks groups the given paths into Odoo modules and checks their manifest,
XML, CSV, PO and Python files. Without paths the current directory is checked.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRun,
	RunE:              runChecks,
}

// traceCleanup is set by preRun; main calls it because PersistentPostRun is
// skipped when RunE fails.
var traceCleanup = func() {}

func preRun(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	traceCleanup = cleanup
	return nil
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(poCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(listMsgsCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.StringP("enable", "e", "", "enable only the given check codes, separated by commas")
	flags.StringP("disable", "d", "", "disable the given check codes, separated by commas")
	flags.StringP("config", "c", "", "path to a configuration file (default: .oca_hooks.cfg or .oca_hooks.toml)")
	flags.Bool("fix", false, "automatically fix files when possible")
	flags.Bool("no-verbose", false, "print nothing, only set the exit status")
	flags.Bool("no-exit", false, "always exit with status 0")
	flags.String("format", "text", "output format (text|json)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "trace output file ('-' for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 disables)")

	rootCmd.Flags().Bool("list-msgs", false, "list the currently enabled check codes and exit")
	rootCmd.Flags().IntP("jobs", "j", 0, "max modules checked in parallel (0=auto)")
	rootCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func main() {
	err := rootCmd.Execute()
	traceCleanup()
	os.Exit(exitCode(err))
}

// exitError carries the status of a completed run.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitCode maps the result of Execute to the process status: 0 clean, 1
// findings, 2 for anything that kept the run from completing.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "ocahooks: %v\n", err)
	return 2
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
