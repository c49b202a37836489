package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ocahooks/internal/diag"
	"ocahooks/internal/module"
	"ocahooks/internal/observ"
	"ocahooks/internal/report"
)

// runChecks is the root command: module checks over the given paths.
func runChecks(cmd *cobra.Command, args []string) error {
	opts, err := readCommonOptions(cmd)
	if err != nil {
		return err
	}
	listMsgs, err := cmd.Flags().GetBool("list-msgs")
	if err != nil {
		return fmt.Errorf("failed to get list-msgs flag: %w", err)
	}
	if listMsgs {
		printEnabledMsgs(cmd.OutOrStdout(), opts)
		return nil
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	timer := observ.NewTimer()
	runner := module.Runner{
		Jobs:    jobs,
		Control: opts.control,
		Autofix: opts.autofix,
		Out:     warnOutput(cmd, opts),
		Timer:   timer,
	}

	var res *module.Result
	if shouldUseTUI(mode, opts) {
		res, err = runWithUI(cmd.Context(), "checking modules", runner, paths)
	} else {
		res, err = runner.Run(cmd.Context(), paths)
	}
	if err != nil {
		return err
	}

	phase := timer.Begin("report")
	if err := render(cmd.OutOrStdout(), res.Findings, res.Modules, opts); err != nil {
		return err
	}
	if opts.autofix && !opts.noVerbose {
		report.Fixes(cmd.ErrOrStderr(), res.Fixes)
	}
	timer.End(phase, "")

	if res.Panicked {
		dumpRing(cmd, cmd.ErrOrStderr())
	}
	if opts.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return opts.finish(res.ExitCode())
}

// warnOutput is stderr unless the run is silent.
func warnOutput(cmd *cobra.Command, opts commonOptions) io.Writer {
	if opts.noVerbose {
		return nil
	}
	return cmd.ErrOrStderr()
}

func render(w io.Writer, findings []diag.Finding, modules int, opts commonOptions) error {
	if opts.noVerbose {
		return nil
	}
	if opts.format == "json" {
		return report.JSON(w, findings)
	}
	return report.Text(w, findings, report.Options{Color: opts.color, Modules: modules})
}

func printEnabledMsgs(w io.Writer, opts commonOptions) {
	if opts.noVerbose {
		return
	}
	var codes []diag.Code
	for _, c := range diag.Codes() {
		if opts.control.Enabled(c) {
			codes = append(codes, c)
		}
	}
	fmt.Fprintln(w, "Emittable messages with the current interpreter:")
	report.ListMsgs(w, codes)
}

var listMsgsCmd = &cobra.Command{
	Use:   "list-msgs",
	Short: "List the currently enabled check codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := readCommonOptions(cmd)
		if err != nil {
			return err
		}
		printEnabledMsgs(cmd.OutOrStdout(), opts)
		return nil
	},
}
