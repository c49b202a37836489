package main

import (
	"github.com/spf13/cobra"

	"ocahooks/internal/checker"
	"ocahooks/internal/checker/filecheck"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/report"
)

var filesCmd = &cobra.Command{
	Use:   "files [paths...]",
	Short: "Check file names below the given directories",
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().String("autofix-char", filecheck.DefaultAutofixChar, "character replacing spaces in file names")
}

func runFiles(cmd *cobra.Command, args []string) error {
	opts, err := readCommonOptions(cmd)
	if err != nil {
		return err
	}
	char, err := cmd.Flags().GetString("autofix-char")
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	warn := warnOutput(cmd, opts)
	bag := diag.NewBag(0)
	editor := fix.NewEditor(warn)
	for _, path := range paths {
		ctx := &checker.Context{
			Reporter: diag.BagReporter{Bag: bag},
			Control:  opts.control,
			Autofix:  opts.autofix,
			Warn:     warn,
			Editor:   editor,
			Ctx:      cmd.Context(),
		}
		filecheck.New(ctx, path, char).Run(nil)
	}

	bag.Filter(opts.control.Allow)
	bag.Sort()
	if err := render(cmd.OutOrStdout(), bag.Items(), -1, opts); err != nil {
		return err
	}
	if opts.autofix && !opts.noVerbose {
		report.Fixes(cmd.ErrOrStderr(), editor.Result())
	}
	return opts.finish(bag.Len())
}
