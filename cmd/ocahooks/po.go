package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ocahooks/internal/checker"
	"ocahooks/internal/checker/pocheck"
	"ocahooks/internal/diag"
	"ocahooks/internal/fix"
	"ocahooks/internal/manifest"
	"ocahooks/internal/module"
)

var poCmd = &cobra.Command{
	Use:   "po [files...]",
	Short: "Check standalone .po/.pot files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPO,
}

func runPO(cmd *cobra.Command, args []string) error {
	opts, err := readCommonOptions(cmd)
	if err != nil {
		return err
	}
	warn := warnOutput(cmd, opts)
	cache := module.NewCache(0)
	bag := diag.NewBag(0)
	modules := map[string]bool{}

	// Файлы проверяются по одному, каталоги не держатся в памяти
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		name := ""
		if m := cache.ManifestFor(filepath.Dir(abs)); m != "" {
			name = filepath.Base(filepath.Dir(m))
		}
		modules[name] = true

		ctx := &checker.Context{
			Reporter: diag.BagReporter{Bag: bag},
			Control:  opts.control,
			Module:   name,
			Version:  manifest.DefaultVersion,
			Warn:     warn,
			Editor:   fix.NewEditor(warn),
			Ctx:      cmd.Context(),
		}
		ref := manifest.ReferencedFile{Filename: abs, Short: filepath.ToSlash(path), Section: "i18n"}
		pocheck.New(ctx, []manifest.ReferencedFile{ref}).Run(true, nil)
	}

	bag.Filter(opts.control.Allow)
	bag.Sort()
	if err := render(cmd.OutOrStdout(), bag.Items(), len(modules), opts); err != nil {
		return err
	}
	return opts.finish(bag.Len())
}
