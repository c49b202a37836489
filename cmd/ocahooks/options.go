package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ocahooks/internal/config"
	"ocahooks/internal/msgctl"
)

// commonOptions are the persistent flags every subcommand reads.
type commonOptions struct {
	control   msgctl.Control
	autofix   bool
	noVerbose bool
	noExit    bool
	format    string
	color     bool
	timings   bool
}

func readCommonOptions(cmd *cobra.Command) (commonOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts commonOptions

	enable, err := flags.GetString("enable")
	if err != nil {
		return opts, fmt.Errorf("failed to get enable flag: %w", err)
	}
	disable, err := flags.GetString("disable")
	if err != nil {
		return opts, fmt.Errorf("failed to get disable flag: %w", err)
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	if opts.autofix, err = flags.GetBool("fix"); err != nil {
		return opts, fmt.Errorf("failed to get fix flag: %w", err)
	}
	if opts.noVerbose, err = flags.GetBool("no-verbose"); err != nil {
		return opts, fmt.Errorf("failed to get no-verbose flag: %w", err)
	}
	if opts.noExit, err = flags.GetBool("no-exit"); err != nil {
		return opts, fmt.Errorf("failed to get no-exit flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	format, err := flags.GetString("format")
	if err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch opts.format = strings.ToLower(format); opts.format {
	case "text", "json":
	default:
		return opts, fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	if opts.color, err = readColor(colorFlag); err != nil {
		return opts, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return opts, fmt.Errorf("failed to get working directory: %w", err)
	}
	file, err := config.Load(cwd, configPath)
	if err != nil {
		return opts, err
	}
	cli := msgctl.Control{Enable: msgctl.ParseSet(enable), Disable: msgctl.ParseSet(disable)}
	opts.control = config.Merge(cli, config.FromEnv(os.Getenv), file.Control)
	if !opts.noVerbose {
		for _, code := range config.Unknown(opts.control) {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: unknown check code %q\n", code)
		}
	}
	return opts, nil
}

func readColor(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout) && !color.NoColor, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
	}
}

// finish turns a number of findings, or a run exit code, into the command
// result.
func (o commonOptions) finish(findings int) error {
	if findings == 0 || o.noExit {
		return nil
	}
	return &exitError{code: 1}
}
