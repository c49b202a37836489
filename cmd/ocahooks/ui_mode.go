package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode is the value of --ui.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	mode := uiMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// shouldUseTUI decides whether the progress view runs. In auto mode it needs
// text output, a verbose run and a terminal on both std streams: the view
// draws on stderr while the report goes to stdout.
func shouldUseTUI(mode uiMode, opts commonOptions) bool {
	if mode != uiModeAuto {
		return mode == uiModeOn
	}
	if opts.noVerbose || opts.format != "text" {
		return false
	}
	return isTerminal(os.Stderr) && isTerminal(os.Stdout)
}
