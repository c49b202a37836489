// Package config resolves the enable/disable sets of a run from the
// .oca_hooks.cfg or .oca_hooks.toml file, the environment and the flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-ini/ini"

	"ocahooks/internal/diag"
	"ocahooks/internal/msgctl"
)

const (
	// FileName is the INI config looked up from the working directory.
	FileName = ".oca_hooks.cfg"
	// TOMLFileName is the TOML variant, used when FileName is absent.
	TOMLFileName = ".oca_hooks.toml"
	// Section holds the enable and disable keys of FileName.
	Section = "MESSAGES_CONTROL"
	// TOMLTable is the TOML counterpart of Section.
	TOMLTable = "messages_control"

	EnvEnable  = "OCA_HOOKS_ENABLE"
	EnvDisable = "OCA_HOOKS_DISABLE"
)

// File is a loaded config file. Path is empty when none was found.
type File struct {
	Path    string
	Control msgctl.Control
}

// Load reads the explicit path when given, otherwise the first config found
// walking up from dir to the repository top. The format follows the
// extension: .toml is TOML, anything else is INI.
func Load(dir, explicit string) (File, error) {
	path := explicit
	if path == "" {
		found, err := find(dir)
		if err != nil || found == "" {
			return File{}, err
		}
		path = found
	}
	var (
		ctl msgctl.Control
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		ctl, err = loadTOML(path)
	} else {
		ctl, err = loadINI(path)
	}
	if err != nil {
		return File{}, err
	}
	return File{Path: path, Control: ctl}, nil
}

// find stops at the first dir holding .git.
func find(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	for {
		for _, name := range []string{FileName, TOMLFileName} {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("config: stat %q: %w", candidate, err)
			}
		}
		if _, err := os.Lstat(filepath.Join(dir, ".git")); err == nil {
			return "", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func loadINI(path string) (msgctl.Control, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, path)
	if err != nil {
		return msgctl.Control{}, fmt.Errorf("%s: failed to parse config: %w", path, err)
	}
	if !f.HasSection(Section) {
		return msgctl.Control{}, nil
	}
	sec := f.Section(Section)
	return msgctl.Control{
		Enable:  parseList(sec.Key("enable").String()),
		Disable: parseList(sec.Key("disable").String()),
	}, nil
}

// codeList accepts both "a,b" and ["a", "b"].
type codeList []string

func (l *codeList) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*l = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected a list of strings, got %T", item)
			}
			*l = append(*l, s)
		}
	default:
		return fmt.Errorf("expected a string or a list of strings, got %T", v)
	}
	return nil
}

type tomlConfig struct {
	MessagesControl struct {
		Enable  codeList `toml:"enable"`
		Disable codeList `toml:"disable"`
	} `toml:"messages_control"`
}

func loadTOML(path string) (msgctl.Control, error) {
	var cfg tomlConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return msgctl.Control{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return msgctl.Control{
		Enable:  msgctl.NewSet(cfg.MessagesControl.Enable...),
		Disable: msgctl.NewSet(cfg.MessagesControl.Disable...),
	}, nil
}

// parseList also accepts the newline separated form of multi-line values.
func parseList(value string) msgctl.Set {
	return msgctl.ParseSet(strings.ReplaceAll(value, "\n", ","))
}

// FromEnv reads OCA_HOOKS_ENABLE and OCA_HOOKS_DISABLE.
func FromEnv(getenv func(string) string) msgctl.Control {
	if getenv == nil {
		getenv = os.Getenv
	}
	return msgctl.Control{
		Enable:  msgctl.ParseSet(getenv(EnvEnable)),
		Disable: msgctl.ParseSet(getenv(EnvDisable)),
	}
}

// Merge picks each set from the first layer where it is non-empty: flags,
// then env, then file. Enable and disable are resolved independently.
func Merge(cli, env, file msgctl.Control) msgctl.Control {
	pick := func(sets ...msgctl.Set) msgctl.Set {
		for _, s := range sets {
			if s.Len() > 0 {
				return s
			}
		}
		return msgctl.NewSet()
	}
	return msgctl.Control{
		Enable:  pick(cli.Enable, env.Enable, file.Enable),
		Disable: pick(cli.Disable, env.Disable, file.Disable),
	}
}

// Unknown lists the codes of ctl missing from the catalog, sorted.
func Unknown(ctl msgctl.Control) []string {
	var out []string
	for _, code := range ctl.Enable.Union(ctl.Disable).Sorted() {
		if !diag.Code(code).Known() {
			out = append(out, code)
		}
	}
	return out
}
