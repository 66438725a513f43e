// Package config reads the sccmod TOML configuration file named by the
// $SCCMOD_CONFIG environment variable (spec.md §6).
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/xerrors"
)

// EnvVar is the environment variable naming the configuration file.
const EnvVar = "SCCMOD_CONFIG"

// Config is the fully validated settings record described in spec.md §3
// ("Configuration") and §6.
type Config struct {
	ModulePaths     []string `toml:"sccmod_module_paths"`
	ModulefileRoot  string   `toml:"modulefile_root"`
	BuildRoot       string   `toml:"build_root"`
	InstallRoot     string   `toml:"install_root"`
	Shell           string   `toml:"shell"`
	ClassNoConflict []string `toml:"class_no_conflict"`
	NumThreads      int      `toml:"num_threads"`
}

// raw mirrors Config but with interface{} typed fields, so Read can tell
// "field absent" apart from "field present but wrong type" and report each
// with the offending field named, per spec.md §7.
type raw struct {
	ModulePaths     interface{} `toml:"sccmod_module_paths"`
	ModulefileRoot  interface{} `toml:"modulefile_root"`
	BuildRoot       interface{} `toml:"build_root"`
	InstallRoot     interface{} `toml:"install_root"`
	Shell           interface{} `toml:"shell"`
	ClassNoConflict interface{} `toml:"class_no_conflict"`
	NumThreads      interface{} `toml:"num_threads"`
}

// Read loads and validates the configuration file named by $SCCMOD_CONFIG.
//
// Every failure mode is a configuration error (spec.md §7): the env var is
// unset, the file cannot be read, the TOML is malformed, or a field is
// missing/wrong-typed. Each is reported with a specific, human-readable
// message naming the offending field.
func Read() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, xerrors.Errorf("the %s environment variable is not set; it must point at the sccmod TOML configuration file", EnvVar)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("could not read the file at $%s=%q: %w", EnvVar, path, err)
	}

	var r raw
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, xerrors.Errorf("%s is not valid TOML: %w", path, err)
	}

	modulePaths, err := stringSlice(r.ModulePaths, "sccmod_module_paths")
	if err != nil {
		return nil, err
	}
	modulefileRoot, err := requiredString(r.ModulefileRoot, "modulefile_root")
	if err != nil {
		return nil, err
	}
	buildRoot, err := requiredString(r.BuildRoot, "build_root")
	if err != nil {
		return nil, err
	}
	installRoot, err := requiredString(r.InstallRoot, "install_root")
	if err != nil {
		return nil, err
	}
	shell, err := requiredString(r.Shell, "shell")
	if err != nil {
		return nil, err
	}

	classNoConflict, err := optionalStringSlice(r.ClassNoConflict, "class_no_conflict")
	if err != nil {
		return nil, err
	}

	numThreads, err := optionalNonNegativeInt(r.NumThreads, "num_threads")
	if err != nil {
		return nil, err
	}

	return &Config{
		ModulePaths:     modulePaths,
		ModulefileRoot:  modulefileRoot,
		BuildRoot:       buildRoot,
		InstallRoot:     installRoot,
		Shell:           shell,
		ClassNoConflict: classNoConflict,
		NumThreads:      numThreads,
	}, nil
}

func requiredString(v interface{}, field string) (string, error) {
	if v == nil {
		return "", xerrors.Errorf("`%s` is required and must be a string, but was not found in the configuration file", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", xerrors.Errorf("`%s` must be a string", field)
	}
	return s, nil
}

func stringSlice(v interface{}, field string) ([]string, error) {
	if v == nil {
		return nil, xerrors.Errorf("`%s` is required and must be an array of strings, but was not found in the configuration file", field)
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, xerrors.Errorf("`%s` must be an array of strings", field)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, xerrors.Errorf("`%s` must be an array of strings", field)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalStringSlice(v interface{}, field string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	return stringSlice(v, field)
}

func optionalNonNegativeInt(v interface{}, field string) (int, error) {
	if v == nil {
		return 0, nil
	}
	n, ok := v.(int64)
	if !ok {
		return 0, xerrors.Errorf("`%s` must be a non-negative integer", field)
	}
	if n < 0 {
		return 0, xerrors.Errorf("`%s` must be a non-negative integer", field)
	}
	return int(n), nil
}
