package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"sccmod/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sccmod.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
sccmod_module_paths = ["/modules/a", "/modules/b"]
modulefile_root = "/modulefiles"
build_root = "/build"
install_root = "/opt"
shell = "/bin/sh"
class_no_conflict = ["lib"]
num_threads = 4
`

func TestReadValidConfig(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, validConfig))

	cfg, err := config.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(cfg.ModulePaths) != 2 || cfg.ModulePaths[0] != "/modules/a" {
		t.Errorf("ModulePaths = %v", cfg.ModulePaths)
	}
	if cfg.ModulefileRoot != "/modulefiles" {
		t.Errorf("ModulefileRoot = %q", cfg.ModulefileRoot)
	}
	if cfg.NumThreads != 4 {
		t.Errorf("NumThreads = %d", cfg.NumThreads)
	}
	if len(cfg.ClassNoConflict) != 1 || cfg.ClassNoConflict[0] != "lib" {
		t.Errorf("ClassNoConflict = %v", cfg.ClassNoConflict)
	}
}

func TestReadOptionalFieldsDefaultWhenAbsent(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, `
sccmod_module_paths = ["/modules"]
modulefile_root = "/modulefiles"
build_root = "/build"
install_root = "/opt"
shell = "/bin/sh"
`))

	cfg, err := config.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if cfg.ClassNoConflict != nil {
		t.Errorf("ClassNoConflict = %v, want nil", cfg.ClassNoConflict)
	}
	if cfg.NumThreads != 0 {
		t.Errorf("NumThreads = %d, want 0", cfg.NumThreads)
	}
}

func TestReadMissingEnvVarErrors(t *testing.T) {
	t.Setenv(config.EnvVar, "")

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error when SCCMOD_CONFIG is unset")
	}
}

func TestReadMissingFileErrors(t *testing.T) {
	t.Setenv(config.EnvVar, filepath.Join(t.TempDir(), "does-not-exist.toml"))

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error for a missing configuration file")
	}
}

func TestReadMalformedTOMLErrors(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, "this is not [ valid toml"))

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error for malformed TOML")
	}
}

func TestReadMissingRequiredFieldErrors(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, `
modulefile_root = "/modulefiles"
build_root = "/build"
install_root = "/opt"
shell = "/bin/sh"
`))

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error for missing sccmod_module_paths")
	}
}

func TestReadWrongTypeFieldErrors(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, `
sccmod_module_paths = ["/modules"]
modulefile_root = 42
build_root = "/build"
install_root = "/opt"
shell = "/bin/sh"
`))

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error for modulefile_root with the wrong type")
	}
}

func TestReadNegativeNumThreadsErrors(t *testing.T) {
	t.Setenv(config.EnvVar, writeConfig(t, `
sccmod_module_paths = ["/modules"]
modulefile_root = "/modulefiles"
build_root = "/build"
install_root = "/opt"
shell = "/bin/sh"
num_threads = -1
`))

	if _, err := config.Read(); err == nil {
		t.Fatal("expected an error for a negative num_threads")
	}
}
