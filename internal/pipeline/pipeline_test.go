package pipeline_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sccmod/internal/config"
	"sccmod/internal/module"
	"sccmod/internal/pipeline"
	"sccmod/internal/pump"
)

type fakeBuilder struct {
	buildResult   *pump.Result
	installResult *pump.Result
}

func (b *fakeBuilder) Build(shellPath, sourcePath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
	return b.buildResult, nil
}

func (b *fakeBuilder) Install(shellPath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
	return b.installResult, nil
}

func readGzip(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q): %v", path, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading decompressed log: %v", err)
	}
	return string(plain)
}

// Build persists the builder's captured output as a step log after a
// successful flavour build (SPEC_FULL.md's build-log capture feature).
func TestBuildPersistsStepLog(t *testing.T) {
	dir := t.TempDir()
	b := &fakeBuilder{buildResult: &pump.Result{Stdout: []string{"compiling zlib"}}}
	m := &module.Record{
		Name: "zlib", Version: "1.3", Class: "lib",
		BuildPath: filepath.Join(dir, "build"),
		Builder:   b,
	}

	cfg := &config.Config{Shell: "/bin/sh"}
	pl := pipeline.New(cfg, []*module.Record{m})

	if err := pl.Build(m); err != nil {
		t.Fatalf("Build: %v", err)
	}

	logPath := filepath.Join(m.BuildPath, "1", "default", "sccmod-logs", "build.log.gz")
	if got := readGzip(t, logPath); got != "out: compiling zlib\n" {
		t.Errorf("persisted log = %q", got)
	}
}

// Install persists the builder's captured output as an install step log.
func TestInstallPersistsStepLog(t *testing.T) {
	dir := t.TempDir()
	b := &fakeBuilder{installResult: &pump.Result{Stdout: []string{"installing zlib"}}}
	m := &module.Record{
		Name: "zlib", Version: "1.3", Class: "lib",
		BuildPath:   filepath.Join(dir, "build"),
		InstallPath: filepath.Join(dir, "install"),
		Builder:     b,
	}

	cfg := &config.Config{Shell: "/bin/sh", ModulefileRoot: filepath.Join(dir, "modulefiles")}
	pl := pipeline.New(cfg, []*module.Record{m})

	if err := pl.Install(m); err != nil {
		t.Fatalf("Install: %v", err)
	}

	logPath := filepath.Join(m.BuildPath, "1", "default", "sccmod-logs", "install.log.gz")
	if got := readGzip(t, logPath); got != "out: installing zlib\n" {
		t.Errorf("persisted log = %q", got)
	}
}
