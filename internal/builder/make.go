package builder

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/pump"
	"sccmod/internal/shellx"
)

// Make drives an autotools/plain-Makefile build (spec.md §4.4).
//
// Configure controls whether the `./configure` step runs at all: a module
// whose source tree already ships a Makefile (no configure script to
// generate one) sets this false to skip straight to compiling. See
// DESIGN.md for why this field is honored rather than ignored.
type Make struct {
	Configure      bool
	Jobs           int
	PrefixArgs     []string
	ConfigureFlags []string
	MakeRoot       string // "" means unset
}

func (m *Make) effectiveSourcePath(sourcePath string) string {
	if m.MakeRoot == "" {
		return sourcePath
	}
	return sourcePath + "/" + m.MakeRoot
}

// buildShell composes (without running) the configure+compile shell
// sequence, so tests can assert on its exact command list without
// spawning make or configure.
func (m *Make) buildShell(shellPath, sourcePath, buildPath, installPath string, dependencies []string) *shellx.Shell {
	sh := shellx.New(shellPath)
	sh.SetCurrentDir(buildPath)
	for _, dep := range dependencies {
		sh.AddCommand(fmt.Sprintf("module load %s", dep))
	}

	if m.Configure {
		source := m.effectiveSourcePath(sourcePath)

		var b strings.Builder
		for _, arg := range m.PrefixArgs {
			b.WriteString(arg)
			b.WriteString(" ")
		}
		b.WriteString(source)
		b.WriteString("/configure")
		for _, flag := range m.ConfigureFlags {
			b.WriteString(" ")
			b.WriteString(flag)
		}
		// Appended last so it always wins over anything in configure_flags.
		fmt.Fprintf(&b, " --prefix=%s", installPath)

		sh.AddCommand(b.String())
	}

	sh.AddCommand(fmt.Sprintf("make -j %d", m.Jobs))
	return sh
}

// Build runs (optionally) configure, then compile in a single composed
// shell invocation, in that order (spec.md §4.4).
func (m *Make) Build(shellPath, sourcePath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
	if err := os.MkdirAll(buildPath, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create build directory %q: %w", buildPath, err)
	}

	sh := m.buildShell(shellPath, sourcePath, buildPath, installPath, dependencies)

	result, err := sh.Exec()
	if err != nil {
		return nil, xerrors.Errorf("failed to run make: %w", err)
	}
	if result.ExitCode != 0 {
		return &result, xerrors.Errorf("make build failed:\n%s\n%s", strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}
	return &result, nil
}

// Install runs `make install` in buildPath, the directory in which Build
// ran configure and make (spec.md §4.4).
func (m *Make) Install(shellPath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
	if err := os.MkdirAll(installPath, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create install directory %q: %w", installPath, err)
	}
	if _, err := os.Stat(buildPath); err != nil {
		return nil, xerrors.Errorf("build directory %q does not exist: %w", buildPath, err)
	}

	sh := shellx.New(shellPath)
	sh.SetCurrentDir(buildPath)
	for _, dep := range dependencies {
		sh.AddCommand(fmt.Sprintf("module load %s", dep))
	}
	sh.AddCommand("make install")

	result, err := sh.Exec()
	if err != nil {
		return nil, xerrors.Errorf("failed to run make install: %w", err)
	}
	if result.ExitCode != 0 {
		return &result, xerrors.Errorf("make install failed:\n%s\n%s", strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}
	return &result, nil
}
