package builder

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/pump"
	"sccmod/internal/shellx"
)

// CMakeBuildType is the `-DCMAKE_BUILD_TYPE` value a module script selects
// (spec.md §3).
type CMakeBuildType string

const (
	Debug          CMakeBuildType = "Debug"
	Release        CMakeBuildType = "Release"
	RelWithDebInfo CMakeBuildType = "RelWithDebInfo"
	MinSizeRel     CMakeBuildType = "MinSizeRel"
)

// CMake drives a CMake-based build (spec.md §4.4).
type CMake struct {
	BuildType      CMakeBuildType
	Jobs           int
	ConfigureFlags []string
	CMakeRoot      string // "" means unset; see effectiveSourcePath
}

func (c *CMake) effectiveSourcePath(sourcePath string) string {
	if c.CMakeRoot == "" {
		return sourcePath
	}
	return sourcePath + "/" + c.CMakeRoot
}

// buildShell composes (without running) the configure+compile shell
// sequence, so tests can assert on its exact command list (spec.md §8
// scenario S5) without spawning cmake.
func (c *CMake) buildShell(shellPath, sourcePath, buildPath string, dependencies []string) *shellx.Shell {
	sh := shellx.New(shellPath)
	sh.SetCurrentDir(buildPath)
	for _, dep := range dependencies {
		sh.AddCommand(fmt.Sprintf("module load %s", dep))
	}

	configure := []string{"cmake", c.effectiveSourcePath(sourcePath)}
	configure = append(configure, c.ConfigureFlags...)
	configure = append(configure, fmt.Sprintf("-DCMAKE_BUILD_TYPE=%s", c.BuildType))
	sh.AddCommand(strings.Join(configure, " "))

	sh.AddCommand(fmt.Sprintf("cmake --build . --config %s --parallel %d", c.BuildType, c.Jobs))
	return sh
}

// Build runs configure and compile in a single composed shell invocation, in
// that order (spec.md §8 scenario S5).
func (c *CMake) Build(shellPath, sourcePath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
	if err := os.MkdirAll(buildPath, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create build directory %q: %w", buildPath, err)
	}

	sh := c.buildShell(shellPath, sourcePath, buildPath, dependencies)

	result, err := sh.Exec()
	if err != nil {
		return nil, xerrors.Errorf("failed to run cmake: %w", err)
	}
	if result.ExitCode != 0 {
		return &result, xerrors.Errorf("cmake build failed:\n%s\n%s", strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}
	return &result, nil
}

// Install runs `cmake --install` in buildPath (spec.md §4.4). Note the
// original install step's `--preifx` typo is not reproduced here; see
// DESIGN.md.
func (c *CMake) Install(shellPath, buildPath, installPath string, dependencies []string) (*pump.Result, error) {
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
	sh.AddCommand(fmt.Sprintf("cmake --install . --prefix %s", installPath))

	result, err := sh.Exec()
	if err != nil {
		return nil, xerrors.Errorf("failed to run cmake --install: %w", err)
	}
	if result.ExitCode != 0 {
		return &result, xerrors.Errorf("cmake install failed:\n%s\n%s", strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}
	return &result, nil
}
