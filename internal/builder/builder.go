// Package builder implements the build-system drivers (spec.md §4.4, C4):
// CMake and Make. Both compose their command sequence with internal/shellx
// so that every step of a build runs inside one shell invocation.
package builder

import "sccmod/internal/pump"

// Builder drives a module's configure/build/install steps against one
// flavour. dependencies is the ModName() of every peer in the flavour
// (spec.md §4.8), used to `module load` prerequisites before compiling.
//
// Both methods return the captured process output alongside the error, so
// callers can persist it (internal/buildlog) regardless of outcome.
type Builder interface {
	Build(shellPath, sourcePath, buildPath, installPath string, dependencies []string) (*pump.Result, error)
	Install(shellPath, buildPath, installPath string, dependencies []string) (*pump.Result, error)
}
