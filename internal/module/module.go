// Package module defines the module record (spec.md §3, §4.5): the
// normalized, statically typed result of loading one module-template
// object out of the embedded scripting runtime (internal/script).
package module

import (
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/builder"
	"sccmod/internal/download"
	"sccmod/internal/logx"
	"sccmod/internal/pump"
	"sccmod/internal/shellx"
)

// DependencyKind tags a Dependency's role in flavour expansion (spec.md
// §4.6).
type DependencyKind int

const (
	// KindClass names a flavours class: the flavour expander must pick one
	// candidate module of this class per flavour.
	KindClass DependencyKind = iota
	// KindModule names one specific module, required in every flavour.
	KindModule
	// KindDepends is semantically identical to KindModule (spec.md §4.6
	// unions them into "required_modules"); scripts use it to express
	// "depends on" rather than "requires the class of".
	KindDepends
	// KindDeny excludes any flavour combination containing every short name
	// in its (colon-separated) spec.
	KindDeny
)

// Dependency is one entry of a module's dependencies() sequence.
type Dependency struct {
	Kind DependencyKind
	Name string
}

// EnvOp is the operation a module's environment() entry applies to a
// variable.
type EnvOp string

const (
	EnvSet     EnvOp = "set"
	EnvAppend  EnvOp = "append"
	EnvPrepend EnvOp = "prepend"
)

// EnvEntry is one (key, (op, value)) tuple from environment() (spec.md
// §4.5), in declaration order.
type EnvEntry struct {
	Key   string
	Op    EnvOp
	Value string
}

// KV is one ordered metadata entry. Metadata is kept as an ordered slice,
// not a map, because the modulefile header (C9) must render entries in the
// order the module script declared them.
type KV struct {
	Key   string
	Value string
}

// Record is the normalized form of one module-template object returned by
// a script's generate() (spec.md §4.5).
type Record struct {
	Name    string
	Version string
	Class   string
	Root    string // "" if metadata() omitted it

	Dependencies []Dependency
	Metadata     []KV
	Environment  []EnvEntry

	PreBuild    []string // nil if pre_build() is undefined
	PostInstall []string // nil if post_install() is undefined

	Downloader download.Downloader // nil if download() is undefined
	Builder    builder.Builder     // nil if build() is undefined

	SourcePath  string
	BuildPath   string
	InstallPath string
}

// DerivePaths computes a module's three base filesystem locations from its
// identity and the configured roots (spec.md §3):
//
//	source_path  = <build_root>/<name>/<version>
//	build_path   = <source_path>/sccmod_build
//	install_path = <install_root>/<class>/<name>-<version>
//
// These are flavour-independent; internal/pipeline appends each flavour's
// Suffix() to build_path/install_path before a build or install runs.
func DerivePaths(buildRoot, installRoot, class, name, version string) (sourcePath, buildPath, installPath string) {
	sourcePath = buildRoot + "/" + name + "/" + version
	buildPath = sourcePath + "/sccmod_build"
	installPath = installRoot + "/" + class + "/" + name + "-" + version
	return sourcePath, buildPath, installPath
}

// Identifier is the catalogue-wide unique key used by the resolver (C7)
// and modulefile path derivation: "<class>/<name>/<version>".
func (r *Record) Identifier() string {
	return r.Class + "/" + r.Name + "/" + r.Version
}

// ModName is the Environment Modules module name used in `module load`
// commands and flavour-suffix path segments: "<name>/<version>".
func (r *Record) ModName() string {
	return r.Name + "/" + r.Version
}

// MetadataGet looks up key in Metadata, preserving first-match semantics.
func (r *Record) MetadataGet(key string) (string, bool) {
	for _, kv := range r.Metadata {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Download fetches the module's source via its Downloader. A module with
// no downloader is skipped with a warning (spec.md §4.8).
func (r *Record) Download() error {
	if r.Downloader == nil {
		logx.Warn("Module '" + r.Identifier() + "' does not have a downloader")
		return nil
	}
	return r.Downloader.Download(r.SourcePath)
}

// Build runs the optional pre_build commands at SourcePath, then the
// builder's Build step against one flavour's derived build/install paths
// and peer module names (spec.md §4.8). A module with no builder is
// skipped with a warning. The returned result is the builder's captured
// process output, for internal/buildlog to persist; it is nil when the
// builder was never reached (no builder, or pre_build failed) and when the
// builder failed before its shell ran (e.g. the build directory could not
// be created).
func (r *Record) Build(shellPath, buildPath, installPath string, peerModNames []string) (*pump.Result, error) {
	if r.Builder == nil {
		logx.Warn("Module '" + r.Identifier() + "' does not have a builder")
		return nil, nil
	}

	if len(r.PreBuild) > 0 {
		logx.Status("Running pre-build commands")
		if err := runCommands(shellPath, r.SourcePath, r.PreBuild); err != nil {
			return nil, err
		}
		logx.Status("Building...")
	}

	return r.Builder.Build(shellPath, r.SourcePath, buildPath, installPath, peerModNames)
}

// Install runs the builder's Install step, then the optional
// post_install commands at InstallPath with peer modules loaded (spec.md
// §4.8). A module with no builder is skipped with a warning. The returned
// result is the builder's captured process output, for internal/buildlog
// to persist.
func (r *Record) Install(shellPath, buildPath, installPath string, peerModNames []string) (*pump.Result, error) {
	if r.Builder == nil {
		logx.Warn("Module '" + r.Identifier() + "' does not have a builder")
		return nil, nil
	}

	result, err := r.Builder.Install(shellPath, buildPath, installPath, peerModNames)
	if err != nil {
		return result, err
	}

	if len(r.PostInstall) > 0 {
		logx.Status("Running post-install commands")
		sh := shellx.New(shellPath)
		sh.SetCurrentDir(installPath)
		for _, mod := range peerModNames {
			sh.AddCommand("module load " + mod)
		}
		for _, cmd := range r.PostInstall {
			sh.AddCommand(cmd)
		}
		postResult, err := sh.Exec()
		if err != nil {
			return result, err
		}
		if postResult.ExitCode != 0 {
			return result, errExecFailed(postResult.Stdout, postResult.Stderr)
		}
		logx.Status("Building...")
	}

	return result, nil
}

func errExecFailed(stdout, stderr []string) error {
	return xerrors.Errorf("failed to execute command. Output:\n%s\n%s",
		strings.Join(stdout, "\n"), strings.Join(stderr, "\n"))
}

func runCommands(shellPath, cwd string, commands []string) error {
	sh := shellx.New(shellPath)
	sh.SetCurrentDir(cwd)
	for _, cmd := range commands {
		sh.AddCommand(cmd)
	}
	result, err := sh.Exec()
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errExecFailed(result.Stdout, result.Stderr)
	}
	return nil
}
