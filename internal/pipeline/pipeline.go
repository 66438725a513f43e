// Package pipeline drives the per-module and catalogue-wide operations
// (spec.md §4.8, C8): download, build, install, and modulefile generation,
// sequenced per flavour and persisted via internal/buildlog.
package pipeline

import (
	"golang.org/x/xerrors"

	"sccmod/internal/buildlog"
	"sccmod/internal/config"
	"sccmod/internal/flavour"
	"sccmod/internal/logx"
	"sccmod/internal/modulefile"
	"sccmod/internal/module"
)

// Pipeline holds the configuration and catalogue every operation is run
// against.
type Pipeline struct {
	Config    *config.Config
	Catalogue []*module.Record
}

// New constructs a Pipeline.
func New(cfg *config.Config, catalogue []*module.Record) *Pipeline {
	return &Pipeline{Config: cfg, Catalogue: catalogue}
}

// Download fetches m's source (spec.md §4.8 download(m)).
func (p *Pipeline) Download(m *module.Record) error {
	logx.Status("Downloading " + m.Identifier())
	return m.Download()
}

// Build downloads m, then builds every flavour of m (spec.md §4.8
// build(m)).
func (p *Pipeline) Build(m *module.Record) error {
	if err := p.Download(m); err != nil {
		return err
	}

	flavours, err := flavour.Expand(m, p.Catalogue)
	if err != nil {
		return err
	}

	for _, f := range flavours {
		buildPath := m.BuildPath + f.Suffix()
		installPath := m.InstallPath + f.Suffix()
		modNames := f.ModNames()

		logx.Status("Building " + m.Identifier() + f.Suffix())
		result, buildErr := m.Build(p.Config.Shell, buildPath, installPath, modNames)
		if result != nil {
			if err := p.PersistStepLog(m, f, "build", result.Stdout, result.Stderr); err != nil {
				logx.Warn("failed to persist build log for " + m.Identifier() + f.Suffix() + ": " + err.Error())
			}
		}
		if buildErr != nil {
			return xerrors.Errorf("failed to build %s%s: %w", m.Identifier(), f.Suffix(), buildErr)
		}
	}
	return nil
}

// Install builds m, then installs every flavour and writes its modulefile
// once (spec.md §4.8 install(m)).
func (p *Pipeline) Install(m *module.Record) error {
	if err := p.Build(m); err != nil {
		return err
	}

	flavours, err := flavour.Expand(m, p.Catalogue)
	if err != nil {
		return err
	}

	for _, f := range flavours {
		buildPath := m.BuildPath + f.Suffix()
		installPath := m.InstallPath + f.Suffix()
		modNames := f.ModNames()

		logx.Status("Installing " + m.Identifier() + f.Suffix())
		result, installErr := m.Install(p.Config.Shell, buildPath, installPath, modNames)
		if result != nil {
			if err := p.PersistStepLog(m, f, "install", result.Stdout, result.Stderr); err != nil {
				logx.Warn("failed to persist install log for " + m.Identifier() + f.Suffix() + ": " + err.Error())
			}
		}
		if installErr != nil {
			return xerrors.Errorf("failed to install %s%s: %w", m.Identifier(), f.Suffix(), installErr)
		}
	}

	return p.Modulefile(m)
}

// Modulefile writes m's modulefile without building or installing
// (spec.md §4.8 modulefile(m)).
func (p *Pipeline) Modulefile(m *module.Record) error {
	logx.Status("Writing modulefile for " + m.ModName())
	return modulefile.Write(m, p.Config)
}

// PersistStepLog persists one build/install step's captured output for a
// flavour (SPEC_FULL.md's supplemented build-log feature).
func (p *Pipeline) PersistStepLog(m *module.Record, f flavour.Flavour, step string, stdout, stderr []string) error {
	buildPath := m.BuildPath + f.Suffix()
	return buildlog.Persist(buildPath, step, stdout, stderr)
}

// Op is one batch operation kind.
type Op int

const (
	OpDownload Op = iota
	OpBuild
	OpInstall
	OpModulefile
)

// Run dispatches a single-module operation by Op.
func (p *Pipeline) Run(op Op, m *module.Record) error {
	switch op {
	case OpDownload:
		return p.Download(m)
	case OpBuild:
		return p.Build(m)
	case OpInstall:
		return p.Install(m)
	case OpModulefile:
		return p.Modulefile(m)
	default:
		return xerrors.Errorf("unknown pipeline operation %d", op)
	}
}

// RunBatch runs op against every module in modules, in dependency order
// (see internal/pipeline.Order): a failure in one module aborts the batch
// (spec.md §4.8 "Batch operations").
func (p *Pipeline) RunBatch(op Op, modules []*module.Record) error {
	ordered, err := Order(modules)
	if err != nil {
		return err
	}
	for _, m := range ordered {
		if err := p.Run(op, m); err != nil {
			return xerrors.Errorf("%s: %w", m.Identifier(), err)
		}
	}
	return nil
}
