// Package modulefile renders and atomically writes Environment Modules
// files (spec.md §4.9, C9).
package modulefile

import (
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/google/renameio"
	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"

	"sccmod/internal/config"
	"sccmod/internal/module"
)

const tmplSource = `#%Module

# MODULEFILE GENERATED BY SCCMOD

# Metadata
{{range .Metadata}}# {{.Key}}: {{.Value}}
{{end}}
# Flavours initialisation
package require flavours
flavours init

# Module help
proc ModulesHelp { } {
   puts stderr "
{{range .Metadata}}{{.Key}}: {{.Value}}
{{end}}
"
}

module-whatis "{{.Description}}"

# Module prerequisites
{{range .ClassDependencies}}flavours prereq -class {{.}}
{{end}}
{{if .EmitConflict}}# Conflict with other modules of the same class
flavours conflict -class {{.Class}}
{{end}}
# Evaluate the flavour
flavours root     {{.InstallPath}}
flavours revision 1
flavours commit

# Set environment variables
{{range .Environment}}{{.}}
{{end}}
# Cleanup and reload conflicting modules
flavours cleanup
`

var tmpl = template.Must(template.New("modulefile").Parse(tmplSource))

type templateData struct {
	Metadata          []module.KV
	Description       string
	ClassDependencies []string
	EmitConflict      bool
	Class             string
	InstallPath       string
	Environment       []string
}

// Render produces the modulefile text for rec. The `flavours root` line
// uses rec.InstallPath as given; internal/pipeline passes the module's
// base install path, without any per-flavour suffix.
//
// classNoConflict exempts rec.Class from the `flavours conflict` line
// (spec.md §6, §9).
func Render(rec *module.Record, classNoConflict []string) ([]byte, error) {
	description := "No description provided"
	if d, ok := rec.MetadataGet("description"); ok {
		description = d
	}

	var classDeps []string
	for _, dep := range rec.Dependencies {
		if dep.Kind == module.KindClass {
			classDeps = append(classDeps, dep.Name)
		}
	}

	emitConflict := true
	for _, c := range classNoConflict {
		if c == rec.Class {
			emitConflict = false
			break
		}
	}

	var env []string
	for _, e := range rec.Environment {
		switch e.Op {
		case module.EnvSet:
			env = append(env, `setenv "`+e.Key+`" "`+e.Value+`"`)
		case module.EnvAppend:
			env = append(env, `flavours append-path "`+e.Key+`" "`+e.Value+`"`)
		case module.EnvPrepend:
			env = append(env, `flavours prepend-path "`+e.Key+`" "`+e.Value+`"`)
		}
	}

	data := templateData{
		Metadata:          rec.Metadata,
		Description:       description,
		ClassDependencies: classDeps,
		EmitConflict:      emitConflict,
		Class:             rec.Class,
		InstallPath:       rec.InstallPath,
		Environment:       env,
	}

	var buf writerseeker.WriterSeeker
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, xerrors.Errorf("failed to render modulefile template: %w", err)
	}

	content, err := io.ReadAll(buf.Reader())
	if err != nil {
		return nil, xerrors.Errorf("failed to read rendered modulefile: %w", err)
	}
	return content, nil
}

// Write renders rec's modulefile and atomically replaces it at
// <modulefile_root>/<class>/<name>/<version> (spec.md §4.9).
func Write(rec *module.Record, cfg *config.Config) error {
	content, err := Render(rec, cfg.ClassNoConflict)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.ModulefileRoot, rec.Class, rec.Name, rec.Version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return xerrors.Errorf("failed to create modulefile directory: %w", err)
	}
	if err := renameio.WriteFile(path, content, 0o644); err != nil {
		return xerrors.Errorf("failed to write modulefile %q: %w", path, err)
	}
	return nil
}
