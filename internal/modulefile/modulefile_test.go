package modulefile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sccmod/internal/config"
	"sccmod/internal/module"
	"sccmod/internal/modulefile"
)

func record() *module.Record {
	return &module.Record{
		Name:        "zlib",
		Version:     "1.3",
		Class:       "lib",
		InstallPath: "/opt/lib/zlib-1.3",
		Metadata: []module.KV{
			{Key: "name", Value: "zlib"},
			{Key: "version", Value: "1.3"},
			{Key: "class", Value: "lib"},
		},
		Dependencies: []module.Dependency{
			{Kind: module.KindClass, Name: "compiler"},
			{Kind: module.KindDepends, Name: "zlib-config/1.0"}, // not a class dep, should not appear
		},
		Environment: []module.EnvEntry{
			{Key: "LD_LIBRARY_PATH", Op: module.EnvPrepend, Value: "lib"},
			{Key: "ZLIB_HOME", Op: module.EnvSet, Value: "/opt/lib/zlib-1.3"},
		},
	}
}

func TestRenderIncludesClassPrereqButNotDependsDep(t *testing.T) {
	out, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)

	if !strings.Contains(text, "flavours prereq -class compiler") {
		t.Errorf("missing class prereq line:\n%s", text)
	}
	if strings.Contains(text, "zlib-config") {
		t.Errorf("Depends dependency leaked into modulefile:\n%s", text)
	}
}

func TestRenderEmitsConflictByDefault(t *testing.T) {
	out, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "flavours conflict -class lib") {
		t.Errorf("expected a conflict line:\n%s", out)
	}
}

// class_no_conflict suppresses the `flavours conflict` line for listed
// classes.
func TestRenderSuppressesConflictForListedClass(t *testing.T) {
	out, err := modulefile.Render(record(), []string{"lib"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(string(out), "flavours conflict") {
		t.Errorf("expected no conflict line:\n%s", out)
	}
}

func TestRenderDefaultDescriptionWhenMissing(t *testing.T) {
	out, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `module-whatis "No description provided"`) {
		t.Errorf("expected default description:\n%s", out)
	}
}

func TestRenderUsesMetadataDescriptionWhenPresent(t *testing.T) {
	rec := record()
	rec.Metadata = append(rec.Metadata, module.KV{Key: "description", Value: "A compression library"})

	out, err := modulefile.Render(rec, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `module-whatis "A compression library"`) {
		t.Errorf("expected custom description:\n%s", out)
	}
}

func TestRenderEnvironmentLines(t *testing.T) {
	out, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, `flavours prepend-path "LD_LIBRARY_PATH" "lib"`) {
		t.Errorf("missing prepend-path line:\n%s", text)
	}
	if !strings.Contains(text, `setenv "ZLIB_HOME" "/opt/lib/zlib-1.3"`) {
		t.Errorf("missing setenv line:\n%s", text)
	}
}

// S6: re-rendering the same record twice is idempotent.
func TestRenderIsIdempotent(t *testing.T) {
	first, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	second, err := modulefile.Render(record(), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("Render is not deterministic:\n%s\n---\n%s", first, second)
	}
}

func TestWriteAtomicallyReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ModulefileRoot: dir}
	rec := record()

	if err := modulefile.Write(rec, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(dir, "lib", "zlib", "1.3")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if err := modulefile.Write(rec, cfg); err != nil {
		t.Fatalf("second Write: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after second write: %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("modulefile content changed across idempotent writes")
	}
}
