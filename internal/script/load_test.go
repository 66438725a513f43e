package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"sccmod/internal/config"
	"sccmod/internal/module"
	"sccmod/internal/script"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		ModulePaths: []string{dir},
		BuildRoot:   "/build",
		InstallRoot: "/opt",
		Shell:       "/bin/sh",
	}
}

const zlibScript = `
local sccmod = require("sccmod")

function generate()
  return {
    {
      metadata = function()
        return {
          {"name", "zlib"},
          {"version", "1.3"},
          {"class", "lib"},
        }
      end,
      download = function()
        return sccmod.Curl{url = "https://example.org/zlib-1.3.tar.gz", sha256 = "abc", archive = "tar.gz"}
      end,
      dependencies = function()
        return {sccmod.Class("compiler")}
      end,
      environment = function()
        return {
          {"LD_LIBRARY_PATH", "prepend", "lib"},
        }
      end,
      build = function()
        return sccmod.CMake{build_type = "Release", jobs = 4}
      end,
    },
  }
end
`

func TestLoadExtractsFullTemplate(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "zlib.lua", zlibScript)

	records, err := script.Load(testConfig(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Name != "zlib" || rec.Version != "1.3" || rec.Class != "lib" {
		t.Fatalf("unexpected identity: %+v", rec)
	}
	if rec.Downloader == nil {
		t.Fatal("expected a downloader to be set")
	}
	if len(rec.Dependencies) != 1 || rec.Dependencies[0].Kind != module.KindClass || rec.Dependencies[0].Name != "compiler" {
		t.Fatalf("unexpected dependencies: %+v", rec.Dependencies)
	}
	if len(rec.Environment) != 1 || rec.Environment[0].Op != module.EnvPrepend {
		t.Fatalf("unexpected environment: %+v", rec.Environment)
	}
	if rec.Builder == nil {
		t.Fatal("expected a builder to be set")
	}
	if rec.SourcePath == "" || rec.BuildPath == "" || rec.InstallPath == "" {
		t.Fatalf("expected derived paths to be populated: %+v", rec)
	}
}

const missingNameScript = `
function generate()
  return {
    {
      metadata = function()
        return {
          {"version", "1.0"},
          {"class", "lib"},
        }
      end,
    },
  }
end
`

func TestLoadMissingRequiredMetadataKeyErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "broken.lua", missingNameScript)

	_, err := script.Load(testConfig(dir))
	if err == nil {
		t.Fatal("expected an error for missing 'name' metadata key")
	}
}

const badDependencyScript = `
local sccmod = require("sccmod")

function generate()
  return {
    {
      metadata = function()
        return {
          {"name", "foo"},
          {"version", "1.0"},
          {"class", "lib"},
        }
      end,
      dependencies = function()
        return {42}
      end,
    },
  }
end
`

func TestLoadBadDependencyElementErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "baddep.lua", badDependencyScript)

	_, err := script.Load(testConfig(dir))
	if err == nil {
		t.Fatal("expected an error for a non-string, non-table dependency element")
	}
}

const noGenerateScript = `
local x = 1
`

func TestLoadScriptWithoutGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "nogen.lua", noGenerateScript)

	_, err := script.Load(testConfig(dir))
	if err == nil {
		t.Fatal("expected an error when generate() is not defined")
	}
}

func TestLoadAbortsWholeCatalogueOnFirstError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "zlib.lua", zlibScript)
	writeScript(t, dir, "broken.lua", missingNameScript)

	_, err := script.Load(testConfig(dir))
	if err == nil {
		t.Fatal("expected the whole catalogue load to fail")
	}
}
