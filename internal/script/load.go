// Package script loads user-authored module definitions written in an
// embedded Lua runtime (spec.md §4.5, C5) into normalized module.Record
// values.
package script

import (
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/xerrors"

	"sccmod/internal/config"
	"sccmod/internal/module"
)

// Load walks every configured module search root recursively and executes
// every file found in a fresh Lua state, collecting the module records
// each script's generate() returns.
//
// Script-load errors are fatal for the whole catalogue (spec.md §7): the
// first failing file aborts Load and no partial catalogue is returned.
func Load(cfg *config.Config) ([]*module.Record, error) {
	var files []string
	for _, root := range cfg.ModulePaths {
		if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		}); err != nil {
			return nil, xerrors.Errorf("failed to read module search root %q: %w", root, err)
		}
	}

	var records []*module.Record
	for _, file := range files {
		fileRecords, err := loadFile(cfg, file)
		if err != nil {
			return nil, xerrors.Errorf("%s: %w", file, err)
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

func loadFile(cfg *config.Config, file string) ([]*module.Record, error) {
	L := lua.NewState()
	defer L.Close()

	L.PreloadModule("sccmod", func(L *lua.LState) int {
		if err := L.DoString(prelude); err != nil {
			L.RaiseError("failed to load sccmod prelude: %v", err)
		}
		return 1
	})

	if err := L.DoFile(file); err != nil {
		return nil, xerrors.Errorf("failed to execute script: %w", err)
	}

	generate := L.GetGlobal("generate")
	fn, ok := generate.(*lua.LFunction)
	if !ok {
		return nil, xerrors.Errorf("script does not define a `generate` function")
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, xerrors.Errorf("failed to call generate(): %w", err)
	}
	result := L.Get(-1)
	L.Pop(1)

	templates, ok := asTable(result)
	if !ok {
		return nil, xerrors.Errorf("generate() must return an array of module templates")
	}

	var records []*module.Record
	for i := 1; i <= templates.Len(); i++ {
		tmpl, ok := asTable(templates.RawGetInt(i))
		if !ok {
			return nil, xerrors.Errorf("generate() element %d is not a table", i)
		}
		rec, err := fromTemplate(L, cfg, tmpl)
		if err != nil {
			return nil, xerrors.Errorf("module template %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// fromTemplate extracts one module.Record from a module-template object,
// matching the field-by-field extraction of original_source/src/module.rs's
// Module::from_object.
func fromTemplate(L *lua.LState, cfg *config.Config, tmpl *lua.LTable) (*module.Record, error) {
	rec := &module.Record{}

	metaVal, present, err := callZeroArg(L, tmpl, "metadata")
	if err != nil {
		return nil, xerrors.Errorf("failed to call metadata(): %w", err)
	}
	if !present {
		return nil, xerrors.Errorf("module template does not define metadata()")
	}
	metaTbl, ok := asTable(metaVal)
	if !ok {
		return nil, xerrors.Errorf("metadata() must return an array of {key, value} pairs")
	}

	kvs, err := metadataPairs(metaTbl)
	if err != nil {
		return nil, err
	}
	rec.Metadata = kvs

	name, ok := kvLookup(kvs, "name")
	if !ok {
		return nil, xerrors.Errorf("metadata does not contain key 'name'")
	}
	version, ok := kvLookup(kvs, "version")
	if !ok {
		return nil, xerrors.Errorf("metadata does not contain key 'version'")
	}
	class, ok := kvLookup(kvs, "class")
	if !ok {
		return nil, xerrors.Errorf("metadata does not contain key 'class'")
	}
	root, _ := kvLookup(kvs, "root")

	rec.Name, rec.Version, rec.Class, rec.Root = name, version, class, root

	downloadVal, present, err := callZeroArg(L, tmpl, "download")
	if err != nil {
		return nil, xerrors.Errorf("failed to call download(): %w", err)
	}
	if present {
		downloadTbl, ok := asTable(downloadVal)
		if !ok {
			return nil, xerrors.Errorf("download() must return a downloader object")
		}
		downloader, err := downloaderFromTable(downloadTbl)
		if err != nil {
			return nil, err
		}
		rec.Downloader = downloader
	}

	depsVal, present, err := callZeroArg(L, tmpl, "dependencies")
	if err != nil {
		return nil, xerrors.Errorf("failed to call dependencies(): %w", err)
	}
	if present {
		depsTbl, ok := asTable(depsVal)
		if !ok {
			return nil, xerrors.Errorf("dependencies() must return an array")
		}
		deps, err := dependenciesFromTable(depsTbl)
		if err != nil {
			return nil, err
		}
		rec.Dependencies = deps
	}

	envVal, present, err := callZeroArg(L, tmpl, "environment")
	if err != nil {
		return nil, xerrors.Errorf("failed to call environment(): %w", err)
	}
	if present {
		envTbl, ok := asTable(envVal)
		if !ok {
			return nil, xerrors.Errorf("environment() must return an array")
		}
		env, err := environmentFromTable(envTbl)
		if err != nil {
			return nil, err
		}
		rec.Environment = env
	}

	buildVal, present, err := callZeroArg(L, tmpl, "build")
	if err != nil {
		return nil, xerrors.Errorf("failed to call build(): %w", err)
	}
	if present {
		buildTbl, ok := asTable(buildVal)
		if !ok {
			return nil, xerrors.Errorf("build() must return a builder object")
		}
		b, err := builderFromTable(buildTbl)
		if err != nil {
			return nil, err
		}
		rec.Builder = b
	}

	preBuildVal, present, err := callZeroArg(L, tmpl, "pre_build")
	if err != nil {
		return nil, xerrors.Errorf("failed to call pre_build(): %w", err)
	}
	if present {
		preBuildTbl, ok := asTable(preBuildVal)
		if !ok {
			return nil, xerrors.Errorf("pre_build() must return an array of strings")
		}
		rec.PreBuild, err = stringArray(preBuildTbl)
		if err != nil {
			return nil, xerrors.Errorf("pre_build(): %w", err)
		}
	}

	postInstallVal, present, err := callZeroArg(L, tmpl, "post_install")
	if err != nil {
		return nil, xerrors.Errorf("failed to call post_install(): %w", err)
	}
	if present {
		postInstallTbl, ok := asTable(postInstallVal)
		if !ok {
			return nil, xerrors.Errorf("post_install() must return an array of strings")
		}
		rec.PostInstall, err = stringArray(postInstallTbl)
		if err != nil {
			return nil, xerrors.Errorf("post_install(): %w", err)
		}
	}

	rec.SourcePath, rec.BuildPath, rec.InstallPath = module.DerivePaths(
		cfg.BuildRoot, cfg.InstallRoot, rec.Class, rec.Name, rec.Version)

	return rec, nil
}

func stringArray(tbl *lua.LTable) ([]string, error) {
	out := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		s, ok := asString(tbl.RawGetInt(i))
		if !ok {
			return nil, xerrors.Errorf("element %d is not a string", i)
		}
		out = append(out, s)
	}
	return out, nil
}

func metadataPairs(tbl *lua.LTable) ([]module.KV, error) {
	out := make([]module.KV, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		pair, ok := asTable(tbl.RawGetInt(i))
		if !ok || pair.Len() != 2 {
			return nil, xerrors.Errorf("metadata() element %d must be a {key, value} pair", i)
		}
		key, ok := asString(pair.RawGetInt(1))
		if !ok {
			return nil, xerrors.Errorf("metadata() element %d: key must be a string", i)
		}
		value, ok := asString(pair.RawGetInt(2))
		if !ok {
			return nil, xerrors.Errorf("metadata() element %d: value must be a string", i)
		}
		out = append(out, module.KV{Key: key, Value: value})
	}
	return out, nil
}

func kvLookup(kvs []module.KV, key string) (string, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

func dependenciesFromTable(tbl *lua.LTable) ([]module.Dependency, error) {
	out := make([]module.Dependency, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		item := tbl.RawGetInt(i)

		if s, ok := asString(item); ok {
			out = append(out, module.Dependency{Kind: module.KindModule, Name: s})
			continue
		}

		depTbl, ok := asTable(item)
		if !ok {
			return nil, xerrors.Errorf("dependencies() element %d must be a string or a Class/Depends/Deny/Module value", i)
		}

		kind := kindOf(depTbl)
		var depKind module.DependencyKind
		switch kind {
		case "Class":
			depKind = module.KindClass
		case "Depends":
			depKind = module.KindDepends
		case "Deny":
			depKind = module.KindDeny
		case "Module":
			depKind = module.KindModule
		default:
			return nil, xerrors.Errorf("dependencies() element %d: unrecognized dependency kind %q", i, kind)
		}

		name, err := requiredStringField(depTbl, "name", "dependencies() element")
		if err != nil {
			return nil, xerrors.Errorf("dependencies() element %d is a %s instance, but does not contain a 'name' field", i, kind)
		}
		out = append(out, module.Dependency{Kind: depKind, Name: name})
	}
	return out, nil
}

func environmentFromTable(tbl *lua.LTable) ([]module.EnvEntry, error) {
	out := make([]module.EnvEntry, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		entryTbl, ok := asTable(tbl.RawGetInt(i))
		if !ok || entryTbl.Len() != 3 {
			return nil, xerrors.Errorf("environment() element %d must be a {key, op, value} triple", i)
		}
		key, ok := asString(entryTbl.RawGetInt(1))
		if !ok {
			return nil, xerrors.Errorf("environment() element %d: key must be a string", i)
		}
		op, ok := asString(entryTbl.RawGetInt(2))
		if !ok {
			return nil, xerrors.Errorf("environment() element %d: op must be a string", i)
		}
		value, ok := asString(entryTbl.RawGetInt(3))
		if !ok {
			return nil, xerrors.Errorf("environment() element %d: value must be a string", i)
		}

		var envOp module.EnvOp
		switch op {
		case "set":
			envOp = module.EnvSet
		case "append":
			envOp = module.EnvAppend
		case "prepend":
			envOp = module.EnvPrepend
		default:
			return nil, xerrors.Errorf("invalid environment variable operation %q", op)
		}

		out = append(out, module.EnvEntry{Key: key, Op: envOp, Value: value})
	}
	return out, nil
}
