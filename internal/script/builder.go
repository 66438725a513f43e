package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/xerrors"

	"sccmod/internal/builder"
)

var cmakeBuildTypes = map[string]builder.CMakeBuildType{
	"debug":          builder.Debug,
	"release":        builder.Release,
	"relwithdebinfo": builder.RelWithDebInfo,
	"minsizerel":     builder.MinSizeRel,
}

// builderFromTable dispatches a tagged table returned by build() into a
// concrete builder.Builder (spec.md §4.5).
func builderFromTable(tbl *lua.LTable) (builder.Builder, error) {
	switch kind := kindOf(tbl); kind {
	case "CMake":
		return cmakeFromTable(tbl)
	case "Make":
		return makeFromTable(tbl)
	default:
		return nil, xerrors.Errorf("build(): unrecognized builder kind %q", kind)
	}
}

func cmakeFromTable(tbl *lua.LTable) (*builder.CMake, error) {
	const ctx = "build(): CMake"
	buildTypeStr, err := requiredStringField(tbl, "build_type", ctx)
	if err != nil {
		return nil, err
	}
	buildType, ok := cmakeBuildTypes[strings.ToLower(buildTypeStr)]
	if !ok {
		return nil, xerrors.Errorf("%s: unknown build_type %q", ctx, buildTypeStr)
	}
	jobs, err := requiredIntField(tbl, "jobs", ctx)
	if err != nil {
		return nil, err
	}
	configureFlags, err := optionalStringSliceField(tbl, "configure_flags")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	cmakeRoot, err := optionalStringField(tbl, "cmake_root")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	return &builder.CMake{
		BuildType:      buildType,
		Jobs:           jobs,
		ConfigureFlags: configureFlags,
		CMakeRoot:      cmakeRoot,
	}, nil
}

func makeFromTable(tbl *lua.LTable) (*builder.Make, error) {
	const ctx = "build(): Make"
	configure, err := requiredBoolField(tbl, "configure", ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := requiredIntField(tbl, "jobs", ctx)
	if err != nil {
		return nil, err
	}
	prefixArgs, err := optionalStringSliceField(tbl, "prefix_args")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	configureFlags, err := optionalStringSliceField(tbl, "configure_flags")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	makeRoot, err := optionalStringField(tbl, "make_root")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	return &builder.Make{
		Configure:      configure,
		Jobs:           jobs,
		PrefixArgs:     prefixArgs,
		ConfigureFlags: configureFlags,
		MakeRoot:       makeRoot,
	}, nil
}
