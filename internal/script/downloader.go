package script

import (
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/xerrors"

	"sccmod/internal/download"
)

// downloaderFromTable dispatches a tagged table returned by download() into
// a concrete download.Downloader (spec.md §4.5).
func downloaderFromTable(tbl *lua.LTable) (download.Downloader, error) {
	switch kind := kindOf(tbl); kind {
	case "GitClone":
		return gitCloneFromTable(tbl)
	case "Curl":
		return curlFromTable(tbl)
	default:
		return nil, xerrors.Errorf("download(): unrecognized downloader kind %q", kind)
	}
}

func gitCloneFromTable(tbl *lua.LTable) (*download.GitClone, error) {
	const ctx = "download(): GitClone"
	url, err := requiredStringField(tbl, "url", ctx)
	if err != nil {
		return nil, err
	}
	branch, err := optionalStringField(tbl, "branch")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	commit, err := optionalStringField(tbl, "commit")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	submodules, err := optionalBoolField(tbl, "submodules")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	shallow, err := optionalBoolField(tbl, "shallow")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	patches, err := optionalStringSliceField(tbl, "patches")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	return &download.GitClone{
		URL:        url,
		Branch:     branch,
		Commit:     commit,
		Submodules: submodules,
		Shallow:    shallow,
		Patches:    patches,
	}, nil
}

func curlFromTable(tbl *lua.LTable) (*download.Curl, error) {
	const ctx = "download(): Curl"
	url, err := requiredStringField(tbl, "url", ctx)
	if err != nil {
		return nil, err
	}
	sha256, err := optionalStringField(tbl, "sha256")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	archive, err := optionalStringField(tbl, "archive")
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", ctx, err)
	}
	return &download.Curl{URL: url, SHA256: sha256, Archive: archive}, nil
}
