// Package archive extracts downloaded source archives via the external
// `tar` binary (spec.md §4.3's Curl downloader step 3). Reimplementing
// archive formats is explicitly out of scope (spec.md §1): this package
// only validates the archive-type tag and shells out.
package archive

import (
	"os/exec"
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/pump"
)

// tarTypes are the archive type tags spec.md §4.3 recognizes; all of them
// are handled identically by `tar`, which auto-detects compression.
var tarTypes = map[string]bool{
	"tar":    true,
	"tar.gz": true,
	"targz":  true,
	"tgz":    true,
	"tar.xz": true,
	"txz":    true,
	"tarxz":  true,
}

// Extract extracts the archive named file (relative to dir) into dir,
// stripping the first path component, per spec.md §4.3.
//
// An unrecognized archiveType returns an error and performs no side
// effects (spec.md §8 property 7) — the command is never spawned.
func Extract(dir, file, archiveType string) error {
	if !tarTypes[archiveType] {
		return xerrors.Errorf("invalid archive type %q", archiveType)
	}

	cmd := exec.Command("tar", "-xvf", file, "--strip-components=1")
	cmd.Dir = dir

	result, err := pump.Run(cmd)
	if err != nil {
		return xerrors.Errorf("failed to run tar command: %w", err)
	}
	if result.ExitCode != 0 {
		return xerrors.Errorf("failed to extract archive:\n%s\n%s",
			strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}
	return nil
}
