// Package buildlog persists a pipeline step's captured stdout/stderr as a
// pgzip-compressed file under the flavour's build directory, so a build can
// be inspected after the fact without rerunning it (SPEC_FULL.md §C.1, a
// supplemented feature beyond spec.md's scope).
package buildlog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"
)

// dirName is the subdirectory of a flavour's build path that holds
// persisted step logs.
const dirName = "sccmod-logs"

// Persist writes every stdout line, then every stderr line, each with a
// stream marker, to <buildPath>/sccmod-logs/<step>.log.gz. The two streams
// are not interleaved.
func Persist(buildPath, step string, stdout, stderr []string) error {
	dir := filepath.Join(buildPath, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerrors.Errorf("failed to create build log directory %q: %w", dir, err)
	}

	var b strings.Builder
	for _, line := range stdout {
		b.WriteString("out: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, line := range stderr {
		b.WriteString("err: ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	path := filepath.Join(dir, step+".log.gz")
	out, err := renameio.TempFile("", path)
	if err != nil {
		return xerrors.Errorf("failed to create temp file for build log %q: %w", path, err)
	}
	defer out.Cleanup()

	zw := pgzip.NewWriter(out)
	if _, err := zw.Write([]byte(b.String())); err != nil {
		return xerrors.Errorf("failed to write build log %q: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return xerrors.Errorf("failed to close build log writer %q: %w", path, err)
	}
	if err := out.CloseAtomicallyReplace(); err != nil {
		return xerrors.Errorf("failed to replace build log %q: %w", path, err)
	}
	return nil
}
