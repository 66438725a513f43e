package download

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/archive"
	"sccmod/internal/pump"
)

// Curl fetches a source archive over HTTP and optionally extracts it
// (spec.md §4.3).
//
// SHA256 is captured for future use but not verified; see DESIGN.md.
type Curl struct {
	URL     string
	SHA256  string
	Archive string // "" means no extraction
}

// Download fetches URL into path, creating it if necessary, then extracts
// the downloaded file if Archive names a recognized archive type.
func (c *Curl) Download(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return xerrors.Errorf("failed to create download directory %q: %w", path, err)
	}

	fetch := exec.Command("curl", "-OL", c.URL)
	fetch.Dir = path

	result, err := pump.Run(fetch)
	if err != nil {
		return xerrors.Errorf("failed to run curl: %w", err)
	}
	if result.ExitCode != 0 {
		return xerrors.Errorf("failed to download %q:\n%s\n%s", c.URL,
			strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}

	if c.Archive == "" {
		return nil
	}

	file := filepath.Base(c.URL)
	if err := archive.Extract(path, file, c.Archive); err != nil {
		return xerrors.Errorf("failed to extract %q: %w", file, err)
	}
	return nil
}
