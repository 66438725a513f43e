package download

import (
	"testing"
)

// Archive == "" means no extraction is attempted; a bad URL still fails at
// the fetch step, so this only proves Download doesn't panic trying to
// derive an archive type from an empty string before the fetch ever runs.
func TestCurlDownloadFetchFailurePropagates(t *testing.T) {
	dir := t.TempDir()

	c := &Curl{URL: "https://example.invalid/does-not-exist.tar.gz"}
	if err := c.Download(dir); err == nil {
		t.Fatal("expected an error fetching an unresolvable URL")
	}
}
