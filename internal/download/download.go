// Package download implements the source downloaders (spec.md §4.3, C3):
// GitClone (clone/checkout/pull, then patch application) and Curl (HTTP
// fetch, then optional archive extraction via internal/archive).
package download

// Downloader fetches a module's source into path.
type Downloader interface {
	Download(path string) error
}
