// Package resolver matches partial, case-insensitive identifier tokens
// against the module catalogue (spec.md §4.7, C7).
package resolver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sccmod/internal/module"
)

// MatchKind tags which case a Resolve call landed in.
type MatchKind int

const (
	// None means no module's identifier contained every partial.
	None MatchKind = iota
	// Full means exactly one module matched.
	Full
	// All means two-or-more matched and the caller passed the literal
	// "ALL" token, selecting every match without prompting.
	All
	// Partial means two-or-more matched and the caller must disambiguate.
	Partial
)

// Match is the outcome of Resolve.
type Match struct {
	Kind    MatchKind
	Modules []*module.Record // one element for Full, 1+ for All/Partial
}

// Resolve selects every module whose lowercased Identifier() contains every
// lowercased partial as a substring. If the last element of partials is the
// literal "ALL", it is stripped and multiple matches are returned as All
// instead of Partial.
func Resolve(catalogue []*module.Record, partials []string) Match {
	all := false
	if len(partials) > 0 && partials[len(partials)-1] == "ALL" {
		all = true
		partials = partials[:len(partials)-1]
	}

	lowered := make([]string, len(partials))
	for i, p := range partials {
		lowered[i] = strings.ToLower(p)
	}

	var results []*module.Record
	for _, m := range catalogue {
		id := strings.ToLower(m.Identifier())
		matched := true
		for _, p := range lowered {
			if !strings.Contains(id, p) {
				matched = false
				break
			}
		}
		if matched {
			results = append(results, m)
		}
	}

	switch {
	case len(results) == 0:
		return Match{Kind: None}
	case len(results) == 1:
		return Match{Kind: Full, Modules: results}
	case all:
		return Match{Kind: All, Modules: results}
	default:
		return Match{Kind: Partial, Modules: results}
	}
}

// Disambiguate prints the numbered candidate list to out and reads from in
// until the user enters either "all" or a valid zero-based index, per
// spec.md §4.7. It returns the selected modules (all of them for "all", or
// the one at the chosen index).
func Disambiguate(candidates []*module.Record, in io.Reader, out io.Writer) []*module.Record {
	for i, m := range candidates {
		fmt.Fprintf(out, "%d: %s\n", i, m.Identifier())
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Select a module (index, or \"all\"): ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "all" {
			return candidates
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 0 || idx >= len(candidates) {
			continue
		}
		return []*module.Record{candidates[idx]}
	}
}
