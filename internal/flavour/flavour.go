// Package flavour expands a module's dependencies into its build flavours
// (spec.md §4.6, C6): the Cartesian product of candidate modules for each
// required flavours class, each combination filtered by the module's deny
// specs.
package flavour

import (
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/module"
)

// Flavour is one surviving combination: Peers[:K] are the chosen class
// candidates (one per required class, in declaration order), Peers[K:]
// are the fixed required modules/depends (in declaration order). K is the
// split point used to name the flavour's path suffix (spec.md §4.6).
type Flavour struct {
	Peers []*module.Record
	K     int
}

// Suffix is the "/1/default" or "/1/<name0>-<ver0>-…" path segment a
// flavour contributes to build_path/install_path (spec.md §4.6, §4.8).
func (f Flavour) Suffix() string {
	if f.K == 0 {
		return "/1/default"
	}
	parts := make([]string, 0, f.K)
	for i := 0; i < f.K; i++ {
		p := f.Peers[i]
		parts = append(parts, p.Name+"-"+p.Version)
	}
	return "/1/" + strings.Join(parts, "-")
}

// ModNames returns the ModName() of every peer in the flavour (all of
// Peers, not just the class peers) — the dependency list passed to a
// builder (spec.md §4.8).
func (f Flavour) ModNames() []string {
	names := make([]string, len(f.Peers))
	for i, p := range f.Peers {
		names[i] = p.ModName()
	}
	return names
}

// Expand computes every surviving flavour for rec against the full module
// catalogue, preserving catalogue order for class candidates and
// declaration order for required modules (spec.md §4.6 properties 1–2).
func Expand(rec *module.Record, catalogue []*module.Record) ([]Flavour, error) {
	var requiredClasses []string
	var requiredModules []*module.Record
	var denySpecs [][]string

	for _, dep := range rec.Dependencies {
		switch dep.Kind {
		case module.KindClass:
			requiredClasses = append(requiredClasses, dep.Name)
		case module.KindModule, module.KindDepends:
			m, err := findModule(catalogue, dep.Name)
			if err != nil {
				return nil, err
			}
			requiredModules = append(requiredModules, m)
		case module.KindDeny:
			denySpecs = append(denySpecs, strings.Split(dep.Name, ":"))
		}
	}

	candidates := make([][]*module.Record, len(requiredClasses))
	for i, class := range requiredClasses {
		for _, m := range catalogue {
			if m.Class == class {
				candidates[i] = append(candidates[i], m)
			}
		}
		if len(candidates[i]) == 0 {
			// A required class with no catalogue candidates makes the
			// Cartesian product empty: no builds, not an error (spec.md §3).
			return nil, nil
		}
	}

	var flavours []Flavour
	k := len(requiredClasses)
	index := make([]int, k+1)

	for index[k] == 0 {
		peers := make([]*module.Record, 0, k+len(requiredModules))
		for c := 0; c < k; c++ {
			peers = append(peers, candidates[c][index[c]])
		}
		peers = append(peers, requiredModules...)

		if !denied(peers, denySpecs) {
			flavours = append(flavours, Flavour{Peers: peers, K: k})
		}

		index[0]++
		i := 0
		for i < k && index[i] >= len(candidates[i]) {
			index[i] = 0
			index[i+1]++
			i++
		}
	}

	return flavours, nil
}

func denied(peers []*module.Record, denySpecs [][]string) bool {
	for _, spec := range denySpecs {
		all := true
		for _, denyName := range spec {
			found := false
			for _, p := range peers {
				if p.ModName() == denyName {
					found = true
					break
				}
			}
			if !found {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func findModule(catalogue []*module.Record, name string) (*module.Record, error) {
	for _, m := range catalogue {
		if m.Identifier() == name || m.ModName() == name {
			return m, nil
		}
	}
	return nil, xerrors.Errorf("failed to find module matching dependency %q", name)
}
