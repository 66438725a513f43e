package pipeline

import (
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"sccmod/internal/module"
)

type node struct {
	id int64
	m  *module.Record
}

func (n *node) ID() int64 { return n.id }

// Order topologically sorts modules so that every Module/Depends
// dependency is built before its dependent (spec.md §4.8's "…all" batch
// operations). Class dependencies are not edges here: a class names a set
// of interchangeable candidates rather than one fixed prerequisite, so they
// carry no fixed ordering constraint (SPEC_FULL.md §C.2).
//
// A dependency cycle makes Order return an error, so RunBatch fails before
// running any module.
func Order(modules []*module.Record) ([]*module.Record, error) {
	g := simple.NewDirectedGraph()

	byIdentifier := make(map[string]*node, len(modules))
	byModName := make(map[string]*node, len(modules))

	for i, m := range modules {
		n := &node{id: int64(i), m: m}
		byIdentifier[m.Identifier()] = n
		byModName[m.ModName()] = n
		g.AddNode(n)
	}

	for _, m := range modules {
		n := byIdentifier[m.Identifier()]
		for _, dep := range m.Dependencies {
			if dep.Kind != module.KindModule && dep.Kind != module.KindDepends {
				continue
			}
			d, ok := byIdentifier[dep.Name]
			if !ok {
				d, ok = byModName[dep.Name]
			}
			if !ok {
				continue // dependency outside this batch; nothing to order against
			}
			if d.id == n.id {
				continue
			}
			g.SetEdge(g.NewEdge(d, n))
		}
	}

	sorted, err := topo.Sort(g)
	if err != nil {
		return nil, xerrors.Errorf("module dependency graph has a cycle: %w", err)
	}

	ordered := make([]*module.Record, 0, len(sorted))
	for _, gn := range sorted {
		ordered = append(ordered, gn.(*node).m)
	}
	return ordered, nil
}

var _ graph.Node = (*node)(nil)
