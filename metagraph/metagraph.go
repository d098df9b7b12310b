// Package metagraph builds an undirected label-level graph from the schema
// edges of a property graph and discovers traversal paths over it.
package metagraph

import (
	"github.com/rlch/graphplan"
)

// MaxDepth is the default bound on path discovery.
const MaxDepth = 3

// IgnoredLabels are RDF/OWL plumbing labels that never become domain entities.
var IgnoredLabels = map[string]bool{
	"Resource":            true,
	"Class":               true,
	"Restriction":         true,
	"Ontology":            true,
	"Individual":          true,
	"ObjectProperty":      true,
	"SymmetricProperty":   true,
	"AsymmetricProperty":  true,
	"IrreflexiveProperty": true,
	"DatatypeProperty":    true,
	"Entity":              true,
	"NamedIndividual":     true,
	"Agent":               true,
	"Activity":            true,
	"Communication":       true,
	"SpatialThing":        true,
}

// Neighbor is one adjacency entry.
type Neighbor struct {
	Rel   string
	Label string
}

// Graph is an undirected adjacency structure over labels. Every schema edge is
// inserted in both directions; direction is recovered later from an EdgeSet.
//
// Adjacency lists keep the order edges were passed to Build, and Labels keeps
// the order labels were first seen. Path discovery depends on both.
type Graph struct {
	adj    map[string][]Neighbor
	labels []string
}

// Build constructs the meta-graph, skipping edges that touch an ignored label.
// A nil ignored set means IgnoredLabels.
func Build(edges []graphplan.SchemaEdge, ignored map[string]bool) *Graph {
	if ignored == nil {
		ignored = IgnoredLabels
	}

	g := &Graph{adj: make(map[string][]Neighbor)}

	for _, e := range edges {
		if ignored[e.From] || ignored[e.To] {
			continue
		}

		g.add(e.From, Neighbor{Rel: e.Rel, Label: e.To})
		g.add(e.To, Neighbor{Rel: e.Rel, Label: e.From})
	}

	return g
}

func (g *Graph) add(label string, n Neighbor) {
	if _, ok := g.adj[label]; !ok {
		g.labels = append(g.labels, label)
	}

	g.adj[label] = append(g.adj[label], n)
}

// Labels returns every label in first-seen order.
func (g *Graph) Labels() []string {
	return append([]string(nil), g.labels...)
}

// Neighbors returns the adjacency list of label.
func (g *Graph) Neighbors(label string) []Neighbor {
	return g.adj[label]
}

// Len returns the number of labels.
func (g *Graph) Len() int {
	return len(g.labels)
}
