package metagraph

import (
	"github.com/rlch/graphplan"
)

// Direction is the orientation of a relationship relative to path order.
type Direction int

// Directions.
const (
	Undirected Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "undirected"
	}
}

// EdgeSet is the directed schema-edge set used to recover arrow direction.
type EdgeSet map[graphplan.SchemaEdge]struct{}

// NewEdgeSet builds an EdgeSet from schema edges.
func NewEdgeSet(edges []graphplan.SchemaEdge) EdgeSet {
	set := make(EdgeSet, len(edges))
	for _, e := range edges {
		set[e] = struct{}{}
	}

	return set
}

// Has reports whether the directed edge is in the set.
func (s EdgeSet) Has(from, rel, to string) bool {
	_, ok := s[graphplan.SchemaEdge{From: from, Rel: rel, To: to}]

	return ok
}

// Direction returns Forward when (from, rel, to) exists, Backward when only
// (to, rel, from) exists, and Undirected otherwise.
func (s EdgeSet) Direction(from, rel, to string) Direction {
	switch {
	case s.Has(from, rel, to):
		return Forward
	case s.Has(to, rel, from):
		return Backward
	default:
		return Undirected
	}
}
