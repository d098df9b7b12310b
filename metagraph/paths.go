package metagraph

// Path is a traversal from a start label to an end label.
// Nodes has one more element than Rels.
type Path struct {
	Nodes []string
	Rels  []string
}

// End returns the last label of the path.
func (p Path) End() string {
	return p.Nodes[len(p.Nodes)-1]
}

// Hops returns the number of relationships traversed.
func (p Path) Hops() int {
	return len(p.Rels)
}

// Paths holds at most one path per reachable label, in discovery order.
type Paths struct {
	order []string
	byEnd map[string]Path
}

// Labels returns the reachable labels in discovery order.
func (p Paths) Labels() []string {
	return append([]string(nil), p.order...)
}

// Get returns the path recorded for label.
func (p Paths) Get(label string) (Path, bool) {
	path, ok := p.byEnd[label]

	return path, ok
}

// Len returns the number of reachable labels.
func (p Paths) Len() int {
	return len(p.order)
}

// All returns the paths in discovery order.
func (p Paths) All() []Path {
	out := make([]Path, 0, len(p.order))
	for _, l := range p.order {
		out = append(out, p.byEnd[l])
	}

	return out
}

type queued struct {
	label string
	nodes []string
	rels  []string
	depth int
}

// ShortestPaths runs a breadth-first traversal from start bounded by maxDepth
// hops and records, for every label reached, the first path that reached it.
//
// The first recorded path is never replaced. When several paths of equal
// length exist the winner is decided by adjacency order, so it is not
// necessarily the only shortest path. A label is expanded at most once, but
// it may still be recorded as a target from any expanded node. The start label
// is never part of the result.
func (g *Graph) ShortestPaths(start string, maxDepth int) Paths {
	res := Paths{byEnd: make(map[string]Path)}

	queue := []queued{{label: start, nodes: []string{start}, depth: 0}}
	visited := map[string]bool{start: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		for _, n := range g.adj[cur.label] {
			nodes := append(append(make([]string, 0, len(cur.nodes)+1), cur.nodes...), n.Label)
			rels := append(append(make([]string, 0, len(cur.rels)+1), cur.rels...), n.Rel)

			if _, seen := res.byEnd[n.Label]; !seen && n.Label != start {
				res.byEnd[n.Label] = Path{Nodes: nodes, Rels: rels}
				res.order = append(res.order, n.Label)
			}

			if cur.depth+1 < maxDepth && !visited[n.Label] {
				visited[n.Label] = true
				queue = append(queue, queued{label: n.Label, nodes: nodes, rels: rels, depth: cur.depth + 1})
			}
		}
	}

	return res
}
