package generator

import (
	"fmt"
	"strings"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/metagraph"
)

// ValueRef is the parameter reference used by every template.
const ValueRef = "$" + catalog.ValueParam

// WhereClause builds the comparison for variable.prop against $value using
// the normalization declared for the property. Multi-valued properties are
// compared on their first element.
func WhereClause(variable, prop string, norm graphplan.NormalizationType, multiValued bool) string {
	access := variable + "." + prop
	if multiValued {
		access += "[0]"
	}

	switch norm {
	case graphplan.NormalizeNumeric:
		return fmt.Sprintf("apoc.text.replace(%s, '[^0-9]', '') = %s", access, ValueRef)
	case graphplan.NormalizeAlphanumeric:
		return fmt.Sprintf("replace(replace(%s, '-', ''), ' ', '') = %s", access, ValueRef)
	case graphplan.NormalizeTextContains:
		return fmt.Sprintf("toLower(%s) CONTAINS toLower(%s)", access, ValueRef)
	default:
		return fmt.Sprintf("%s = %s", access, ValueRef)
	}
}

// Pattern builds the MATCH pattern for a path. The first node is bound to
// start, the last to end and the ones in between to n1, n2, ... Each
// relationship points the way the schema edge does; relationships missing
// from the edge set in both directions are left undirected.
func Pattern(path metagraph.Path, edges metagraph.EdgeSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "(start:%s)", path.Nodes[0])

	for i, rel := range path.Rels {
		src, dst := path.Nodes[i], path.Nodes[i+1]

		alias := fmt.Sprintf("n%d", i+1)
		if i == len(path.Rels)-1 {
			alias = "end"
		}

		switch edges.Direction(src, rel, dst) {
		case metagraph.Forward:
			fmt.Fprintf(&b, "-[:%s]->(%s:%s)", rel, alias, dst)
		case metagraph.Backward:
			fmt.Fprintf(&b, "<-[:%s]-(%s:%s)", rel, alias, dst)
		default:
			fmt.Fprintf(&b, "-[:%s]-(%s:%s)", rel, alias, dst)
		}
	}

	return b.String()
}
