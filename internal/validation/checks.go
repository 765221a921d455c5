package validation

import (
	"fmt"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
)

// validKinds is the set of node kinds the type check accepts. subprocess is
// a model kind but is not listed here; it is reported as invalidType.
var validKinds = map[schema.NodeKind]bool{
	schema.NodeKindProcess:  true,
	schema.NodeKindDecision: true,
	schema.NodeKindTerminal: true,
	schema.NodeKindData:     true,
	schema.NodeKindCloud:    true,
}

// degrees counts incoming and outgoing edges per node id. Edges that point
// at ids outside the node set are counted too; lookups by node id never
// see them.
type degrees struct {
	in  map[string]int
	out map[string]int
}

func countDegrees(edges []schema.Edge) degrees {
	d := degrees{
		in:  make(map[string]int, len(edges)),
		out: make(map[string]int, len(edges)),
	}
	for _, e := range edges {
		d.out[e.Source]++
		d.in[e.Target]++
	}
	return d
}

// checkDeadEnds flags non-terminal nodes with no outgoing edges.
func checkDeadEnds(nodes []schema.Node, d degrees) *schema.ValidationReport {
	result := schema.NewValidationReport()
	for _, n := range nodes {
		if d.out[n.ID] > 0 || n.Kind == schema.NodeKindTerminal || labelContains(n, "end") {
			continue
		}
		result.AddWarning(schema.IssueDeadEnd,
			fmt.Sprintf("Node %q has no outgoing connections", displayName(n)), n.ID)
	}
	return result
}

// checkOrphans flags non-start nodes with no incoming edges.
func checkOrphans(nodes []schema.Node, d degrees) *schema.ValidationReport {
	result := schema.NewValidationReport()
	for _, n := range nodes {
		if d.in[n.ID] > 0 || n.Kind == schema.NodeKindTerminal || labelContains(n, "start") {
			continue
		}
		result.AddWarning(schema.IssueOrphaned,
			fmt.Sprintf("Node %q has no incoming connections", displayName(n)), n.ID)
	}
	return result
}

// checkCycle runs a DFS with a recursion stack from every node and stops at
// the first back edge. It reports existence only: one issue listing the
// stack at the moment the cycle closed, however many cycles the graph has.
func checkCycle(nodes []schema.Node, edges []schema.Edge) *schema.ValidationReport {
	result := schema.NewValidationReport()

	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	// Roots: node ids first, then edge endpoints that are not nodes.
	roots := make([]string, 0, len(nodes))
	listed := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !listed[n.ID] {
			listed[n.ID] = true
			roots = append(roots, n.ID)
		}
	}
	for _, e := range edges {
		for _, id := range []string{e.Source, e.Target} {
			if !listed[id] {
				listed[id] = true
				roots = append(roots, id)
			}
		}
	}

	visited := make(map[string]bool, len(roots))
	onStack := make(map[string]bool)
	var stack []string

	var hasCycle func(id string) bool
	hasCycle = func(id string) bool {
		if onStack[id] {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			if hasCycle(next) {
				return true
			}
		}

		onStack[id] = false
		stack = stack[:len(stack)-1]
		return false
	}

	for _, id := range roots {
		if hasCycle(id) {
			ids := append([]string(nil), stack...)
			result.AddError(schema.IssueCircular, "Circular dependency detected in workflow", ids...)
			break
		}
	}
	return result
}

// checkNodeKinds flags nodes whose kind is outside validKinds, and nodes
// whose detail variant belongs to a different kind.
func checkNodeKinds(nodes []schema.Node) *schema.ValidationReport {
	result := schema.NewValidationReport()
	for _, n := range nodes {
		if n.Kind == "" {
			continue
		}
		if !validKinds[n.Kind] {
			result.AddWarning(schema.IssueInvalidType,
				fmt.Sprintf("Invalid node type %q for node %q", n.Kind, displayName(n)), n.ID)
			continue
		}
		if n.Detail != nil && n.Detail.Kind() != n.Kind {
			result.AddWarning(schema.IssueInvalidType,
				fmt.Sprintf("Node %q of type %q carries %q details", displayName(n), n.Kind, n.Detail.Kind()), n.ID)
		}
	}
	return result
}

// checkDanglingEdges flags edges whose endpoints are not in the node set.
func checkDanglingEdges(nodes []schema.Node, edges []schema.Edge) *schema.ValidationReport {
	result := schema.NewValidationReport()

	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	for _, e := range edges {
		var missing []string
		if !ids[e.Source] {
			missing = append(missing, e.Source)
		}
		if !ids[e.Target] {
			missing = append(missing, e.Target)
		}
		if len(missing) == 0 {
			continue
		}
		result.AddWarning(schema.IssueDanglingEdge,
			fmt.Sprintf("Edge %q references missing node(s) %s", e.ID, strings.Join(missing, ", ")), missing...)
	}
	return result
}

// labelContains reports whether the node label contains sub, ignoring case.
func labelContains(n schema.Node, sub string) bool {
	return strings.Contains(strings.ToLower(n.Label), sub)
}

// displayName is the label, or the id when the label is empty.
func displayName(n schema.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
