package validation

import (
	"fmt"

	"github.com/rendis/flowkit/pkg/schema"
)

// Suggestion texts derived from issue counts.
const (
	deadEndAdvice  = "Add connections from %d dead-end node(s) to complete the workflow"
	orphanedAdvice = "Add connections to %d orphaned node(s) to integrate them into the workflow"
	circularAdvice = "Remove circular dependencies to ensure the workflow can complete"
	healthyAdvice  = "Workflow structure looks good! Consider adding error handling nodes for robustness."
)

// Validate inspects a node/edge set for structural defects. It is pure and
// deterministic and never mutates its inputs. Issues are ordered: dead ends,
// orphans, at most one cycle, invalid types, dangling edges.
func Validate(nodes []schema.Node, edges []schema.Edge) *schema.ValidationReport {
	d := countDegrees(edges)

	result := schema.NewValidationReport()
	result.Merge(checkDeadEnds(nodes, d))
	result.Merge(checkOrphans(nodes, d))
	result.Merge(checkCycle(nodes, edges))
	result.Merge(checkNodeKinds(nodes))
	result.Merge(checkDanglingEdges(nodes, edges))

	result.Suggestions = suggestionsFor(result)
	return result
}

// suggestionsFor derives advice from issue counts only; it never names nodes.
func suggestionsFor(r *schema.ValidationReport) []string {
	suggestions := []string{}

	if n := r.Count(schema.IssueDeadEnd); n > 0 {
		suggestions = append(suggestions, fmt.Sprintf(deadEndAdvice, n))
	}
	if n := r.Count(schema.IssueOrphaned); n > 0 {
		suggestions = append(suggestions, fmt.Sprintf(orphanedAdvice, n))
	}
	if r.Count(schema.IssueCircular) > 0 {
		suggestions = append(suggestions, circularAdvice)
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, healthyAdvice)
	}
	return suggestions
}
