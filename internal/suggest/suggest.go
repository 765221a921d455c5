// Package suggest proposes edges between nodes from their kinds and labels.
// Existing edges are not consulted.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
)

// Scores are kept in tenths so the emit threshold compares exactly.
const (
	baseScore      = 5
	maxScore       = 10
	threshold      = 7
	scoreDivisor   = 10.0
	startKeyword   = "start"
	endKeyword     = "end"
	processKeyword = "process"
	checkKeyword   = "check"
)

// kindBonus rewards a source/target kind pairing. The first matching entry
// also supplies the reason text.
type kindBonus struct {
	source, target schema.NodeKind
	points         int
	reason         string
}

var kindBonuses = []kindBonus{
	{schema.NodeKindTerminal, schema.NodeKindProcess, 3, "Start node should connect to first process"},
	{schema.NodeKindProcess, schema.NodeKindDecision, 2, "Process should be followed by decision point"},
	{schema.NodeKindDecision, schema.NodeKindProcess, 2, "Decision should lead to next process"},
	{schema.NodeKindProcess, schema.NodeKindTerminal, 3, "Process should connect to end node"},
}

// labelBonus rewards a pairing of lower-cased labels.
type labelBonus struct {
	points int
	match  func(source, target string) bool
}

var labelBonuses = []labelBonus{
	{2, func(s, t string) bool { return strings.Contains(s, startKeyword) && !strings.Contains(t, startKeyword) }},
	{2, func(s, t string) bool { return strings.Contains(s, processKeyword) && strings.Contains(t, checkKeyword) }},
	{2, func(s, t string) bool { return strings.Contains(s, checkKeyword) && strings.Contains(t, processKeyword) }},
	{2, func(s, t string) bool { return strings.Contains(s, processKeyword) && strings.Contains(t, endKeyword) }},
}

// Suggest scores every ordered pair of distinct nodes and returns the pairs
// whose confidence exceeds 0.7, highest first. Ties keep generation order:
// sources in node order, then targets in node order.
func Suggest(nodes []schema.Node) []schema.ConnectionSuggestion {
	suggestions := []schema.ConnectionSuggestion{}

	for _, source := range nodes {
		sourceLabel := strings.ToLower(source.Label)
		if strings.Contains(sourceLabel, endKeyword) {
			continue
		}
		for _, target := range nodes {
			if target.ID == source.ID {
				continue
			}
			targetLabel := strings.ToLower(target.Label)
			if strings.Contains(targetLabel, startKeyword) {
				continue
			}

			points := score(source, target, sourceLabel, targetLabel)
			if points <= threshold {
				continue
			}
			suggestions = append(suggestions, schema.ConnectionSuggestion{
				From:       source.ID,
				To:         target.ID,
				Confidence: float64(points) / scoreDivisor,
				Reason:     reason(source, target),
				Kind:       edgeKind(source),
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

// Confidence returns the capped confidence for connecting source to target,
// without applying the pair filters or the emit threshold.
func Confidence(source, target schema.Node) float64 {
	points := score(source, target, strings.ToLower(source.Label), strings.ToLower(target.Label))
	return float64(points) / scoreDivisor
}

func score(source, target schema.Node, sourceLabel, targetLabel string) int {
	points := baseScore
	for _, b := range kindBonuses {
		if source.Kind == b.source && target.Kind == b.target {
			points += b.points
		}
	}
	for _, b := range labelBonuses {
		if b.match(sourceLabel, targetLabel) {
			points += b.points
		}
	}
	return min(points, maxScore)
}

func reason(source, target schema.Node) string {
	for _, b := range kindBonuses {
		if source.Kind == b.source && target.Kind == b.target {
			return b.reason
		}
	}
	return fmt.Sprintf("Logical flow from %s to %s", labelOrKind(source), labelOrKind(target))
}

func labelOrKind(n schema.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return string(n.Kind)
}

func edgeKind(source schema.Node) schema.EdgeKind {
	if source.Kind == schema.NodeKindDecision {
		return schema.EdgeKindConditional
	}
	return schema.EdgeKindSequential
}
