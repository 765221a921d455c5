package diagram

import (
	"fmt"

	"github.com/rendis/flowkit/internal/layout"
	"github.com/rendis/flowkit/pkg/schema"
)

// Build constructs a DiagramModel from a graph and an optional validation
// report. Levels come from layout.Levels; nodes the layering cannot place
// (cycle members and their descendants) go into one trailing level so every
// node is rendered.
func Build(title string, g schema.Graph, report *schema.ValidationReport) (*DiagramModel, error) {
	if err := g.CheckIDs(); err != nil {
		return nil, fmt.Errorf("diagram: %w", err)
	}

	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, &Node{
			ID:    n.ID,
			Label: nodeLabel(n),
			Kind:  n.Kind,
		})
	}

	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		kind := e.Kind
		if kind == "" {
			kind = schema.EdgeKindSequential
		}
		edges = append(edges, Edge{From: e.Source, To: e.Target, Label: e.Label, Kind: kind})
	}

	model := &DiagramModel{
		Title:  title,
		Nodes:  nodes,
		Edges:  edges,
		Levels: buildLevels(g),
	}
	overlayIssues(model, report)
	return model, nil
}

// nodeLabel falls back to the id for unlabelled nodes.
func nodeLabel(n schema.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// buildLevels appends the nodes layering left out as a final level.
func buildLevels(g schema.Graph) [][]string {
	levels := layout.Levels(g.Nodes, g.Edges)

	placed := make(map[string]bool, len(g.Nodes))
	for _, level := range levels {
		for _, id := range level {
			placed[id] = true
		}
	}

	var rest []string
	for _, n := range g.Nodes {
		if !placed[n.ID] {
			rest = append(rest, n.ID)
		}
	}
	if len(rest) > 0 {
		levels = append(levels, rest)
	}
	return levels
}

// overlayIssues attaches report issues to the nodes they name.
func overlayIssues(model *DiagramModel, report *schema.ValidationReport) {
	if report == nil {
		return
	}
	for _, issue := range report.Issues {
		for _, id := range issue.NodeIDs {
			n := model.node(id)
			if n == nil {
				continue
			}
			if n.Issue == nil {
				n.Issue = &IssueOverlay{Severity: issue.Severity}
			} else if severityRank(issue.Severity) > severityRank(n.Issue.Severity) {
				n.Issue.Severity = issue.Severity
			}
			n.Issue.Messages = append(n.Issue.Messages, issue.Message)
		}
	}
}

func severityRank(s schema.Severity) int {
	switch s {
	case schema.SeverityError:
		return 3
	case schema.SeverityWarning:
		return 2
	case schema.SeverityInfo:
		return 1
	default:
		return 0
	}
}
