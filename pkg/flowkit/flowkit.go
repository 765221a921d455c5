// Package flowkit is the in-process entry point to the workflow analyzer:
// intent parsing, structural validation, connection suggestions, layout
// and graph generation. Every function is pure and safe for concurrent use.
package flowkit

import (
	"context"

	"github.com/rendis/flowkit/internal/generator"
	"github.com/rendis/flowkit/internal/intent"
	"github.com/rendis/flowkit/internal/layout"
	"github.com/rendis/flowkit/internal/suggest"
	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

// ParseIntent extracts a structured Intent from a free-text description.
func ParseIntent(description string) schema.Intent {
	return intent.Parse(description)
}

// Validate reports structural defects of a node/edge set.
func Validate(nodes []schema.Node, edges []schema.Edge) *schema.ValidationReport {
	return validation.Validate(nodes, edges)
}

// SuggestConnections proposes edges between every ordered pair of nodes
// whose heuristic confidence exceeds the threshold, best first.
func SuggestConnections(nodes []schema.Node) []schema.ConnectionSuggestion {
	return suggest.Suggest(nodes)
}

// Layout picks a strategy for the graph size and positions every node.
func Layout(nodes []schema.Node, edges []schema.Edge) schema.LayoutResult {
	return layout.Compute(nodes, edges)
}

// Generate parses description and builds a positioned graph from it.
func Generate(ctx context.Context, description string) (schema.Graph, error) {
	return generator.NewIntentGenerator().Generate(ctx, intent.Parse(description))
}

// Analysis bundles every derived view of one description.
type Analysis struct {
	Intent      schema.Intent                 `json:"intent"`
	Graph       schema.Graph                  `json:"graph"`
	Report      *schema.ValidationReport      `json:"report"`
	Suggestions []schema.ConnectionSuggestion `json:"suggestions"`
}

// Analyze runs parse, generate, validate and suggest in sequence.
func Analyze(ctx context.Context, description string) (*Analysis, error) {
	in := intent.Parse(description)
	g, err := generator.NewIntentGenerator().Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Intent:      in,
		Graph:       g,
		Report:      validation.Validate(g.Nodes, g.Edges),
		Suggestions: suggest.Suggest(g.Nodes),
	}, nil
}
