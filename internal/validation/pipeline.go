package validation

import (
	"context"

	"github.com/rendis/flowkit/pkg/schema"
)

// Pipeline orchestrates the three-stage validation of a graph document:
// 1. Structural (JSON Schema)
// 2. Model (node and edge id uniqueness)
// 3. Analysis (structural checks plus custom rules)
type Pipeline struct {
	documents *DocumentValidator
	rules     *RuleSet
}

// NewPipeline creates a Pipeline. rules may be nil to skip custom rules.
func NewPipeline(rules *RuleSet) (*Pipeline, error) {
	dv, err := NewDocumentValidator()
	if err != nil {
		return nil, err
	}
	return &Pipeline{documents: dv, rules: rules}, nil
}

// Documents exposes the structural validator so callers can decode graph
// documents without running the analysis.
func (p *Pipeline) Documents() *DocumentValidator {
	return p.documents
}

// ValidateDocument decodes data and analyzes the resulting graph.
// Structural and model errors short-circuit: no report is produced.
func (p *Pipeline) ValidateDocument(ctx context.Context, data []byte) (schema.Graph, *schema.ValidationReport, error) {
	g, err := p.documents.DecodeGraph(data)
	if err != nil {
		return schema.Graph{}, nil, err
	}
	report, err := p.ValidateGraph(ctx, g)
	if err != nil {
		return schema.Graph{}, nil, err
	}
	return g, report, nil
}

// ValidateGraph runs the analysis stage on an already decoded graph. Rule
// issues follow the structural issues; suggestions are derived from the
// structural issues only.
func (p *Pipeline) ValidateGraph(ctx context.Context, g schema.Graph) (*schema.ValidationReport, error) {
	report := Validate(g.Nodes, g.Edges)

	ruleReport, err := p.rules.Apply(ctx, g.Nodes, g.Edges)
	if err != nil {
		return nil, err
	}
	report.Merge(ruleReport)
	return report, nil
}
