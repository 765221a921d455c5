// Package generator materializes a schema.Graph from a parsed Intent.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rendis/flowkit/internal/layout"
	"github.com/rendis/flowkit/pkg/schema"
)

// Branch labels on conditional edges.
const (
	yesLabel = "yes"
	noLabel  = "no"
)

// Generator turns an Intent into a concrete graph. Implementations may call
// external services; they must return a graph with unique node and edge ids
// or an error.
type Generator interface {
	Generate(ctx context.Context, in schema.Intent) (schema.Graph, error)
}

// IntentGenerator is the deterministic, offline Generator. Each entity
// becomes a node, each relationship a sequential edge, and each parsed
// condition a pair of labelled conditional edges out of a decision node.
type IntentGenerator struct{}

// NewIntentGenerator creates an IntentGenerator.
func NewIntentGenerator() *IntentGenerator {
	return &IntentGenerator{}
}

// Generate builds the graph and positions it with layout.Compute.
func (g *IntentGenerator) Generate(ctx context.Context, in schema.Intent) (schema.Graph, error) {
	if err := ctx.Err(); err != nil {
		return schema.Graph{}, err
	}

	b := newBuilder()
	for _, entity := range in.Entities {
		b.addEntity(entity)
	}

	for _, rel := range in.Relationships {
		from, okFrom := b.idByName[rel.From]
		to, okTo := b.idByName[rel.To]
		if !okFrom || !okTo {
			return schema.Graph{}, schema.NewErrorf(schema.ErrCodeGeneration,
				"relationship %s -> %s references an unknown entity", rel.From, rel.To)
		}
		kind := rel.Kind
		if kind == "" {
			kind = schema.EdgeKindSequential
		}
		b.connect(from, to, kind, rel.Condition)
	}

	for _, cond := range in.Conditions {
		if err := ctx.Err(); err != nil {
			return schema.Graph{}, err
		}
		b.addCondition(cond)
	}

	graph := schema.Graph{Nodes: b.nodes, Edges: b.edges}
	if err := graph.CheckIDs(); err != nil {
		return schema.Graph{}, schema.NewError(schema.ErrCodeGeneration, "generated graph has conflicting ids").
			WithCause(err)
	}

	graph.Nodes = layout.Apply(graph.Nodes, layout.Compute(graph.Nodes, graph.Edges))
	return graph, nil
}

// builder accumulates nodes and edges with sequential ids.
type builder struct {
	nodes    []schema.Node
	edges    []schema.Edge
	idByName map[string]string
	sawStart bool
}

func newBuilder() *builder {
	return &builder{
		nodes:    []schema.Node{},
		edges:    []schema.Edge{},
		idByName: make(map[string]string),
	}
}

func (b *builder) addEntity(entity schema.IntentEntity) string {
	id := fmt.Sprintf("step_%d", len(b.nodes)+1)
	kind := entity.Kind
	if kind == "" {
		kind = schema.NodeKindProcess
	}

	label := entity.Description
	if label == "" {
		label = entity.Name
	}

	b.nodes = append(b.nodes, schema.Node{
		ID:     id,
		Kind:   kind,
		Label:  label,
		Detail: b.detailFor(kind),
	})
	if entity.Name != "" {
		b.idByName[entity.Name] = id
	}
	return id
}

// detailFor marks the first terminal as the start and every later one as an end.
func (b *builder) detailFor(kind schema.NodeKind) schema.NodeDetail {
	if kind != schema.NodeKindTerminal {
		return schema.DefaultDetail(kind)
	}
	if !b.sawStart {
		b.sawStart = true
		return schema.TerminalDetail{Role: schema.TerminalStart}
	}
	return schema.TerminalDetail{Role: schema.TerminalEnd}
}

// connect adds an edge, or upgrades an existing edge between the same
// endpoints when the new one carries a branch.
func (b *builder) connect(from, to string, kind schema.EdgeKind, label string) {
	for i := range b.edges {
		e := &b.edges[i]
		if e.Source != from || e.Target != to {
			continue
		}
		if kind == schema.EdgeKindConditional {
			e.Kind = kind
			e.Label = label
		}
		return
	}
	b.edges = append(b.edges, schema.Edge{
		ID:     fmt.Sprintf("edge_%d", len(b.edges)+1),
		Source: from,
		Target: to,
		Kind:   kind,
		Label:  label,
	})
}

// addCondition wires the yes/no branches of cond out of its decision node.
// A branch whose text matches no existing node gets a new process node.
func (b *builder) addCondition(cond schema.IntentCondition) {
	decision := b.decisionFor(cond.Condition)
	if decision == "" {
		decision = b.addEntity(schema.IntentEntity{
			Kind:        schema.NodeKindDecision,
			Description: cond.Condition,
		})
	}
	if d, ok := b.nodeIndex(decision); ok && cond.Condition != "" {
		if detail, isDecision := b.nodes[d].Detail.(schema.DecisionDetail); isDecision && detail.Condition == "" {
			b.nodes[d].Detail = schema.DecisionDetail{Condition: cond.Condition}
		}
	}

	for _, branch := range []struct{ text, label string }{
		{cond.TruePath, yesLabel},
		{cond.FalsePath, noLabel},
	} {
		if branch.text == "" {
			continue
		}
		target := b.nodeMatching(branch.text, decision)
		if target == "" {
			target = b.addEntity(schema.IntentEntity{
				Kind:        schema.NodeKindProcess,
				Description: branch.text,
			})
		}
		b.connect(decision, target, schema.EdgeKindConditional, branch.label)
	}
}

// decisionFor prefers the decision whose label mentions the condition and
// falls back to the first decision node.
func (b *builder) decisionFor(condition string) string {
	first := ""
	for _, n := range b.nodes {
		if n.Kind != schema.NodeKindDecision {
			continue
		}
		if first == "" {
			first = n.ID
		}
		if condition != "" && containsFold(n.Label, condition) {
			return n.ID
		}
	}
	return first
}

// nodeMatching returns the first node other than skip whose label contains text.
func (b *builder) nodeMatching(text, skip string) string {
	for _, n := range b.nodes {
		if n.ID != skip && containsFold(n.Label, text) {
			return n.ID
		}
	}
	return ""
}

func (b *builder) nodeIndex(id string) (int, bool) {
	for i, n := range b.nodes {
		if n.ID == id {
			return i, true
		}
	}
	return 0, false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

var _ Generator = (*IntentGenerator)(nil)
