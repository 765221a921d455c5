package flowkit

import (
	"context"
	"testing"

	"github.com/rendis/flowkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkout = "Start the process. Check if valid. Process data. End."

func TestParseIntent(t *testing.T) {
	in := ParseIntent(checkout)
	assert.Equal(t, schema.WorkflowSequential, in.WorkflowType)
	require.Len(t, in.Entities, 4)
	assert.Len(t, in.Relationships, 3)
}

func TestValidate(t *testing.T) {
	nodes := []schema.Node{
		{ID: "a", Kind: schema.NodeKindProcess, Label: "A"},
		{ID: "b", Kind: schema.NodeKindProcess, Label: "B"},
	}
	edges := []schema.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "a"},
	}

	report := Validate(nodes, edges)
	assert.False(t, report.IsValid)
	assert.Equal(t, 1, report.Count(schema.IssueCircular))
}

func TestSuggestConnections(t *testing.T) {
	nodes := []schema.Node{
		{ID: "s", Kind: schema.NodeKindTerminal, Label: "Start"},
		{ID: "p", Kind: schema.NodeKindProcess, Label: "Work"},
	}
	got := SuggestConnections(nodes)
	require.NotEmpty(t, got)
	assert.Equal(t, "s", got[0].From)
	assert.Equal(t, "p", got[0].To)
	for _, s := range got {
		assert.Greater(t, s.Confidence, 0.7)
	}
}

func TestLayout(t *testing.T) {
	nodes := []schema.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []schema.Edge{{ID: "e1", Source: "a", Target: "b"}}

	res := Layout(nodes, edges)
	assert.Equal(t, schema.LayoutHierarchical, res.Kind)
	assert.Len(t, res.Nodes, 3)
}

func TestGenerate(t *testing.T) {
	g, err := Generate(context.Background(), checkout)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 3)
	assert.NoError(t, g.CheckIDs())
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, checkout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(context.Background(), checkout)
	require.NoError(t, err)
	assert.Len(t, a.Intent.Entities, 4)
	assert.Len(t, a.Graph.Nodes, 4)
	assert.True(t, a.Report.IsValid)
	for _, s := range a.Suggestions {
		assert.Greater(t, s.Confidence, 0.7)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a, err := Analyze(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, a.Graph.Nodes)
	assert.True(t, a.Report.IsValid)
	assert.Empty(t, a.Suggestions)
}
