package diagram

import (
	"testing"

	"github.com/rendis/flowkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderASCIIOrderGraph(t *testing.T) {
	model, err := Build("Orders", orderGraph(), nil)
	require.NoError(t, err)

	output := RenderASCII(model)
	assert.NotEmpty(t, output)

	assert.Contains(t, output, "=== Orders ===")

	// Box-drawing characters.
	assert.Contains(t, output, "┌")
	assert.Contains(t, output, "┐")
	assert.Contains(t, output, "└")
	assert.Contains(t, output, "┘")
	assert.Contains(t, output, "│")
	assert.Contains(t, output, "▼")

	// Node labels and kinds.
	assert.Contains(t, output, "Paid?")
	assert.Contains(t, output, "<decision>")
	assert.Contains(t, output, "Ship order")

	// Branch section lists labelled and non-sequential edges only.
	assert.Contains(t, output, "--- branches ---")
	assert.Contains(t, output, "paid ┄ yes ┄→ ship")
	assert.Contains(t, output, "ship ══→ ledger")
	assert.NotContains(t, output, "start ──→ paid")
}

func TestRenderASCIIWithIssues(t *testing.T) {
	model := &DiagramModel{
		Title: "Test",
		Nodes: []*Node{
			{ID: "a", Label: "step-a", Kind: schema.NodeKindProcess, Issue: &IssueOverlay{Severity: schema.SeverityError}},
			{ID: "b", Label: "step-b", Kind: schema.NodeKindProcess, Issue: &IssueOverlay{Severity: schema.SeverityWarning}},
			{ID: "c", Label: "step-c", Kind: schema.NodeKindProcess, Issue: &IssueOverlay{Severity: schema.SeverityInfo}},
			{ID: "d", Label: "step-d"},
		},
		Levels: [][]string{{"a", "b"}, {"c", "d"}},
	}

	output := RenderASCII(model)
	assert.Contains(t, output, "[ERR]")
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "<process>")
	assert.NotContains(t, output, "branches")
}

func TestRenderASCIIBoxesAlign(t *testing.T) {
	model := &DiagramModel{
		Nodes:  []*Node{{ID: "x", Label: "Überprüfen", Kind: schema.NodeKindDecision}},
		Levels: [][]string{{"x"}},
	}
	output := RenderASCII(model)
	assert.Contains(t, output, "│ Überprüfen │")
	assert.Contains(t, output, "│ <decision> │")
}
