package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowkit/pkg/schema"
)

const cyclicGraphJSON = `{
  "nodes": [
    {"id": "start", "kind": "terminal", "label": "Start"},
    {"id": "a", "kind": "process", "label": "A"},
    {"id": "b", "kind": "process", "label": "B"}
  ],
  "edges": [
    {"id": "e1", "source": "start", "target": "a"},
    {"id": "e2", "source": "a", "target": "b"},
    {"id": "e3", "source": "b", "target": "a"}
  ]
}`

// TestMain points HOME at a scratch directory so config lookups and the
// diagram database never touch the real user directory.
func TestMain(m *testing.M) {
	home, err := os.MkdirTemp("", "flowkit-cli-")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)

	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestParseCmd(t *testing.T) {
	out, err := runCLI(t, "parse", "Start the process.", "Check if valid.", "End.")
	require.NoError(t, err)

	var got schema.Intent
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, schema.WorkflowSequential, got.WorkflowType)
	require.Len(t, got.Entities, 3)
	assert.Equal(t, schema.NodeKindTerminal, got.Entities[0].Kind)
	assert.Equal(t, schema.NodeKindDecision, got.Entities[1].Kind)
}

func TestGenerateCmd(t *testing.T) {
	out, err := runCLI(t, "generate", "Start. Process the order. End.")
	require.NoError(t, err)

	var g schema.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)

	out, err = runCLI(t, "generate", "-o", "yaml", "Start. Process the order. End.")
	require.NoError(t, err)
	assert.Contains(t, out, "nodes:")
}

func TestValidateCmd(t *testing.T) {
	out, err := runCLI(t, "validate", writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)

	var report schema.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid())
}

func TestValidateCmdFailsOnErrors(t *testing.T) {
	out, err := runCLI(t, "validate", writeFile(t, "loop.json", cyclicGraphJSON))
	require.Error(t, err)

	var fe *schema.FlowkitError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeValidation, fe.Code)

	var report schema.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Count(schema.IssueCircular))
}

func TestValidateCmdAppliesConfiguredRules(t *testing.T) {
	cfgPath := writeFile(t, "flowkit.yaml", `
rules:
  - name: no-shipping
    expression: 'label == "Ship"'
    message: shipping is frozen
`)
	out, err := runCLI(t, "--config", cfgPath, "validate", writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)
	assert.Contains(t, out, "shipping is frozen")
}

func TestValidateCmdRejectsBadRules(t *testing.T) {
	cfgPath := writeFile(t, "flowkit.yaml", `
rules:
  - expression: 'label =='
`)
	_, err := runCLI(t, "--config", cfgPath, "validate", writeFile(t, "order.json", orderGraphJSON))
	assert.ErrorContains(t, err, "loading rules")
}

func TestSuggestCmd(t *testing.T) {
	out, err := runCLI(t, "suggest", writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)

	var suggestions []schema.ConnectionSuggestion
	require.NoError(t, json.Unmarshal([]byte(out), &suggestions))
	require.NotEmpty(t, suggestions)
	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, suggestions[i-1].Confidence, suggestions[i].Confidence)
	}
}

func TestLayoutCmd(t *testing.T) {
	path := writeFile(t, "order.json", orderGraphJSON)

	out, err := runCLI(t, "layout", path)
	require.NoError(t, err)
	var result schema.LayoutResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, schema.LayoutHierarchical, result.Kind)
	assert.Len(t, result.Nodes, 4)

	out, err = runCLI(t, "layout", "--strategy", "grid", path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, schema.LayoutGrid, result.Kind)

	_, err = runCLI(t, "layout", "--strategy", "spring", path)
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestLayoutCmdApply(t *testing.T) {
	out, err := runCLI(t, "layout", "--strategy", "grid", "--apply", writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)

	var g schema.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 3)
	assert.Equal(t, schema.Position{X: 200, Y: 0}, g.Nodes[1].Position)
}

func TestRenderCmd(t *testing.T) {
	path := writeFile(t, "order.json", orderGraphJSON)

	out, err := runCLI(t, "render", "--title", "Orders", path)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Orders ===")

	out, err = runCLI(t, "render", "-f", "mermaid", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flowchart TD"))

	_, err = runCLI(t, "render", "-f", "png", path)
	assert.ErrorContains(t, err, "--output")

	_, err = runCLI(t, "render", "-f", "gif", path)
	assert.ErrorContains(t, err, "unknown format")
}

func TestRenderCmdImageToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "order.svg")

	_, err := runCLI(t, "render", "-f", "svg", "-o", dest, writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderCmdUsesConfiguredFormat(t *testing.T) {
	t.Setenv("FLOWKIT_RENDER_FORMAT", "mermaid")

	out, err := runCLI(t, "render", writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flowchart TD"))
}

func TestImportMermaidCmd(t *testing.T) {
	out, err := runCLI(t, "import-mermaid", writeFile(t, "order.mmd", orderGraphMermaid))
	require.NoError(t, err)

	var g schema.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 3)
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "yes", g.Edges[1].Label)
}

func TestQueryCmd(t *testing.T) {
	out, err := runCLI(t, "query", writeFile(t, "order.json", orderGraphJSON), `.nodes[] | select(.kind == "terminal") | .id`)
	require.NoError(t, err)
	assert.Equal(t, "\"start\"\n\"end\"\n", out)

	_, err = runCLI(t, "query", writeFile(t, "order.json", orderGraphJSON), `.nodes[`)
	assert.Error(t, err)
}

func TestDiagramsCmds(t *testing.T) {
	path := writeFile(t, "order.json", orderGraphJSON)

	out, err := runCLI(t, "diagrams", "save", "--id", "orders", "--tag", "billing", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"revision": 1`)

	out, err = runCLI(t, "diagrams", "save", "--id", "orders", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"revision": 2`)

	out, err = runCLI(t, "diagrams", "get", "orders")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "order"`)

	out, err = runCLI(t, "diagrams", "list", "--name", "ORD")
	require.NoError(t, err)
	assert.Contains(t, out, `"orders"`)

	out, err = runCLI(t, "diagrams", "history", "orders")
	require.NoError(t, err)
	var revs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &revs))
	assert.Len(t, revs, 2)

	_, err = runCLI(t, "diagrams", "get", "--revision", "1", "orders")
	require.NoError(t, err)

	_, err = runCLI(t, "diagrams", "delete", "orders")
	require.NoError(t, err)

	_, err = runCLI(t, "diagrams", "get", "orders")
	var fe *schema.FlowkitError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeNotFound, fe.Code)
}

func TestValidateCmdManyFiles(t *testing.T) {
	good := writeFile(t, "order.json", orderGraphJSON)
	loop := writeFile(t, "loop.json", cyclicGraphJSON)

	out, err := runCLI(t, "validate", "-j", "2", good, good)
	require.NoError(t, err)
	assert.Contains(t, out, `"completed": 2`)

	out, err = runCLI(t, "validate", good, loop, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "2 of 3 graphs failed validation")

	var summary struct {
		Results []struct {
			Name   string                   `json:"name"`
			Report *schema.ValidationReport `json:"report"`
			Error  string                   `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Results, 3)
	assert.Equal(t, good, summary.Results[0].Name)
	assert.Equal(t, 1, summary.Results[1].Report.Count(schema.IssueCircular))
	assert.NotEmpty(t, summary.Results[2].Error)
}
