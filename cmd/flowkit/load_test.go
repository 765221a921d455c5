package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

const orderGraphJSON = `{
  "nodes": [
    {"id": "start", "kind": "terminal", "label": "Start", "position": {"x": 0, "y": 0}},
    {"id": "check", "kind": "decision", "label": "Paid?", "position": {"x": 0, "y": 100}},
    {"id": "ship", "kind": "process", "label": "Ship", "position": {"x": 0, "y": 200}},
    {"id": "end", "kind": "terminal", "label": "End", "position": {"x": 0, "y": 300}}
  ],
  "edges": [
    {"id": "e1", "source": "start", "target": "check"},
    {"id": "e2", "source": "check", "target": "ship", "kind": "conditional", "label": "yes"},
    {"id": "e3", "source": "ship", "target": "end"}
  ]
}`

const orderGraphYAML = `nodes:
  - id: start
    kind: terminal
    label: Start
  - id: ship
    kind: process
    label: Ship
edges:
  - id: e1
    source: start
    target: ship
`

const orderGraphMermaid = `flowchart TD
    A([Start]) --> B{Paid?}
    B -->|yes| C[Ship]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newDocs(t *testing.T) *validation.DocumentValidator {
	t.Helper()
	docs, err := validation.NewDocumentValidator()
	require.NoError(t, err)
	return docs
}

func TestLoadGraphFormats(t *testing.T) {
	docs := newDocs(t)

	tests := []struct {
		name      string
		file      string
		content   string
		wantNodes int
		wantEdges int
	}{
		{"json", "order.json", orderGraphJSON, 4, 3},
		{"yaml", "order.yaml", orderGraphYAML, 2, 1},
		{"yml", "order.yml", orderGraphYAML, 2, 1},
		{"mermaid", "order.mmd", orderGraphMermaid, 3, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := loadGraph(docs, writeFile(t, tc.file, tc.content))
			require.NoError(t, err)
			assert.Len(t, g.Nodes, tc.wantNodes)
			assert.Len(t, g.Edges, tc.wantEdges)
		})
	}
}

func TestLoadGraphErrors(t *testing.T) {
	docs := newDocs(t)

	_, err := loadGraph(docs, writeFile(t, "order.txt", orderGraphJSON))
	assert.ErrorContains(t, err, "unsupported graph file")

	_, err = loadGraph(docs, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = loadGraph(docs, writeFile(t, "bad.yaml", "nodes: [\n"))
	var fe *schema.FlowkitError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeParse, fe.Code)

	// Unknown fields fail the schema check for YAML as they do for JSON.
	_, err = loadGraph(docs, writeFile(t, "extra.yaml", "nodes: []\ncolor: red\n"))
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, schema.ErrCodeValidation, fe.Code)
}

func TestWriteGraphYAML(t *testing.T) {
	g, err := loadGraph(newDocs(t), writeFile(t, "order.json", orderGraphJSON))
	require.NoError(t, err)

	out, err := writeGraph(g, "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Len(t, doc["nodes"], 4)
	assert.Len(t, doc["edges"], 3)

	_, err = writeGraph(g, "toml")
	assert.Error(t, err)
}
