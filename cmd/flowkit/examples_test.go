package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowkit/pkg/schema"
)

func examplesDir() string {
	return filepath.Join("..", "..", "examples")
}

// exampleGraphs returns every graph file shipped under examples/.
func exampleGraphs(t *testing.T) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(examplesDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml", ".mmd":
			paths = append(paths, path)
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	return paths
}

func TestExamplesLoadAndValidate(t *testing.T) {
	docs := newDocs(t)

	for _, path := range exampleGraphs(t) {
		t.Run(path, func(t *testing.T) {
			g, err := loadGraph(docs, path)
			require.NoError(t, err)
			require.NotEmpty(t, g.Nodes)

			_, err = runCLI(t, "validate", path)
			assert.NoError(t, err, "example graphs carry warnings at most")

			out, err := runCLI(t, "render", "--title", filepath.Base(path), path)
			require.NoError(t, err)
			assert.Contains(t, out, "=== "+filepath.Base(path)+" ===")
		})
	}
}

func TestSupportTicketExampleReportsDeadEnd(t *testing.T) {
	g, err := loadGraph(newDocs(t), filepath.Join(examplesDir(), "support-ticket", "graph.yaml"))
	require.NoError(t, err)

	out, err := runCLI(t, "validate", filepath.Join(examplesDir(), "support-ticket", "graph.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, string(schema.IssueDeadEnd))
	assert.Contains(t, out, "Page on-call")

	kb, ok := g.NodeByID("kb")
	require.True(t, ok)
	assert.Equal(t, schema.CloudDetail{Provider: "zendesk"}, kb.Detail)
}
