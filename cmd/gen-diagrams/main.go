// gen-diagrams generates sample diagram outputs for README documentation.
// Run: go run ./cmd/gen-diagrams
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rendis/flowkit/internal/diagram"
	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

func main() {
	ctx := context.Background()

	// Order workflow: start → fetch → check(paid?) → ship / refund → ledger → end,
	// plus an orphaned audit step so the issue overlay has something to show.
	g := schema.Graph{
		Nodes: []schema.Node{
			{ID: "start", Kind: schema.NodeKindTerminal, Label: "Start", Detail: schema.TerminalDetail{Role: schema.TerminalStart}},
			{ID: "fetch", Kind: schema.NodeKindProcess, Label: "Fetch order"},
			{ID: "paid", Kind: schema.NodeKindDecision, Label: "Paid?"},
			{ID: "ship", Kind: schema.NodeKindProcess, Label: "Ship"},
			{ID: "refund", Kind: schema.NodeKindProcess, Label: "Refund"},
			{ID: "ledger", Kind: schema.NodeKindData, Label: "Ledger"},
			{ID: "audit", Kind: schema.NodeKindProcess, Label: "Audit"},
			{ID: "end", Kind: schema.NodeKindTerminal, Label: "End", Detail: schema.TerminalDetail{Role: schema.TerminalEnd}},
		},
		Edges: []schema.Edge{
			{ID: "e1", Source: "start", Target: "fetch", Kind: schema.EdgeKindSequential},
			{ID: "e2", Source: "fetch", Target: "paid", Kind: schema.EdgeKindSequential},
			{ID: "e3", Source: "paid", Target: "ship", Kind: schema.EdgeKindConditional, Label: "yes"},
			{ID: "e4", Source: "paid", Target: "refund", Kind: schema.EdgeKindConditional, Label: "no"},
			{ID: "e5", Source: "ship", Target: "ledger", Kind: schema.EdgeKindParallel},
			{ID: "e6", Source: "refund", Target: "ledger", Kind: schema.EdgeKindSequential},
			{ID: "e7", Source: "ledger", Target: "end", Kind: schema.EdgeKindSequential},
			{ID: "e8", Source: "audit", Target: "end", Kind: schema.EdgeKindSequential},
		},
	}

	pipeline, err := validation.NewPipeline(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline error: %v\n", err)
		os.Exit(1)
	}
	report, err := pipeline.ValidateGraph(ctx, g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "validation error: %v\n", err)
		os.Exit(1)
	}

	model, err := diagram.Build("Orders", g, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	os.MkdirAll(outDir, 0o755)

	// ASCII
	ascii := diagram.RenderASCII(model)
	os.WriteFile(filepath.Join(outDir, "diagram-ascii.txt"), []byte(ascii), 0o644)
	fmt.Println("=== ASCII ===")
	fmt.Println(ascii)

	// Mermaid
	mermaid := diagram.RenderMermaid(model)
	os.WriteFile(filepath.Join(outDir, "diagram-mermaid.md"), []byte("```mermaid\n"+mermaid+"\n```\n"), 0o644)
	fmt.Println("=== Mermaid ===")
	fmt.Println(mermaid)

	// Images
	for _, format := range []diagram.ImageFormat{diagram.FormatPNG, diagram.FormatSVG} {
		data, imgErr := diagram.RenderImage(ctx, model, format)
		if imgErr != nil {
			fmt.Fprintf(os.Stderr, "%s error: %v\n", format, imgErr)
			continue
		}
		path := filepath.Join(outDir, "diagram-sample."+string(format))
		os.WriteFile(path, data, 0o644)
		fmt.Printf("=== Image (%s) ===\nWritten: %s (%d bytes)\n", format, path, len(data))
	}
}
