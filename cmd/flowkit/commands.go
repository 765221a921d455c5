package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rendis/flowkit/internal/batch"
	"github.com/rendis/flowkit/internal/diagram"
	"github.com/rendis/flowkit/internal/expressions"
	"github.com/rendis/flowkit/internal/generator"
	"github.com/rendis/flowkit/internal/intent"
	"github.com/rendis/flowkit/internal/layout"
	"github.com/rendis/flowkit/internal/suggest"
	"github.com/rendis/flowkit/pkg/mcp"
	"github.com/rendis/flowkit/pkg/schema"
)

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <description...>",
		Short: "Extract a structured intent from a workflow description",
		Long:  "Extract a structured intent from a workflow description. Use - to read the description from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), intent.Parse(text))
		},
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate <description...>",
		Short: "Build a workflow graph from a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			g, err := generator.NewIntentGenerator().Generate(cmd.Context(), intent.Parse(text))
			if err != nil {
				return err
			}
			a.logger.Debug("graph generated", "nodes", len(g.Nodes), "edges", len(g.Edges))

			data, err := writeGraph(g, output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output encoding: json or yaml")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "validate <graph-file>...",
		Short: "Report structural issues in workflow graphs",
		Long: "Report structural issues in workflow graphs. With one file the report is printed; " +
			"with several, files are validated concurrently and a summary is printed. " +
			"Exits non-zero when any report contains errors.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return a.validateMany(cmd, args, jobs)
			}

			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			report, err := a.pipeline.ValidateGraph(cmd.Context(), g)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Valid() {
				return report.ToError()
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "files validated concurrently")
	return cmd
}

func (a *app) validateMany(cmd *cobra.Command, paths []string, jobs int) error {
	batchJobs := make([]batch.Job, len(paths))
	for i, path := range paths {
		batchJobs[i] = batch.Job{
			Name: path,
			Load: func() (schema.Graph, error) { return a.loadGraph(path) },
		}
	}

	summary := batch.Validate(cmd.Context(), a.pipeline, batchJobs, jobs, a.logger)
	if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if !summary.Valid() {
		failed := 0
		for _, r := range summary.Results {
			if r.Err != nil || !r.Report.Valid() {
				failed++
			}
		}
		return fmt.Errorf("%d of %d graphs failed validation", failed, len(paths))
	}
	return nil
}

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <graph-file>",
		Short: "Propose connections between the nodes of a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), suggest.Suggest(g.Nodes))
		},
	}
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		strategy string
		apply    bool
	)

	cmd := &cobra.Command{
		Use:   "layout <graph-file>",
		Short: "Compute node positions for a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}

			var result schema.LayoutResult
			switch strategy {
			case "auto", "":
				result = layout.Compute(g.Nodes, g.Edges)
			case string(schema.LayoutHierarchical), string(schema.LayoutGrid), string(schema.LayoutCircular):
				result = layout.ByKind(schema.LayoutKind(strategy), g.Nodes, g.Edges)
			default:
				return fmt.Errorf("unknown strategy %q: use auto, hierarchical, grid or circular", strategy)
			}

			if apply {
				g.Nodes = layout.Apply(g.Nodes, result)
				return writeJSON(cmd.OutOrStdout(), g)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "auto", "auto, hierarchical, grid or circular")
	cmd.Flags().BoolVar(&apply, "apply", false, "print the graph with the new positions instead of the layout result")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		format   string
		output   string
		title    string
		noIssues bool
	)

	cmd := &cobra.Command{
		Use:   "render <graph-file>",
		Short: "Render a graph as ASCII, Mermaid, PNG or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Render.Format
			}

			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}

			var report *schema.ValidationReport
			if !noIssues {
				if report, err = a.pipeline.ValidateGraph(cmd.Context(), g); err != nil {
					return err
				}
			}

			model, err := diagram.Build(title, g, report)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "ascii":
				data = []byte(diagram.RenderASCII(model))
			case "mermaid":
				data = []byte(diagram.RenderMermaid(model) + "\n")
			case "png", "svg":
				if data, err = diagram.RenderImage(cmd.Context(), model, diagram.ImageFormat(format)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q: use ascii, mermaid, png or svg", format)
			}

			if output == "" {
				if format == "png" {
					return fmt.Errorf("png output is binary: pass --output")
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			a.logger.Info("diagram written", "path", output, "format", format)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "ascii, mermaid, png or svg (default from config render.format)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "diagram title")
	cmd.Flags().BoolVar(&noIssues, "no-issues", false, "do not overlay validation issues")
	return cmd
}

func newImportMermaidCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import-mermaid <file.mmd>",
		Short: "Convert a Mermaid flowchart into a graph document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			g, err := diagram.ParseMermaid(string(data))
			if err != nil {
				return err
			}
			out, err := writeGraph(g, output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output encoding: json or yaml")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <graph-file> <jq-expression>",
		Short: "Run a jq expression over a graph document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			doc, err := expressions.GraphDocument(g)
			if err != nil {
				return err
			}
			results, err := expressions.NewGoJQEngine().EvaluateAll(cmd.Context(), args[1], doc)
			if err != nil {
				return err
			}
			for _, r := range results {
				if err := writeJSON(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var (
		noStore bool
		sseAddr string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the flowkit tools over MCP (stdio by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := mcp.FlowkitServerDeps{
				Pipeline: a.pipeline,
				Logger:   a.logger,
			}
			if !noStore {
				s, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer s.Close()
				deps.Store = s
			}

			srv, err := mcp.NewFlowkitServer(deps)
			if err != nil {
				return err
			}

			if sseAddr != "" {
				if baseURL == "" {
					baseURL = "http://" + sseAddr
				}
				return srv.ServeSSE(cmd.Context(), sseAddr, baseURL)
			}
			a.logger.Info("mcp server listening on stdio", "store", !noStore)
			return srv.Serve(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "run without a diagram database")
	cmd.Flags().StringVar(&sseAddr, "sse", "", "serve over HTTP/SSE on this address instead of stdio, e.g. 127.0.0.1:8765")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "public base URL for the SSE transport (default http://<sse address>)")
	return cmd
}
