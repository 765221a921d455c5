package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/flowkit/internal/diagram"
	"github.com/rendis/flowkit/internal/expressions"
	"github.com/rendis/flowkit/internal/intent"
	"github.com/rendis/flowkit/internal/layout"
	"github.com/rendis/flowkit/internal/logging"
	"github.com/rendis/flowkit/internal/store"
	"github.com/rendis/flowkit/internal/suggest"
	"github.com/rendis/flowkit/pkg/schema"
)

const defaultListLimit = 50

var errNoStore = errors.New("no diagram store configured")

// handleParse extracts an intent from a description.
func (s *FlowkitServer) handleParse(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("description is required"), nil
	}
	return marshalResult(intent.Parse(description))
}

// handleGenerate builds a graph from a description and validates it.
func (s *FlowkitServer) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("description is required"), nil
	}

	g, genErr := s.generator.Generate(ctx, intent.Parse(description))
	if genErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", genErr)), nil
	}
	report, valErr := s.pipeline.ValidateGraph(ctx, g)
	if valErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", valErr)), nil
	}

	return marshalResult(map[string]any{
		"graph":  g,
		"report": report,
	})
}

// handleValidate returns the validation report of a graph.
func (s *FlowkitServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, ctx, err := s.graphArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, valErr := s.pipeline.ValidateGraph(ctx, g)
	if valErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", valErr)), nil
	}
	return marshalResult(report)
}

// handleSuggest proposes connections between the nodes of a graph.
func (s *FlowkitServer) handleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, _, err := s.graphArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(map[string]any{"suggestions": suggest.Suggest(g.Nodes)})
}

// handleLayout positions the nodes of a graph.
func (s *FlowkitServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, _, err := s.graphArg(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch strategy := req.GetString("strategy", "auto"); strategy {
	case "auto", "":
		return marshalResult(layout.Compute(g.Nodes, g.Edges))
	case string(schema.LayoutHierarchical), string(schema.LayoutGrid), string(schema.LayoutCircular):
		return marshalResult(layout.ByKind(schema.LayoutKind(strategy), g.Nodes, g.Edges))
	default:
		return mcp.NewToolResultError("strategy must be auto, hierarchical, grid, or circular"), nil
	}
}

// handleDiagram renders a graph in the requested format.
func (s *FlowkitServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "ascii" && format != "mermaid" && format != "svg" && format != "png" {
		return mcp.NewToolResultError("format must be ascii, mermaid, svg, or png"), nil
	}

	g, ctx, graphErr := s.graphArg(ctx, req)
	if graphErr != nil {
		return mcp.NewToolResultError(graphErr.Error()), nil
	}

	var report *schema.ValidationReport
	if req.GetBool("include_issues", true) {
		r, valErr := s.pipeline.ValidateGraph(ctx, g)
		if valErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", valErr)), nil
		}
		report = r
	}

	model, buildErr := diagram.Build(req.GetString("title", ""), g, report)
	if buildErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram build failed: %v", buildErr)), nil
	}

	switch format {
	case "ascii":
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	case "mermaid":
		return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
	case "svg":
		svg, imgErr := diagram.RenderImage(ctx, model, diagram.FormatSVG)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		return mcp.NewToolResultText(string(svg)), nil
	default:
		png, imgErr := diagram.RenderImage(ctx, model, diagram.FormatPNG)
		if imgErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("image render failed: %v", imgErr)), nil
		}
		encoded := base64.StdEncoding.EncodeToString(png)
		return mcp.NewToolResultImage("workflow diagram", encoded, "image/png"), nil
	}
}

// handleQuery runs a jq expression over a graph document.
func (s *FlowkitServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	g, ctx, graphErr := s.graphArg(ctx, req)
	if graphErr != nil {
		return mcp.NewToolResultError(graphErr.Error()), nil
	}

	doc, docErr := expressions.GraphDocument(g)
	if docErr != nil {
		return mcp.NewToolResultError(docErr.Error()), nil
	}
	results, qErr := s.jq.EvaluateAll(ctx, query, doc)
	if qErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", qErr)), nil
	}
	return marshalResult(map[string]any{"results": results})
}

// handleSave stores a graph as a diagram.
func (s *FlowkitServer) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	if _, ok := req.GetArguments()["graph"]; !ok {
		return mcp.NewToolResultError("graph is required"), nil
	}
	g, err := s.decodeGraphArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d := &store.Diagram{
		ID:          req.GetString("id", ""),
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Graph:       g,
		Tags:        req.GetStringSlice("tags", nil),
	}
	if saveErr := s.store.SaveDiagram(ctx, d); saveErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save diagram: %v", saveErr)), nil
	}

	ctx = logging.WithGraphID(ctx, d.ID)
	s.logger.InfoContext(ctx, "diagram saved", "revision", d.Revision)

	return marshalResult(map[string]any{
		"id":       d.ID,
		"revision": d.Revision,
	})
}

// handleLoad returns a stored diagram, or one of its revisions.
func (s *FlowkitServer) handleLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	if revision := req.GetInt("revision", 0); revision > 0 {
		rev, revErr := s.store.GetRevision(ctx, id, int64(revision))
		if revErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("revision lookup failed: %v", revErr)), nil
		}
		return marshalResult(rev)
	}

	d, getErr := s.store.GetDiagram(ctx, id)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram lookup failed: %v", getErr)), nil
	}
	return marshalResult(d)
}

// handleList lists stored diagrams.
func (s *FlowkitServer) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError(errNoStore.Error()), nil
	}
	filter := store.DiagramFilter{
		Name:  req.GetString("name", ""),
		Tag:   req.GetString("tag", ""),
		Limit: req.GetInt("limit", defaultListLimit),
	}
	diagrams, err := s.store.ListDiagrams(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return marshalResult(map[string]any{"diagrams": diagrams})
}

// --- Internal helpers ---

// graphArg resolves the graph a tool operates on: the inline graph
// argument when present, else the stored diagram named by diagram_id.
// The returned context carries the graph id when one is known.
func (s *FlowkitServer) graphArg(ctx context.Context, req mcp.CallToolRequest) (schema.Graph, context.Context, error) {
	if _, ok := req.GetArguments()["graph"]; ok {
		g, err := s.decodeGraphArg(req)
		return g, ctx, err
	}

	id := req.GetString("diagram_id", "")
	if id == "" {
		return schema.Graph{}, ctx, errors.New("one of graph or diagram_id is required")
	}
	if s.store == nil {
		return schema.Graph{}, ctx, errNoStore
	}
	d, err := s.store.GetDiagram(ctx, id)
	if err != nil {
		return schema.Graph{}, ctx, fmt.Errorf("diagram lookup failed: %w", err)
	}
	return d.Graph, logging.WithGraphID(ctx, id), nil
}

// decodeGraphArg checks the graph argument against the document schema
// and decodes it.
func (s *FlowkitServer) decodeGraphArg(req mcp.CallToolRequest) (schema.Graph, error) {
	raw := mcp.ParseStringMap(req, "graph", nil)
	if raw == nil {
		return schema.Graph{}, errors.New("graph must be an object")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return schema.Graph{}, fmt.Errorf("invalid graph: %w", err)
	}
	g, err := s.pipeline.Documents().DecodeGraph(data)
	if err != nil {
		return schema.Graph{}, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}

// errorText returns the first text content of a result.
func errorText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	return mcp.GetTextFromContent(result.Content[0])
}
