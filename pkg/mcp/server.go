package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rendis/flowkit/internal/expressions"
	"github.com/rendis/flowkit/internal/generator"
	"github.com/rendis/flowkit/internal/logging"
	"github.com/rendis/flowkit/internal/store"
	"github.com/rendis/flowkit/internal/validation"
)

const (
	serverName    = "flowkit"
	serverVersion = "1.0.0"
	tracerName    = "flowkit/mcp"

	shutdownTimeout = 5 * time.Second
)

// FlowkitServerDeps holds the dependencies for creating a FlowkitServer.
// Every field is optional.
type FlowkitServerDeps struct {
	// Store backs flowkit.save, flowkit.load and flowkit.list. Without it
	// those tools return an error result.
	Store store.Store
	// Pipeline validates graph arguments. Defaults to a pipeline without
	// custom rules.
	Pipeline *validation.Pipeline
	// Generator builds graphs for flowkit.generate. Defaults to the
	// offline IntentGenerator.
	Generator generator.Generator
	Logger    *slog.Logger
}

// FlowkitServer wraps an MCP server with flowkit tool handlers.
type FlowkitServer struct {
	store     store.Store
	pipeline  *validation.Pipeline
	generator generator.Generator
	jq        *expressions.GoJQEngine
	logger    *slog.Logger
	tracer    trace.Tracer
	mcpServer *server.MCPServer
}

// NewFlowkitServer creates a new FlowkitServer with all 10 tools registered.
func NewFlowkitServer(deps FlowkitServerDeps) (*FlowkitServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(logging.NewCorrelationHandler(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}

	pipeline := deps.Pipeline
	if pipeline == nil {
		p, err := validation.NewPipeline(nil)
		if err != nil {
			return nil, err
		}
		pipeline = p
	}

	gen := deps.Generator
	if gen == nil {
		gen = generator.NewIntentGenerator()
	}

	s := &FlowkitServer{
		store:     deps.Store,
		pipeline:  pipeline,
		generator: gen,
		jq:        expressions.NewGoJQEngine(),
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}

	mcpSrv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowkit analyzes workflow graphs. Use flowkit.parse to extract an intent from text, "+
			"flowkit.generate to build a graph from text, flowkit.validate to find structural defects, "+
			"flowkit.suggest to propose connections, flowkit.layout to position nodes, flowkit.diagram to render, "+
			"flowkit.query to run jq over a graph, and flowkit.save / flowkit.load / flowkit.list to manage stored diagrams."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowkitServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// ServeSSE serves the tools over HTTP with the SSE transport on addr and
// blocks until ctx is cancelled or the listener fails. baseURL is the
// externally reachable address clients are told to POST messages to.
func (s *FlowkitServer) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()
	s.logger.InfoContext(ctx, "mcp sse server starting", "addr", addr, "base_url", baseURL)

	select {
	case err := <-errCh:
		return normalizeServeErr(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return normalizeServeErr(err)
	case <-shutdownCtx.Done():
		return nil
	}
}

func normalizeServeErr(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowkitServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 10 registered MCP tools as ServerTool entries.
func (s *FlowkitServer) tools() []server.ServerTool {
	entries := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{parseTool(), s.handleParse},
		{generateTool(), s.handleGenerate},
		{validateTool(), s.handleValidate},
		{suggestTool(), s.handleSuggest},
		{layoutTool(), s.handleLayout},
		{diagramTool(), s.handleDiagram},
		{queryTool(), s.handleQuery},
		{saveTool(), s.handleSave},
		{loadTool(), s.handleLoad},
		{listTool(), s.handleList},
	}

	tools := make([]server.ServerTool, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, server.ServerTool{Tool: e.tool, Handler: s.traced(e.tool.Name, e.handler)})
	}
	return tools
}

// traced runs a handler inside a span and tags the context with the tool
// name and a fresh request id for correlated logging.
func (s *FlowkitServer) traced(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.New().String()
		ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("mcp.tool", name),
			attribute.String("flowkit.request_id", requestID),
		))
		defer span.End()

		ctx = logging.WithTool(logging.WithRequestID(ctx, requestID), name)
		s.logger.DebugContext(ctx, "tool call")

		result, err := h(ctx, req)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case result != nil && result.IsError:
			span.SetStatus(codes.Error, "tool returned an error result")
			s.logger.WarnContext(ctx, "tool failed", "result", errorText(result))
		}
		return result, err
	}
}

// --- Tool definitions ---

func graphOption() mcp.ToolOption {
	return mcp.WithObject("graph", mcp.Description("Graph document: {nodes: [{id, kind, label, position, detail}], edges: [{id, source, target, kind, label}]}"))
}

func diagramIDOption() mcp.ToolOption {
	return mcp.WithString("diagram_id", mcp.Description("ID of a stored diagram to use instead of graph"))
}

func parseTool() mcp.Tool {
	return mcp.NewTool("flowkit.parse",
		mcp.WithDescription("Extract a structured intent (workflow type, entities, relationships, conditions) from a text description"),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text workflow description")),
	)
}

func generateTool() mcp.Tool {
	return mcp.NewTool("flowkit.generate",
		mcp.WithDescription("Generate a positioned workflow graph from a text description"),
		mcp.WithString("description", mcp.Required(), mcp.Description("Free-text workflow description")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("flowkit.validate",
		mcp.WithDescription("Validate a workflow graph and report dead ends, orphans, cycles and invalid node types"),
		graphOption(),
		diagramIDOption(),
	)
}

func suggestTool() mcp.Tool {
	return mcp.NewTool("flowkit.suggest",
		mcp.WithDescription("Suggest likely connections between the nodes of a graph"),
		graphOption(),
		diagramIDOption(),
	)
}

func layoutTool() mcp.Tool {
	return mcp.NewTool("flowkit.layout",
		mcp.WithDescription("Compute node positions for a graph"),
		graphOption(),
		diagramIDOption(),
		mcp.WithString("strategy",
			mcp.Enum("auto", "hierarchical", "grid", "circular"),
			mcp.Description("Layout strategy (default: auto, chosen from graph size)"),
		),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flowkit.diagram",
		mcp.WithDescription("Render a workflow graph. Returns ASCII art, Mermaid flowchart syntax, SVG markup or a PNG image"),
		graphOption(),
		diagramIDOption(),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("ascii", "mermaid", "svg", "png"),
			mcp.Description("Output format"),
		),
		mcp.WithString("title", mcp.Description("Diagram title")),
		mcp.WithBoolean("include_issues", mcp.Description("Overlay validation issues on nodes (default: true)")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("flowkit.query",
		mcp.WithDescription("Run a jq expression over a graph document and return every result"),
		graphOption(),
		diagramIDOption(),
		mcp.WithString("query", mcp.Required(), mcp.Description("jq expression, e.g. .nodes[] | select(.kind == \"decision\") | .id")),
	)
}

func saveTool() mcp.Tool {
	return mcp.NewTool("flowkit.save",
		mcp.WithDescription("Store a graph as a diagram. Saving an existing id adds a new revision"),
		mcp.WithObject("graph", mcp.Required(), mcp.Description("Graph document to store")),
		mcp.WithString("id", mcp.Description("Diagram ID (default: new UUID)")),
		mcp.WithString("name", mcp.Description("Diagram name")),
		mcp.WithString("description", mcp.Description("Diagram description")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Free-form tags")),
	)
}

func loadTool() mcp.Tool {
	return mcp.NewTool("flowkit.load",
		mcp.WithDescription("Load a stored diagram, optionally at a specific revision"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Diagram ID")),
		mcp.WithNumber("revision", mcp.Description("Revision number (default: latest)")),
	)
}

func listTool() mcp.Tool {
	return mcp.NewTool("flowkit.list",
		mcp.WithDescription("List stored diagrams, most recently updated first"),
		mcp.WithString("name", mcp.Description("Match names containing this text")),
		mcp.WithString("tag", mcp.Description("Only diagrams carrying this tag")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default: 50)")),
	)
}
