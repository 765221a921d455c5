package diagram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/rendis/flowkit/pkg/schema"
)

// ImageFormat selects the graphviz output encoding.
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatSVG ImageFormat = "svg"
)

// RenderImage renders a DiagramModel with graphviz's dot layout.
// Edges whose endpoints are not in the model are skipped.
func RenderImage(ctx context.Context, model *DiagramModel, format ImageFormat) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatPNG, "":
		gvFormat = graphviz.PNG
	case FormatSVG:
		gvFormat = graphviz.SVG
	default:
		return nil, schema.NewErrorf(schema.ErrCodeRender, "unsupported image format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, renderError("create graphviz", err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, renderError("create graph", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.TBRank)
	if model.Title != "" {
		graph.SetLabel(model.Title)
	}

	gvNodes := make(map[string]*cgraph.Node, len(model.Nodes))
	for _, node := range model.Nodes {
		gvNode, nErr := graph.CreateNodeByName(node.ID)
		if nErr != nil {
			return nil, renderError("create node "+node.ID, nErr)
		}
		gvNode.SetLabel(firstLine(node.Label))
		applyNodeStyle(gvNode, node)
		gvNodes[node.ID] = gvNode
	}

	for _, edge := range model.Edges {
		fromGV, toGV := gvNodes[edge.From], gvNodes[edge.To]
		if fromGV == nil || toGV == nil {
			continue
		}
		e, eErr := graph.CreateEdgeByName("", fromGV, toGV)
		if eErr != nil {
			return nil, renderError(fmt.Sprintf("create edge %s->%s", edge.From, edge.To), eErr)
		}
		if edge.Label != "" {
			e.SetLabel(edge.Label)
		}
		switch edge.Kind {
		case schema.EdgeKindConditional:
			e.SetStyle(cgraph.DashedEdgeStyle)
		case schema.EdgeKindParallel:
			e.SetStyle(cgraph.BoldEdgeStyle)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return nil, renderError("render "+string(gvFormat), err)
	}

	return buf.Bytes(), nil
}

func renderError(what string, err error) error {
	return schema.NewErrorf(schema.ErrCodeRender, "diagram: %s: %s", what, err.Error()).WithCause(err)
}

// applyNodeStyle sets graphviz attributes based on node kind and issues.
func applyNodeStyle(gvNode *cgraph.Node, node *Node) {
	switch node.Kind {
	case schema.NodeKindDecision:
		gvNode.SetShape(cgraph.DiamondShape)
	case schema.NodeKindTerminal:
		gvNode.SetShape(cgraph.EllipseShape)
	case schema.NodeKindData:
		gvNode.SetShape(cgraph.ParallelogramShape)
	case schema.NodeKindSubprocess:
		gvNode.SetShape(cgraph.HexagonShape)
	case schema.NodeKindCloud:
		gvNode.SetShape(cgraph.EllipseShape)
		gvNode.SetStyle(cgraph.DashedNodeStyle)
	default:
		gvNode.SetShape(cgraph.BoxShape)
	}

	if node.Issue != nil {
		applyIssueColor(gvNode, node.Issue.Severity)
	}
}

// applyIssueColor sets fill color and style based on severity.
func applyIssueColor(gvNode *cgraph.Node, severity schema.Severity) {
	gvNode.SetStyle(cgraph.FilledNodeStyle)
	switch severity {
	case schema.SeverityError:
		gvNode.SetFillColor("#8b1a1a")
		gvNode.SetFontColor("white")
	case schema.SeverityWarning:
		gvNode.SetFillColor("#b7791a")
		gvNode.SetFontColor("white")
	default:
		gvNode.SetFillColor("#d3d3d3")
		gvNode.SetFontColor("black")
	}
}
