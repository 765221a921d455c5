package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
)

// issueTag returns a short ASCII indicator for a severity.
func issueTag(s schema.Severity) string {
	switch s {
	case schema.SeverityError:
		return "[ERR]"
	case schema.SeverityWarning:
		return "[WARN]"
	case schema.SeverityInfo:
		return "[INFO]"
	default:
		return ""
	}
}

// kindTag returns the bracketed kind shown under a node label.
func kindTag(kind schema.NodeKind) string {
	if kind == "" {
		return "<process>"
	}
	return "<" + string(kind) + ">"
}

// RenderASCII renders a DiagramModel as a text-based ASCII diagram.
// It uses a level-based layout with box-drawing characters, followed by a
// list of the edges that carry a label or a non-sequential kind.
func RenderASCII(model *DiagramModel) string {
	var b strings.Builder

	// Title.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("=== %s ===\n\n", model.Title))
	}

	// Render each level.
	for levelIdx, level := range model.Levels {
		var boxes []asciiBox
		for _, nodeID := range level {
			node := model.node(nodeID)
			if node == nil {
				continue
			}
			boxes = append(boxes, makeBox(node))
		}

		renderBoxRow(&b, boxes)

		if levelIdx < len(model.Levels)-1 {
			renderConnector(&b, len(boxes))
		}
	}

	var branches []Edge
	for _, e := range model.Edges {
		if e.Label != "" || e.Kind != schema.EdgeKindSequential {
			branches = append(branches, e)
		}
	}
	if len(branches) > 0 {
		b.WriteString("\n--- branches ---\n")
		for _, e := range branches {
			b.WriteString(fmt.Sprintf("  %s %s %s\n", e.From, asciiArrow(e), e.To))
		}
	}

	return b.String()
}

// asciiArrow draws an edge with its label inline.
func asciiArrow(e Edge) string {
	line := "─"
	if e.Kind == schema.EdgeKindConditional {
		line = "┄"
	} else if e.Kind == schema.EdgeKindParallel {
		line = "═"
	}
	if e.Label != "" {
		return line + " " + e.Label + " " + line + "→"
	}
	return line + line + "→"
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox creates an ASCII box for a node.
func makeBox(node *Node) asciiBox {
	contentLines := []string{firstLine(node.Label), kindTag(node.Kind)}

	if node.Issue != nil {
		if tag := issueTag(node.Issue.Severity); tag != "" {
			contentLines = append(contentLines, tag)
		}
	}

	// Calculate width.
	maxLen := 0
	for _, line := range contentLines {
		if n := len([]rune(line)); n > maxLen {
			maxLen = n
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	var lines []string
	top := "┌" + strings.Repeat("─", width-2) + "┐"
	bot := "└" + strings.Repeat("─", width-2) + "┘"
	lines = append(lines, top)
	for _, content := range contentLines {
		padded := content + strings.Repeat(" ", maxLen-len([]rune(content)))
		lines = append(lines, "│ "+padded+" │")
	}
	lines = append(lines, bot)

	return asciiBox{lines: lines, width: width}
}

// renderBoxRow writes boxes side by side.
func renderBoxRow(b *strings.Builder, boxes []asciiBox) {
	if len(boxes) == 0 {
		return
	}

	maxHeight := 0
	for _, box := range boxes {
		if len(box.lines) > maxHeight {
			maxHeight = len(box.lines)
		}
	}

	for row := 0; row < maxHeight; row++ {
		for i, box := range boxes {
			if i > 0 {
				b.WriteString("  ") // gap between boxes
			}
			if row < len(box.lines) {
				b.WriteString(box.lines[row])
			} else {
				b.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteByte('\n')
	}
}

// renderConnector draws a vertical connector between levels.
func renderConnector(b *strings.Builder, boxCount int) {
	if boxCount == 0 {
		return
	}
	b.WriteString("       │\n")
	b.WriteString("       ▼\n")
}
