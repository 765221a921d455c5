package diagram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
)

// RenderMermaid renders a DiagramModel as a Mermaid flowchart string.
func RenderMermaid(model *DiagramModel) string {
	var b strings.Builder

	b.WriteString("flowchart TD\n")

	// Title as comment.
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}

	// Render nodes with shapes based on kind.
	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	// Render edges.
	for _, edge := range model.Edges {
		label := ""
		if edge.Label != "" {
			label = fmt.Sprintf("|%s|", mermaidEscapeLabel(edge.Label))
		}
		b.WriteString(fmt.Sprintf("    %s %s%s %s\n",
			mermaidSafeID(edge.From), mermaidConnector(edge.Kind), label, mermaidSafeID(edge.To)))
	}

	// Issue classes, only when a node carries one.
	var classLines []string
	for _, node := range model.Nodes {
		if node.Issue == nil {
			continue
		}
		if cls := mermaidIssueClass(node.Issue.Severity); cls != "" {
			classLines = append(classLines, fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), cls))
		}
	}
	if len(classLines) > 0 {
		b.WriteString("\n")
		b.WriteString("    classDef issueError fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
		b.WriteString("    classDef issueWarning fill:#b7791a,stroke:#8a5c14,color:#fff\n")
		b.WriteString("    classDef issueInfo fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")
		for _, line := range classLines {
			b.WriteString(line)
		}
	}

	return b.String()
}

// mermaidNodeDef returns a Mermaid node definition with the appropriate shape.
func mermaidNodeDef(node *Node) string {
	id := mermaidSafeID(node.ID)
	label := `"` + mermaidEscapeLabel(firstLine(node.Label)) + `"`

	switch node.Kind {
	case schema.NodeKindDecision:
		return fmt.Sprintf("%s{%s}", id, label)
	case schema.NodeKindTerminal:
		return fmt.Sprintf("%s((%s))", id, label)
	case schema.NodeKindData:
		return fmt.Sprintf("%s[(%s)]", id, label)
	case schema.NodeKindSubprocess:
		return fmt.Sprintf("%s[[%s]]", id, label)
	case schema.NodeKindCloud:
		return fmt.Sprintf("%s>%s]", id, label)
	default: // process, unknown
		return fmt.Sprintf("%s[%s]", id, label)
	}
}

// mermaidConnector maps an edge kind to its arrow.
func mermaidConnector(kind schema.EdgeKind) string {
	switch kind {
	case schema.EdgeKindConditional:
		return "-.->"
	case schema.EdgeKindParallel:
		return "==>"
	default:
		return "-->"
	}
}

// plainIDPattern matches ids that Mermaid accepts as written.
var plainIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(?:-[A-Za-z0-9_]+)*$`)

// mermaidSafeID converts a node ID to a Mermaid identifier. Ids that are
// already safe and contain no "__" pass through. Any other id has every
// byte outside [A-Za-z0-9] written as "__" plus two hex digits, so the
// output always contains "__" and decodeMermaidID can reverse it.
func mermaidSafeID(id string) string {
	if plainIDPattern.MatchString(id) && !strings.Contains(id, "__") {
		return id
	}
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isAlnum(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "__%02x", c)
	}
	return b.String()
}

// decodeMermaidID reverses mermaidSafeID. Ids that are not a valid
// encoding are returned unchanged.
func decodeMermaidID(id string) string {
	if !strings.Contains(id, "__") {
		return id
	}
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isAlnum(c) {
			b.WriteByte(c)
			continue
		}
		if c != '_' || i+3 >= len(id) || id[i+1] != '_' {
			return id
		}
		v, err := strconv.ParseUint(id[i+2:i+4], 16, 8)
		if err != nil {
			return id
		}
		b.WriteByte(byte(v))
		i += 3
	}
	return b.String()
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// mermaidEscapeLabel escapes characters that end a quoted label or edge
// text, and "#" so that entity codes in the source text survive.
func mermaidEscapeLabel(s string) string {
	r := strings.NewReplacer("#", "#35;", `"`, "#quot;", "|", "#124;")
	return r.Replace(s)
}

// mermaidIssueClass maps a severity to a Mermaid class name.
func mermaidIssueClass(s schema.Severity) string {
	switch s {
	case schema.SeverityError:
		return "issueError"
	case schema.SeverityWarning:
		return "issueWarning"
	case schema.SeverityInfo:
		return "issueInfo"
	default:
		return ""
	}
}

// firstLine returns only the first line of a multi-line label.
func firstLine(s string) string {
	if i := strings.Index(s, "\n"); i >= 0 {
		return s[:i]
	}
	return s
}
