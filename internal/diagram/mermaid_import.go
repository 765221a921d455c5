package diagram

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
)

// Positions assigned to imported nodes, row by row.
const (
	importOriginX = 100.0
	importOriginY = 100.0
	importCellW   = 200.0
	importCellH   = 100.0
	importColumns = 3
)

// labelGroup captures a quoted label whole, so closing delimiters inside
// the quotes do not end the shape, or else the shortest bare label.
const labelGroup = `("[^"]*"|.*?)`

var (
	// nodeRefPattern matches an id with an optional shape. Longer delimiters
	// come first so "((" is not read as "(".
	nodeRefPattern = regexp.MustCompile(`^\s*([A-Za-z0-9_]+(?:-[A-Za-z0-9_]+)*)\s*` +
		`(?:` +
		`\(\(` + labelGroup + `\)\)` + // 2 circle
		`|\[\(` + labelGroup + `\)\]` + // 3 cylinder
		`|\[\[` + labelGroup + `\]\]` + // 4 subroutine
		`|\(\[` + labelGroup + `\]\)` + // 5 stadium
		`|\{\{` + labelGroup + `\}\}` + // 6 hexagon
		`|\{` + labelGroup + `\}` + // 7 rhombus
		`|\[/` + labelGroup + `/\]` + // 8 parallelogram
		`|\[` + labelGroup + `\]` + // 9 rectangle
		`|\(` + labelGroup + `\)` + // 10 rounded
		`|>` + labelGroup + `\]` + // 11 asymmetric
		`)?`)

	arrowPattern = regexp.MustCompile(`^\s*(-\.+->|-\.+-|=+>|=+=|-+->|-{3,})\s*(?:\|([^|]*)\|)?`)

	directivePrefixes = []string{"classDef ", "class ", "style ", "linkStyle ", "click ", "subgraph", "direction "}
)

// shapeKinds maps nodeRefPattern groups to node kinds.
var shapeKinds = map[int]schema.NodeKind{
	2:  schema.NodeKindTerminal,
	3:  schema.NodeKindData,
	4:  schema.NodeKindSubprocess,
	5:  schema.NodeKindTerminal,
	6:  schema.NodeKindDecision,
	7:  schema.NodeKindDecision,
	8:  schema.NodeKindData,
	9:  schema.NodeKindProcess,
	10: schema.NodeKindProcess,
	11: schema.NodeKindCloud,
}

// ParseMermaid reads a Mermaid flowchart into a graph. Nodes keep their
// Mermaid ids; edges are numbered e0, e1, ... in source order. Endpoints
// that are never declared with a shape become process nodes labelled with
// their id. Nodes are placed on a three-column grid in declaration order.
func ParseMermaid(text string) (schema.Graph, error) {
	p := &mermaidParser{index: make(map[string]int)}

	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	sawHeader := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(line, "flowchart") && !strings.HasPrefix(line, "graph") {
				return schema.Graph{}, schema.NewErrorf(schema.ErrCodeParse,
					"line %d: expected a flowchart or graph header", lineNo)
			}
			sawHeader = true
			continue
		}
		if isDirective(line) {
			continue
		}
		for _, stmt := range splitStatements(line) {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return schema.Graph{}, schema.NewErrorf(schema.ErrCodeParse, "line %d: %s", lineNo, err.Error())
			}
		}
	}
	if err := sc.Err(); err != nil {
		return schema.Graph{}, schema.NewError(schema.ErrCodeParse, "read mermaid source").WithCause(err)
	}
	if !sawHeader {
		return schema.Graph{}, schema.NewError(schema.ErrCodeParse, "empty mermaid source")
	}

	for i := range p.nodes {
		p.nodes[i].Position = schema.Position{
			X: importOriginX + float64(i%importColumns)*importCellW,
			Y: importOriginY + float64(i/importColumns)*importCellH,
		}
	}
	return schema.Graph{Nodes: p.nodes, Edges: p.edges}, nil
}

type mermaidParser struct {
	nodes  []schema.Node
	edges  []schema.Edge
	index  map[string]int
	shaped map[string]bool
}

// statement parses "A", "A[x]", or a chain "A[x] --> B -.->|y| C".
func (p *mermaidParser) statement(stmt string) error {
	rest := stmt
	from, rest, err := p.nodeRef(rest)
	if err != nil {
		return err
	}

	for strings.TrimSpace(rest) != "" {
		m := arrowPattern.FindStringSubmatch(rest)
		if m == nil {
			return fmt.Errorf("unexpected %q", strings.TrimSpace(rest))
		}
		rest = rest[len(m[0]):]

		var to string
		to, rest, err = p.nodeRef(rest)
		if err != nil {
			return err
		}
		p.edges = append(p.edges, schema.Edge{
			ID:     fmt.Sprintf("e%d", len(p.edges)),
			Source: from,
			Target: to,
			Kind:   arrowKind(m[1]),
			Label:  unescapeLabel(strings.TrimSpace(m[2])),
		})
		from = to
	}
	return nil
}

// nodeRef consumes one node reference and records the node.
func (p *mermaidParser) nodeRef(s string) (string, string, error) {
	m := nodeRefPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return "", s, fmt.Errorf("expected a node in %q", strings.TrimSpace(s))
	}
	id := decodeMermaidID(s[m[2]:m[3]])

	kind := schema.NodeKindProcess
	label := id
	shaped := false
	for group := 2; group <= 11; group++ {
		if m[2*group] < 0 {
			continue
		}
		kind = shapeKinds[group]
		label = unescapeLabel(strings.Trim(strings.TrimSpace(s[m[2*group]:m[2*group+1]]), `"`))
		shaped = true
		break
	}
	p.record(id, kind, label, shaped)
	return id, s[m[1]:], nil
}

// record adds a node on first sight; a later shaped declaration replaces an
// earlier bare reference.
func (p *mermaidParser) record(id string, kind schema.NodeKind, label string, shaped bool) {
	if p.shaped == nil {
		p.shaped = make(map[string]bool)
	}
	if i, ok := p.index[id]; ok {
		if shaped && !p.shaped[id] {
			p.nodes[i].Kind = kind
			p.nodes[i].Label = label
			p.shaped[id] = true
		}
		return
	}
	p.index[id] = len(p.nodes)
	p.shaped[id] = shaped
	p.nodes = append(p.nodes, schema.Node{ID: id, Kind: kind, Label: label})
}

func arrowKind(arrow string) schema.EdgeKind {
	switch {
	case strings.Contains(arrow, "."):
		return schema.EdgeKindConditional
	case strings.HasPrefix(arrow, "="):
		return schema.EdgeKindParallel
	default:
		return schema.EdgeKindSequential
	}
}

func isDirective(line string) bool {
	if line == "end" {
		return true
	}
	for _, prefix := range directivePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func unescapeLabel(s string) string {
	r := strings.NewReplacer("#35;", "#", "#quot;", `"`, "#124;", "|")
	return r.Replace(s)
}

// splitStatements splits a line on ";" outside quoted labels and |edge text|.
func splitStatements(line string) []string {
	var stmts []string
	inQuote, inPipe := false, false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			if !inPipe {
				inQuote = !inQuote
			}
		case '|':
			if !inQuote {
				inPipe = !inPipe
			}
		case ';':
			if !inQuote && !inPipe {
				stmts = append(stmts, line[start:i])
				start = i + 1
			}
		}
	}
	return append(stmts, line[start:])
}
