package diagram

import "github.com/rendis/flowkit/pkg/schema"

// DiagramModel is the intermediate representation used by all renderers.
type DiagramModel struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string
}

// Node represents a single graph node in the diagram.
type Node struct {
	ID    string
	Label string
	Kind  schema.NodeKind
	Issue *IssueOverlay
}

// IssueOverlay carries validation findings for a node. Severity is the most
// severe finding.
type IssueOverlay struct {
	Severity schema.Severity
	Messages []string
}

// Edge represents a connection between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
	Kind  schema.EdgeKind
}

// node looks up a node by ID.
func (m *DiagramModel) node(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
