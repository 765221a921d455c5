package schema

import (
	"encoding/json"
	"fmt"
)

// NodeKind is the semantic role of a workflow step.
type NodeKind string

const (
	NodeKindProcess    NodeKind = "process"
	NodeKindDecision   NodeKind = "decision"
	NodeKindTerminal   NodeKind = "terminal"
	NodeKindData       NodeKind = "data"
	NodeKindSubprocess NodeKind = "subprocess"
	NodeKindCloud      NodeKind = "cloud"
	NodeKindUnknown    NodeKind = "unknown"
)

// EdgeKind is the semantic role of a connection.
type EdgeKind string

const (
	EdgeKindSequential  EdgeKind = "sequential"
	EdgeKindConditional EdgeKind = "conditional"
	EdgeKindParallel    EdgeKind = "parallel"
)

// Position is a 2-D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a typed workflow step. ID is immutable once created.
type Node struct {
	ID       string     `json:"id"`
	Kind     NodeKind   `json:"kind"`
	Label    string     `json:"label"`
	Position Position   `json:"position"`
	Detail   NodeDetail `json:"detail,omitempty"`
}

// Edge is a directed connection between two nodes of the same graph.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind,omitempty"`
	Label  string   `json:"label,omitempty"`
}

// Graph is a set of nodes and edges. It may be cyclic or disconnected.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given id.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Outgoing returns the edges whose source is id, in edge order.
func (g Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges whose target is id, in edge order.
func (g Graph) Incoming(id string) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// Clone returns a copy whose slices do not alias g.
func (g Graph) Clone() Graph {
	return Graph{
		Nodes: append([]Node(nil), g.Nodes...),
		Edges: append([]Edge(nil), g.Edges...),
	}
}

// CheckIDs verifies node and edge id uniqueness.
func (g Graph) CheckIDs() error {
	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return NewErrorf(ErrCodeValidation, "node at index %d has empty id", i)
		}
		if seen[n.ID] {
			return NewErrorf(ErrCodeDuplicateID, "duplicate node id: %s", n.ID).WithNode(n.ID)
		}
		seen[n.ID] = true
	}

	seenEdges := make(map[string]bool, len(g.Edges))
	for i, e := range g.Edges {
		if e.ID == "" {
			return NewErrorf(ErrCodeValidation, "edge at index %d has empty id", i)
		}
		if seenEdges[e.ID] {
			return NewErrorf(ErrCodeDuplicateID, "duplicate edge id: %s", e.ID)
		}
		seenEdges[e.ID] = true
	}
	return nil
}

// nodeJSON is the wire form of Node; Detail is decoded after Kind is known.
type nodeJSON struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"kind"`
	Label    string          `json:"label"`
	Position Position        `json:"position"`
	Detail   json.RawMessage `json:"detail,omitempty"`
}

// UnmarshalJSON decodes the detail variant selected by the node kind.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.ID = raw.ID
	n.Kind = raw.Kind
	n.Label = raw.Label
	n.Position = raw.Position
	n.Detail = nil

	if len(raw.Detail) == 0 || string(raw.Detail) == "null" {
		return nil
	}
	detail, err := decodeDetail(raw.Kind, raw.Detail)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}
	n.Detail = detail
	return nil
}
