package schema

import (
	"encoding/json"
	"fmt"
)

// LayoutKind names a placement strategy.
type LayoutKind string

const (
	LayoutHierarchical LayoutKind = "hierarchical"
	// LayoutGrid is a fixed 3-column grid. Older documents call it
	// "forceDirected" although no force simulation ever ran.
	LayoutGrid     LayoutKind = "grid"
	LayoutCircular LayoutKind = "circular"
)

const legacyForceDirected = "forceDirected"

// UnmarshalJSON accepts the legacy "forceDirected" spelling.
func (k *LayoutKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case string(LayoutHierarchical), string(LayoutGrid), string(LayoutCircular):
		*k = LayoutKind(s)
	case legacyForceDirected:
		*k = LayoutGrid
	default:
		return fmt.Errorf("unknown layout kind %q", s)
	}
	return nil
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LayoutResult holds repositioned copies of the input nodes. The caller
// decides whether to commit the positions back into its graph.
type LayoutResult struct {
	Nodes  []Node     `json:"nodes"`
	Kind   LayoutKind `json:"layoutKind"`
	Bounds Bounds     `json:"bounds"`
}

// ConnectionSuggestion is a proposed edge. It is never stored in a Graph.
type ConnectionSuggestion struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Kind       EdgeKind `json:"kind"`
}
