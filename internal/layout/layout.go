// Package layout assigns canvas positions to graph nodes. Every function
// returns repositioned copies and leaves its inputs untouched.
package layout

import (
	"math"

	"github.com/rendis/flowkit/pkg/schema"
)

const (
	nodeSpacing  = 200.0
	levelSpacing = 120.0

	gridColumns = 3
	gridCellW   = 200.0
	gridCellH   = 150.0

	circleRadius = 300.0

	// Approximate node footprint added to the bounding box.
	nodeWidth  = 150.0
	nodeHeight = 100.0

	// Selection thresholds.
	circularMaxNodes = 5
	circularDensity  = 2
	gridMinNodes     = 10
)

// Compute picks a strategy from the graph shape and returns its result:
// small dense graphs are circular, large graphs use the grid, everything
// else is hierarchical.
func Compute(nodes []schema.Node, edges []schema.Edge) schema.LayoutResult {
	return ByKind(Select(len(nodes), len(edges)), nodes, edges)
}

// Select returns the strategy Compute would use for a graph of the given size.
func Select(nodeCount, edgeCount int) schema.LayoutKind {
	if nodeCount <= circularMaxNodes && edgeCount >= nodeCount*circularDensity {
		return schema.LayoutCircular
	}
	if nodeCount > gridMinNodes {
		return schema.LayoutGrid
	}
	return schema.LayoutHierarchical
}

// ByKind runs the named strategy. Unknown kinds fall back to hierarchical.
func ByKind(kind schema.LayoutKind, nodes []schema.Node, edges []schema.Edge) schema.LayoutResult {
	switch kind {
	case schema.LayoutCircular:
		return Circular(nodes)
	case schema.LayoutGrid:
		return Grid(nodes)
	default:
		return Hierarchical(nodes, edges)
	}
}

// Hierarchical stacks Kahn levels top to bottom, each row centered on x=0.
// Nodes that never reach in-degree zero (cycle members and everything
// downstream of them) are omitted from the result.
func Hierarchical(nodes []schema.Node, edges []schema.Edge) schema.LayoutResult {
	byID := make(map[string]schema.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	placed := make([]schema.Node, 0, len(nodes))
	for level, ids := range Levels(nodes, edges) {
		startX := -float64(len(ids)) * nodeSpacing / 2
		for i, id := range ids {
			n := byID[id]
			n.Position = schema.Position{
				X: startX + float64(i)*nodeSpacing,
				Y: float64(level) * levelSpacing,
			}
			placed = append(placed, n)
		}
	}

	return schema.LayoutResult{
		Nodes:  placed,
		Kind:   schema.LayoutHierarchical,
		Bounds: computeBounds(placed),
	}
}

// Grid places nodes row by row in a fixed three-column grid, in input order.
func Grid(nodes []schema.Node) schema.LayoutResult {
	placed := make([]schema.Node, len(nodes))
	for i, n := range nodes {
		n.Position = schema.Position{
			X: float64(i%gridColumns) * gridCellW,
			Y: math.Floor(float64(i)/gridColumns) * gridCellH,
		}
		placed[i] = n
	}

	return schema.LayoutResult{
		Nodes:  placed,
		Kind:   schema.LayoutGrid,
		Bounds: computeBounds(placed),
	}
}

// Circular spaces nodes evenly on a circle of radius 300 around the origin,
// starting at angle zero, in input order.
func Circular(nodes []schema.Node) schema.LayoutResult {
	placed := make([]schema.Node, len(nodes))
	if len(nodes) > 0 {
		step := 2 * math.Pi / float64(len(nodes))
		for i, n := range nodes {
			angle := float64(i) * step
			n.Position = schema.Position{
				X: circleRadius * math.Cos(angle),
				Y: circleRadius * math.Sin(angle),
			}
			placed[i] = n
		}
	}

	return schema.LayoutResult{
		Nodes:  placed,
		Kind:   schema.LayoutCircular,
		Bounds: computeBounds(placed),
	}
}

// Levels groups node ids by topological depth using Kahn's algorithm.
// Level 0 holds the nodes without incoming edges, in node order. Each later
// level holds the nodes whose last remaining predecessor was in the level
// before, in the order those edges were visited. Edges with an endpoint
// outside the node set are ignored.
func Levels(nodes []schema.Node, edges []schema.Edge) [][]string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	outgoing := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		inDegree[e.Target]++
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(nodes))
	current := make([]string, 0)
	for _, n := range nodes {
		if inDegree[n.ID] == 0 && !visited[n.ID] {
			visited[n.ID] = true
			current = append(current, n.ID)
		}
	}

	var levels [][]string
	for len(current) > 0 {
		levels = append(levels, current)

		next := make([]string, 0)
		for _, id := range current {
			for _, target := range outgoing[id] {
				inDegree[target]--
				if inDegree[target] == 0 && !visited[target] {
					visited[target] = true
					next = append(next, target)
				}
			}
		}
		current = next
	}
	return levels
}

// Apply copies the positions in result onto the matching nodes. Nodes the
// layout did not place keep their current position.
func Apply(nodes []schema.Node, result schema.LayoutResult) []schema.Node {
	positions := make(map[string]schema.Position, len(result.Nodes))
	for _, n := range result.Nodes {
		positions[n.ID] = n.Position
	}

	out := make([]schema.Node, len(nodes))
	for i, n := range nodes {
		if p, ok := positions[n.ID]; ok {
			n.Position = p
		}
		out[i] = n
	}
	return out
}

// computeBounds is the tight box around the positions, widened by the node
// footprint. An empty set has zero bounds.
func computeBounds(nodes []schema.Node) schema.Bounds {
	if len(nodes) == 0 {
		return schema.Bounds{}
	}

	minX, maxX := nodes[0].Position.X, nodes[0].Position.X
	minY, maxY := nodes[0].Position.Y, nodes[0].Position.Y
	for _, n := range nodes[1:] {
		minX = math.Min(minX, n.Position.X)
		maxX = math.Max(maxX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxY = math.Max(maxY, n.Position.Y)
	}

	return schema.Bounds{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + nodeWidth,
		Height: maxY - minY + nodeHeight,
	}
}
