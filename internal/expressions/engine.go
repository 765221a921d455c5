package expressions

import (
	"context"

	"github.com/rendis/flowkit/pkg/schema"
)

// Engine evaluates expressions against graph data.
// Three implementations: CEL (node rules), Expr (node rules), GoJQ (graph queries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Variables bound for per-node rule expressions.
const (
	VarID        = "id"
	VarKind      = "kind"
	VarLabel     = "label"
	VarInDegree  = "in_degree"
	VarOutDegree = "out_degree"
)

// ForEngine returns the engine registered under name. An empty name selects expr.
func ForEngine(name string) (Engine, error) {
	switch name {
	case "", "expr":
		return NewExprEngine(), nil
	case "cel":
		return NewCELEngine()
	case "jq":
		return NewGoJQEngine(), nil
	default:
		return nil, unknownEngine(name)
	}
}

func unknownEngine(name string) error {
	return schema.NewErrorf(schema.ErrCodeExpression, "unknown expression engine %q", name).
		WithDetails(map[string]any{"supported": []string{"expr", "cel", "jq"}})
}
