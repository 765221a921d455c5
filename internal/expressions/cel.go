package expressions

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/rendis/flowkit/pkg/schema"
)

// CELEngine implements the Engine interface using Google's Common Expression Language.
// It evaluates per-node lint rules.
// Thread-safe: compiled programs are cached and reused across goroutines.
type CELEngine struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewCELEngine creates a new CEL expression engine with a sandboxed environment.
// The environment exposes the node rule variables:
//   - id, kind, label: string
//   - in_degree, out_degree: int
//   - node: map(string, dyn), the full node document
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarID, cel.StringType),
		cel.Variable(VarKind, cel.StringType),
		cel.Variable(VarLabel, cel.StringType),
		cel.Variable(VarInDegree, cel.IntType),
		cel.Variable(VarOutDegree, cel.IntType),
		cel.Variable("node", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &CELEngine{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Compile checks expression without evaluating it.
func (e *CELEngine) Compile(expression string) error {
	if expression == "" {
		return schema.NewError(schema.ErrCodeExpression, "empty CEL expression")
	}
	_, err := e.getOrCompile(expression)
	return err
}

// Evaluate compiles (or retrieves from cache) a CEL expression and evaluates it
// against the provided data. Keys outside the declared variables are ignored.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeExpression, "empty CEL expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.ContextEval(ctx, buildActivation(data))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return out.Value(), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *CELEngine) getOrCompile(expression string) (cel.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL compile error in %q: %s", expression, issues.Err().Error()).
			WithCause(issues.Err()).
			WithDetails(map[string]any{"expression": expression})
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"CEL program error for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = prg
	return prg, nil
}

// buildActivation creates the evaluation activation map from the data.
// Missing keys default to zero values to prevent CEL runtime errors.
func buildActivation(data map[string]any) map[string]any {
	activation := map[string]any{
		VarID:        "",
		VarKind:      "",
		VarLabel:     "",
		VarInDegree:  int64(0),
		VarOutDegree: int64(0),
		"node":       map[string]any{},
	}

	for key := range activation {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int:
			activation[key] = int64(n)
		case float64:
			activation[key] = int64(n)
		default:
			activation[key] = v
		}
	}

	return activation
}

var _ Engine = (*CELEngine)(nil)
