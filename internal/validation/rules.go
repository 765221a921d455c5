package validation

import (
	"context"
	"fmt"

	"github.com/rendis/flowkit/internal/expressions"
	"github.com/rendis/flowkit/pkg/schema"
)

// Rule is a user-supplied boolean expression evaluated once per node. When
// the expression returns true the node is reported with Message.
type Rule struct {
	Name       string          `json:"name" yaml:"name" mapstructure:"name"`
	Engine     string          `json:"engine,omitempty" yaml:"engine,omitempty" mapstructure:"engine"`
	Expression string          `json:"expression" yaml:"expression" mapstructure:"expression"`
	Severity   schema.Severity `json:"severity,omitempty" yaml:"severity,omitempty" mapstructure:"severity"`
	Message    string          `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
}

// compiler is implemented by engines that can check an expression up front.
type compiler interface {
	Compile(expression string) error
}

type compiledRule struct {
	Rule
	engine expressions.Engine
}

// RuleSet holds rules whose expressions have already compiled.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet compiles every rule. The first rule that names an unknown
// engine or severity, or fails to compile, is returned as an error.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	engines := map[string]expressions.Engine{}
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}

	for i, r := range rules {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule_%d", i)
		}
		if r.Engine == "" {
			r.Engine = "expr"
		}
		if r.Engine != "expr" && r.Engine != "cel" {
			return nil, schema.NewErrorf(schema.ErrCodeExpression,
				"rule %q: engine must be expr or cel, got %q", r.Name, r.Engine)
		}
		switch r.Severity {
		case "":
			r.Severity = schema.SeverityWarning
		case schema.SeverityError, schema.SeverityWarning, schema.SeverityInfo:
		default:
			return nil, schema.NewErrorf(schema.ErrCodeExpression,
				"rule %q: severity must be error, warning or info, got %q", r.Name, r.Severity)
		}

		eng, ok := engines[r.Engine]
		if !ok {
			var err error
			eng, err = expressions.ForEngine(r.Engine)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			engines[r.Engine] = eng
		}
		if c, ok := eng.(compiler); ok {
			if err := c.Compile(r.Expression); err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, engine: eng})
	}
	return rs, nil
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Apply evaluates every rule against every node, rules in order, nodes in
// order. A rule that evaluates to a non-boolean is an error.
func (rs *RuleSet) Apply(ctx context.Context, nodes []schema.Node, edges []schema.Edge) (*schema.ValidationReport, error) {
	result := schema.NewValidationReport()
	if rs.Len() == 0 {
		return result, nil
	}

	d := countDegrees(edges)
	for _, r := range rs.rules {
		for _, n := range nodes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			out, err := r.engine.Evaluate(ctx, r.Expression, ruleVars(n, d))
			if err != nil {
				return nil, fmt.Errorf("rule %q on node %s: %w", r.Name, n.ID, err)
			}
			fired, ok := out.(bool)
			if !ok {
				return nil, schema.NewErrorf(schema.ErrCodeExpression,
					"rule %q returned %T, want bool", r.Name, out).WithNode(n.ID)
			}
			if !fired {
				continue
			}
			result.Add(schema.Issue{
				Kind:     schema.IssueRule,
				Message:  ruleMessage(r.Rule, n),
				NodeIDs:  []string{n.ID},
				Severity: r.Severity,
				Rule:     r.Name,
			})
		}
	}
	return result, nil
}

func ruleVars(n schema.Node, d degrees) map[string]any {
	node := map[string]any{
		"id":       n.ID,
		"kind":     string(n.Kind),
		"label":    n.Label,
		"position": map[string]any{"x": n.Position.X, "y": n.Position.Y},
	}
	if n.Detail != nil {
		node["detail"] = detailMap(n.Detail)
	}
	return map[string]any{
		expressions.VarID:        n.ID,
		expressions.VarKind:      string(n.Kind),
		expressions.VarLabel:     n.Label,
		expressions.VarInDegree:  d.in[n.ID],
		expressions.VarOutDegree: d.out[n.ID],
		"node":                   node,
	}
}

func detailMap(detail schema.NodeDetail) map[string]any {
	switch v := detail.(type) {
	case schema.DecisionDetail:
		return map[string]any{"condition": v.Condition}
	case schema.TerminalDetail:
		return map[string]any{"role": string(v.Role)}
	case schema.DataDetail:
		return map[string]any{"store": v.Store}
	case schema.SubprocessDetail:
		return map[string]any{"ref": v.Ref}
	case schema.CloudDetail:
		return map[string]any{"provider": v.Provider}
	default:
		return map[string]any{}
	}
}

func ruleMessage(r Rule, n schema.Node) string {
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", displayName(n), r.Message)
	}
	return fmt.Sprintf("Node %q matched rule %q", displayName(n), r.Name)
}
