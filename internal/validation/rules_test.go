package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/rendis/flowkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionGraph() ([]schema.Node, []schema.Edge) {
	nodes := []schema.Node{
		node("s", schema.NodeKindTerminal, "Start"),
		node("d1", schema.NodeKindDecision, "Paid?"),
		node("d2", schema.NodeKindDecision, "In stock?"),
		node("ship", schema.NodeKindProcess, "Ship"),
		node("e", schema.NodeKindTerminal, "End"),
	}
	edges := []schema.Edge{
		edge("e1", "s", "d1"),
		edge("e2", "d1", "d2"),
		edge("e3", "d1", "e"),
		edge("e4", "d2", "ship"),
		edge("e5", "ship", "e"),
	}
	return nodes, edges
}

func TestNewRuleSet_Defaults(t *testing.T) {
	rs, err := NewRuleSet([]Rule{{Expression: "in_degree > 5"}})
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, "rule_0", rs.rules[0].Name)
	assert.Equal(t, "expr", rs.rules[0].Engine)
	assert.Equal(t, schema.SeverityWarning, rs.rules[0].Severity)
}

func TestNewRuleSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown engine", Rule{Name: "r", Engine: "jq", Expression: "."}},
		{"expr syntax", Rule{Name: "r", Expression: "kind =="}},
		{"cel undeclared", Rule{Name: "r", Engine: "cel", Expression: "color == 'red'"}},
		{"empty expression", Rule{Name: "r"}},
		{"misspelled severity", Rule{Name: "r", Expression: "in_degree > 5", Severity: "eror"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRuleSet([]Rule{tc.rule})
			require.Error(t, err)
			var fe *schema.FlowkitError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, schema.ErrCodeExpression, fe.Code)
		})
	}
}

func TestNewRuleSet_AcceptsEverySeverity(t *testing.T) {
	for _, sev := range []schema.Severity{schema.SeverityError, schema.SeverityWarning, schema.SeverityInfo} {
		rs, err := NewRuleSet([]Rule{{Expression: "in_degree > 5", Severity: sev}})
		require.NoError(t, err, sev)
		assert.Equal(t, sev, rs.rules[0].Severity)
	}
}

func TestRuleSet_SingleExitDecision(t *testing.T) {
	nodes, edges := decisionGraph()

	for _, engine := range []string{"expr", "cel"} {
		t.Run(engine, func(t *testing.T) {
			rs, err := NewRuleSet([]Rule{{
				Name:       "decision-exits",
				Engine:     engine,
				Expression: `kind == "decision" && out_degree < 2`,
				Message:    "decision needs two exits",
			}})
			require.NoError(t, err)

			r, err := rs.Apply(context.Background(), nodes, edges)
			require.NoError(t, err)
			require.Len(t, r.Issues, 1)

			issue := r.Issues[0]
			assert.Equal(t, schema.IssueRule, issue.Kind)
			assert.Equal(t, "decision-exits", issue.Rule)
			assert.Equal(t, []string{"d2"}, issue.NodeIDs)
			assert.Equal(t, "In stock?: decision needs two exits", issue.Message)
			assert.True(t, r.IsValid)
		})
	}
}

func TestRuleSet_ErrorSeverityInvalidates(t *testing.T) {
	nodes, edges := decisionGraph()
	rs, err := NewRuleSet([]Rule{{Name: "no-ship", Expression: `label == "Ship"`, Severity: schema.SeverityError}})
	require.NoError(t, err)

	r, err := rs.Apply(context.Background(), nodes, edges)
	require.NoError(t, err)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, `Node "Ship" matched rule "no-ship"`, r.Issues[0].Message)
	assert.False(t, r.IsValid)
}

func TestRuleSet_DetailVisibleToCEL(t *testing.T) {
	nodes := []schema.Node{
		{ID: "db", Kind: schema.NodeKindData, Label: "Rows", Detail: schema.DataDetail{Store: "warehouse"}},
		{ID: "q", Kind: schema.NodeKindData, Label: "Queue", Detail: schema.DataDetail{Store: "queue"}},
	}
	rs, err := NewRuleSet([]Rule{{
		Name:       "no-queues",
		Engine:     "cel",
		Expression: `has(node.detail) && node.detail.store == "queue"`,
	}})
	require.NoError(t, err)

	r, err := rs.Apply(context.Background(), nodes, nil)
	require.NoError(t, err)
	require.Len(t, r.Issues, 1)
	assert.Equal(t, []string{"q"}, r.Issues[0].NodeIDs)
}

func TestRuleSet_NonBoolResult(t *testing.T) {
	nodes, edges := decisionGraph()
	rs, err := NewRuleSet([]Rule{{Name: "count", Expression: "in_degree + 1"}})
	require.NoError(t, err)

	_, err = rs.Apply(context.Background(), nodes, edges)
	require.Error(t, err)
	var fe *schema.FlowkitError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, schema.ErrCodeExpression, fe.Code)
	assert.Equal(t, "s", fe.NodeID)
}

func TestRuleSet_NilAndCancelled(t *testing.T) {
	nodes, edges := decisionGraph()

	var rs *RuleSet
	r, err := rs.Apply(context.Background(), nodes, edges)
	require.NoError(t, err)
	assert.Empty(t, r.Issues)

	rs, err = NewRuleSet([]Rule{{Expression: "true"}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rs.Apply(ctx, nodes, edges)
	assert.ErrorIs(t, err, context.Canceled)
}
