package schema

// WorkflowType is the overall shape inferred from a description.
type WorkflowType string

const (
	WorkflowSequential  WorkflowType = "sequential"
	WorkflowConditional WorkflowType = "conditional"
	WorkflowParallel    WorkflowType = "parallel"
	WorkflowLoop        WorkflowType = "loop"
	WorkflowDataFlow    WorkflowType = "dataFlow"
)

// Intent is the structured summary of a free-text workflow description.
// It is produced fresh per parse and consumed once by a Generator.
type Intent struct {
	WorkflowType  WorkflowType         `json:"workflowType"`
	Entities      []IntentEntity       `json:"entities"`
	Relationships []IntentRelationship `json:"relationships"`
	Conditions    []IntentCondition    `json:"conditions"`
}

// IntentEntity is one candidate step.
type IntentEntity struct {
	Name        string   `json:"name"`
	Kind        NodeKind `json:"kind"`
	Description string   `json:"description"`
}

// IntentRelationship links two entities by name.
type IntentRelationship struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Kind      EdgeKind `json:"kind"`
	Condition string   `json:"condition,omitempty"`
}

// IntentCondition is an if/then/else clause found in the description.
type IntentCondition struct {
	SourceEntity string `json:"sourceEntity"`
	Condition    string `json:"condition"`
	TruePath     string `json:"truePath"`
	FalsePath    string `json:"falsePath,omitempty"`
}
