package schema

import "encoding/json"

// NodeDetail carries the fields that only one node kind uses.
// The set of variants is closed: isNodeDetail is unexported.
type NodeDetail interface {
	Kind() NodeKind
	isNodeDetail()
}

// TerminalRole distinguishes the two ends of a workflow.
type TerminalRole string

const (
	TerminalStart TerminalRole = "start"
	TerminalEnd   TerminalRole = "end"
)

// ProcessDetail is the payload of a process node.
type ProcessDetail struct{}

// DecisionDetail is the payload of a decision node.
type DecisionDetail struct {
	Condition string `json:"condition,omitempty"`
}

// TerminalDetail is the payload of a terminal node.
type TerminalDetail struct {
	Role TerminalRole `json:"role,omitempty"`
}

// DataDetail is the payload of a data node.
type DataDetail struct {
	Store string `json:"store,omitempty"` // file, database, queue...
}

// SubprocessDetail is the payload of a subprocess node.
type SubprocessDetail struct {
	Ref string `json:"ref,omitempty"` // id of the referenced diagram
}

// CloudDetail is the payload of a cloud node.
type CloudDetail struct {
	Provider string `json:"provider,omitempty"`
}

func (ProcessDetail) Kind() NodeKind    { return NodeKindProcess }
func (DecisionDetail) Kind() NodeKind   { return NodeKindDecision }
func (TerminalDetail) Kind() NodeKind   { return NodeKindTerminal }
func (DataDetail) Kind() NodeKind       { return NodeKindData }
func (SubprocessDetail) Kind() NodeKind { return NodeKindSubprocess }
func (CloudDetail) Kind() NodeKind      { return NodeKindCloud }

func (ProcessDetail) isNodeDetail()    {}
func (DecisionDetail) isNodeDetail()   {}
func (TerminalDetail) isNodeDetail()   {}
func (DataDetail) isNodeDetail()       {}
func (SubprocessDetail) isNodeDetail() {}
func (CloudDetail) isNodeDetail()      {}

// DefaultDetail returns the zero-valued variant for kind, or nil for kinds
// without one (unknown and unrecognized strings).
func DefaultDetail(kind NodeKind) NodeDetail {
	switch kind {
	case NodeKindProcess:
		return ProcessDetail{}
	case NodeKindDecision:
		return DecisionDetail{}
	case NodeKindTerminal:
		return TerminalDetail{}
	case NodeKindData:
		return DataDetail{}
	case NodeKindSubprocess:
		return SubprocessDetail{}
	case NodeKindCloud:
		return CloudDetail{}
	default:
		return nil
	}
}

// decodeDetail unmarshals raw into the variant selected by kind.
func decodeDetail(kind NodeKind, raw json.RawMessage) (NodeDetail, error) {
	switch kind {
	case NodeKindProcess:
		return unmarshalDetail[ProcessDetail](raw)
	case NodeKindDecision:
		return unmarshalDetail[DecisionDetail](raw)
	case NodeKindTerminal:
		return unmarshalDetail[TerminalDetail](raw)
	case NodeKindData:
		return unmarshalDetail[DataDetail](raw)
	case NodeKindSubprocess:
		return unmarshalDetail[SubprocessDetail](raw)
	case NodeKindCloud:
		return unmarshalDetail[CloudDetail](raw)
	default:
		return nil, NewErrorf(ErrCodeParse, "kind %q has no detail payload", kind)
	}
}

func unmarshalDetail[T NodeDetail](raw json.RawMessage) (NodeDetail, error) {
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}
