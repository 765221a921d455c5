package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeDuplicateID = "DUPLICATE_ID"
	ErrCodeParse       = "PARSE_ERROR"
	ErrCodeStore       = "STORE_ERROR"
	ErrCodeExpression  = "EXPRESSION_ERROR"
	ErrCodeRender      = "RENDER_ERROR"
	ErrCodeGeneration  = "GENERATION_ERROR"
)

// FlowkitError is the structured error type for all flowkit operations.
type FlowkitError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	NodeID  string         `json:"node_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FlowkitError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] node %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowkitError) Unwrap() error {
	return e.Cause
}

// NewError creates a new FlowkitError.
func NewError(code, message string) *FlowkitError {
	return &FlowkitError{Code: code, Message: message}
}

// NewErrorf creates a new FlowkitError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowkitError {
	return &FlowkitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithNode attaches a node ID to the error.
func (e *FlowkitError) WithNode(nodeID string) *FlowkitError {
	e.NodeID = nodeID
	return e
}

// WithCause attaches an underlying cause.
func (e *FlowkitError) WithCause(err error) *FlowkitError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *FlowkitError) WithDetails(details map[string]any) *FlowkitError {
	e.Details = details
	return e
}
