package schema

import "fmt"

// Severity indicates how serious an issue is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueKind categorizes a structural defect.
type IssueKind string

const (
	IssueDeadEnd      IssueKind = "deadEnd"
	IssueOrphaned     IssueKind = "orphaned"
	IssueCircular     IssueKind = "circular"
	IssueInvalidType  IssueKind = "invalidType"
	IssueDanglingEdge IssueKind = "danglingEdge"
	IssueRule         IssueKind = "rule"
)

// Issue is a single validation finding.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Message  string    `json:"message"`
	NodeIDs  []string  `json:"nodeIds"`
	Severity Severity  `json:"severity"`
	Rule     string    `json:"rule,omitempty"` // set for IssueRule
}

// ValidationReport aggregates the issues found in a graph.
// IsValid is true exactly when no issue has error severity.
type ValidationReport struct {
	IsValid     bool     `json:"isValid"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// NewValidationReport returns an empty, valid report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		IsValid:     true,
		Issues:      []Issue{},
		Suggestions: []string{},
	}
}

// Valid recomputes validity from the issue list.
func (r *ValidationReport) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Add appends an issue and keeps IsValid in sync.
func (r *ValidationReport) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
	r.IsValid = r.Valid()
}

// AddError appends an error-severity issue.
func (r *ValidationReport) AddError(kind IssueKind, message string, nodeIDs ...string) {
	r.Add(Issue{Kind: kind, Message: message, NodeIDs: nonNil(nodeIDs), Severity: SeverityError})
}

// AddWarning appends a warning-severity issue.
func (r *ValidationReport) AddWarning(kind IssueKind, message string, nodeIDs ...string) {
	r.Add(Issue{Kind: kind, Message: message, NodeIDs: nonNil(nodeIDs), Severity: SeverityWarning})
}

// Merge appends the issues of other, leaving suggestions untouched.
func (r *ValidationReport) Merge(other *ValidationReport) {
	if other == nil {
		return
	}
	for _, i := range other.Issues {
		r.Add(i)
	}
}

// Count returns the number of issues of the given kind.
func (r *ValidationReport) Count(kind IssueKind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// ToError converts the report to a FlowkitError if invalid, nil if valid.
func (r *ValidationReport) ToError() error {
	if r.Valid() {
		return nil
	}

	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}

	msg := errs[0].Message
	if len(errs) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(errs))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"error_count": len(errs),
			"issue_count": len(r.Issues),
			"issues":      r.Issues,
		})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
