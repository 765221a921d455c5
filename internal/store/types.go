package store

import (
	"time"

	"github.com/rendis/flowkit/pkg/schema"
)

// Diagram is a stored graph document with its metadata.
type Diagram struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Graph       schema.Graph `json:"graph"`
	Tags        []string     `json:"tags,omitempty"`
	Revision    int64        `json:"revision"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DiagramFilter narrows ListDiagrams results.
type DiagramFilter struct {
	// Name matches diagrams whose name contains the value, ignoring case.
	Name   string
	Tag    string
	Since  *time.Time
	Limit  int
	Offset int
}

// Revision is one saved version of a diagram's graph.
type Revision struct {
	ID        int64        `json:"id"`
	DiagramID string       `json:"diagram_id"`
	Revision  int64        `json:"revision"`
	Graph     schema.Graph `json:"graph"`
	CreatedAt time.Time    `json:"created_at"`
}
