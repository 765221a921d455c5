package store

import "context"

// Store defines the diagram persistence contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Diagrams
	SaveDiagram(ctx context.Context, d *Diagram) error
	GetDiagram(ctx context.Context, id string) (*Diagram, error)
	ListDiagrams(ctx context.Context, filter DiagramFilter) ([]*Diagram, error)
	DeleteDiagram(ctx context.Context, id string) error

	// Revisions (append-only)
	ListRevisions(ctx context.Context, diagramID string) ([]*Revision, error)
	GetRevision(ctx context.Context, diagramID string, revision int64) (*Revision, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
