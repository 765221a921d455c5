package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// appendRevision records one graph version inside the caller's transaction.
// Revision numbers are per diagram and strictly increasing.
func appendRevision(ctx context.Context, tx *sql.Tx, diagramID string, revision int64, graphJSON string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO diagram_revisions (diagram_id, revision, graph, created_at) VALUES (?, ?, ?, ?)`,
		diagramID, revision, graphJSON, at,
	)
	if err != nil {
		return storeError("append revision", err)
	}
	return nil
}

// ListRevisions returns every stored version of a diagram, oldest first.
// An unknown diagram yields an empty slice.
func (s *LibSQLStore) ListRevisions(ctx context.Context, diagramID string) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, diagram_id, revision, graph, created_at FROM diagram_revisions
		 WHERE diagram_id = ? ORDER BY revision`, diagramID,
	)
	if err != nil {
		return nil, storeError("list revisions", err)
	}
	defer rows.Close()

	revisions := []*Revision{}
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list revisions", err)
	}
	return revisions, nil
}

// GetRevision returns one version of a diagram or a NOT_FOUND error.
func (s *LibSQLStore) GetRevision(ctx context.Context, diagramID string, revision int64) (*Revision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, diagram_id, revision, graph, created_at FROM diagram_revisions
		 WHERE diagram_id = ? AND revision = ?`, diagramID, revision,
	)
	r, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("revision", diagramID)
	}
	return r, err
}

func scanRevision(r rowScanner) (*Revision, error) {
	rev := &Revision{}
	var graphJSON string
	if err := r.Scan(&rev.ID, &rev.DiagramID, &rev.Revision, &graphJSON, &rev.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeError("scan revision", err)
	}
	g, err := unmarshalGraph(graphJSON)
	if err != nil {
		return nil, err
	}
	rev.Graph = g
	return rev, nil
}
