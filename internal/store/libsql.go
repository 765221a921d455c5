package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/rendis/flowkit/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a LibSQLStore.
type Option func(*LibSQLStore)

// WithLogger sets the logger used for migrations and deletions.
func WithLogger(l *slog.Logger) Option {
	return func(s *LibSQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string, opts ...Option) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	s := &LibSQLStore{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	if err := runMigrations(ctx, s.db, s.logger); err != nil {
		return storeError("migrate", err)
	}
	return nil
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return storeError("vacuum", err)
	}
	return nil
}

// --- Diagrams ---

// SaveDiagram inserts or replaces a diagram and appends a revision holding
// its graph. An empty ID is filled with a fresh UUID. On return d carries
// the stored revision number and timestamps.
func (s *LibSQLStore) SaveDiagram(ctx context.Context, d *Diagram) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	graphJSON, err := marshalGraph(d.Graph)
	if err != nil {
		return err
	}
	tags, err := marshalTags(d.Tags)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin save", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	createdAt := timeOrNow(d.CreatedAt)
	var revision int64
	var existingCreated time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT revision, created_at FROM diagrams WHERE id = ?`, d.ID,
	).Scan(&revision, &existingCreated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return storeError("read diagram", err)
	default:
		createdAt = existingCreated
	}
	revision++

	_, err = tx.ExecContext(ctx,
		`INSERT INTO diagrams (id, name, description, graph, tags, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description,
		   graph=excluded.graph, tags=excluded.tags, revision=excluded.revision, updated_at=excluded.updated_at`,
		d.ID, d.Name, nullStr(d.Description), graphJSON, tags, revision, createdAt, now,
	)
	if err != nil {
		return storeError("save diagram", err)
	}
	if err := appendRevision(ctx, tx, d.ID, revision, graphJSON, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit save", err)
	}

	d.Revision = revision
	d.CreatedAt = createdAt
	d.UpdatedAt = now
	return nil
}

// GetDiagram returns the diagram with the given id or a NOT_FOUND error.
func (s *LibSQLStore) GetDiagram(ctx context.Context, id string) (*Diagram, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, graph, tags, revision, created_at, updated_at
		 FROM diagrams WHERE id = ?`, id,
	)
	d, err := scanDiagram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storeNotFound("diagram", id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDiagrams returns diagrams matching filter, most recently updated first.
func (s *LibSQLStore) ListDiagrams(ctx context.Context, filter DiagramFilter) ([]*Diagram, error) {
	var where []string
	var args []any

	if filter.Name != "" {
		where = append(where, "instr(LOWER(name), ?) > 0")
		args = append(args, strings.ToLower(filter.Name))
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(diagrams.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	if filter.Since != nil {
		where = append(where, "updated_at >= ?")
		args = append(args, *filter.Since)
	}

	query := "SELECT id, name, description, graph, tags, revision, created_at, updated_at FROM diagrams"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list diagrams", err)
	}
	defer rows.Close()

	diagrams := []*Diagram{}
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return nil, err
		}
		diagrams = append(diagrams, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list diagrams", err)
	}
	return diagrams, nil
}

// DeleteDiagram removes a diagram and its revision history.
func (s *LibSQLStore) DeleteDiagram(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diagram_revisions WHERE diagram_id = ?`, id); err != nil {
		return storeError("delete revisions", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM diagrams WHERE id = ?`, id)
	if err != nil {
		return storeError("delete diagram", err)
	}
	if err := checkRowsAffected(res, "diagram", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit delete", err)
	}

	s.logger.InfoContext(ctx, "diagram deleted", "graph_id", id)
	return nil
}

// --- Helpers ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiagram(r rowScanner) (*Diagram, error) {
	d := &Diagram{}
	var desc sql.NullString
	var graphJSON, tagsJSON string
	if err := r.Scan(&d.ID, &d.Name, &desc, &graphJSON, &tagsJSON, &d.Revision, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storeError("scan diagram", err)
	}
	d.Description = desc.String

	g, err := unmarshalGraph(graphJSON)
	if err != nil {
		return nil, err
	}
	d.Graph = g
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &d.Tags); err != nil {
			return nil, storeError("unmarshal tags", err)
		}
	}
	if len(d.Tags) == 0 {
		d.Tags = nil
	}
	return d, nil
}

func marshalGraph(g schema.Graph) (string, error) {
	if g.Nodes == nil {
		g.Nodes = []schema.Node{}
	}
	if g.Edges == nil {
		g.Edges = []schema.Edge{}
	}
	data, err := json.Marshal(g)
	if err != nil {
		return "", storeError("marshal graph", err)
	}
	return string(data), nil
}

func unmarshalGraph(data string) (schema.Graph, error) {
	var g schema.Graph
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return schema.Graph{}, storeError("unmarshal graph", err)
	}
	return g, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", storeError("marshal tags", err)
	}
	return string(data), nil
}

func storeNotFound(resource, id string) *schema.FlowkitError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func storeError(op string, err error) *schema.FlowkitError {
	return schema.NewError(schema.ErrCodeStore, op).WithCause(err)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("rows affected", err)
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
