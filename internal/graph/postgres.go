package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/onnwee/poigraph/internal/poi"
	"github.com/onnwee/poigraph/internal/tracing"
)

// DefaultRetention is how many snapshots PostgresRepository keeps.
const DefaultRetention = 10

// PostgresRepository stores snapshots in PostgreSQL. Each Save writes the
// snapshot, its entities and its edges in one transaction and prunes old
// snapshots beyond the retention limit.
type PostgresRepository struct {
	db        *sql.DB
	logger    *slog.Logger
	retention int
}

// NewPostgresRepository creates a repository over db. A retention below 1
// uses DefaultRetention.
func NewPostgresRepository(db *sql.DB, retention int, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if retention < 1 {
		retention = DefaultRetention
	}
	return &PostgresRepository{db: db, logger: logger, retention: retention}
}

// Save writes s in a single transaction.
func (r *PostgresRepository) Save(ctx context.Context, s *Snapshot) (err error) {
	ctx, end := tracing.StartDBSpan(ctx, "graph_snapshots", "insert")
	defer func() { end(err) }()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn("failed to rollback transaction",
				slog.String("error", err.Error()))
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO graph_snapshots (id, created_at, entity_count, edge_count)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.CreatedAt, len(s.Entities), len(s.Edges))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := copyRows(ctx, tx, "graph_entities",
		[]string{"snapshot_id", "position", "entity_id", "name", "class", "lat", "lon", "degree"},
		len(s.Entities), func(i int) []any {
			e := s.Entities[i]
			return []any{s.ID, i, e.ID, e.Name, string(e.Class), e.Lat, e.Lon, e.Degree}
		}); err != nil {
		return fmt.Errorf("failed to copy entities: %w", err)
	}

	if err := copyRows(ctx, tx, "graph_edges",
		[]string{"snapshot_id", "position", "source_id", "target_id", "label"},
		len(s.Edges), func(i int) []any {
			e := s.Edges[i]
			return []any{s.ID, i, e.Source, e.Target, string(e.Label)}
		}); err != nil {
		return fmt.Errorf("failed to copy edges: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM graph_snapshots
		WHERE id NOT IN (
			SELECT id FROM graph_snapshots ORDER BY created_at DESC LIMIT $1
		)
	`, r.retention)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	pruned, _ := res.RowsAffected()
	r.logger.Info("snapshot saved",
		slog.String("snapshot_id", s.ID),
		slog.Int("entities", len(s.Entities)),
		slog.Int("edges", len(s.Edges)),
		slog.Int64("pruned", pruned))
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, row func(int) []any) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return err
		}
	}
	_, err = stmt.ExecContext(ctx)
	return err
}

// Latest loads the most recent snapshot.
func (r *PostgresRepository) Latest(ctx context.Context) (_ *Snapshot, err error) {
	ctx, end := tracing.StartDBSpan(ctx, "graph_snapshots", "select")
	defer func() { end(err) }()

	s := &Snapshot{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM graph_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()

	if s.Entities, err = r.loadEntities(ctx, s.ID); err != nil {
		return nil, err
	}
	if s.Edges, err = r.loadEdges(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) loadEntities(ctx context.Context, snapshotID string) ([]poi.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity_id, name, class, lat, lon, degree
		FROM graph_entities
		WHERE snapshot_id = $1
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	entities := make([]poi.Entity, 0)
	for rows.Next() {
		var e poi.Entity
		var class string
		if err := rows.Scan(&e.ID, &e.Name, &class, &e.Lat, &e.Lon, &e.Degree); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Class = poi.Class(class)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}
	return entities, nil
}

func (r *PostgresRepository) loadEdges(ctx context.Context, snapshotID string) ([]Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_id, target_id, label
		FROM graph_edges
		WHERE snapshot_id = $1
		ORDER BY position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := make([]Edge, 0)
	for rows.Next() {
		var e Edge
		var label string
		if err := rows.Scan(&e.Source, &e.Target, &label); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Label = Label(label)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate edges: %w", err)
	}
	return edges, nil
}
