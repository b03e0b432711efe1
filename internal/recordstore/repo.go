package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/models"
)

const selectColumns = `SELECT id, parent_id, title, type, content, created_at, updated_at FROM files`

// ListAll returns every record ordered by creation time.
func (db *DB) ListAll(ctx context.Context) ([]models.Record, error) {
	rows, err := db.conn.QueryContext(ctx, selectColumns+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("recordstore: list: %w", err)
	}
	defer rows.Close()

	out := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("recordstore: list: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns a single record.
func (db *DB) Get(ctx context.Context, id string) (*models.Record, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(selectColumns+` WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s: %w", id, err)
	}
	return &rec, nil
}

// Create inserts a record. The parent is not required to exist.
func (db *DB) Create(ctx context.Context, rec models.Record) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO files (id, parent_id, title, type, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), rec.ID, nullString(rec.ParentID), rec.Title, string(rec.Kind), nullString(rec.Content), rec.CreatedAt, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("recordstore: create %s: %w", rec.ID, err)
	}
	return nil
}

// Update applies the fields present in patch and bumps updated_at.
// Updating an unknown id is a no-op.
func (db *DB) Update(ctx context.Context, id string, patch models.FilePatch) error {
	if patch.Empty() {
		return nil
	}
	now := db.now().UnixMilli()
	if patch.Title != nil {
		if _, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE files SET title = ?, updated_at = ? WHERE id = ?`),
			*patch.Title, now, id); err != nil {
			return fmt.Errorf("recordstore: update title %s: %w", id, err)
		}
	}
	if patch.Content != nil {
		if _, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE files SET content = ?, updated_at = ? WHERE id = ?`),
			*patch.Content, now, id); err != nil {
			return fmt.Errorf("recordstore: update content %s: %w", id, err)
		}
	}
	return nil
}

// Delete removes id and every transitive descendant in one transaction and
// returns the removed ids, parents before children.
//
// Descendants are collected breadth-first: each round queries the children
// of the current frontier until a round comes back empty. Rows are then
// deleted leaves-first.
func (db *DB) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recordstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	ids, err := db.collectSubtree(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var existing []string
	for i := len(ids) - 1; i >= 0; i-- {
		res, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM files WHERE id = ?`), ids[i])
		if err != nil {
			return nil, fmt.Errorf("recordstore: delete %s: %w", ids[i], err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			existing = append(existing, ids[i])
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recordstore: commit delete: %w", err)
	}

	// existing was filled leaves-first.
	for i, j := 0, len(existing)-1; i < j; i, j = i+1, j-1 {
		existing[i], existing[j] = existing[j], existing[i]
	}
	return existing, nil
}

// collectSubtree returns id followed by its descendants in breadth-first order.
func (db *DB) collectSubtree(ctx context.Context, tx *sql.Tx, id string) ([]string, error) {
	seen := map[string]struct{}{id: {}}
	ids := []string{id}
	frontier := []string{id}

	for len(frontier) > 0 {
		args := make([]any, len(frontier))
		for i, f := range frontier {
			args[i] = f
		}
		rows, err := tx.QueryContext(ctx,
			db.rebind(`SELECT id FROM files WHERE parent_id IN (`+placeholders(len(frontier))+`) ORDER BY created_at ASC, id ASC`),
			args...)
		if err != nil {
			return nil, fmt.Errorf("recordstore: collect children: %w", err)
		}

		var next []string
		for rows.Next() {
			var child string
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return nil, fmt.Errorf("recordstore: collect children: %w", err)
			}
			// Malformed parent chains can loop; visit each id once.
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			next = append(next, child)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("recordstore: collect children: %w", err)
		}

		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		rec     models.Record
		kind    string
		parent  sql.NullString
		content sql.NullString
	)
	if err := s.Scan(&rec.ID, &parent, &rec.Title, &kind, &content, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return models.Record{}, err
	}
	rec.Kind = models.Kind(kind)
	if parent.Valid {
		rec.ParentID = models.StringPtr(parent.String)
	}
	if content.Valid {
		rec.Content = models.StringPtr(content.String)
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
