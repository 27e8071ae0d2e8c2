package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quetzal/middleware"
	"quetzal/model"
)

type SQLCatalogRepo struct {
	DB *sql.DB
}

func NewSQLCatalogRepo(db *sql.DB) *SQLCatalogRepo {
	return &SQLCatalogRepo{DB: db}
}

func (r *SQLCatalogRepo) Ping(ctx context.Context) error {
	timer := middleware.TrackDBOperation("ping", "catalog")
	defer timer.ObserveDuration()

	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM quetzal LIMIT 1").Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("catalog store unreachable: %w", err)
	}
	return nil
}

func (r *SQLCatalogRepo) Load(ctx context.Context) ([]model.Paper, error) {
	timer := middleware.TrackDBOperation("find", "catalog")
	defer timer.ObserveDuration()

	rows, err := r.DB.QueryContext(ctx,
		"SELECT ref_row, data FROM quetzal ORDER BY id LIMIT ?", scanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	defer rows.Close()

	var (
		found    bool
		selected sql.NullString
	)
	for rows.Next() {
		var refRow, data sql.NullString
		if err := rows.Scan(&refRow, &data); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		if !found {
			selected = data
			found = true
		}
		if refRow.String == RefRowMarker {
			selected = data
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if !found {
		return nil, ErrNoCatalog
	}
	return decodePapers([]byte(selected.String))
}

// Save follows the same row selection as Load: the marked row, else the
// oldest row, else a new marked row.
func (r *SQLCatalogRepo) Save(ctx context.Context, papers []model.Paper) error {
	timer := middleware.TrackDBOperation("update", "catalog")
	defer timer.ObserveDuration()

	data, err := encodePapers(papers)
	if err != nil {
		return err
	}
	now := time.Now().UTC().UnixNano()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog write: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE quetzal SET data = ?, version = version + 1, updated_at = ?
		 WHERE id = (SELECT id FROM quetzal WHERE ref_row = ? ORDER BY id LIMIT 1)`,
		string(data), now, RefRowMarker)
	if err != nil {
		return fmt.Errorf("failed to update catalog: %w", err)
	}
	affected, _ := res.RowsAffected()

	if affected == 0 {
		res, err = tx.ExecContext(ctx,
			`UPDATE quetzal SET data = ?, version = version + 1, updated_at = ?
			 WHERE id = (SELECT MIN(id) FROM quetzal)`,
			string(data), now)
		if err != nil {
			return fmt.Errorf("failed to update catalog: %w", err)
		}
		affected, _ = res.RowsAffected()
	}

	if affected == 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO quetzal (ref_row, data, version, updated_at) VALUES (?, ?, 1, ?)",
			RefRowMarker, string(data), now)
		if err != nil {
			return fmt.Errorf("failed to create catalog row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog write: %w", err)
	}
	return nil
}
