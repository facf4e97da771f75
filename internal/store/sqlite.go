package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"namerecon-service/internal/reconcile/model"
	"namerecon-service/internal/reconcile/service"
)

const schema = `
CREATE TABLE IF NOT EXISTS learned_mappings (
	raw_label  TEXT PRIMARY KEY,
	master_id  TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS masters (
	pos           INTEGER PRIMARY KEY,
	id            TEXT NOT NULL,
	name          TEXT NOT NULL,
	unit_price    REAL,
	raw_materials TEXT NOT NULL DEFAULT '',
	allergens     TEXT NOT NULL DEFAULT ''
);`

// SQLite — связки и справочник в файле sqlite (modernc, без cgo).
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// один писатель: sqlite всё равно сериализует запись
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Lookup(ctx context.Context, rawLabel string) (model.LearnedMapping, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT master_id FROM learned_mappings WHERE raw_label = ?`, rawLabel).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LearnedMapping{}, service.ErrMappingNotFound
	}
	if err != nil {
		return model.LearnedMapping{}, err
	}
	return model.LearnedMapping{RawLabel: rawLabel, MasterID: id}, nil
}

func (s *SQLite) All(ctx context.Context) ([]model.LearnedMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_label, master_id FROM learned_mappings ORDER BY raw_label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LearnedMapping, 0)
	for rows.Next() {
		var m model.LearnedMapping
		if err := rows.Scan(&m.RawLabel, &m.MasterID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Put — upsert, последняя запись побеждает.
func (s *SQLite) Put(ctx context.Context, m model.LearnedMapping) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learned_mappings (raw_label, master_id) VALUES (?, ?)
		ON CONFLICT(raw_label) DO UPDATE SET master_id = excluded.master_id, updated_at = datetime('now')`,
		m.RawLabel, m.MasterID)
	return err
}

func (s *SQLite) Delete(ctx context.Context, rawLabel string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM learned_mappings WHERE raw_label = ?`, rawLabel)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return service.ErrMappingNotFound
	}
	return nil
}

// Masters — в порядке загрузки (он важен для разрешения ничьих).
func (s *SQLite) Masters(ctx context.Context) ([]model.MasterRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, unit_price, raw_materials, allergens FROM masters ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.MasterRecord, 0)
	for rows.Next() {
		var (
			m     model.MasterRecord
			price sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.Name, &price, &m.RawMaterialsText, &m.AllergenText); err != nil {
			return nil, err
		}
		if price.Valid {
			v := price.Float64
			m.UnitPrice = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLite) ReplaceMasters(ctx context.Context, masters []model.MasterRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM masters`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO masters (pos, id, name, unit_price, raw_materials, allergens) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range masters {
		var price sql.NullFloat64
		if m.UnitPrice != nil {
			price = sql.NullFloat64{Float64: *m.UnitPrice, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, i, m.ID, m.Name, price, m.RawMaterialsText, m.AllergenText); err != nil {
			return fmt.Errorf("insert master %q: %w", m.ID, err)
		}
	}
	return tx.Commit()
}
