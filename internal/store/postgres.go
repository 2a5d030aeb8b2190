package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres mirrors the sheet layout in a single relation so self-hosted
// deployments can run without Google Sheets. Each row keeps its cells as a
// JSONB array; row_num 1 is the header, matching the adapter contract.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS sheet_rows (
			sheet   TEXT  NOT NULL,
			row_num INT   NOT NULL,
			cells   JSONB NOT NULL,
			PRIMARY KEY (sheet, row_num)
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create sheet_rows: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Append(ctx context.Context, table Table, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, row_num, cells)
		SELECT $1, COALESCE(MAX(row_num), 1) + 1, $2
		FROM sheet_rows WHERE sheet = $1
	`, string(table), cells)
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) FindRowByKey(ctx context.Context, table Table, col int, key string) (int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT row_num, cells ->> ($2::int)
		FROM sheet_rows
		WHERE sheet = $1 AND row_num > 1
		ORDER BY row_num
	`, string(table), col-1)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rowNum int
		var value sql.NullString
		if err := rows.Scan(&rowNum, &value); err != nil {
			return 0, fmt.Errorf("scan row: %w", err)
		}
		if value.Valid && value.String == key {
			return rowNum, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", table, err)
	}
	return 0, ErrNotFound
}

func (p *Postgres) ReadRow(ctx context.Context, table Table, row int) ([]string, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT cells FROM sheet_rows WHERE sheet = $1 AND row_num = $2
	`, string(table), row).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read row %d of %s: %w", row, table, err)
	}
	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	return cells, nil
}

func (p *Postgres) ReadColumn(ctx context.Context, table Table, col int) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT cells ->> ($2::int)
		FROM sheet_rows
		WHERE sheet = $1 AND row_num > 1
		ORDER BY row_num
	`, string(table), col-1)
	if err != nil {
		return nil, fmt.Errorf("read column %d of %s: %w", col, table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		out = append(out, value.String)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateCell(ctx context.Context, table Table, row, col int, value string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowContext(ctx, `
		SELECT cells FROM sheet_rows WHERE sheet = $1 AND row_num = $2 FOR UPDATE
	`, string(table), row).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock row %d of %s: %w", row, table, err)
	}

	var cells []string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return fmt.Errorf("unmarshal row: %w", err)
	}
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value

	updated, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE sheet_rows SET cells = $3 WHERE sheet = $1 AND row_num = $2
	`, string(table), row, updated); err != nil {
		return fmt.Errorf("update row %d of %s: %w", row, table, err)
	}
	return tx.Commit()
}

func (p *Postgres) ReadAllRecords(ctx context.Context, table Table) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT row_num, cells FROM sheet_rows WHERE sheet = $1 ORDER BY row_num
	`, string(table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	var header []string
	var out []Record
	for rows.Next() {
		var rowNum int
		var raw []byte
		if err := rows.Scan(&rowNum, &raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		if rowNum == 1 {
			header = cells
			continue
		}
		if header == nil {
			continue
		}
		out = append(out, zipRecord(header, cells))
	}
	return out, rows.Err()
}

func (p *Postgres) EnsureHeader(ctx context.Context, table Table, columns []string) error {
	existing, err := p.ReadRow(ctx, table, 1)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err == nil && headerMatches(existing, columns) {
		return nil
	}

	cells, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, row_num, cells)
		VALUES ($1, 1, $2)
		ON CONFLICT (sheet, row_num) DO UPDATE SET cells = EXCLUDED.cells
	`, string(table), cells)
	if err != nil {
		return fmt.Errorf("write header of %s: %w", table, err)
	}
	return nil
}
