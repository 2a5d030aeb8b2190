// Package store provides the tabular storage boundary for the bot. All
// catalog, ledger and regent data lives in three independently-schemaed
// tables; the rest of the code never touches positional data directly but
// goes through the typed wrappers in internal/catalog, internal/ledger and
// internal/regents.
package store

import (
	"context"
	"errors"
)

// Table names match the worksheet titles of the production spreadsheet.
type Table string

const (
	TableCatalog Table = "Репертуар"
	TableLedger  Table = "База"
	TableRegents Table = "Регенти"
)

// Column layouts. Order is load-bearing: positional operations address
// cells by these indices (1-based).
var (
	CatalogHeader = []string{"Назва", "Додано", "Регент", "Посилання", "Категорія"}
	LedgerHeader  = []string{
		"ID", "Назва", "Назва нормалізована", "Telegram ID",
		"Username", "Статус", "Дата", "File ID", "Message ID",
		"Назва авто", "Назва ручна", "Посилання", "Категорія",
		"Ім'я файлу",
	}
	RegentsHeader = []string{"ID", "Name", "Invite Code", "Telegram ID", "Username", "Status", "Created At"}
)

// ErrNotFound is returned by key lookups that miss.
var ErrNotFound = errors.New("store: row not found")

// Record is one data row zipped with the table header. Ragged rows are
// padded with empty strings so every header key is present.
type Record map[string]string

// Tabular is the adapter over a remote tabular store. Rows and columns are
// 1-based; row 1 is the header, data starts at row 2. Scans return rows in
// persisted insertion order.
type Tabular interface {
	// Append adds row after the last data row of table.
	Append(ctx context.Context, table Table, row []string) error
	// FindRowByKey scans column col top to bottom and returns the absolute
	// index of the first data row whose cell equals key, or ErrNotFound.
	FindRowByKey(ctx context.Context, table Table, col int, key string) (int, error)
	// ReadRow returns the cells of the given absolute row.
	ReadRow(ctx context.Context, table Table, row int) ([]string, error)
	// ReadColumn returns the values of column col for every data row, in
	// insertion order. Rows shorter than col contribute an empty string.
	ReadColumn(ctx context.Context, table Table, col int) ([]string, error)
	// UpdateCell overwrites a single cell.
	UpdateCell(ctx context.Context, table Table, row, col int, value string) error
	// ReadAllRecords returns every data row zipped with the header.
	ReadAllRecords(ctx context.Context, table Table) ([]Record, error)
	// EnsureHeader creates the table if needed and rewrites row 1 when it
	// is absent or does not match columns. Idempotent.
	EnsureHeader(ctx context.Context, table Table, columns []string) error
}

// EnsureSchema prepares all three tables.
func EnsureSchema(ctx context.Context, t Tabular) error {
	if err := t.EnsureHeader(ctx, TableCatalog, CatalogHeader); err != nil {
		return err
	}
	if err := t.EnsureHeader(ctx, TableLedger, LedgerHeader); err != nil {
		return err
	}
	return t.EnsureHeader(ctx, TableRegents, RegentsHeader)
}

func zipRecord(header, row []string) Record {
	rec := make(Record, len(header))
	for i, key := range header {
		if i < len(row) {
			rec[key] = row[i]
		} else {
			rec[key] = ""
		}
	}
	return rec
}
