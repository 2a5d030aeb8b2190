package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// Exercises the Tabular contract against a real server. The JSONB subscript
// queries in particular need a live Postgres: an unparenthesized bind
// parameter would resolve to the text-key ->> operator, which returns NULL
// for every array subscript.
func TestPostgresTabularContract(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CHOIRBOT_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("CHOIRBOT_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer p.Close()

	if _, err := p.db.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet LIKE 'contract-test%'`); err != nil {
		t.Fatalf("clean test sheets: %v", err)
	}
	table := Table("contract-test")

	if err := p.EnsureHeader(ctx, table, []string{"ID", "Назва", "Статус"}); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if err := p.Append(ctx, table, []string{"a1", "Алілуя", "pending"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := p.Append(ctx, table, []string{"b2", "Щедрик", "approved"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	row, err := p.FindRowByKey(ctx, table, 1, "b2")
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if row != 3 {
		t.Fatalf("find by key row = %d, want 3", row)
	}
	if _, err := p.FindRowByKey(ctx, table, 1, "missing"); err != ErrNotFound {
		t.Fatalf("find missing key: %v, want ErrNotFound", err)
	}

	titles, err := p.ReadColumn(ctx, table, 2)
	if err != nil {
		t.Fatalf("read column: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Алілуя" || titles[1] != "Щедрик" {
		t.Fatalf("column = %v", titles)
	}

	if err := p.UpdateCell(ctx, table, row, 3, "rejected"); err != nil {
		t.Fatalf("update cell: %v", err)
	}
	cells, err := p.ReadRow(ctx, table, row)
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if cells[2] != "rejected" {
		t.Fatalf("row after update = %v", cells)
	}

	records, err := p.ReadAllRecords(ctx, table)
	if err != nil {
		t.Fatalf("read all records: %v", err)
	}
	if len(records) != 2 || records[1]["Статус"] != "rejected" {
		t.Fatalf("records = %v", records)
	}
}
