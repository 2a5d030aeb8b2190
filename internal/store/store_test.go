package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryAppendAndReadBack(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureHeader(ctx, TableCatalog, CatalogHeader); err != nil {
		t.Fatalf("EnsureHeader failed: %v", err)
	}

	rows := [][]string{
		{"Пісня Миру", "2024-01-01", "Іван", "", "Інші"},
		{"Алілуя", "2024-01-02", "Марія", "https://example.com/a", "Різдво"},
	}
	for _, r := range rows {
		if err := m.Append(ctx, TableCatalog, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	titles, err := m.ReadColumn(ctx, TableCatalog, 1)
	if err != nil {
		t.Fatalf("ReadColumn failed: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Пісня Миру" || titles[1] != "Алілуя" {
		t.Errorf("unexpected column values: %v", titles)
	}

	row, err := m.ReadRow(ctx, TableCatalog, 3)
	if err != nil {
		t.Fatalf("ReadRow failed: %v", err)
	}
	if row[0] != "Алілуя" {
		t.Errorf("expected row 3 to be Алілуя, got %v", row)
	}
}

func TestMemoryFindRowByKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureHeader(ctx, TableLedger, LedgerHeader); err != nil {
		t.Fatal(err)
	}
	_ = m.Append(ctx, TableLedger, []string{"aaa11111", "Перша"})
	_ = m.Append(ctx, TableLedger, []string{"bbb22222", "Друга"})

	row, err := m.FindRowByKey(ctx, TableLedger, 1, "bbb22222")
	if err != nil {
		t.Fatalf("FindRowByKey failed: %v", err)
	}
	if row != 3 {
		t.Errorf("expected row 3, got %d", row)
	}

	if _, err := m.FindRowByKey(ctx, TableLedger, 1, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdateCellPadsRaggedRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureHeader(ctx, TableLedger, LedgerHeader); err != nil {
		t.Fatal(err)
	}
	// Historical rows may be shorter than the header.
	_ = m.Append(ctx, TableLedger, []string{"aaa11111", "Пісня"})

	if err := m.UpdateCell(ctx, TableLedger, 2, 6, "approved"); err != nil {
		t.Fatalf("UpdateCell failed: %v", err)
	}
	row, err := m.ReadRow(ctx, TableLedger, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 6 || row[5] != "approved" {
		t.Errorf("cell not padded/updated: %v", row)
	}
}

func TestMemoryReadAllRecordsPadsMissingFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureHeader(ctx, TableCatalog, CatalogHeader); err != nil {
		t.Fatal(err)
	}
	_ = m.Append(ctx, TableCatalog, []string{"Пісня", "2024-01-01"})

	recs, err := m.ReadAllRecords(ctx, TableCatalog)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["Назва"] != "Пісня" {
		t.Errorf("unexpected title: %q", recs[0]["Назва"])
	}
	if v, ok := recs[0]["Категорія"]; !ok || v != "" {
		t.Errorf("missing trailing field should be empty, got %q ok=%v", v, ok)
	}
}

func TestMemoryEnsureHeaderIdempotentAndCorrecting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.EnsureHeader(ctx, TableRegents, RegentsHeader); err != nil {
		t.Fatal(err)
	}
	if err := m.EnsureHeader(ctx, TableRegents, RegentsHeader); err != nil {
		t.Fatal(err)
	}

	// Corrupt the header and verify it gets rewritten.
	if err := m.UpdateCell(ctx, TableRegents, 1, 1, "garbage"); err != nil {
		t.Fatal(err)
	}
	if err := m.EnsureHeader(ctx, TableRegents, RegentsHeader); err != nil {
		t.Fatal(err)
	}
	row, err := m.ReadRow(ctx, TableRegents, 1)
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != "ID" {
		t.Errorf("header not corrected: %v", row)
	}
}

func TestColLetter(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 13: "M", 26: "Z", 27: "AA", 28: "AB"}
	for col, want := range cases {
		if got := colLetter(col); got != want {
			t.Errorf("colLetter(%d) = %q, want %q", col, got, want)
		}
	}
}
