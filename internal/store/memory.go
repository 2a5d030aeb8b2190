package store

import (
	"context"
	"sync"
)

// Memory is an in-process Tabular used by tests and as a reference for the
// adapter contract. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[Table][][]string
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[Table][][]string)}
}

func (m *Memory) Append(_ context.Context, table Table, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if len(rows) == 0 {
		// No header yet; reserve row 1.
		rows = append(rows, nil)
	}
	m.tables[table] = append(rows, append([]string(nil), row...))
	return nil
}

func (m *Memory) FindRowByKey(_ context.Context, table Table, col int, key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	for i := 1; i < len(rows); i++ {
		if cell(rows[i], col) == key {
			return i + 1, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Memory) ReadRow(_ context.Context, table Table, row int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	if row < 1 || row > len(rows) {
		return nil, ErrNotFound
	}
	return append([]string(nil), rows[row-1]...), nil
}

func (m *Memory) ReadColumn(_ context.Context, table Table, col int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	var out []string
	for i := 1; i < len(rows); i++ {
		out = append(out, cell(rows[i], col))
	}
	return out, nil
}

func (m *Memory) UpdateCell(_ context.Context, table Table, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if row < 1 || row > len(rows) {
		return ErrNotFound
	}
	r := rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	rows[row-1] = r
	return nil
}

func (m *Memory) ReadAllRecords(_ context.Context, table Table) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	out := make([]Record, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		out = append(out, zipRecord(header, rows[i]))
	}
	return out, nil
}

func (m *Memory) EnsureHeader(_ context.Context, table Table, columns []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if len(rows) == 0 {
		m.tables[table] = [][]string{append([]string(nil), columns...)}
		return nil
	}
	if !headerMatches(rows[0], columns) {
		rows[0] = append([]string(nil), columns...)
	}
	return nil
}

func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return row[col-1]
}

func headerMatches(have, want []string) bool {
	if len(have) < len(want) {
		return false
	}
	for i, w := range want {
		if have[i] != w {
			return false
		}
	}
	return true
}
