// Package catalog is the published repertoire: the authoritative list of
// songs visible to every participant. Entries are append-only.
package catalog

import (
	"context"
	"fmt"
	"time"

	"choirbot/internal/store"
)

// Categories is the canonical category enumeration. Rendering and grouping
// iterate it in exactly this order.
var Categories = []string{
	"Новий рік", "Різдво", "В'їзд",
	"Вечеря", "Пасха", "Вознесіння",
	"Трійця", "Свято Жнив", "Інші",
}

// DefaultCategory is used when a stored row carries an unknown or blank
// category.
const DefaultCategory = "Інші"

// IsCategory reports whether name is one of the canonical categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Entry is one published song.
type Entry struct {
	Title     string
	DateAdded string
	Regent    string
	Link      string
	Category  string
}

// Store reads and appends repertoire rows through the tabular adapter.
type Store struct {
	tab store.Tabular
	now func() time.Time
}

func New(tab store.Tabular) *Store {
	return &Store{tab: tab, now: time.Now}
}

// Add appends a published entry. The date is recorded as YYYY-MM-DD.
func (s *Store) Add(ctx context.Context, title, regent, link, category string) error {
	if category == "" {
		category = DefaultCategory
	}
	row := []string{title, s.now().Format("2006-01-02"), regent, link, category}
	if err := s.tab.Append(ctx, store.TableCatalog, row); err != nil {
		return fmt.Errorf("add to repertoire: %w", err)
	}
	return nil
}

// List returns every entry in insertion order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	records, err := s.tab.ReadAllRecords(ctx, store.TableCatalog)
	if err != nil {
		return nil, fmt.Errorf("read repertoire: %w", err)
	}
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			Title:     r["Назва"],
			DateAdded: r["Додано"],
			Regent:    r["Регент"],
			Link:      r["Посилання"],
			Category:  r["Категорія"],
		})
	}
	return entries, nil
}
