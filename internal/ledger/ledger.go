// Package ledger is the historical record of every submission and its
// review outcome. Rows are append-only; only the status and reviewer
// message reference cells are ever updated.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"choirbot/internal/store"
)

// Request statuses.
const (
	StatusPending    = "pending"
	StatusClarifying = "clarifying"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// 1-based column positions in the ledger table.
const (
	colID              = 1
	colStatus          = 6
	colReviewMessageID = 9
)

// ErrNotFound is returned when no request carries the given id.
var ErrNotFound = errors.New("ledger: request not found")

// Request is one submission row.
type Request struct {
	ID              string
	Title           string
	NormalizedTitle string
	SubmitterID     int64
	SubmitterName   string
	Status          string
	CreatedAt       string
	FileID          string
	ReviewMessageID int
	AutoTitle       string
	ManualTitle     string
	Link            string
	Category        string
	FileName        string
}

// CreateInput carries the fields of a new request.
type CreateInput struct {
	Title           string
	NormalizedTitle string
	SubmitterID     int64
	SubmitterName   string
	FileID          string
	FileName        string
	AutoTitle       string
	Link            string
	Category        string
}

type Ledger struct {
	tab store.Tabular
	now func() time.Time
}

func New(tab store.Tabular) *Ledger {
	return &Ledger{tab: tab, now: time.Now}
}

// Create appends a pending request and returns its short unique id.
func (l *Ledger) Create(ctx context.Context, in CreateInput) (string, error) {
	id := uuid.NewString()[:8]
	category := in.Category
	if category == "" {
		category = "Інші"
	}
	manualTitle := ""
	if in.AutoTitle != in.Title {
		manualTitle = in.Title
	}
	row := []string{
		id,
		in.Title,
		in.NormalizedTitle,
		strconv.FormatInt(in.SubmitterID, 10),
		in.SubmitterName,
		StatusPending,
		l.now().Format("2006-01-02 15:04:05"),
		in.FileID,
		"", // reviewer message id, set after the review message is sent
		in.AutoTitle,
		manualTitle,
		in.Link,
		category,
		in.FileName,
	}
	if err := l.tab.Append(ctx, store.TableLedger, row); err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	return id, nil
}

// Get reconstructs a request from its row, tolerating ragged historical
// rows (missing trailing cells read as empty).
func (l *Ledger) Get(ctx context.Context, id string) (Request, error) {
	row, err := l.find(ctx, id)
	if err != nil {
		return Request{}, err
	}
	cells, err := l.tab.ReadRow(ctx, store.TableLedger, row)
	if err != nil {
		return Request{}, fmt.Errorf("read request %s: %w", id, err)
	}
	for len(cells) < len(store.LedgerHeader) {
		cells = append(cells, "")
	}

	submitterID, _ := strconv.ParseInt(cells[3], 10, 64)
	reviewMsgID, _ := strconv.Atoi(cells[8])
	return Request{
		ID:              cells[0],
		Title:           cells[1],
		NormalizedTitle: cells[2],
		SubmitterID:     submitterID,
		SubmitterName:   cells[4],
		Status:          cells[5],
		CreatedAt:       cells[6],
		FileID:          cells[7],
		ReviewMessageID: reviewMsgID,
		AutoTitle:       cells[9],
		ManualTitle:     cells[10],
		Link:            cells[11],
		Category:        cells[12],
		FileName:        cells[13],
	}, nil
}

// UpdateStatus overwrites the status cell of the request.
func (l *Ledger) UpdateStatus(ctx context.Context, id, status string) error {
	row, err := l.find(ctx, id)
	if err != nil {
		return err
	}
	if err := l.tab.UpdateCell(ctx, store.TableLedger, row, colStatus, status); err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	return nil
}

// SetReviewMessageID records the reviewer-facing message for later edits.
func (l *Ledger) SetReviewMessageID(ctx context.Context, id string, messageID int) error {
	row, err := l.find(ctx, id)
	if err != nil {
		return err
	}
	if err := l.tab.UpdateCell(ctx, store.TableLedger, row, colReviewMessageID, strconv.Itoa(messageID)); err != nil {
		return fmt.Errorf("update message id of %s: %w", id, err)
	}
	return nil
}

// Approved returns every approved request in insertion order.
func (l *Ledger) Approved(ctx context.Context) ([]Request, error) {
	records, err := l.tab.ReadAllRecords(ctx, store.TableLedger)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var out []Request
	for _, r := range records {
		if r["Статус"] != StatusApproved {
			continue
		}
		submitterID, _ := strconv.ParseInt(r["Telegram ID"], 10, 64)
		out = append(out, Request{
			ID:              r["ID"],
			Title:           r["Назва"],
			NormalizedTitle: r["Назва нормалізована"],
			SubmitterID:     submitterID,
			SubmitterName:   r["Username"],
			Status:          r["Статус"],
			Link:            r["Посилання"],
			Category:        r["Категорія"],
		})
	}
	return out, nil
}

func (l *Ledger) find(ctx context.Context, id string) (int, error) {
	row, err := l.tab.FindRowByKey(ctx, store.TableLedger, colID, id)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find request %s: %w", id, err)
	}
	return row, nil
}
