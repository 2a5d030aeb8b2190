package ledger

import (
	"context"
	"errors"
	"testing"

	"choirbot/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	tab := store.NewMemory()
	if err := store.EnsureSchema(context.Background(), tab); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return New(tab)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	id, err := l.Create(ctx, CreateInput{
		Title:           "Пісня Миру",
		NormalizedTitle: "пісня миру",
		SubmitterID:     12345,
		SubmitterName:   "Іван Петров",
		FileID:          "file-abc",
		FileName:        "pisnia.docx",
		Category:        "Різдво",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(id) != 8 {
		t.Errorf("expected 8-char id, got %q", id)
	}

	req, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if req.Title != "Пісня Миру" || req.NormalizedTitle != "пісня миру" {
		t.Errorf("unexpected titles: %+v", req)
	}
	if req.Status != StatusPending {
		t.Errorf("new request must be pending, got %q", req.Status)
	}
	if req.SubmitterID != 12345 || req.SubmitterName != "Іван Петров" {
		t.Errorf("unexpected submitter: %+v", req)
	}
	if req.Category != "Різдво" {
		t.Errorf("unexpected category: %q", req.Category)
	}
	if req.FileName != "pisnia.docx" {
		t.Errorf("unexpected file name: %q", req.FileName)
	}
	// No auto-suggested title, so the manual title cell records the input.
	if req.ManualTitle != "Пісня Миру" {
		t.Errorf("unexpected manual title: %q", req.ManualTitle)
	}
}

func TestGetUnknownID(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Get(context.Background(), "missing1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	id, err := l.Create(ctx, CreateInput{Title: "Алілуя", NormalizedTitle: "алілуя", SubmitterID: 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := l.UpdateStatus(ctx, id, StatusApproved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	req, err := l.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != StatusApproved {
		t.Errorf("expected approved, got %q", req.Status)
	}
}

func TestSetReviewMessageID(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	id, err := l.Create(ctx, CreateInput{Title: "Алілуя", NormalizedTitle: "алілуя", SubmitterID: 1})
	if err != nil {
		t.Fatal(err)
	}

	if err := l.SetReviewMessageID(ctx, id, 777); err != nil {
		t.Fatalf("SetReviewMessageID failed: %v", err)
	}
	req, err := l.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if req.ReviewMessageID != 777 {
		t.Errorf("expected message id 777, got %d", req.ReviewMessageID)
	}
}

func TestApprovedFiltersAndPreservesOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	first, _ := l.Create(ctx, CreateInput{Title: "Перша", NormalizedTitle: "перша", SubmitterID: 1})
	second, _ := l.Create(ctx, CreateInput{Title: "Друга", NormalizedTitle: "друга", SubmitterID: 2})
	third, _ := l.Create(ctx, CreateInput{Title: "Третя", NormalizedTitle: "третя", SubmitterID: 3})

	_ = l.UpdateStatus(ctx, first, StatusApproved)
	_ = l.UpdateStatus(ctx, second, StatusRejected)
	_ = l.UpdateStatus(ctx, third, StatusApproved)

	approved, err := l.Approved(ctx)
	if err != nil {
		t.Fatalf("Approved failed: %v", err)
	}
	if len(approved) != 2 {
		t.Fatalf("expected 2 approved, got %d", len(approved))
	}
	if approved[0].Title != "Перша" || approved[1].Title != "Третя" {
		t.Errorf("insertion order not preserved: %+v", approved)
	}
}

func TestGetToleratesRaggedRow(t *testing.T) {
	ctx := context.Background()
	tab := store.NewMemory()
	if err := store.EnsureSchema(ctx, tab); err != nil {
		t.Fatal(err)
	}
	// Historical row written by an older schema, missing trailing cells.
	if err := tab.Append(ctx, store.TableLedger, []string{"old12345", "Стара Пісня", "стара пісня", "99", "Хтось", "approved"}); err != nil {
		t.Fatal(err)
	}

	l := New(tab)
	req, err := l.Get(ctx, "old12345")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if req.Category != "" || req.Link != "" {
		t.Errorf("missing cells must read empty: %+v", req)
	}
	if req.Status != StatusApproved {
		t.Errorf("unexpected status: %q", req.Status)
	}
}
