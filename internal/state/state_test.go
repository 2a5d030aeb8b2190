package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// Both backends must satisfy the same contract.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	ids, err := s.ShardMessageIDs(ctx)
	if err != nil {
		t.Fatalf("ShardMessageIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("fresh store should have no shard ids, got %v", ids)
	}

	if err := s.SaveShardMessageIDs(ctx, []int{11, 22, 33}); err != nil {
		t.Fatalf("SaveShardMessageIDs failed: %v", err)
	}
	ids, err = s.ShardMessageIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != 11 || ids[2] != 33 {
		t.Errorf("unexpected shard ids: %v", ids)
	}

	if _, ok, err := s.Clarification(ctx, 500); err != nil || ok {
		t.Errorf("no clarification expected, got ok=%v err=%v", ok, err)
	}

	first := Clarification{RequestID: "req1", Title: "Перша", ReviewerID: 42}
	if err := s.SetClarification(ctx, 500, first); err != nil {
		t.Fatalf("SetClarification failed: %v", err)
	}
	// The slot is single: a second clarification overwrites the first.
	second := Clarification{RequestID: "req2", Title: "Друга", ReviewerID: 42}
	if err := s.SetClarification(ctx, 500, second); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Clarification(ctx, 500)
	if err != nil || !ok {
		t.Fatalf("Clarification failed: ok=%v err=%v", ok, err)
	}
	if got.RequestID != "req2" {
		t.Errorf("expected last write to win, got %+v", got)
	}

	if err := s.ClearClarification(ctx, 500); err != nil {
		t.Fatalf("ClearClarification failed: %v", err)
	}
	if _, ok, _ := s.Clarification(ctx, 500); ok {
		t.Error("clarification should be cleared")
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	runStoreContract(t, NewFileStore(path))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewFileStore(path)
	if err := s.SaveShardMessageIDs(ctx, []int{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	reopened := NewFileStore(path)
	ids, err := reopened.ShardMessageIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Errorf("state not persisted: %v", ids)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	runStoreContract(t, s)
}
