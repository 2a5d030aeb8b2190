package regents

import (
	"context"
	"errors"
	"testing"

	"choirbot/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	tab := store.NewMemory()
	if err := store.EnsureSchema(context.Background(), tab); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return New(tab)
}

func TestCreateInviteAndRegister(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	code, err := r.CreateInvite(ctx)
	if err != nil {
		t.Fatalf("CreateInvite failed: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("expected 8-char hex code, got %q", code)
	}

	invite, err := r.FindByCode(ctx, code)
	if err != nil {
		t.Fatalf("FindByCode failed: %v", err)
	}
	if invite.Status != StatusPending || invite.Name != "" {
		t.Errorf("fresh invite should be pending and unnamed: %+v", invite)
	}

	if err := r.Register(ctx, code, 555, "ivan", "Іван Петров"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ok, err := r.IsRegent(ctx, 555)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("registered regent should be active")
	}

	active, err := r.Active(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Name != "Іван Петров" || active[0].TelegramID != 555 {
		t.Errorf("unexpected active regents: %+v", active)
	}
}

func TestRegisterConsumesCodeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	code, err := r.CreateInvite(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ctx, code, 555, "ivan", "Іван"); err != nil {
		t.Fatal(err)
	}

	if _, err := r.FindByCode(ctx, code); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("consumed code must be invalid, got %v", err)
	}
	if err := r.Register(ctx, code, 777, "petro", "Петро"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("second registration must fail, got %v", err)
	}
}

func TestFindByUnknownCode(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.FindByCode(context.Background(), "deadbeef"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}

func TestIsRegentUnknownIdentity(t *testing.T) {
	r := newTestRegistry(t)
	ok, err := r.IsRegent(context.Background(), 4242)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("unknown identity must not be a regent")
	}
}
