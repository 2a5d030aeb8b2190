// Package regents manages the registry of authorized submitters. New
// regents join through a one-time invite code; an invite becomes active
// exactly once, at registration.
package regents

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"choirbot/internal/store"
)

// Invite statuses.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// 1-based column positions in the regents table.
const (
	colName       = 2
	colInviteCode = 3
	colTelegramID = 4
	colUsername   = 5
	colStatus     = 6
)

// ErrInvalidCode is returned when a code is unknown or already consumed.
var ErrInvalidCode = errors.New("regents: invalid or used invite code")

// Regent is one registry row.
type Regent struct {
	ID         string
	Name       string
	InviteCode string
	TelegramID int64
	Username   string
	Status     string
	CreatedAt  string
}

type Registry struct {
	tab store.Tabular
	now func() time.Time
}

func New(tab store.Tabular) *Registry {
	return &Registry{tab: tab, now: time.Now}
}

// CreateInvite appends a pending invite and returns its one-time code.
func (r *Registry) CreateInvite(ctx context.Context) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	code := hex.EncodeToString(buf)

	row := []string{
		uuid.NewString(),
		"", // name, filled at registration
		code,
		"", // telegram id
		"", // username
		StatusPending,
		r.now().Format("2006-01-02 15:04:05"),
	}
	if err := r.tab.Append(ctx, store.TableRegents, row); err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}
	return code, nil
}

// FindByCode returns the pending invite carrying code, or ErrInvalidCode.
func (r *Registry) FindByCode(ctx context.Context, code string) (Regent, error) {
	row, err := r.tab.FindRowByKey(ctx, store.TableRegents, colInviteCode, code)
	if errors.Is(err, store.ErrNotFound) {
		return Regent{}, ErrInvalidCode
	}
	if err != nil {
		return Regent{}, fmt.Errorf("find invite: %w", err)
	}
	cells, err := r.tab.ReadRow(ctx, store.TableRegents, row)
	if err != nil {
		return Regent{}, fmt.Errorf("read invite row: %w", err)
	}
	reg := fromRow(cells)
	if reg.Status != StatusPending {
		return Regent{}, ErrInvalidCode
	}
	return reg, nil
}

// Register consumes a pending invite: fills in the regent's name, identity
// and handle, and flips the status to active.
func (r *Registry) Register(ctx context.Context, code string, telegramID int64, username, fullName string) error {
	if _, err := r.FindByCode(ctx, code); err != nil {
		return err
	}
	row, err := r.tab.FindRowByKey(ctx, store.TableRegents, colInviteCode, code)
	if err != nil {
		return fmt.Errorf("find invite: %w", err)
	}

	updates := []struct {
		col   int
		value string
	}{
		{colName, fullName},
		{colTelegramID, strconv.FormatInt(telegramID, 10)},
		{colUsername, username},
		{colStatus, StatusActive},
	}
	for _, u := range updates {
		if err := r.tab.UpdateCell(ctx, store.TableRegents, row, u.col, u.value); err != nil {
			return fmt.Errorf("register regent: %w", err)
		}
	}
	return nil
}

// Active returns every active regent in insertion order.
func (r *Registry) Active(ctx context.Context) ([]Regent, error) {
	records, err := r.tab.ReadAllRecords(ctx, store.TableRegents)
	if err != nil {
		return nil, fmt.Errorf("read regents: %w", err)
	}
	var out []Regent
	for _, rec := range records {
		if rec["Status"] != StatusActive {
			continue
		}
		id, _ := strconv.ParseInt(rec["Telegram ID"], 10, 64)
		out = append(out, Regent{
			ID:         rec["ID"],
			Name:       rec["Name"],
			InviteCode: rec["Invite Code"],
			TelegramID: id,
			Username:   rec["Username"],
			Status:     rec["Status"],
			CreatedAt:  rec["Created At"],
		})
	}
	return out, nil
}

// IsRegent reports whether the identity belongs to an active regent.
func (r *Registry) IsRegent(ctx context.Context, telegramID int64) (bool, error) {
	row, err := r.tab.FindRowByKey(ctx, store.TableRegents, colTelegramID, strconv.FormatInt(telegramID, 10))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find regent: %w", err)
	}
	cells, err := r.tab.ReadRow(ctx, store.TableRegents, row)
	if err != nil {
		return false, fmt.Errorf("read regent row: %w", err)
	}
	return fromRow(cells).Status == StatusActive, nil
}

func fromRow(cells []string) Regent {
	for len(cells) < len(store.RegentsHeader) {
		cells = append(cells, "")
	}
	id, _ := strconv.ParseInt(cells[3], 10, 64)
	return Regent{
		ID:         cells[0],
		Name:       cells[1],
		InviteCode: cells[2],
		TelegramID: id,
		Username:   cells[4],
		Status:     cells[5],
		CreatedAt:  cells[6],
	}
}
