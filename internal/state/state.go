// Package state holds the two pieces of process-wide shared state: the
// pinned shard message ids and the pending clarification slots. Both cross
// session boundaries, so every implementation must be safe for concurrent
// use; components receive a Store by injection rather than touching
// globals.
package state

import "context"

// Clarification is the single pending-question slot for one submitter. A
// second clarification for the same submitter overwrites the first
// (last-write-wins).
type Clarification struct {
	RequestID  string `json:"request_id"`
	Title      string `json:"title"`
	ReviewerID int64  `json:"reviewer_id"`
}

// Store persists shared bot state across restarts.
type Store interface {
	// ShardMessageIDs returns the known display message ids, possibly
	// empty or of the wrong length; callers decide whether to reset.
	ShardMessageIDs(ctx context.Context) ([]int, error)
	SaveShardMessageIDs(ctx context.Context, ids []int) error

	// Clarification returns the pending slot for a submitter, if any.
	Clarification(ctx context.Context, userID int64) (Clarification, bool, error)
	SetClarification(ctx context.Context, userID int64, c Clarification) error
	ClearClarification(ctx context.Context, userID int64) error
}
