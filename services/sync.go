package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ananke-board/ananke/database"
)

// Store timeout for a single read or write. A store that blocks past
// this is reported as a storage failure.
const storeTimeout = 5 * time.Second

// UserContext is the identity attached to a submission: established at
// authentication time and immutable for the life of the session.
type UserContext struct {
	ID   int64
	Name string
	Role Role
}

// BoardStore is the single-document persistence the coordinator runs
// against.
type BoardStore interface {
	GetBoard(ctx context.Context) (*database.Board, error)
	SaveBoard(ctx context.Context, board *database.Board) error
}

// Broadcaster pushes a board document to every connected session,
// including the one the submission came from.
type Broadcaster interface {
	BroadcastBoard(board *database.Board)
}

// SyncCoordinator drives a board submission through authorization, diff,
// persistence, broadcast and audit logging. Both the REST endpoint and
// the websocket channel feed the same coordinator.
//
// Concurrent submissions are last-writer-wins at document granularity:
// nothing is merged field-by-field, and whichever write lands last is
// what every client converges to. The coordinator mutex keeps each
// read-diff-write-broadcast sequence whole so interleaved submissions
// cannot produce a lost update at the storage layer.
type SyncCoordinator struct {
	store BoardStore
	hub   Broadcaster
	mu    sync.Mutex
}

func NewSyncCoordinator(store BoardStore, hub Broadcaster) *SyncCoordinator {
	return &SyncCoordinator{store: store, hub: hub}
}

// Submit validates and authorizes the candidate document, persists it as
// a full replacement, broadcasts the new state to all sessions and writes
// one attributed audit line per detected change.
//
// Failures map to the sentinel errors in errors.go. Nothing is persisted
// or broadcast on rejection, and nothing is broadcast when the write
// fails. At most one write happens per call; failed writes are never
// retried.
func (c *SyncCoordinator) Submit(ctx context.Context, user UserContext, board *database.Board) error {
	if user.Role == "" {
		return ErrInvalidAuthContext
	}
	if board == nil || board.Workflows == nil {
		return ErrValidation
	}
	if !CanWrite(user.Role) {
		return fmt.Errorf("%w: %s is %s", ErrUnauthorized, user.Name, user.Role)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Diff is best effort: a failed read must not block persistence.
	var changes []string
	readCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	previous, err := c.store.GetBoard(readCtx)
	cancel()
	if err != nil {
		log.Printf("Could not read previous board for diff: %v", err)
	} else {
		changes = DescribeChanges(previous, board)
	}

	writeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	err = c.store.SaveBoard(writeCtx, board)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	c.hub.BroadcastBoard(board)

	if len(changes) == 0 {
		log.Printf("%s made minor changes to the board", user.Name)
	} else {
		for _, change := range changes {
			log.Printf("%s %s", user.Name, change)
		}
	}

	return nil
}
