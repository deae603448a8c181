package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
)

// BoardStore persists the single shared board document. The document is
// replaced as a unit on every write; a mutex serializes writers so two
// interleaved saves can never produce a torn row, independent of the
// last-writer-wins policy applied above the store.
type BoardStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewBoardStore(db *sql.DB) *BoardStore {
	return &BoardStore{db: db}
}

// GetBoard returns the last persisted board document, or the seed default
// if nothing has been written yet.
func (s *BoardStore) GetBoard(ctx context.Context) (*Board, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM board_store WHERE id = 1")

	var dataStr string
	err := row.Scan(&dataStr)
	if err == sql.ErrNoRows {
		return DefaultBoard(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query board: %w", err)
	}

	var board Board
	if err := json.Unmarshal([]byte(dataStr), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}

	return &board, nil
}

// SaveBoard replaces the persisted document atomically.
func (s *BoardStore) SaveBoard(ctx context.Context, board *Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_store (id, data, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, string(data))
	if err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}

	return nil
}
