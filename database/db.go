package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap credentials for the owner account created on first startup.
// The owner is prompted to complete setup (and change the password) on
// first login.
const (
	bootstrapOwnerEmail    = "admin@setup.ananke"
	bootstrapOwnerPassword = "AdminAnanke"
)

func InitDB(path string) (*sql.DB, error) {
	// Busy timeout keeps reads from failing while a board write holds
	// the sqlite lock.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create users table
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		password_hash TEXT,
		first_name TEXT,
		last_name TEXT,
		role TEXT DEFAULT 'reader',
		is_setup_complete INTEGER DEFAULT 0,
		avatar_url TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	// Create board table (single row store for the board JSON blob)
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS board_store (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create board_store table: %w", err)
	}

	if err := seedOwner(db); err != nil {
		return nil, err
	}
	if err := seedBoard(db); err != nil {
		return nil, err
	}

	log.Println("Database initialized successfully")
	return db, nil
}

// seedOwner creates the bootstrap owner account if no users exist yet.
// Exactly one owner exists system-wide; it is never deleted or demoted.
func seedOwner(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapOwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	_, err = db.Exec(`INSERT INTO users (email, password_hash, first_name, last_name, role, is_setup_complete)
		VALUES (?, ?, '', '', 'owner', 0)`, bootstrapOwnerEmail, string(hash))
	if err != nil {
		return fmt.Errorf("failed to insert owner: %w", err)
	}

	log.Printf("Created bootstrap owner account: %s", bootstrapOwnerEmail)
	return nil
}

// seedBoard inserts the default board document if none has been
// persisted yet.
func seedBoard(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM board_store").Scan(&count); err != nil {
		return fmt.Errorf("failed to count board rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	data, err := json.Marshal(DefaultBoard())
	if err != nil {
		return fmt.Errorf("failed to marshal default board: %w", err)
	}

	_, err = db.Exec("INSERT INTO board_store (id, data) VALUES (1, ?)", string(data))
	if err != nil {
		return fmt.Errorf("failed to insert default board: %w", err)
	}

	log.Println("Initialized board_store with default data")
	return nil
}

// DefaultBoard is the seed document used on first startup.
func DefaultBoard() *Board {
	return &Board{
		ProjectName: "Ananke",
		Tags:        []Tag{},
		Workflows: []Workflow{
			{ID: 1, Title: "To Do", Color: "#ef4444", Tasks: []Task{}},
			{ID: 2, Title: "In Progress", Color: "#f97316", Tasks: []Task{}},
			{ID: 3, Title: "To Test", Color: "#3b82f6", Tasks: []Task{}},
			{ID: 4, Title: "Done", Color: "#22c55e", Tasks: []Task{}},
		},
	}
}
