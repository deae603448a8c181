package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a user lookup or a guarded update
	// matches no row (including updates refused by the owner guard).
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when an insert hits the unique email
	// constraint.
	ErrEmailTaken = errors.New("email already in use")
)

// UserService handles database operations for user accounts.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// COALESCE because rows created before setup leave the profile columns NULL.
const userColumns = "id, email, password_hash, COALESCE(first_name, ''), COALESCE(last_name, ''), role, is_setup_complete, COALESCE(avatar_url, '')"

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var setup int
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &setup, &u.AvatarURL)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.IsSetupComplete = setup != 0
	return &u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// Create inserts a new account. New accounts start with setup incomplete
// so the user is walked through profile setup on first login.
func (s *UserService) Create(ctx context.Context, email, passwordHash, role string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_setup_complete) VALUES (?, ?, ?, 0)",
		email, passwordHash, role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

func (s *UserService) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var setup int
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &setup, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.IsSetupComplete = setup != 0
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateRole changes a user's role. The owner row is never touched; a
// matched-zero-rows update reports ErrNotFound whether the id was missing
// or the target was the owner.
func (s *UserService) UpdateRole(ctx context.Context, id int64, role string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET role = ? WHERE id = ? AND role != 'owner'", role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. The owner row is never deleted.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM users WHERE id = ? AND role != 'owner'", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetupProfile stores first/last name, email and optionally a new
// password hash and avatar, and marks the account's setup complete.
func (s *UserService) SetupProfile(ctx context.Context, id int64, firstName, lastName, email, passwordHash, avatarURL string, setAvatar bool) error {
	query := "UPDATE users SET first_name = ?, last_name = ?, email = ?, is_setup_complete = 1"
	params := []any{firstName, lastName, email}

	if passwordHash != "" {
		query += ", password_hash = ?"
		params = append(params, passwordHash)
	}
	if setAvatar {
		query += ", avatar_url = ?"
		params = append(params, avatarURL)
	}

	query += " WHERE id = ?"
	params = append(params, id)

	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
