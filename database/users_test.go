package database

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBootstrapOwnerSeeded(t *testing.T) {
	users := NewUserService(newTestDB(t))

	owner, err := users.GetByEmail(context.Background(), "admin@setup.ananke")
	if err != nil {
		t.Fatalf("owner lookup returned error: %v", err)
	}

	if owner.Role != "owner" {
		t.Errorf("role = %q, want owner", owner.Role)
	}
	if owner.IsSetupComplete {
		t.Error("bootstrap owner should start with setup incomplete")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(owner.PasswordHash), []byte("AdminAnanke")); err != nil {
		t.Error("bootstrap password does not match stored hash")
	}
}

func TestCreateAndLookupUser(t *testing.T) {
	users := NewUserService(newTestDB(t))
	ctx := context.Background()

	id, err := users.Create(ctx, "alice@example.com", "hash", "editor")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	user, err := users.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.Email != "alice@example.com" || user.Role != "editor" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.IsSetupComplete {
		t.Error("new accounts should start with setup incomplete")
	}
	if user.DisplayName() != "alice@example.com" {
		t.Errorf("display name before setup = %q, want email", user.DisplayName())
	}

	// Duplicate email
	if _, err := users.Create(ctx, "alice@example.com", "hash", "reader"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	// Unknown lookup
	if _, err := users.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	users := NewUserService(newTestDB(t))
	ctx := context.Background()

	id, err := users.Create(ctx, "bob@example.com", "hash", "reader")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := users.UpdateRole(ctx, id, "admin"); err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("role = %q, want admin", user.Role)
	}

	if err := users.UpdateRole(ctx, 99999, "editor"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestOwnerIsProtected(t *testing.T) {
	users := NewUserService(newTestDB(t))
	ctx := context.Background()

	owner, err := users.GetByEmail(ctx, "admin@setup.ananke")
	if err != nil {
		t.Fatalf("owner lookup returned error: %v", err)
	}

	if err := users.UpdateRole(ctx, owner.ID, "reader"); !errors.Is(err, ErrNotFound) {
		t.Errorf("owner demotion: expected ErrNotFound, got %v", err)
	}
	if err := users.Delete(ctx, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("owner deletion: expected ErrNotFound, got %v", err)
	}

	still, err := users.GetByID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("owner disappeared: %v", err)
	}
	if still.Role != "owner" {
		t.Errorf("owner role changed to %q", still.Role)
	}
}

func TestDeleteUser(t *testing.T) {
	users := NewUserService(newTestDB(t))
	ctx := context.Background()

	id, err := users.Create(ctx, "temp@example.com", "hash", "reader")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := users.Delete(ctx, id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := users.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSetupProfile(t *testing.T) {
	users := NewUserService(newTestDB(t))
	ctx := context.Background()

	id, err := users.Create(ctx, "carol@example.com", "hash", "editor")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	err = users.SetupProfile(ctx, id, "Carol", "Jones", "carol@example.com", "newhash", "data:image/png;base64,xyz", true)
	if err != nil {
		t.Fatalf("SetupProfile returned error: %v", err)
	}

	user, err := users.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !user.IsSetupComplete {
		t.Error("setup not marked complete")
	}
	if user.DisplayName() != "Carol Jones" {
		t.Errorf("display name = %q, want %q", user.DisplayName(), "Carol Jones")
	}
	if user.PasswordHash != "newhash" {
		t.Error("password hash not updated")
	}
	if user.AvatarURL != "data:image/png;base64,xyz" {
		t.Error("avatar not stored")
	}

	// Omitting the password keeps the old hash
	if err := users.SetupProfile(ctx, id, "Carol", "Jones", "carol@example.com", "", "", false); err != nil {
		t.Fatalf("SetupProfile returned error: %v", err)
	}
	user, _ = users.GetByID(ctx, id)
	if user.PasswordHash != "newhash" {
		t.Error("password hash overwritten when omitted")
	}
	if user.AvatarURL != "data:image/png;base64,xyz" {
		t.Error("avatar cleared when omitted")
	}
}
