package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only during the test, with
// the full goose migration set applied. Each test gets its own.
//
// t.Helper() makes failures point at the caller's line, not this function.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a password user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     "user",
		Email:        email,
		PasswordHash: "$2a$04$fakehashfakehashfakehash",
	}
	if err := db.Users().CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "johndoe",
		Email:        "john@example.com",
		PasswordHash: "$2a$04$hash",
	}
	if err := db.Users().CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.Users().CreateUser(context.Background(), &model.User{
		Username:     "other",
		Email:        "dup@example.com",
		PasswordHash: "x",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_DuplicateGoogleID(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()

	first := &model.User{Username: "a", Email: "a@example.com", GoogleID: "g-1"}
	if err := users.CreateUser(context.Background(), first); err != nil {
		t.Fatalf("CreateUser() first: %v", err)
	}

	err := users.CreateUser(context.Background(), &model.User{Username: "b", Email: "b@example.com", GoogleID: "g-1"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_ManyUsersWithoutExternalIDs(t *testing.T) {
	db := newTestDB(t)

	// Empty external ids are stored as NULL, and NULLs never collide.
	createTestUser(t, db, "one@example.com")
	createTestUser(t, db, "two@example.com")
	createTestUser(t, db, "three@example.com")
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byid@example.com")

	found, err := db.Users().GetUserByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "byid@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "byid@example.com")
	}
	if found.PasswordHash != created.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, created.PasswordHash)
	}
	if found.GoogleID != "" || found.GitHubID != "" {
		t.Errorf("external ids should be empty, got google=%q github=%q", found.GoogleID, found.GitHubID)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetUserByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup@example.com")

	found, err := db.Users().GetUserByEmail(context.Background(), "lookup@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	_, err = db.Users().GetUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LINK IDENTITY TESTS
// =========================================================================

func TestLinkIdentity(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	user := createTestUser(t, db, "link@example.com")

	err := users.LinkIdentity(context.Background(), user.ID, model.ProviderGitHub, "4242", "https://avatars.example.com/4242")
	if err != nil {
		t.Fatalf("LinkIdentity() error = %v", err)
	}

	found, _ := users.GetUserByID(context.Background(), user.ID)
	if found.GitHubID != "4242" {
		t.Errorf("GitHubID = %q, want %q", found.GitHubID, "4242")
	}
	if found.AvatarURL != "https://avatars.example.com/4242" {
		t.Errorf("AvatarURL = %q, want the provider avatar", found.AvatarURL)
	}

	// A second link keeps the first avatar.
	if err := users.LinkIdentity(context.Background(), user.ID, model.ProviderGoogle, "g-9", "https://other.example.com/a.png"); err != nil {
		t.Fatalf("LinkIdentity() google: %v", err)
	}
	found, _ = users.GetUserByID(context.Background(), user.ID)
	if found.GoogleID != "g-9" {
		t.Errorf("GoogleID = %q, want %q", found.GoogleID, "g-9")
	}
	if found.AvatarURL != "https://avatars.example.com/4242" {
		t.Errorf("AvatarURL changed to %q", found.AvatarURL)
	}
}

func TestLinkIdentity_Errors(t *testing.T) {
	db := newTestDB(t)
	users := db.Users()
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	if err := users.LinkIdentity(context.Background(), owner.ID, model.ProviderGoogle, "g-1", ""); err != nil {
		t.Fatalf("LinkIdentity() error = %v", err)
	}

	tests := []struct {
		name     string
		userID   string
		provider string
		extID    string
		wantErr  error
	}{
		{"unknown user", "missing", model.ProviderGoogle, "g-2", apperror.ErrNotFound},
		{"unknown provider", owner.ID, "myspace", "m-1", apperror.ErrValidation},
		{"id owned by another user", other.ID, model.ProviderGoogle, "g-1", apperror.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.LinkIdentity(context.Background(), tt.userID, tt.provider, tt.extID, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LinkIdentity() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =========================================================================
// LIFECYCLE TESTS
// =========================================================================

func TestNew_FileDatabaseIsReopenable(t *testing.T) {
	path := t.TempDir() + "/newsroom.db"

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	created := createTestUser(t, db, "persist@example.com")
	db.Close()

	// Reopening runs goose again; already-applied versions must be skipped.
	db2, err := New(path)
	if err != nil {
		t.Fatalf("New() on existing file error = %v", err)
	}
	defer db2.Close()

	if _, err := db2.Users().GetUserByID(context.Background(), created.ID); err != nil {
		t.Errorf("user not found after reopen: %v", err)
	}
	if err := db2.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
