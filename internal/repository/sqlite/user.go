package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table. Obtain one with DB.Users().
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password_hash, google_id, github_id, avatar_url, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                  model.User
		googleID, githubID sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&googleID,
		&githubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GoogleID = googleID.String
	u.GitHubID = githubID.String
	return &u, nil
}

// CreateUser inserts a new account. ID and timestamps are set on the caller's struct.
//
// The email UNIQUE index is the authoritative duplicate check: the service
// layer pre-checks for a friendlier path, but two concurrent signups can both
// pass that check and only one INSERT will win here.
func (u *UserDB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		nullable(user.GoogleID),
		nullable(user.GitHubID),
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return conflictFor(err, user)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

// conflictFor names the column that collided, using SQLite's
// "UNIQUE constraint failed: users.<column>" message.
func conflictFor(err error, user *model.User) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.google_id"):
		return apperror.Conflict("user", "google id "+user.GoogleID)
	case strings.Contains(msg, "users.github_id"):
		return apperror.Conflict("user", "github id "+user.GitHubID)
	default:
		return apperror.Conflict("user", "email "+user.Email)
	}
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their (normalized) email address.
func (u *UserDB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// LinkIdentity stores an external provider id on an existing user. The avatar
// is only filled in when the user does not have one yet.
func (u *UserDB) LinkIdentity(ctx context.Context, userID, provider, externalID, avatarURL string) error {
	var column string
	switch provider {
	case model.ProviderGoogle:
		column = "google_id"
	case model.ProviderGitHub:
		column = "github_id"
	default:
		return apperror.ValidationFailed("provider", "unknown identity provider "+provider)
	}

	// column comes from the switch above, never from input.
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users
		 SET `+column+` = ?,
		     avatar_url = CASE WHEN avatar_url = '' THEN ? ELSE avatar_url END,
		     updated_at = ?
		 WHERE id = ?`,
		externalID, avatarURL, time.Now().UTC(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", provider+" id "+externalID)
		}
		return fmt.Errorf("sqlite: linking %s identity to user %s: %w", provider, userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}
