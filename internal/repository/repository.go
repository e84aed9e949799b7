// Package repository defines the storage contracts used by the service layer.
//
// Two backends implement them: sqlite (embedded, default) and mongo. Services
// depend only on these interfaces, so tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/newsroom/internal/model"
)

// UserRepository stores accounts. Email is unique; each linked external id is
// unique when present.
type UserRepository interface {
	// CreateUser assigns ID and timestamps. A duplicate email returns
	// apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail expects a normalized (trimmed, lower-cased) email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// LinkIdentity attaches an external provider id (and avatar, when the user
	// has none) to an existing account.
	LinkIdentity(ctx context.Context, userID, provider, externalID, avatarURL string) error
}

// PreferenceRepository stores one preference set per user.
type PreferenceRepository interface {
	// GetPreferences returns (nil, nil) when the user exists but never saved
	// preferences, and apperror.ErrNotFound when the user does not exist.
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	// SetPreferences replaces the whole set.
	SetPreferences(ctx context.Context, userID string, prefs model.Preferences) error
}

// BookmarkRepository stores bookmarks. (UserID, ArticleID) is unique and a
// violating insert returns apperror.ErrAlreadyExists.
type BookmarkRepository interface {
	// ListBookmarks returns the user's bookmarks in insertion order.
	ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error)
	FindBookmark(ctx context.Context, userID, articleID string) (*model.Bookmark, error)
	CreateBookmark(ctx context.Context, bookmark *model.Bookmark) error
	// DeleteBookmark returns apperror.ErrNotFound when nothing was removed.
	DeleteBookmark(ctx context.Context, userID, articleID string) error
}

// Store bundles the repositories of one backend with its lifecycle.
type Store interface {
	Users() UserRepository
	Preferences() PreferenceRepository
	Bookmarks() BookmarkRepository
	Ping(ctx context.Context) error
	Close() error
}
