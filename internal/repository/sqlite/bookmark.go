package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

var _ repository.BookmarkRepository = (*BookmarkDB)(nil)

// BookmarkDB is the bookmarks table. UNIQUE(user_id, article_id) makes the
// database the final arbiter of duplicates.
type BookmarkDB struct {
	conn *sql.DB
}

const bookmarkColumns = `id, user_id, article_id, title, description, url, image, created_at, updated_at`

func scanBookmark(row rowScanner) (model.Bookmark, error) {
	var b model.Bookmark
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.ArticleID,
		&b.Title,
		&b.Description,
		&b.URL,
		&b.Image,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// ListBookmarks returns the user's bookmarks in insertion order.
//
// ORDER BY rowid:
// Every SQLite table (without WITHOUT ROWID) has an implicit, monotonically
// assigned rowid. It reflects insertion order exactly, even for rows created
// within the same clock tick.
func (b *BookmarkDB) ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error) {
	rows, err := b.conn.QueryContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? ORDER BY rowid`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bookmarks for %s: %w", userID, err)
	}
	defer rows.Close()

	// An empty (non-nil) slice serializes as [] rather than null.
	bookmarks := []model.Bookmark{}
	for rows.Next() {
		bm, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning bookmark row: %w", err)
		}
		bookmarks = append(bookmarks, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bookmark rows: %w", err)
	}
	return bookmarks, nil
}

// FindBookmark returns apperror.ErrNotFound when the user has not bookmarked articleID.
func (b *BookmarkDB) FindBookmark(ctx context.Context, userID, articleID string) (*model.Bookmark, error) {
	row := b.conn.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	)
	bm, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("bookmark", articleID)
		}
		return nil, fmt.Errorf("sqlite: finding bookmark: %w", err)
	}
	return &bm, nil
}

// CreateBookmark inserts a bookmark, setting ID and timestamps on the caller's struct.
func (b *BookmarkDB) CreateBookmark(ctx context.Context, bm *model.Bookmark) error {
	now := time.Now().UTC()
	bm.ID = xid.New().String()
	bm.CreatedAt = now
	bm.UpdatedAt = now

	_, err := b.conn.ExecContext(ctx,
		`INSERT INTO bookmarks (`+bookmarkColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bm.ID,
		bm.UserID,
		bm.ArticleID,
		bm.Title,
		bm.Description,
		bm.URL,
		bm.Image,
		bm.CreatedAt,
		bm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("article already bookmarked")
		}
		return fmt.Errorf("sqlite: inserting bookmark: %w", err)
	}
	return nil
}

// DeleteBookmark removes one bookmark. Zero rows affected means it was not there.
func (b *BookmarkDB) DeleteBookmark(ctx context.Context, userID, articleID string) error {
	res, err := b.conn.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = ? AND article_id = ?`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting bookmark: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("bookmark", articleID)
	}
	return nil
}
