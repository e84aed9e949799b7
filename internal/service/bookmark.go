package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

// BookmarkInput is the article a user wants to save.
type BookmarkInput struct {
	ArticleID   string `json:"articleId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
}

// BookmarkService manages a user's saved articles.
type BookmarkService struct {
	repo   repository.BookmarkRepository
	logger *slog.Logger
}

func NewBookmarkService(repo repository.BookmarkRepository, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{repo: repo, logger: logger}
}

// List returns the user's bookmarks in insertion order.
func (s *BookmarkService) List(ctx context.Context, userID string) ([]model.Bookmark, error) {
	bookmarks, err := s.repo.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/bookmark: listing: %w", err)
	}
	return bookmarks, nil
}

// Add saves an article and returns the user's full, updated list.
//
// CHECK-THEN-INSERT:
// FindBookmark answers the common duplicate case. It is not atomic with the
// insert: two concurrent adds of the same article can both pass it. The
// store's unique (userId, articleId) index then rejects the second insert with
// ErrAlreadyExists, which is passed through unchanged, so the caller sees the
// same error either way and no duplicate row is ever stored.
func (s *BookmarkService) Add(ctx context.Context, userID string, in BookmarkInput) ([]model.Bookmark, error) {
	in.ArticleID = strings.TrimSpace(in.ArticleID)
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)

	if in.ArticleID == "" || in.Title == "" || in.URL == "" {
		return nil, apperror.ValidationFailed("articleId", "Missing required fields.")
	}

	_, err := s.repo.FindBookmark(ctx, userID, in.ArticleID)
	switch {
	case err == nil:
		return nil, apperror.AlreadyExists("Article already bookmarked.")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/bookmark: checking duplicate: %w", err)
	}

	bm := &model.Bookmark{
		UserID:      userID,
		ArticleID:   in.ArticleID,
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		Image:       in.Image,
	}
	if err := s.repo.CreateBookmark(ctx, bm); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil, apperror.AlreadyExists("Article already bookmarked.")
		}
		s.logger.Error("failed to save bookmark",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/bookmark: creating: %w", err)
	}

	s.logger.Info("bookmark added",
		slog.String("userID", userID),
		slog.String("articleID", bm.ArticleID),
	)
	return s.List(ctx, userID)
}

// Remove deletes a bookmark and returns the remaining list.
//
// rawArticleID arrives URL-encoded (article ids are URLs). It is decoded
// once; a value that is not valid escaping is used as-is.
func (s *BookmarkService) Remove(ctx context.Context, userID, rawArticleID string) ([]model.Bookmark, error) {
	articleID := DecodeArticleID(rawArticleID)
	if articleID == "" {
		return nil, apperror.ValidationFailed("articleId", "article id is required")
	}

	if err := s.repo.DeleteBookmark(ctx, userID, articleID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "Bookmark not found.",
				Field:   "articleId",
			}
		}
		return nil, fmt.Errorf("service/bookmark: deleting: %w", err)
	}

	s.logger.Info("bookmark removed",
		slog.String("userID", userID),
		slog.String("articleID", articleID),
	)
	return s.List(ctx, userID)
}

// DecodeArticleID percent-decodes a path segment, falling back to the raw
// value when it contains invalid escapes.
func DecodeArticleID(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
