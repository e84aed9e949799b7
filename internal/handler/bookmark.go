package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/service"
)

// BookmarkManager is satisfied by *service.BookmarkService.
type BookmarkManager interface {
	List(ctx context.Context, userID string) ([]model.Bookmark, error)
	Add(ctx context.Context, userID string, in service.BookmarkInput) ([]model.Bookmark, error)
	Remove(ctx context.Context, userID, rawArticleID string) ([]model.Bookmark, error)
}

// BookmarksResponse carries the caller's full list. Mutations also set Message
// so the client can reconcile its local set and show a toast in one step.
type BookmarksResponse struct {
	Message            string           `json:"message,omitempty"`
	BookmarkedArticles []model.Bookmark `json:"bookmarkedArticles"`
}

type BookmarkHandler struct {
	bookmarks BookmarkManager
	logger    *slog.Logger
}

func NewBookmarkHandler(bookmarks BookmarkManager, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, logger: logger}
}

// HandleList serves GET /api/bookmark.
func (h *BookmarkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	list, err := h.bookmarks.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, BookmarksResponse{BookmarkedArticles: list})
}

// HandleAdd serves POST /api/bookmark.
// Body: {"articleId", "title", "description", "url", "image"}
func (h *BookmarkHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	var in service.BookmarkInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	list, err := h.bookmarks.Add(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, BookmarksResponse{
		Message:            "Article bookmarked!",
		BookmarkedArticles: list,
	})
}

// HandleRemove serves DELETE /api/bookmark/{articleId}.
//
// Article ids are usually URLs, so clients percent-encode them into the path.
// The service decodes the segment exactly once (see escapedArticleID).
func (h *BookmarkHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	list, err := h.bookmarks.Remove(r.Context(), userID, escapedArticleID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, BookmarksResponse{
		Message:            "Bookmark removed!",
		BookmarkedArticles: list,
	})
}

// escapedArticleID returns the {articleId} segment still percent-encoded.
// chi routes on r.URL.RawPath when it is set and on the decoded r.URL.Path
// otherwise, so in the second case the param has already been decoded once
// and is re-escaped here.
func escapedArticleID(r *http.Request) string {
	param := chi.URLParam(r, "articleId")
	if r.URL.RawPath == "" {
		return url.PathEscape(param)
	}
	return param
}
