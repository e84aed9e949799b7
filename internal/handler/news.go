package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
)

// NewsReader is satisfied by *service.NewsService.
type NewsReader interface {
	Headlines(ctx context.Context, country string) ([]model.Article, error)
	Personalized(ctx context.Context, userID string) ([]model.Article, error)
	Search(ctx context.Context, query string) ([]model.Article, error)
}

// ArticlesResponse is the body of every news endpoint.
type ArticlesResponse struct {
	Articles []model.Article `json:"articles"`
}

// NewsHandler exposes the upstream news gateway. Headlines and search are
// public; the personalized feed needs a session.
type NewsHandler struct {
	news   NewsReader
	logger *slog.Logger
}

func NewNewsHandler(news NewsReader, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{news: news, logger: logger}
}

// HandleHeadlines serves GET /api/news?country=xx. The gateway applies the
// default country when the parameter is absent.
func (h *NewsHandler) HandleHeadlines(w http.ResponseWriter, r *http.Request) {
	articles, err := h.news.Headlines(r.Context(), r.URL.Query().Get("country"))
	h.respond(w, articles, err)
}

// HandlePersonalized serves GET /api/news/personalized.
func (h *NewsHandler) HandlePersonalized(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	articles, err := h.news.Personalized(r.Context(), userID)
	h.respond(w, articles, err)
}

// HandleSearch serves GET /api/news/search?query=...
func (h *NewsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	articles, err := h.news.Search(r.Context(), r.URL.Query().Get("query"))
	h.respond(w, articles, err)
}

func (h *NewsHandler) respond(w http.ResponseWriter, articles []model.Article, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ArticlesResponse{Articles: articles})
}
