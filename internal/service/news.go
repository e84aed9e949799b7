package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/newsroom/internal/model"
)

// NewsGateway is what NewsService needs from the upstream provider.
// *news.Gateway satisfies it; tests pass a fake.
type NewsGateway interface {
	TopHeadlines(ctx context.Context, country string) ([]model.Article, error)
	Personalized(ctx context.Context, prefs *model.Preferences) ([]model.Article, error)
	Search(ctx context.Context, query string) ([]model.Article, error)
}

// NewsService serves general, personalized and searched news.
type NewsService struct {
	gateway NewsGateway
	prefs   *PreferenceService
	logger  *slog.Logger
}

func NewNewsService(gateway NewsGateway, prefs *PreferenceService, logger *slog.Logger) *NewsService {
	return &NewsService{gateway: gateway, prefs: prefs, logger: logger}
}

func (s *NewsService) Headlines(ctx context.Context, country string) ([]model.Article, error) {
	return s.gateway.TopHeadlines(ctx, country)
}

// Personalized loads the user's stored preferences and queries with them.
// A user who never saved preferences gets ErrPreferencesRequired.
func (s *NewsService) Personalized(ctx context.Context, userID string) ([]model.Article, error) {
	prefs, err := s.prefs.Stored(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/news: %w", err)
	}

	s.logger.Debug("fetching personalized news", slog.String("userID", userID))
	return s.gateway.Personalized(ctx, prefs)
}

func (s *NewsService) Search(ctx context.Context, query string) ([]model.Article, error) {
	return s.gateway.Search(ctx, query)
}
