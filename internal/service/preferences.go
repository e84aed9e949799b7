package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

// PreferenceService reads and replaces a user's news preferences.
type PreferenceService struct {
	repo   repository.PreferenceRepository
	logger *slog.Logger
}

func NewPreferenceService(repo repository.PreferenceRepository, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{repo: repo, logger: logger}
}

// Get returns the stored preferences, or DefaultPreferences when the user
// never saved any. Only a missing user is an error (ErrNotFound).
func (s *PreferenceService) Get(ctx context.Context, userID string) (model.Preferences, error) {
	prefs, err := s.Stored(ctx, userID)
	if err != nil {
		return model.Preferences{}, err
	}
	if prefs == nil {
		return model.DefaultPreferences(), nil
	}
	return *prefs, nil
}

// Stored returns the preferences exactly as persisted: nil means "never set".
// Personalized news uses this to refuse users without preferences.
func (s *PreferenceService) Stored(ctx context.Context, userID string) (*model.Preferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/preferences: loading for %s: %w", userID, err)
	}
	return prefs, nil
}

// Set replaces the whole preference set (no merging) and returns what was
// persisted. Missing lists become empty, a missing country becomes "us".
func (s *PreferenceService) Set(ctx context.Context, userID string, prefs model.Preferences) (model.Preferences, error) {
	prefs = prefs.Normalized()

	if err := s.repo.SetPreferences(ctx, userID, prefs); err != nil {
		s.logger.Error("failed to save preferences",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return model.Preferences{}, fmt.Errorf("service/preferences: saving for %s: %w", userID, err)
	}

	s.logger.Info("preferences updated",
		slog.String("userID", userID),
		slog.Int("categories", len(prefs.Categories)),
		slog.Int("sources", len(prefs.Sources)),
		slog.String("country", prefs.Country),
	)
	return prefs, nil
}
