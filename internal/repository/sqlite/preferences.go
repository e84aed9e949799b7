package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

var _ repository.PreferenceRepository = (*PreferenceDB)(nil)

// PreferenceDB is the preferences table. Categories and sources are stored as
// JSON arrays in TEXT columns.
type PreferenceDB struct {
	conn *sql.DB
}

// GetPreferences LEFT JOINs from users so a single query tells apart
// "no such user" (no row) from "user without preferences" (NULL columns).
func (p *PreferenceDB) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	var categories, sources, country sql.NullString

	err := p.conn.QueryRowContext(ctx,
		`SELECT p.categories, p.sources, p.country
		 FROM users u LEFT JOIN preferences p ON p.user_id = u.id
		 WHERE u.id = ?`,
		userID,
	).Scan(&categories, &sources, &country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("sqlite: getting preferences for %s: %w", userID, err)
	}

	if !country.Valid {
		return nil, nil // never set
	}

	prefs := model.Preferences{Country: country.String}
	if err := json.Unmarshal([]byte(categories.String), &prefs.Categories); err != nil {
		return nil, fmt.Errorf("sqlite: decoding categories for %s: %w", userID, err)
	}
	if err := json.Unmarshal([]byte(sources.String), &prefs.Sources); err != nil {
		return nil, fmt.Errorf("sqlite: decoding sources for %s: %w", userID, err)
	}
	normalized := prefs.Normalized()
	return &normalized, nil
}

// SetPreferences upserts the user's whole preference set.
func (p *PreferenceDB) SetPreferences(ctx context.Context, userID string, prefs model.Preferences) error {
	prefs = prefs.Normalized()

	categories, err := json.Marshal(prefs.Categories)
	if err != nil {
		return fmt.Errorf("sqlite: encoding categories: %w", err)
	}
	sources, err := json.Marshal(prefs.Sources)
	if err != nil {
		return fmt.Errorf("sqlite: encoding sources: %w", err)
	}

	// The INSERT ... SELECT only produces a row when the user exists, so a
	// missing user shows up as zero rows affected instead of an FK error.
	res, err := p.conn.ExecContext(ctx,
		`INSERT INTO preferences (user_id, categories, sources, country, updated_at)
		 SELECT id, ?, ?, ?, ? FROM users WHERE id = ?
		 ON CONFLICT(user_id) DO UPDATE SET
		     categories = excluded.categories,
		     sources    = excluded.sources,
		     country    = excluded.country,
		     updated_at = excluded.updated_at`,
		string(categories), string(sources), prefs.Country, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving preferences for %s: %w", userID, err)
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
