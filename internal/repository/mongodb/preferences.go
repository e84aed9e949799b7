package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

var _ repository.PreferenceRepository = (*PreferenceStore)(nil)

type preferencesDoc struct {
	Categories []string `bson:"categories"`
	Sources    []string `bson:"sources"`
	Country    string   `bson:"country"`
}

func fromPreferences(p model.Preferences) preferencesDoc {
	p = p.Normalized()
	return preferencesDoc{Categories: p.Categories, Sources: p.Sources, Country: p.Country}
}

func (d preferencesDoc) toModel() model.Preferences {
	return model.Preferences{Categories: d.Categories, Sources: d.Sources, Country: d.Country}.Normalized()
}

// PreferenceStore reads and writes the preferences subdocument of a user.
type PreferenceStore struct {
	coll *mongo.Collection
}

func (s *PreferenceStore) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	oid, ok := objectID(userID)
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}

	var doc struct {
		Preferences *preferencesDoc `bson:"preferences"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"preferences": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("mongodb: getting preferences for %s: %w", userID, err)
	}

	if doc.Preferences == nil {
		return nil, nil
	}
	p := doc.Preferences.toModel()
	return &p, nil
}

func (s *PreferenceStore) SetPreferences(ctx context.Context, userID string, prefs model.Preferences) error {
	oid, ok := objectID(userID)
	if !ok {
		return apperror.NotFound("user", userID)
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"preferences": fromPreferences(prefs),
			"updatedAt":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: saving preferences for %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}
