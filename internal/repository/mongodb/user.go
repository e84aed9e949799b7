package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

// userDoc is the stored shape of a user. Optional fields use omitempty so the
// sparse unique indexes skip documents that do not carry them.
type userDoc struct {
	ID           bson.ObjectID   `bson:"_id"`
	Username     string          `bson:"username"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"passwordHash,omitempty"`
	GoogleID     string          `bson:"googleId,omitempty"`
	GitHubID     string          `bson:"githubId,omitempty"`
	AvatarURL    string          `bson:"avatar,omitempty"`
	Preferences  *preferencesDoc `bson:"preferences,omitempty"`
	CreatedAt    time.Time       `bson:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt"`
}

func (d *userDoc) toModel() *model.User {
	u := &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		GitHubID:     d.GitHubID,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Preferences != nil {
		p := d.Preferences.toModel()
		u.Preferences = &p
	}
	return u
}

// UserStore is the users collection.
type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) CreateUser(ctx context.Context, user *model.User) error {
	// Mongo stores millisecond precision; truncate so the caller's copy
	// matches what a later read returns.
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		GoogleID:     user.GoogleID,
		GitHubID:     user.GitHubID,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Preferences != nil {
		p := fromPreferences(*user.Preferences)
		doc.Preferences = &p
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return conflictFor(err, user)
		}
		return fmt.Errorf("mongodb: inserting user (email=%s): %w", user.Email, err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// conflictFor names the colliding field from the index name in the
// duplicate key message ("... index: googleId_1 dup key ...").
func conflictFor(err error, user *model.User) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "googleId_1"):
		return apperror.Conflict("user", "google id "+user.GoogleID)
	case strings.Contains(msg, "githubId_1"):
		return apperror.Conflict("user", "github id "+user.GitHubID)
	default:
		return apperror.Conflict("user", "email "+user.Email)
	}
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}
	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.findOne(ctx, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: "user not found",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("mongodb: getting user by email: %w", err)
	}
	return user, nil
}

func (s *UserStore) LinkIdentity(ctx context.Context, userID, provider, externalID, avatarURL string) error {
	var field string
	switch provider {
	case model.ProviderGoogle:
		field = "googleId"
	case model.ProviderGitHub:
		field = "githubId"
	default:
		return apperror.ValidationFailed("provider", "unknown identity provider "+provider)
	}

	oid, ok := objectID(userID)
	if !ok {
		return apperror.NotFound("user", userID)
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{field: externalID, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", provider+" id "+externalID)
		}
		return fmt.Errorf("mongodb: linking %s identity to user %s: %w", provider, userID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", userID)
	}

	if avatarURL == "" {
		return nil
	}
	// Only fill the avatar when the user has none.
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "$or": bson.A{
			bson.M{"avatar": bson.M{"$exists": false}},
			bson.M{"avatar": ""},
		}},
		bson.M{"$set": bson.M{"avatar": avatarURL}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: setting avatar for user %s: %w", userID, err)
	}
	return nil
}
