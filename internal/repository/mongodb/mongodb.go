// Package mongodb implements the repository interfaces on MongoDB.
//
// Layout: a "users" collection with preferences embedded as a subdocument,
// and a "bookmarks" collection keyed by (userId, articleId). Uniqueness is
// enforced by indexes created in New, so duplicate inserts surface as
// duplicate-key errors that we translate into apperror kinds.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/newsroom/internal/repository"
)

const (
	usersCollection     = "users"
	bookmarksCollection = "bookmarks"
)

var _ repository.Store = (*Store)(nil)

// Store holds the client and the collections used by the repositories.
type Store struct {
	client    *mongo.Client
	users     *mongo.Collection
	bookmarks *mongo.Collection
}

// New connects to uri, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		users:     db.Collection(usersCollection),
		bookmarks: db.Collection(bookmarksCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes is idempotent: creating an index that already exists with the
// same definition is a no-op on the server.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// sparse: users without a linked Google account have no googleId
			// field at all and must not collide with each other.
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "githubId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating user indexes: %w", err)
	}

	_, err = s.bookmarks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "articleId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating bookmark index: %w", err)
	}
	return nil
}

func (s *Store) Users() repository.UserRepository { return &UserStore{coll: s.users} }

func (s *Store) Preferences() repository.PreferenceRepository {
	return &PreferenceStore{coll: s.users}
}

func (s *Store) Bookmarks() repository.BookmarkRepository {
	return &BookmarkStore{coll: s.bookmarks}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// objectID parses a hex id. ok is false for ids this store could never have issued.
func objectID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	return oid, err == nil
}
