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

var _ repository.BookmarkRepository = (*BookmarkStore)(nil)

type bookmarkDoc struct {
	ID          bson.ObjectID `bson:"_id"`
	UserID      string        `bson:"userId"`
	ArticleID   string        `bson:"articleId"`
	Title       string        `bson:"title"`
	Description string        `bson:"description,omitempty"`
	URL         string        `bson:"url"`
	Image       string        `bson:"image,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d bookmarkDoc) toModel() model.Bookmark {
	return model.Bookmark{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		ArticleID:   d.ArticleID,
		Title:       d.Title,
		Description: d.Description,
		URL:         d.URL,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// BookmarkStore is the bookmarks collection.
type BookmarkStore struct {
	coll *mongo.Collection
}

// ListBookmarks sorts by _id: ObjectIDs start with a timestamp followed by a
// per-process counter, so ascending _id is insertion order.
func (s *BookmarkStore) ListBookmarks(ctx context.Context, userID string) ([]model.Bookmark, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing bookmarks for %s: %w", userID, err)
	}
	defer cur.Close(ctx)

	bookmarks := []model.Bookmark{}
	for cur.Next(ctx) {
		var doc bookmarkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: decoding bookmark: %w", err)
		}
		bookmarks = append(bookmarks, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: iterating bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *BookmarkStore) FindBookmark(ctx context.Context, userID, articleID string) (*model.Bookmark, error) {
	var doc bookmarkDoc
	err := s.coll.FindOne(ctx, bson.M{"userId": userID, "articleId": articleID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("bookmark", articleID)
		}
		return nil, fmt.Errorf("mongodb: finding bookmark: %w", err)
	}
	bm := doc.toModel()
	return &bm, nil
}

func (s *BookmarkStore) CreateBookmark(ctx context.Context, bm *model.Bookmark) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := bookmarkDoc{
		ID:          bson.NewObjectID(),
		UserID:      bm.UserID,
		ArticleID:   bm.ArticleID,
		Title:       bm.Title,
		Description: bm.Description,
		URL:         bm.URL,
		Image:       bm.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.AlreadyExists("article already bookmarked")
		}
		return fmt.Errorf("mongodb: inserting bookmark: %w", err)
	}

	bm.ID = doc.ID.Hex()
	bm.CreatedAt = now
	bm.UpdatedAt = now
	return nil
}

func (s *BookmarkStore) DeleteBookmark(ctx context.Context, userID, articleID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"userId": userID, "articleId": articleID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting bookmark: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("bookmark", articleID)
	}
	return nil
}
