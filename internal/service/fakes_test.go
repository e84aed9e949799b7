package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// They honor the same contracts as the real stores (unique email, unique
// (userId, articleId), nil preferences = never set) and expose error fields
// to simulate database failures.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by internal ID
	prefs  map[string]*model.Preferences
	nextID int

	createErr error
	getErr    error
	linkErr   error
	linkCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*model.User),
		prefs: make(map[string]*model.Preferences),
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email "+user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) LinkIdentity(_ context.Context, userID, provider, externalID, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return f.linkErr
	}
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.SetExternalID(provider, externalID)
	if u.AvatarURL == "" {
		u.AvatarURL = avatarURL
	}
	return nil
}

// fakeUserRepo doubles as the PreferenceRepository: preferences live with users.
func (f *fakeUserRepo) GetPreferences(_ context.Context, userID string) (*model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if _, ok := f.users[userID]; !ok {
		return nil, apperror.NotFound("user", userID)
	}
	p, ok := f.prefs[userID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeUserRepo) SetPreferences(_ context.Context, userID string, prefs model.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return apperror.NotFound("user", userID)
	}
	f.prefs[userID] = &prefs
	return nil
}

// addUser seeds a user directly, bypassing the service.
func (f *fakeUserRepo) addUser(u model.User) *model.User {
	if err := f.CreateUser(context.Background(), &u); err != nil {
		panic(err)
	}
	return &u
}

type fakeBookmarkRepo struct {
	mu        sync.Mutex
	bookmarks []model.Bookmark
	nextID    int

	// skipFind makes FindBookmark always report "not found", simulating a
	// concurrent add that passed the pre-check before the other insert landed.
	skipFind  bool
	createErr error
	listErr   error
}

func newFakeBookmarkRepo() *fakeBookmarkRepo {
	return &fakeBookmarkRepo{}
}

func (f *fakeBookmarkRepo) ListBookmarks(_ context.Context, userID string) ([]model.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Bookmark{}
	for _, b := range f.bookmarks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookmarkRepo) FindBookmark(_ context.Context, userID, articleID string) (*model.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.skipFind {
		for _, b := range f.bookmarks {
			if b.UserID == userID && b.ArticleID == articleID {
				copied := b
				return &copied, nil
			}
		}
	}
	return nil, apperror.NotFound("bookmark", articleID)
}

func (f *fakeBookmarkRepo) CreateBookmark(_ context.Context, bm *model.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	// unique (userId, articleId), like the real stores
	for _, b := range f.bookmarks {
		if b.UserID == bm.UserID && b.ArticleID == bm.ArticleID {
			return apperror.AlreadyExists("article already bookmarked")
		}
	}
	f.nextID++
	bm.ID = fmt.Sprintf("bm-%d", f.nextID)
	bm.CreatedAt = time.Now()
	bm.UpdatedAt = bm.CreatedAt
	f.bookmarks = append(f.bookmarks, *bm)
	return nil
}

func (f *fakeBookmarkRepo) DeleteBookmark(_ context.Context, userID, articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.bookmarks {
		if b.UserID == userID && b.ArticleID == articleID {
			f.bookmarks = append(f.bookmarks[:i], f.bookmarks[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("bookmark", articleID)
}

// fakeGateway records what it was asked and returns canned articles.
type fakeGateway struct {
	articles    []model.Article
	err         error
	lastCountry string
	lastPrefs   *model.Preferences
	lastQuery   string
}

func (g *fakeGateway) TopHeadlines(_ context.Context, country string) ([]model.Article, error) {
	g.lastCountry = country
	return g.articles, g.err
}

func (g *fakeGateway) Personalized(_ context.Context, prefs *model.Preferences) ([]model.Article, error) {
	g.lastPrefs = prefs
	if prefs == nil {
		return nil, apperror.PreferencesRequired()
	}
	return g.articles, g.err
}

func (g *fakeGateway) Search(_ context.Context, query string) ([]model.Article, error) {
	g.lastQuery = query
	return g.articles, g.err
}
