package client

import (
	"context"
	"sync"

	"github.com/sakif/newsroom/internal/model"
)

// BookmarkRemote is the server side of a BookmarkSet. *Client satisfies it.
type BookmarkRemote interface {
	Bookmarks(ctx context.Context) ([]model.Bookmark, error)
	AddBookmark(ctx context.Context, article model.Article) ([]model.Bookmark, error)
	RemoveBookmark(ctx context.Context, articleID string) ([]model.Bookmark, error)
}

// BookmarkSet is the client's view of the user's bookmarks.
//
// OPTIMISTIC TOGGLE:
//  1. snapshot the current list
//  2. apply the change locally, so readers see it immediately
//  3. call the server
//  4. failure → restore the snapshot; success → adopt the server's list
//
// Toggles are serialized so a rollback never overwrites another toggle's
// result. Reads (Has, Items) never wait on the network.
type BookmarkSet struct {
	remote BookmarkRemote

	toggleMu sync.Mutex // one toggle in flight at a time

	mu    sync.RWMutex
	items []model.Bookmark
}

func NewBookmarkSet(remote BookmarkRemote) *BookmarkSet {
	return &BookmarkSet{remote: remote, items: []model.Bookmark{}}
}

// Refresh replaces the local list with the server's.
func (b *BookmarkSet) Refresh(ctx context.Context) error {
	list, err := b.remote.Bookmarks(ctx)
	if err != nil {
		return err
	}
	b.replace(list)
	return nil
}

// Has reports whether articleID is bookmarked in the local view.
func (b *BookmarkSet) Has(articleID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return indexOf(b.items, articleID) >= 0
}

// Items returns a copy of the local list.
func (b *BookmarkSet) Items() []model.Bookmark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Bookmark(nil), b.items...)
}

func (b *BookmarkSet) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Toggle bookmarks article if it isn't bookmarked, otherwise removes it.
// It reports the new local state (true = bookmarked). On error the set is
// exactly what it was before the call.
func (b *BookmarkSet) Toggle(ctx context.Context, article model.Article) (bool, error) {
	b.toggleMu.Lock()
	defer b.toggleMu.Unlock()

	b.mu.Lock()
	snapshot := append([]model.Bookmark(nil), b.items...)
	idx := indexOf(b.items, article.ArticleID)
	adding := idx < 0
	if adding {
		b.items = append(b.items, model.Bookmark{
			ArticleID:   article.ArticleID,
			Title:       article.Title,
			Description: article.Description,
			URL:         article.URL,
			Image:       article.Image,
		})
	} else {
		b.items = append(b.items[:idx:idx], b.items[idx+1:]...)
	}
	b.mu.Unlock()

	var (
		list []model.Bookmark
		err  error
	)
	if adding {
		list, err = b.remote.AddBookmark(ctx, article)
	} else {
		list, err = b.remote.RemoveBookmark(ctx, article.ArticleID)
	}

	if err != nil {
		b.replace(snapshot)
		return !adding, err
	}
	b.replace(list)
	return adding, nil
}

func (b *BookmarkSet) replace(list []model.Bookmark) {
	if list == nil {
		list = []model.Bookmark{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = list
}

func indexOf(items []model.Bookmark, articleID string) int {
	for i, bm := range items {
		if bm.ArticleID == articleID {
			return i
		}
	}
	return -1
}
