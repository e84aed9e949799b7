package model

import "time"

// Bookmark is a saved article owned by exactly one user.
// (UserID, ArticleID) is unique; bookmarks are created and deleted, never edited.
type Bookmark struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ArticleID   string    `json:"articleId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
