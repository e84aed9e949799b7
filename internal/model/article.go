package model

import "time"

// Article is a normalized news article as returned by the news endpoints.
// ArticleID is the article's canonical URL and is the join key for bookmarks.
type Article struct {
	ArticleID   string     `json:"articleId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Image       string     `json:"image"`
	Source      string     `json:"source,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}
