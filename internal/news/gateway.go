// Package news is the gateway to the upstream news-search provider
// (a NewsAPI-compatible HTTP API).
//
// The gateway builds provider queries, sends the API key, and normalizes the
// provider's articles into model.Article. It never exposes provider error
// details to callers: transport and protocol failures become apperror.Upstream
// (the cause is logged), an empty result becomes apperror.UpstreamEmpty.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
)

const (
	DefaultBaseURL = "https://newsapi.org"
	DefaultTimeout = 10 * time.Second

	PlaceholderTitle       = "No Title Available"
	PlaceholderDescription = "No Description Available"
	PlaceholderImage       = "https://via.placeholder.com/300x200?text=No+Image"
)

// Gateway talks to the news provider. Safe for concurrent use.
type Gateway struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithBaseURL points the gateway at another provider host (tests use httptest).
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.http.Timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway creates a gateway that authenticates with apiKey.
func NewGateway(apiKey string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TopHeadlines returns general headlines for a country ("" means "us").
func (g *Gateway) TopHeadlines(ctx context.Context, country string) ([]model.Article, error) {
	if country == "" {
		country = model.DefaultCountry
	}
	q := url.Values{}
	q.Set("country", country)

	return g.fetch(ctx, "/v2/top-headlines", q, "Failed to fetch news", "No news articles found.")
}

// Personalized returns headlines shaped by the user's preferences.
//
// QUERY SHAPE:
// The provider rejects sources combined with category or country, so a
// non-empty source list is sent ALONE. Otherwise categories (comma-joined,
// when present) are sent with the country.
func (g *Gateway) Personalized(ctx context.Context, prefs *model.Preferences) ([]model.Article, error) {
	if prefs == nil {
		return nil, apperror.PreferencesRequired()
	}

	q := PersonalizedQuery(*prefs)
	return g.fetch(ctx, "/v2/top-headlines", q, "Failed to fetch personalized news", "No personalized news found.")
}

// PersonalizedQuery builds the top-headlines query parameters for prefs
// (without the API key).
func PersonalizedQuery(prefs model.Preferences) url.Values {
	q := url.Values{}
	if len(prefs.Sources) > 0 {
		q.Set("sources", strings.Join(prefs.Sources, ","))
		return q
	}
	if len(prefs.Categories) > 0 {
		q.Set("category", strings.Join(prefs.Categories, ","))
	}
	country := prefs.Country
	if country == "" {
		country = model.DefaultCountry
	}
	q.Set("country", country)
	return q
}

// Search runs a full-text query over all articles.
func (g *Gateway) Search(ctx context.Context, query string) ([]model.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "Search query is required.")
	}
	q := url.Values{}
	q.Set("q", query)

	return g.fetch(ctx, "/v2/everything", q, "Failed to search news", "No search results found.")
}

// providerResponse is the provider's envelope. On failure it carries
// status "error" plus a code and message instead of articles.
type providerResponse struct {
	Status   string            `json:"status"`
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Articles []providerArticle `json:"articles"`
}

type providerArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

func (g *Gateway) fetch(ctx context.Context, path string, q url.Values, failMsg, emptyMsg string) ([]model.Article, error) {
	q.Set("apiKey", g.apiKey)
	endpoint := g.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.Upstream(failMsg, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		g.logger.Error("news provider unreachable", "path", path, "error", err)
		return nil, apperror.Upstream(failMsg, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Upstream(failMsg, fmt.Errorf("read response body: %w", err))
	}

	var pr providerResponse
	decodeErr := json.Unmarshal(body, &pr)

	if resp.StatusCode != http.StatusOK || pr.Status == "error" {
		g.logger.Error("news provider returned an error",
			"path", path,
			"status", resp.StatusCode,
			"code", pr.Code,
			"message", pr.Message,
		)
		return nil, apperror.Upstream(failMsg,
			fmt.Errorf("provider status %d: %s %s", resp.StatusCode, pr.Code, pr.Message))
	}
	if decodeErr != nil {
		return nil, apperror.Upstream(failMsg, fmt.Errorf("decode response: %w", decodeErr))
	}

	articles := normalize(pr.Articles)
	g.logger.Debug("news provider call",
		"path", path,
		"articles", len(articles),
		"duration", time.Since(start),
	)
	if len(articles) == 0 {
		return nil, apperror.UpstreamEmpty(emptyMsg)
	}
	return articles, nil
}

// normalize maps provider articles to model.Article, filling placeholders.
// Articles without a URL are dropped: the URL is the article's identity.
func normalize(in []providerArticle) []model.Article {
	out := make([]model.Article, 0, len(in))
	for _, a := range in {
		if a.URL == "" {
			continue
		}
		article := model.Article{
			ArticleID:   a.URL,
			Title:       orDefault(a.Title, PlaceholderTitle),
			Description: orDefault(a.Description, PlaceholderDescription),
			URL:         a.URL,
			Image:       orDefault(a.URLToImage, PlaceholderImage),
			Source:      a.Source.Name,
			Author:      a.Author,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			article.PublishedAt = &t
		}
		out = append(out, article)
	}
	return out
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
