// Package client is the application side of the newsroom API: a typed HTTP
// client plus the state a front end keeps between calls.
//
//	Client      → REST calls, bearer token from the Session
//	Session     → token + profile, hydrated from a SessionStore, expiry-checked
//	Page[T]     → Idle → Loading → Success | Error for one screen's data
//	BookmarkSet → optimistic bookmark toggling with rollback
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/newsroom/internal/model"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second
)

// APIError is a non-2xx answer from the server, decoded from its
// {"error", "message"} body.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Kind, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server. The session
// has already been cleared when this is true.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client talks to the newsroom API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client. session may be nil for anonymous use; calls to
// protected endpoints then fail with 401.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session this client reads its token from.
func (c *Client) Session() *Session {
	return c.session
}

// =========================================================================
// AUTH
// =========================================================================

// Signup creates an account. It does not log in.
func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/signup", body, nil)
}

// Login authenticates and begins the session.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	if c.session != nil {
		if err := c.session.Begin(out.Token, out.User); err != nil {
			return nil, fmt.Errorf("client: saving session: %w", err)
		}
	}
	return out.User, nil
}

// LoginWithToken begins a session from a token handed over by the OAuth
// redirect (/dashboard?token=...), then fetches the profile.
func (c *Client) LoginWithToken(ctx context.Context, token string) (*model.User, error) {
	if c.session == nil {
		return nil, errors.New("client: no session to log into")
	}
	if err := c.session.Begin(token, nil); err != nil {
		return nil, fmt.Errorf("client: saving session: %w", err)
	}
	user, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.session.Begin(token, user); err != nil {
		return nil, fmt.Errorf("client: saving session: %w", err)
	}
	return user, nil
}

// Logout tells the server and always clears the local session, even if the
// server call fails: tokens are stateless, forgetting it is what matters.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if c.session != nil {
		if endErr := c.session.End(); endErr != nil {
			return errors.Join(err, endErr)
		}
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// =========================================================================
// NEWS
// =========================================================================

type articlesBody struct {
	Articles []model.Article `json:"articles"`
}

// Headlines fetches top headlines; country "" lets the server default it.
func (c *Client) Headlines(ctx context.Context, country string) ([]model.Article, error) {
	path := "/api/news"
	if country != "" {
		path += "?" + url.Values{"country": {country}}.Encode()
	}
	var out articlesBody
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

func (c *Client) Personalized(ctx context.Context) ([]model.Article, error) {
	var out articlesBody
	if err := c.do(ctx, http.MethodGet, "/api/news/personalized", nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]model.Article, error) {
	var out articlesBody
	path := "/api/news/search?" + url.Values{"query": {query}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}

// =========================================================================
// PREFERENCES
// =========================================================================

type preferencesBody struct {
	Preferences model.Preferences `json:"preferences"`
}

func (c *Client) Preferences(ctx context.Context) (model.Preferences, error) {
	var out preferencesBody
	if err := c.do(ctx, http.MethodGet, "/api/user/preferences", nil, &out); err != nil {
		return model.Preferences{}, err
	}
	return out.Preferences, nil
}

// UpdatePreferences replaces the stored set and returns what was persisted.
func (c *Client) UpdatePreferences(ctx context.Context, prefs model.Preferences) (model.Preferences, error) {
	var out preferencesBody
	if err := c.do(ctx, http.MethodPut, "/api/user/preferences", prefs, &out); err != nil {
		return model.Preferences{}, err
	}
	return out.Preferences, nil
}

// =========================================================================
// BOOKMARKS
// =========================================================================

type bookmarksBody struct {
	BookmarkedArticles []model.Bookmark `json:"bookmarkedArticles"`
}

func (c *Client) Bookmarks(ctx context.Context) ([]model.Bookmark, error) {
	var out bookmarksBody
	if err := c.do(ctx, http.MethodGet, "/api/bookmark", nil, &out); err != nil {
		return nil, err
	}
	return out.BookmarkedArticles, nil
}

// AddBookmark saves article and returns the server's full list.
func (c *Client) AddBookmark(ctx context.Context, article model.Article) ([]model.Bookmark, error) {
	body := map[string]string{
		"articleId":   article.ArticleID,
		"title":       article.Title,
		"description": article.Description,
		"url":         article.URL,
		"image":       article.Image,
	}
	var out bookmarksBody
	if err := c.do(ctx, http.MethodPost, "/api/bookmark", body, &out); err != nil {
		return nil, err
	}
	return out.BookmarkedArticles, nil
}

// RemoveBookmark deletes a bookmark. Article ids are URLs, so the id is
// percent-encoded into a single path segment.
func (c *Client) RemoveBookmark(ctx context.Context, articleID string) ([]model.Bookmark, error) {
	var out bookmarksBody
	if err := c.do(ctx, http.MethodDelete, "/api/bookmark/"+url.PathEscape(articleID), nil, &out); err != nil {
		return nil, err
	}
	return out.BookmarkedArticles, nil
}

// =========================================================================
// TRANSPORT
// =========================================================================

// do sends a JSON request and decodes a JSON response into out (if non-nil).
//
// Protected calls carry "Authorization: Bearer <token>". A 401 means the token
// is missing, invalid or expired: the session is cleared so the UI falls back
// to the login screen. There is no automatic retry.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Kind = eb.Error
			apiErr.Message = eb.Message
		}
		if apiErr.Kind == "" {
			apiErr.Kind = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		}
		if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
			_ = c.session.End()
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}
	return nil
}
