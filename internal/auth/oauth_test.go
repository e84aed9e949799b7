package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeProviderServer serves a token endpoint plus the given profile routes.
func fakeProviderServer(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"bearer"}`))
	})
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-123" {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{
		"/v1/userinfo": map[string]any{
			"sub":            "g-123",
			"name":           "Ada Lovelace",
			"email":          "ada@example.com",
			"email_verified": true,
			"picture":        "https://img.example.com/ada.png",
		},
	})
	p := NewGoogleProvider(ProviderConfig{ClientID: "id", ClientSecret: "secret", CallbackURL: "http://localhost/cb"},
		WithEndpoint(testEndpoint(srv)), WithAPIBaseURL(srv.URL))

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "g-123", profile.ExternalID)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.DisplayName)
	assert.Equal(t, "https://img.example.com/ada.png", profile.AvatarURL)
}

func TestGoogleProvider_UnverifiedEmailIsDropped(t *testing.T) {
	tests := []struct {
		name string
		info map[string]any
	}{
		{
			name: "email_verified false",
			info: map[string]any{"sub": "g-999", "email": "victim@example.com", "email_verified": false},
		},
		{
			name: "email_verified missing",
			info: map[string]any{"sub": "g-999", "email": "victim@example.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeProviderServer(t, map[string]any{"/v1/userinfo": tt.info})
			p := NewGoogleProvider(ProviderConfig{ClientID: "id", ClientSecret: "secret"},
				WithEndpoint(testEndpoint(srv)), WithAPIBaseURL(srv.URL))

			profile, err := p.Exchange(context.Background(), "good-code")
			require.NoError(t, err)
			assert.Equal(t, "g-999", profile.ExternalID)
			assert.Empty(t, profile.Email, "an unverified address must not be used to match accounts")
		})
	}
}

func TestGoogleProvider_BadCode(t *testing.T) {
	srv := fakeProviderServer(t, nil)
	p := NewGoogleProvider(ProviderConfig{ClientID: "id", ClientSecret: "secret"},
		WithEndpoint(testEndpoint(srv)), WithAPIBaseURL(srv.URL))

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGitHubProvider_FallsBackToPrimaryEmail(t *testing.T) {
	srv := fakeProviderServer(t, map[string]any{
		"/user": map[string]any{
			"id":         42,
			"login":      "octocat",
			"name":       "",
			"email":      "",
			"avatar_url": "https://avatars.example.com/u/42",
		},
		"/user/emails": []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		},
	})
	p := NewGitHubProvider(ProviderConfig{ClientID: "id", ClientSecret: "secret"},
		WithEndpoint(testEndpoint(srv)), WithAPIBaseURL(srv.URL))

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "github", profile.Provider)
	assert.Equal(t, "42", profile.ExternalID)
	assert.Equal(t, "octo@example.com", profile.Email)
	assert.Equal(t, "octocat", profile.DisplayName, "login is used when the name is empty")
}

func TestOAuthProvider_AuthURLCarriesState(t *testing.T) {
	p := NewGoogleProvider(ProviderConfig{ClientID: "client-1", ClientSecret: "s", CallbackURL: "http://localhost:5000/api/auth/google/callback"})

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "http://localhost:5000/api/auth/google/callback", q.Get("redirect_uri"))
}

func TestProviderConfig_Enabled(t *testing.T) {
	assert.False(t, ProviderConfig{}.Enabled())
	assert.False(t, ProviderConfig{ClientID: "id"}.Enabled())
	assert.True(t, ProviderConfig{ClientID: "id", ClientSecret: "s"}.Enabled())
}
