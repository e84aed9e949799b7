package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("NEWSROOM_CONFIG", "")
	t.Setenv("NEWSROOM_JWT_SECRET", testSecret)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "http://localhost:5173", cfg.HTTP.FrontendURL)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "https://newsapi.org", cfg.News.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.News.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Google.Enabled())
	assert.False(t, cfg.GitHub.Enabled())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
http:
  port: "9090"
  frontend_url: https://news.example.com
store:
  driver: mongo
  mongo_uri: mongodb://db:27017
  mongo_database: prod
jwt:
  secret: file-secret-long-enough
  ttl: 30m
news:
  api_key: file-key
  timeout: 5s
google:
  client_id: gid
  client_secret: gsecret
log:
  format: json
`)
	t.Setenv("NEWSROOM_NEWS_API_KEY", "env-key")
	t.Setenv("NEWSROOM_HTTP_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.HTTP.Port, "environment overrides the file")
	assert.Equal(t, "https://news.example.com", cfg.HTTP.FrontendURL)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "prod", cfg.Store.MongoDatabase)
	assert.Equal(t, "file-secret-long-enough", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, "env-key", cfg.News.APIKey)
	assert.Equal(t, 5*time.Second, cfg.News.Timeout)
	assert.True(t, cfg.Google.Enabled())
	assert.Equal(t, "http://localhost:8080/api/auth/google/callback", cfg.Google.CallbackURL, "unset fields keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigPathFromEnvironment(t *testing.T) {
	path := writeFile(t, "jwt:\n  secret: from-env-path-file\n")
	t.Setenv("NEWSROOM_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env-path-file", cfg.JWT.Secret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "http: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("bad duration in environment", func(t *testing.T) {
		t.Setenv("NEWSROOM_JWT_SECRET", testSecret)
		t.Setenv("NEWSROOM_JWT_TTL", "forever")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.JWT.Secret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "jwt.secret"},
		{"zero ttl", func(c *Config) { c.JWT.TTL = 0 }, "jwt.ttl"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"sqlite without path", func(c *Config) { c.Store.SQLitePath = "" }, "store.sqlite_path"},
		{"mongo without uri", func(c *Config) { c.Store.Driver = DriverMongo; c.Store.MongoURI = "" }, "store.mongo_uri"},
		{"negative timeout", func(c *Config) { c.News.Timeout = -time.Second }, "news.timeout"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty port", func(c *Config) { c.HTTP.Port = "" }, "http.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOAuthEnabled(t *testing.T) {
	assert.False(t, OAuth{ClientID: "id"}.Enabled())
	assert.False(t, OAuth{ClientSecret: "s"}.Enabled())
	assert.True(t, OAuth{ClientID: "id", ClientSecret: "s"}.Enabled())
}
