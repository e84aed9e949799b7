// Package config loads the server configuration.
//
// LOAD ORDER (later wins):
//  1. Defaults()
//  2. an optional YAML file (path argument, or NEWSROOM_CONFIG)
//  3. environment variables prefixed with NEWSROOM_, e.g. NEWSROOM_JWT_SECRET
//  4. Validate()
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "NEWSROOM_"

// minSecretLen is the shortest JWT signing secret we accept.
const minSecretLen = 16

type Config struct {
	HTTP   HTTP  `yaml:"http" envPrefix:"HTTP_"`
	Store  Store `yaml:"store" envPrefix:"STORE_"`
	JWT    JWT   `yaml:"jwt" envPrefix:"JWT_"`
	News   News  `yaml:"news" envPrefix:"NEWS_"`
	Google OAuth `yaml:"google" envPrefix:"GOOGLE_"`
	GitHub OAuth `yaml:"github" envPrefix:"GITHUB_"`
	Log    Log   `yaml:"log" envPrefix:"LOG_"`
}

// HTTP contains listener and timeout parameters.
type HTTP struct {
	Port            string        `yaml:"port" env:"PORT"`
	FrontendURL     string        `yaml:"frontend_url" env:"FRONTEND_URL"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Store selects and configures the persistence backend.
type Store struct {
	Driver        string `yaml:"driver" env:"DRIVER"`
	SQLitePath    string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

// News configures the upstream news provider.
type News struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// OAuth holds one identity provider's client registration.
type OAuth struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	CallbackURL  string `yaml:"callback_url" env:"CALLBACK_URL"`
}

// Enabled reports whether the provider is configured at all.
func (o OAuth) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Defaults returns a Config with all default values set. The JWT secret has
// no default: it must come from the file or the environment.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			Port:            "8080",
			FrontendURL:     "http://localhost:5173",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: Store{
			Driver:        DriverSQLite,
			SQLitePath:    "./data/newsroom.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "newsroom",
		},
		JWT: JWT{
			TTL: time.Hour,
		},
		News: News{
			BaseURL: "https://newsapi.org",
			Timeout: 10 * time.Second,
		},
		Google: OAuth{CallbackURL: "http://localhost:8080/api/auth/google/callback"},
		GitHub: OAuth{CallbackURL: "http://localhost:8080/api/auth/github/callback"},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// NEWSROOM_CONFIG is consulted; if both are empty no file is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required fields are present and values are usable.
// All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < minSecretLen {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d characters", minSecretLen))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("jwt.ttl must be positive"))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port is required"))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_uri and store.mongo_database are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverMongo, c.Store.Driver))
	}

	for name, d := range map[string]time.Duration{
		"http.read_timeout":     c.HTTP.ReadTimeout,
		"http.write_timeout":    c.HTTP.WriteTimeout,
		"http.idle_timeout":     c.HTTP.IdleTimeout,
		"http.shutdown_timeout": c.HTTP.ShutdownTimeout,
		"news.timeout":          c.News.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
