// Package model defines the data structures used throughout the application.
package model

import "time"

// Identity provider names stored alongside linked external ids.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User represents a registered account.
//
// A user authenticates either with a local password (PasswordHash) or through
// one or more linked identity providers (GoogleID, GitHubID). The store keeps
// Email unique and each external id unique when present.
//
// WHY Preferences *Preferences?
// nil means the user never saved preferences, which is different from saving
// an empty set. Personalized news refuses the former and accepts the latter.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // never serialized
	GoogleID     string       `json:"googleId,omitempty"`
	GitHubID     string       `json:"githubId,omitempty"`
	AvatarURL    string       `json:"avatar,omitempty"`
	Preferences  *Preferences `json:"preferences,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// HasAuthPath reports whether the user can log in at all: a local password or
// at least one linked external identity.
func (u *User) HasAuthPath() bool {
	return u.PasswordHash != "" || u.GoogleID != "" || u.GitHubID != ""
}

// ExternalID returns the id linked for the given provider, or "".
func (u *User) ExternalID(provider string) string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderGitHub:
		return u.GitHubID
	default:
		return ""
	}
}

// SetExternalID links an external id for the given provider.
func (u *User) SetExternalID(provider, id string) {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = id
	case ProviderGitHub:
		u.GitHubID = id
	}
}
