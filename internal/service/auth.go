// Package service: authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Local accounts: signup (hash + store) and login (verify + issue token)
//   - External identities: find-or-create the user for a provider profile
//   - Token validation for the gate, so handlers only import this package
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/repository"
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond (or redirect) in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignupInput is what a new local account needs.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail trims and lower-cases an address. Emails are stored and
// looked up in this form only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a local account. It does NOT issue a token: the user logs
// in separately.
//
// DUPLICATE EMAILS:
// The GetUserByEmail pre-check gives the common case a clean answer, but the
// store's unique email index is authoritative. Two concurrent signups can both
// pass the pre-check; the loser gets ErrConflict from CreateUser.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := NormalizeEmail(in.Email)

	switch {
	case username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case !strings.Contains(email, "@"):
		return nil, apperror.ValidationFailed("email", "email is not valid")
	case in.Password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user", "email "+email)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies local credentials and issues a session token.
//
// ERRORS:
//   - ErrValidation          → email or password missing
//   - ErrNotFound            → no account with that email
//   - ErrInvalidCredentials  → wrong password, or an account that only has
//     external identities (no password to compare against)
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: login: %w", err)
	}

	if user.PasswordHash == "" {
		s.logger.Info("password login for account without password", slog.String("userID", user.ID))
		return nil, apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("service/auth: login: %w", err)
	}

	return s.issue(user)
}

// LoginWithIdentity handles an OAuth callback after the provider exchange.
//
//  1. Reject profiles without an email (we key accounts by email).
//  2. Find the user by email; create one on first login.
//  3. If the user exists but this provider id is not linked yet, link it.
//  4. Issue a token exactly like Login does.
//
// WHAT THIS METHOD DOES NOT DO:
//   - It does NOT redirect or read HTTP requests (that's the handler's job)
//   - It does NOT talk to the provider (the handler passes the Profile in)
func (s *AuthService) LoginWithIdentity(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: profile must not be nil")
	}
	email := NormalizeEmail(profile.Email)
	if email == "" {
		return nil, apperror.MissingEmail(profile.Provider)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createFromProfile(ctx, profile, email)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("service/auth: looking up %s user: %w", profile.Provider, err)
	case user.ExternalID(profile.Provider) == "":
		if err := s.users.LinkIdentity(ctx, user.ID, profile.Provider, profile.ExternalID, profile.AvatarURL); err != nil {
			return nil, fmt.Errorf("service/auth: linking %s identity: %w", profile.Provider, err)
		}
		user.SetExternalID(profile.Provider, profile.ExternalID)
		if user.AvatarURL == "" {
			user.AvatarURL = profile.AvatarURL
		}
		s.logger.Info("identity linked",
			slog.String("userID", user.ID),
			slog.String("provider", profile.Provider),
		)
	}

	s.logger.Info("user authenticated via identity provider",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)
	return s.issue(user)
}

func (s *AuthService) createFromProfile(ctx context.Context, profile *auth.Profile, email string) (*model.User, error) {
	user := &model.User{
		Username:  UsernameFromDisplayName(profile.DisplayName, email),
		Email:     email,
		AvatarURL: profile.AvatarURL,
	}
	user.SetExternalID(profile.Provider, profile.ExternalID)

	if !user.HasAuthPath() {
		return nil, apperror.ValidationFailed("provider", "unknown identity provider "+profile.Provider)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating %s user: %w", profile.Provider, err)
	}

	s.logger.Info("user signed up via identity provider",
		slog.String("userID", user.ID),
		slog.String("provider", profile.Provider),
	)
	return user, nil
}

// UsernameFromDisplayName strips whitespace and lower-cases a provider
// display name ("Ada Lovelace" → "adalovelace"). Without a display name the
// local part of the email is used.
func UsernameFromDisplayName(displayName, email string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, displayName)
	if name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID (backs /api/auth/me).
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("no user in session")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken validates a JWT string and returns the userID it encodes.
// Thin delegation to TokenService.Validate so AuthService satisfies
// auth.Validator and can be handed to RequireAuth directly.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	return s.tokens.Validate(tokenStr)
}

// Validate implements auth.Validator.
func (s *AuthService) Validate(tokenStr string) (string, error) {
	return s.ValidateToken(tokenStr)
}
