package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is bcrypt minimum: makes tests fast
	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(repo, ts, ps, discardLogger())
}

func signup(t *testing.T, svc *AuthService, email, password string) *model.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), SignupInput{Username: "user", Email: email, Password: password})
	if err != nil {
		t.Fatalf("Signup(%q) error = %v", email, err)
	}
	return u
}

// =========================================================================
// Signup TESTS
// =========================================================================

func TestSignup_StoresHashNotPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user := signup(t, svc, "jane@example.com", "hunter22")

	stored := repo.users[user.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "hunter22" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", stored.PasswordHash)
	}
	if !stored.HasAuthPath() {
		t.Error("signed-up user must have an auth path")
	}
}

func TestSignup_NormalizesEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user := signup(t, svc, "  Jane@Example.COM ", "pw")

	if user.Email != "jane@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "jane@example.com")
	}
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	signup(t, svc, "dup@example.com", "pw")

	_, err := svc.Signup(context.Background(), SignupInput{Username: "x", Email: "DUP@example.com", Password: "other"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Signup() error = %v, want ErrConflict", err)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"missing username", SignupInput{Email: "a@b.c", Password: "pw"}, "username"},
		{"blank username", SignupInput{Username: "   ", Email: "a@b.c", Password: "pw"}, "username"},
		{"missing email", SignupInput{Username: "a", Password: "pw"}, "email"},
		{"email without at", SignupInput{Username: "a", Email: "nope", Password: "pw"}, "email"},
		{"missing password", SignupInput{Username: "a", Email: "a@b.c"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Signup() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestSignup_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("database is on fire")
	svc := newTestAuthService(t, repo)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "a", Email: "a@b.c", Password: "pw"})
	if err == nil || errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Signup() error = %v, want a wrapped repository error", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_IssuesTokenForUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	user := signup(t, svc, "jane@example.com", "hunter22")

	result, err := svc.Login(context.Background(), "JANE@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	userID, err := svc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != user.ID {
		t.Errorf("token subject = %q, want %q", userID, user.ID)
	}
	if result.User.ID != user.ID {
		t.Errorf("result.User.ID = %q, want %q", result.User.ID, user.ID)
	}
}

func TestLogin_Errors(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	signup(t, svc, "jane@example.com", "hunter22")
	repo.addUser(model.User{Username: "oauth", Email: "oauth@example.com", GoogleID: "g-1"})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "nobody@example.com", "x", apperror.ErrNotFound},
		{"wrong password", "jane@example.com", "wrong", apperror.ErrInvalidCredentials},
		{"oauth-only account", "oauth@example.com", "anything", apperror.ErrInvalidCredentials},
		{"missing email", "", "x", apperror.ErrValidation},
		{"missing password", "jane@example.com", "", apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =========================================================================
// LoginWithIdentity TESTS
// =========================================================================

func TestLoginWithIdentity_CreatesUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginWithIdentity(context.Background(), &auth.Profile{
		Provider:    model.ProviderGoogle,
		ExternalID:  "g-123",
		Email:       "Ada@Example.com",
		DisplayName: "Ada  Lovelace",
		AvatarURL:   "https://img.example.com/ada.png",
	})
	if err != nil {
		t.Fatalf("LoginWithIdentity() error = %v", err)
	}

	u := result.User
	if u.Username != "adalovelace" {
		t.Errorf("Username = %q, want %q", u.Username, "adalovelace")
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Email = %q, want %q", u.Email, "ada@example.com")
	}
	if u.GoogleID != "g-123" || u.AvatarURL == "" {
		t.Errorf("provider id/avatar not stored: %+v", u)
	}
	if u.PasswordHash != "" {
		t.Error("OAuth users must not get a password")
	}
	if len(repo.users) != 1 {
		t.Errorf("users stored = %d, want 1", len(repo.users))
	}

	if id, err := svc.ValidateToken(result.Token); err != nil || id != u.ID {
		t.Errorf("ValidateToken() = %q, %v; want %q", id, err, u.ID)
	}
}

func TestLoginWithIdentity_ExistingUserIsReusedAndLinked(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	local := signup(t, svc, "jane@example.com", "pw")

	profile := &auth.Profile{Provider: model.ProviderGitHub, ExternalID: "42", Email: "jane@example.com", DisplayName: "Jane"}
	result, err := svc.LoginWithIdentity(context.Background(), profile)
	if err != nil {
		t.Fatalf("LoginWithIdentity() error = %v", err)
	}

	if result.User.ID != local.ID {
		t.Errorf("User.ID = %q, want the existing %q", result.User.ID, local.ID)
	}
	if repo.users[local.ID].GitHubID != "42" {
		t.Errorf("GitHubID = %q, want it linked", repo.users[local.ID].GitHubID)
	}

	// Second login: already linked, nothing to do.
	if _, err := svc.LoginWithIdentity(context.Background(), profile); err != nil {
		t.Fatalf("second LoginWithIdentity() error = %v", err)
	}
	if repo.linkCalls != 1 {
		t.Errorf("LinkIdentity calls = %d, want 1", repo.linkCalls)
	}
	if len(repo.users) != 1 {
		t.Errorf("users stored = %d, want 1", len(repo.users))
	}
}

func TestLoginWithIdentity_MissingEmail(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.LoginWithIdentity(context.Background(), &auth.Profile{Provider: model.ProviderGitHub, ExternalID: "1"})
	if !errors.Is(err, apperror.ErrMissingEmail) {
		t.Fatalf("LoginWithIdentity() error = %v, want ErrMissingEmail", err)
	}
}

func TestLoginWithIdentity_NilProfile(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.LoginWithIdentity(context.Background(), nil); err == nil {
		t.Fatal("LoginWithIdentity() should return an error for a nil profile")
	}
}

func TestUsernameFromDisplayName(t *testing.T) {
	tests := []struct {
		display, email, want string
	}{
		{"Ada Lovelace", "ada@example.com", "adalovelace"},
		{" Grace\tHopper ", "g@example.com", "gracehopper"},
		{"", "octo.cat@example.com", "octo.cat"},
	}
	for _, tt := range tests {
		if got := UsernameFromDisplayName(tt.display, tt.email); got != tt.want {
			t.Errorf("UsernameFromDisplayName(%q, %q) = %q, want %q", tt.display, tt.email, got, tt.want)
		}
	}
}

// =========================================================================
// GetUserByID / ValidateToken TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	user := signup(t, svc, "me@example.com", "pw")

	found, err := svc.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "me@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "me@example.com")
	}

	if _, err := svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrUnauthorized", err)
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateToken(tok); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("ValidateToken(%q) error = %v, want ErrUnauthorized", tok, err)
		}
	}
}
