package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
	"github.com/sakif/newsroom/internal/service"
)

// stateCookie holds the OAuth state between the redirect and the callback.
const stateCookie = "oauth_state"

// Authenticator is what the auth endpoints need from the service layer.
// *service.AuthService satisfies it; tests pass a mock.
type Authenticator interface {
	Signup(ctx context.Context, in service.SignupInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	LoginWithIdentity(ctx context.Context, profile *auth.Profile) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthHandler serves local signup/login and the OAuth login flows.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup / HandleLogin → local accounts, JSON in and out
//   - HandleLogout               → stateless; the client drops its token
//   - HandleMe                   → profile of the bearer of the token
//   - HandleOAuthLogin           → redirect the browser to the provider
//   - HandleOAuthCallback        → exchange the code, issue a token, redirect to the frontend
//
// Tokens travel in the JSON body (login) or in the redirect URL (OAuth). The
// client sends them back as "Authorization: Bearer <token>".
type AuthHandler struct {
	auth        Authenticator
	providers   map[string]auth.IdentityProvider
	frontendURL string
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. Only the providers passed here get
// working OAuth routes; the others answer 404.
func NewAuthHandler(
	authenticator Authenticator,
	frontendURL string,
	logger *slog.Logger,
	providers ...auth.IdentityProvider,
) *AuthHandler {
	h := &AuthHandler{
		auth:        authenticator,
		providers:   make(map[string]auth.IdentityProvider, len(providers)),
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
	for _, p := range providers {
		h.providers[p.Name()] = p
	}
	return h
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful password login.
type LoginResponse struct {
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
	Message string      `json:"message"`
}

// HandleSignup creates a local account.
//
// HTTP: POST /api/auth/signup
// Body: {"username": "...", "email": "...", "password": "..."}
// Response: 201 {"message": "User created successfully"}
//
// Signup does not log the user in; the client calls /login next.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.auth.Signup(r.Context(), in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User created successfully"})
}

// HandleLogin verifies email + password and returns a session token.
//
// HTTP: POST /api/auth/login
// Body: {"email": "...", "password": "..."}
// Response: 200 {"token": "...", "user": {...}, "message": "Logged in successfully"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "Logged in successfully",
	})
}

// HandleLogout acknowledges a logout.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless and there is no revocation list: the token stays valid
// until it expires. Logging out means the client forgets it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleOAuthLogin redirects the user to the provider's authorization page.
//
// HTTP: GET /api/auth/{provider}
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// The callback verifies the provider echoed the same value back.
//
// The state cookie is:
//   - HttpOnly: JavaScript can't read it
//   - SameSite=Lax: sent on the provider's top-level redirect back to us
//   - 10-minute expiry
func (h *AuthHandler) HandleOAuthLogin(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.providers[provider]
		if !ok {
			writeError(w, h.logger, apperror.NotFound("identity provider", provider))
			return
		}

		state := xid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
	}
}

// HandleOAuthCallback completes the OAuth login flow.
//
// HTTP: GET /api/auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for the provider profile
//  3. Find or create the user (AuthService.LoginWithIdentity)
//  4. Redirect to {frontend}/dashboard?token=<jwt>
//
// Every failure redirects to {frontend}/login?error=<reason> instead of
// rendering an error page: the browser is mid-redirect and the frontend owns
// the UI.
func (h *AuthHandler) HandleOAuthCallback(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.providers[provider]
		if !ok {
			writeError(w, h.logger, apperror.NotFound("identity provider", provider))
			return
		}
		log := h.logger.With(slog.String("provider", provider))

		// --- Step 1: Validate CSRF state ---
		cookie, err := r.Cookie(stateCookie)
		query := r.URL.Query()
		if err != nil || cookie.Value == "" || query.Get("state") != cookie.Value {
			log.Warn("oauth callback: state mismatch")
			h.redirectLoginError(w, r, "invalid_state")
			return
		}

		// Single-use.
		http.SetCookie(w, &http.Cookie{
			Name:   stateCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})

		if errParam := query.Get("error"); errParam != "" {
			log.Info("oauth callback: user denied authorization", slog.String("error", errParam))
			h.redirectLoginError(w, r, "access_denied")
			return
		}

		code := query.Get("code")
		if code == "" {
			h.redirectLoginError(w, r, "missing_code")
			return
		}

		// --- Step 2: Exchange code for the provider profile ---
		profile, err := p.Exchange(r.Context(), code)
		if err != nil {
			log.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
			h.redirectLoginError(w, r, "authentication_failed")
			return
		}

		// --- Step 3: Find or create the user ---
		result, err := h.auth.LoginWithIdentity(r.Context(), profile)
		if err != nil {
			log.Error("oauth callback: login failed", slog.String("error", err.Error()))
			_, reason := StatusFor(err)
			h.redirectLoginError(w, r, reason)
			return
		}

		log.Info("user authenticated", slog.String("userID", result.User.ID))

		// --- Step 4: Hand the token to the frontend ---
		target := h.frontendURL + "/dashboard?" + url.Values{"token": {result.Token}}.Encode()
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func (h *AuthHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.frontendURL + "/login?" + url.Values{"error": {reason}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}
