package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/openlecture/internal/auth"
	"github.com/sakif/openlecture/internal/authz"
	"github.com/sakif/openlecture/internal/service"
)

const stateCookie = "oauth_state"

// GitHubLogin is the part of auth.GitHubProvider the handler needs.
type GitHubLogin interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubProfile, error)
}

// AuthHandler serves registration, password login and the optional GitHub
// login flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create a Student account
//   - HandleLogin          → trade email + password for a bearer token
//   - HandleGitHubLogin    → redirect the browser to GitHub
//   - HandleGitHubCallback → trade GitHub's code for a bearer token
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubLogin // nil when GitHub login is not configured
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, github GitHubLogin, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, github: github, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type registerResponse struct {
	UserID   string     `json:"userId"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
	Role     authz.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string     `json:"token"`
	UserID   string     `json:"userId"`
	FullName string     `json:"fullName"`
	Role     authz.Role `json:"role"`
}

func loginBody(res *service.AuthResult) loginResponse {
	return loginResponse{
		Token:    res.Token,
		UserID:   res.User.ID,
		FullName: res.User.FullName,
		Role:     res.User.Role,
	}
}

// HandleRegister creates a Student account.
//
// HTTP: POST /auth/register
// BODY: {"email": "...", "password": "...", "fullName": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	u, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	})
}

// HandleLogin verifies a password and returns a bearer token.
//
// HTTP: POST /auth/login
// BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginBody(res))
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the
// redirect. The callback only proceeds when both come back equal.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile with a verified email
//  3. Find or create the user holding that email
//  4. Return a bearer token, same body as password login
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid OAuth state"})
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "GitHub authorization was denied"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "missing OAuth code"})
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "bad_gateway", Message: "GitHub authentication failed"})
		return
	}

	res, err := h.auth.LoginWithGitHub(r.Context(), profile)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user authenticated via GitHub",
		slog.String("userID", res.User.ID),
		slog.String("login", profile.Login),
	)
	writeJSON(w, http.StatusOK, loginBody(res))
}
