package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"streamfront/api"
	"streamfront/internal/auth"
	"streamfront/models"
	"streamfront/services/accounts"
	"streamfront/services/clients"
	"streamfront/services/identity"
)

type clientRegistry interface {
	New(userAgent, ipAddress string) *clients.Instance
	Bind(inst *clients.Instance)
	Release(ctx context.Context, token string) error
}

var _ clientRegistry = (*clients.Registry)(nil)

// AuthHandler handles sign-up, sign-in and sign-out.
type AuthHandler struct {
	registry clientRegistry
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(registry clientRegistry) *AuthHandler {
	return &AuthHandler{registry: registry}
}

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned after a successful signup or login.
type SessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
}

func sessionResponse(user models.UserSession) SessionResponse {
	return SessionResponse{
		Token:     user.Token,
		ExpiresAt: user.ExpiresAt.UTC().Format(time.RFC3339),
		AccountID: user.UID,
		Username:  user.Username,
	}
}

type signInFunc func(inst *clients.Instance, req CredentialsRequest) (models.UserSession, error)

// SignUp creates an account and returns a session for it.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, http.StatusCreated, func(inst *clients.Instance, req CredentialsRequest) (models.UserSession, error) {
		return inst.Auth.SignUp(r.Context(), req.Username, req.Password)
	})
}

// Login authenticates a user and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, http.StatusOK, func(inst *clients.Instance, req CredentialsRequest) (models.UserSession, error) {
		return inst.Auth.SignIn(r.Context(), req.Username, req.Password)
	})
}

func (h *AuthHandler) start(w http.ResponseWriter, r *http.Request, status int, signIn signInFunc) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst := h.registry.New(r.Header.Get("User-Agent"), auth.ClientIP(r))
	user, err := signIn(inst, req)
	if err != nil {
		inst.Close()
		writeAuthError(w, err)
		return
	}

	h.registry.Bind(inst)
	writeJSON(w, status, sessionResponse(user))
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, accounts.ErrUsernameExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, accounts.ErrUsernameRequired),
		errors.Is(err, accounts.ErrPasswordRequired),
		errors.Is(err, accounts.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[auth] sign-in failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
	}
}

// Logout signs the current client out. Unknown or expired tokens are
// treated as already logged out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.GetClient(r); !ok {
		if auth.ExtractToken(r) == "" {
			writeError(w, http.StatusBadRequest, "no session token")
			return
		}
		// Stale token: nothing live to release.
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
		return
	}

	if err := h.registry.Release(r.Context(), auth.GetToken(r)); err != nil && !errors.Is(err, clients.ErrUnknownToken) {
		log.Printf("[auth] logout failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to revoke session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	inst, ok := auth.GetClient(r)
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	user, ok := inst.Auth.CurrentUser()
	if !ok {
		api.WriteUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
