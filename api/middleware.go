package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"streamfront/internal/auth"
	"streamfront/services/clients"
	"streamfront/services/identity"
)

// SignInPath is where the browser client sends users who need a session.
const SignInPath = "/auth/signin"

type clientResolver interface {
	Resolve(ctx context.Context, token, userAgent, ipAddress string) (*clients.Instance, error)
}

// SessionMiddleware resolves the request's session token, when present, to
// its client instance and slides the session's expiry forward. Requests
// without a valid token continue anonymously.
func SessionMiddleware(registry clientResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := auth.ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			inst, err := registry.Resolve(r.Context(), token, r.Header.Get("User-Agent"), auth.ClientIP(r))
			if err != nil {
				if !errors.Is(err, identity.ErrSessionInvalid) {
					log.Printf("[auth] resolve session failed: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if _, err := inst.Auth.Refresh(r.Context()); err != nil {
				if !errors.Is(err, identity.ErrSessionInvalid) {
					log.Printf("[auth] refresh session failed: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClient(r.Context(), token, inst)))
		})
	}
}

// RequireSession rejects requests that SessionMiddleware could not attach a
// client to. The 401 body tells the browser where to sign in.
func RequireSession() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := auth.GetClient(r); !ok {
				WriteUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteUnauthorized writes the standard sign-in-required response.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":    "authentication required",
		"redirect": SignInPath,
	})
}
