package auth

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"streamfront/services/clients"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyClient is the key for the resolved client instance
	ContextKeyClient ContextKey = "client"
	// ContextKeyToken is the key for the session token the client was resolved from
	ContextKeyToken ContextKey = "token"
)

// WithClient attaches a resolved client instance and its token to ctx.
func WithClient(ctx context.Context, token string, inst *clients.Instance) context.Context {
	ctx = context.WithValue(ctx, ContextKeyToken, token)
	return context.WithValue(ctx, ContextKeyClient, inst)
}

// GetClient retrieves the signed-in client instance from the request context.
func GetClient(r *http.Request) (*clients.Instance, bool) {
	inst, ok := r.Context().Value(ContextKeyClient).(*clients.Instance)
	return inst, ok && inst != nil
}

// GetToken retrieves the session token from the request context.
func GetToken(r *http.Request) string {
	if token, ok := r.Context().Value(ContextKeyToken).(string); ok {
		return token
	}
	return ""
}

// ExtractToken reads the session token from the request.
// Priority: Authorization header > ?token= query param
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	return strings.TrimSpace(r.URL.Query().Get("token"))
}

var trustProxyHeaders atomic.Bool

// TrustProxyHeaders controls whether ClientIP honours X-Forwarded-For and
// X-Real-IP. Enable it only when a reverse proxy sets those headers; otherwise
// any client can choose its own address.
func TrustProxyHeaders(enabled bool) {
	trustProxyHeaders.Store(enabled)
}

// ClientIP extracts the caller's address. Proxy headers are consulted only
// when TrustProxyHeaders is enabled.
func ClientIP(r *http.Request) string {
	if trustProxyHeaders.Load() {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
