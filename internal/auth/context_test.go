package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"streamfront/services/clients"
)

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{"bearer", "Bearer abc", "/", "abc"},
		{"bearer case", "bearer  abc ", "/", "abc"},
		{"query", "", "/?token=xyz", "xyz"},
		{"header wins", "Bearer abc", "/?token=xyz", "abc"},
		{"basic ignored", "Basic abc", "/", ""},
		{"none", "", "/", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if got := ExtractToken(req); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func trustProxies(t *testing.T) {
	t.Helper()
	TrustProxyHeaders(true)
	t.Cleanup(func() { TrustProxyHeaders(false) })
}

func TestClientIPIgnoresProxyHeadersByDefault(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4242"
	req.Header.Set("X-Real-IP", "172.16.0.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Errorf("expected remote addr host, got %q", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	trustProxies(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4242"
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Errorf("expected remote addr host, got %q", got)
	}

	req.Header.Set("X-Real-IP", "172.16.0.1")
	if got := ClientIP(req); got != "172.16.0.1" {
		t.Errorf("expected X-Real-IP, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Errorf("expected first forwarded address, got %q", got)
	}
}

func TestWithClient(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetClient(req); ok {
		t.Fatal("expected no client on bare request")
	}

	inst := &clients.Instance{}
	req = req.WithContext(WithClient(context.Background(), "tok", inst))
	got, ok := GetClient(req)
	if !ok || got != inst {
		t.Fatal("expected client from context")
	}
	if GetToken(req) != "tok" {
		t.Errorf("expected token 'tok', got %q", GetToken(req))
	}
}
