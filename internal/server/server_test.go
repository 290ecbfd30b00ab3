package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"issuesync/internal/api"
	"issuesync/internal/auth"
)

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7433")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7433")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7433")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestWithAuth(t *testing.T) {
	serve := func(srv *Server, path, header string) (*httptest.ResponseRecorder, bool) {
		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusNoContent)
		})
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		srv.withAuth(next).ServeHTTP(w, req)
		return w, nextCalled
	}

	t.Run("open when no token configured", func(t *testing.T) {
		w, called := serve(&Server{}, "/v1/tasks", "")
		if w.Code != http.StatusNoContent || !called {
			t.Fatalf("expected pass-through, got %d", w.Code)
		}
	})

	t.Run("denies missing auth", func(t *testing.T) {
		w, called := serve(&Server{apiToken: "token"}, "/v1/tasks", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if errResp.ErrorCode != ErrCodeUnauthorized {
			t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, errResp.ErrorCode)
		}
		if called {
			t.Fatal("next handler should not be called")
		}
	})

	t.Run("allows env token", func(t *testing.T) {
		w, called := serve(&Server{apiToken: "token"}, "/v1/tasks", "Bearer token")
		if w.Code != http.StatusNoContent || !called {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})

	t.Run("allows hashed token", func(t *testing.T) {
		hash, err := auth.HashToken("long-enough-token-1")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		srv := &Server{apiTokenHash: hash}
		if w, _ := serve(srv, "/v1/tasks", "Bearer long-enough-token-1"); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if w, _ := serve(srv, "/v1/tasks", "Bearer wrong-token-000000"); w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("health is always open", func(t *testing.T) {
		w, called := serve(&Server{apiToken: "token"}, "/health", "")
		if w.Code != http.StatusNoContent || !called {
			t.Fatalf("expected health to bypass auth, got %d", w.Code)
		}
	})

	t.Run("repeated failures are throttled", func(t *testing.T) {
		srv := &Server{apiToken: "token", authLimiter: newAuthLimiter(2, authWindow, authBlockFor)}
		for i := 0; i < 2; i++ {
			if w, _ := serve(srv, "/v1/tasks", "Bearer bad"); w.Code != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected 401, got %d", i, w.Code)
			}
		}
		w, called := serve(srv, "/v1/tasks", "Bearer token")
		if w.Code != http.StatusTooManyRequests || called {
			t.Fatalf("expected 429 while blocked, got %d", w.Code)
		}
	})
}
