package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddleware_DisabledIsNoOp(t *testing.T) {
	called := false
	handler := Middleware(NewTokenService("", time.Hour), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	if !called {
		t.Fatal("expected handler to be invoked when auth is disabled")
	}
}

func TestMiddleware_BypassPath(t *testing.T) {
	called := false
	ts := NewTokenService("secret", time.Hour)
	handler := Middleware(ts, nil, "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !called {
		t.Fatal("expected bypassed path to skip auth")
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)
	handler := Middleware(ts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddleware_ValidToken(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)
	token, err := ts.Issue("caller-1", []string{"chat:write"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var gotSubject string
	handler := Middleware(ts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in request context")
		}
		gotSubject = id.Subject
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "caller-1" {
		t.Errorf("expected subject caller-1, got %q", gotSubject)
	}
}
