package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(secret, "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected an error for an empty key")
	}
}

func TestSession_SignInThenRead(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/auth/login", nil), "principal"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		if !c.HttpOnly {
			t.Error("session cookie should be HttpOnly")
		}
		req.AddCookie(c)
	}

	u, ok := sm.Username(req)
	if !ok || u != "principal" {
		t.Errorf("Username: got %q/%v, want principal/true", u, ok)
	}
}

func TestSession_SecureCookieStaysLax(t *testing.T) {
	sm, err := NewSessionManager(secret, "test-session", "", time.Hour, true, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/auth/login", nil), "principal"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	for _, c := range cookies {
		if !c.Secure {
			t.Error("cookie should be Secure")
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("SameSite: got %v, want Lax", c.SameSite)
		}
	}
}

func TestSession_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	if _, ok := sm.Username(httptest.NewRequest("GET", "/", nil)); ok {
		t.Error("expected no user without a cookie")
	}
}

func TestSession_TamperedCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "test-session=forged-value")
	if _, ok := sm.Username(req); ok {
		t.Error("expected a forged cookie to be ignored")
	}
}

func TestSession_SignOutExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/auth/logout", nil)); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected an expiring cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("MaxAge: got %d, want < 0", cookies[0].MaxAge)
	}
}
