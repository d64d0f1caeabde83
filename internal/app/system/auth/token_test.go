package auth

import (
	"testing"
	"time"
)

const secret = "test-secret-key-for-unit-testing-2026-xx"

func TestNewTokenManager_ShortSecret(t *testing.T) {
	if _, err := NewTokenManager("short", time.Hour); err == nil {
		t.Error("expected an error for a short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager(secret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	tok, exp, err := m.Issue("mrodriguez")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry should be in the future, got %v", exp)
	}

	u, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if u != "mrodriguez" {
		t.Errorf("username: got %q", u)
	}
}

func TestParse_Expired(t *testing.T) {
	m, _ := NewTokenManager(secret, time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := m.Issue("mrodriguez")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(tok); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	a, _ := NewTokenManager(secret, time.Hour)
	b, _ := NewTokenManager(secret+"-other", time.Hour)

	tok, _, _ := a.Issue("mrodriguez")
	if _, err := b.Parse(tok); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	m, _ := NewTokenManager(secret, time.Hour)
	if _, err := m.Parse("abc.def.ghi"); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}
