package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	usernameKey = "username"
	issuedAtKey = "issued_at"
)

// SessionManager keeps the signed-in teacher in a signed cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// secure=true marks cookies Secure for HTTPS deployments; local development
// over http should pass false. Cookies are SameSite=Lax either way.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// Username returns the teacher stored in the request's session cookie.
func (m *SessionManager) Username(r *http.Request) (string, bool) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			m.log.Debug("ignoring undecodable session cookie", zap.Error(err))
		}
		return "", false
	}
	u, ok := sess.Values[usernameKey].(string)
	return u, ok && u != ""
}

// SignIn writes a session cookie naming username.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, username string) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values[usernameKey] = username
	sess.Values[issuedAtKey] = time.Now().UTC().Unix()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
