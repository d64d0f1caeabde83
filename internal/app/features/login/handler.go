// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"sync"

	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/auditlog"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/limits"
	"github.com/dalemusser/schoolhub/internal/app/system/passwords"
	"github.com/dalemusser/schoolhub/internal/app/system/ratelimit"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the /auth endpoints. Sessions, Tokens, Limiter and Audit
// are optional.
type Handler struct {
	Teachers auth.TeacherLookup
	Sessions *auth.SessionManager
	Tokens   *auth.TokenManager
	Limiter  *ratelimit.LoginLimiter
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a login Handler. A nil limiter disables throttling.
func NewHandler(teachers auth.TeacherLookup, sessions *auth.SessionManager, tokens *auth.TokenManager,
	limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Teachers: teachers,
		Sessions: sessions,
		Tokens:   tokens,
		Limiter:  limiter,
		Audit:    audit,
		Log:      logger,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the teacher's public profile plus the access token when
// token issuance is enabled.
type loginResponse struct {
	models.Profile
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

// readCredentials takes username and password from the query string, then
// a form body, then a JSON body.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	c := credentials{
		Username: strings.TrimSpace(query.Get(r, "username")),
		Password: r.URL.Query().Get("password"),
	}
	if c.Username != "" && c.Password != "" {
		return c, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginBody)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return c, apierr.Validation("body: invalid JSON")
		}
		if c.Username == "" {
			c.Username = strings.TrimSpace(body.Username)
		}
		if c.Password == "" {
			c.Password = body.Password
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return c, apierr.Validation("body: invalid form")
		}
		if c.Username == "" {
			c.Username = strings.TrimSpace(r.PostFormValue("username"))
		}
		if c.Password == "" {
			c.Password = r.PostFormValue("password")
		}
	}

	if c.Username == "" {
		return c, apierr.Validation("username: field required")
	}
	if c.Password == "" {
		return c, apierr.Validation("password: field required")
	}
	return c, nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is verified against when the username is unknown so both
// failure paths cost the same.
func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = passwords.Hash("schoolhub-timing-equalizer")
	})
	return dummy
}

// Login verifies a teacher's password and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil && !h.Limiter.Check(r, creds.Username) {
		h.Audit.LoginFailedRateLimit(r.Context(), r, creds.Username)
		apierr.Write(w, r, h.Log, apierr.ErrTooManyAttempts)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	t, err := h.Teachers.GetByUsername(ctx, creds.Username)
	if errors.Is(err, teacherstore.ErrNotFound) {
		passwords.Verify(dummyHash(), creds.Password)
		h.Audit.LoginFailedUserNotFound(r.Context(), r, creds.Username)
		apierr.Write(w, r, h.Log, apierr.ErrInvalidCredentials)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if !passwords.Verify(t.PasswordHash, creds.Password) {
		h.Audit.LoginFailedWrongPassword(r.Context(), r, creds.Username)
		apierr.Write(w, r, h.Log, apierr.ErrInvalidCredentials)
		return
	}

	profile := t.Profile()
	resp := loginResponse{Profile: profile}

	if h.Tokens != nil {
		tok, exp, err := h.Tokens.Issue(profile.Username)
		if err != nil {
			apierr.Write(w, r, h.Log, err)
			return
		}
		resp.AccessToken = tok
		resp.TokenType = "bearer"
		resp.ExpiresAt = exp.Unix()
	}
	if h.Sessions != nil {
		if err := h.Sessions.SignIn(w, r, profile.Username); err != nil {
			apierr.Write(w, r, h.Log, err)
			return
		}
	}
	if h.Limiter != nil {
		h.Limiter.ResetUser(creds.Username)
	}

	h.Audit.LoginSuccess(r.Context(), r, profile.Username)
	apierr.WriteJSON(w, http.StatusOK, resp)
}

// CheckSession returns the profile of the named teacher. It does not check
// any credential.
func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(query.Get(r, "username"))
	if username == "" {
		apierr.Write(w, r, h.Log, apierr.Validation("username: field required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "check session")
	defer cancel()

	t, err := h.Teachers.GetByUsername(ctx, username)
	if errors.Is(err, teacherstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.ErrTeacherNotFound)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, t.Profile())
}

// Logout clears the session cookie. It succeeds whether or not a session
// existed.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var username string
	if h.Sessions != nil {
		username, _ = h.Sessions.Username(r)
		if err := h.Sessions.SignOut(w, r); err != nil {
			h.Log.Error("logout: save session", zap.Error(err))
		}
	}
	h.Audit.Logout(r.Context(), r, username)
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
