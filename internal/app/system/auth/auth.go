// Package auth resolves which teacher is making a request and gates the
// routes that change data.
//
// Identity evidence is checked in this order:
//  1. Authorization: Bearer <access token> issued by /auth/login
//  2. the signed session cookie set by /auth/login
//  3. legacy evidence: ?username=... or the X-Username header, only when the
//     Gate allows it
//
// A request with no evidence is Unauthenticated. Evidence that is invalid, or
// names a teacher that does not exist, is an InvalidUser. The gate never
// checks passwords.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	teacherstore "github.com/dalemusser/schoolhub/internal/app/store/teachers"
	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// UsernameHeader is the legacy identity header.
const UsernameHeader = "X-Username"

// TeacherLookup loads a teacher by username. *teacherstore.Store satisfies it.
type TeacherLookup interface {
	GetByUsername(ctx context.Context, username string) (models.Teacher, error)
}

type ctxKey string

const currentTeacherKey ctxKey = "currentTeacher"

// CurrentTeacher returns the teacher placed in the context by Gate.Require.
func CurrentTeacher(r *http.Request) (models.Teacher, bool) {
	t, ok := r.Context().Value(currentTeacherKey).(models.Teacher)
	return t, ok
}

// WithTeacher returns r carrying t as the current teacher.
func WithTeacher(r *http.Request, t models.Teacher) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentTeacherKey, t))
}

// Gate authenticates requests. Sessions and Tokens may be nil, in which case
// that kind of evidence is ignored.
type Gate struct {
	Teachers            TeacherLookup
	Sessions            *SessionManager
	Tokens              *TokenManager
	AllowLegacyUsername bool
	Log                 *zap.Logger
}

// evidence returns the username claimed by the request. found is false when
// the request carries no evidence at all.
func (g *Gate) evidence(r *http.Request) (username string, found bool, err error) {
	if h := r.Header.Get("Authorization"); h != "" && g.Tokens != nil {
		scheme, raw, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(raw) != "" {
			u, err := g.Tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				return "", true, err
			}
			return u, true, nil
		}
	}

	if g.Sessions != nil {
		if u, ok := g.Sessions.Username(r); ok {
			return u, true, nil
		}
	}

	if g.AllowLegacyUsername {
		if u := query.Get(r, "username"); u != "" {
			return u, true, nil
		}
		if u := strings.TrimSpace(r.Header.Get(UsernameHeader)); u != "" {
			return u, true, nil
		}
	}

	return "", false, nil
}

// Authenticate resolves the teacher behind r.
func (g *Gate) Authenticate(r *http.Request) (models.Teacher, error) {
	username, found, err := g.evidence(r)
	if !found {
		return models.Teacher{}, apierr.ErrUnauthenticated
	}
	if err != nil {
		g.Log.Debug("rejected identity token", zap.Error(err))
		return models.Teacher{}, apierr.ErrInvalidUser
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), g.Log, "load teacher")
	defer cancel()

	t, err := g.Teachers.GetByUsername(ctx, username)
	if errors.Is(err, teacherstore.ErrNotFound) {
		return models.Teacher{}, apierr.ErrInvalidUser
	}
	if err != nil {
		return models.Teacher{}, err
	}
	return t, nil
}

// Require rejects requests that do not resolve to a known teacher and makes
// the teacher available to next via CurrentTeacher.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := g.Authenticate(r)
		if err != nil {
			apierr.Write(w, r, g.Log, err)
			return
		}
		next.ServeHTTP(w, WithTeacher(r, t))
	})
}
