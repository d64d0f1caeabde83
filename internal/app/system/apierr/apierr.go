// Package apierr is the JSON error surface shared by the API handlers.
//
// Client-facing failures are *Error values carrying an HTTP status and a
// detail message; they are written as {"detail": "..."}. Anything else that
// reaches Write is a server fault: it is logged and answered with a 500.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Error is a client-facing failure.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// New builds an Error.
func New(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

// Messages used across handlers.
const (
	DetailNotAuthenticated    = "Not authenticated"
	DetailInvalidUser         = "Invalid user"
	DetailInvalidCredentials  = "Invalid username or password"
	DetailAnnouncementMissing = "Announcement not found"
	DetailTeacherMissing      = "Teacher not found"
	DetailTooManyAttempts     = "Too many login attempts"
	DetailUnsupportedMedia    = "Content-Type must be application/json"
	DetailInternal            = "Internal Server Error"
)

var (
	ErrUnauthenticated      = New(http.StatusUnauthorized, DetailNotAuthenticated)
	ErrInvalidUser          = New(http.StatusUnauthorized, DetailInvalidUser)
	ErrInvalidCredentials   = New(http.StatusUnauthorized, DetailInvalidCredentials)
	ErrAnnouncementNotFound = New(http.StatusNotFound, DetailAnnouncementMissing)
	ErrTeacherNotFound      = New(http.StatusNotFound, DetailTeacherMissing)
	ErrTooManyAttempts      = New(http.StatusTooManyRequests, DetailTooManyAttempts)
)

// Validation returns a 422 with the given detail.
func Validation(detail string) *Error {
	return New(http.StatusUnprocessableEntity, detail)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type body struct {
	Detail string `json:"detail"`
}

// Write answers the request with err. *Error values are sent as-is; any
// other error is logged with the request path and reported as a 500.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		WriteJSON(w, apiErr.Status, body{Detail: apiErr.Detail})
		return
	}

	if log != nil {
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
	}
	WriteJSON(w, http.StatusInternalServerError, body{Detail: DetailInternal})
}
