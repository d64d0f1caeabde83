// internal/app/features/announcements/announcements.go
package announcements

import (
	"errors"
	"net/http"

	announcementstore "github.com/dalemusser/schoolhub/internal/app/store/announcements"
	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// List returns every announcement that has not yet expired.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list announcements")
	defer cancel()

	items, err := h.Store.ListActive(ctx, h.Now().UTC())
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, items)
}

// Create inserts a new announcement and returns it with its assigned _id.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	a, err := in.announcement()
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create announcement")
	defer cancel()

	created, err := h.Store.Create(ctx, a)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.Audit.AnnouncementCreated(r.Context(), r, actor(r), created.ID.Hex())
	apierr.WriteJSON(w, http.StatusOK, created)
}

// Update applies the supplied fields to an announcement and returns the
// stored result.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := announcementID(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.ErrAnnouncementNotFound)
		return
	}
	in, err := decodeInput(w, r)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update announcement")
	defer cancel()

	updated, err := h.Store.Update(ctx, id, in.patch())
	if errors.Is(err, announcementstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.ErrAnnouncementNotFound)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.Audit.AnnouncementUpdated(r.Context(), r, actor(r), id.Hex())
	apierr.WriteJSON(w, http.StatusOK, updated)
}

// Delete removes an announcement.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := announcementID(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.ErrAnnouncementNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete announcement")
	defer cancel()

	err := h.Store.Delete(ctx, id)
	if errors.Is(err, announcementstore.ErrNotFound) {
		apierr.Write(w, r, h.Log, apierr.ErrAnnouncementNotFound)
		return
	}
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	h.Audit.AnnouncementDeleted(r.Context(), r, actor(r), id.Hex())
	apierr.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// announcementID parses the {id} URL parameter. A malformed id can never
// match a stored announcement.
func announcementID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

func actor(r *http.Request) string {
	if t, ok := auth.CurrentTeacher(r); ok {
		return t.Username
	}
	return ""
}
