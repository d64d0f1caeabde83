// internal/app/features/announcements/request.go
package announcements

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dalemusser/schoolhub/internal/app/system/apierr"
	"github.com/dalemusser/schoolhub/internal/app/system/limits"
	"github.com/dalemusser/schoolhub/internal/domain/models"
)

// announcementInput is the request body for create and update. Unknown
// keys, including _id and id, are ignored.
type announcementInput struct {
	Message        *string   `json:"message"`
	StartDate      timestamp `json:"start_date"`
	ExpirationDate timestamp `json:"expiration_date"`
}

// decodeInput reads the JSON body. An empty body decodes to a zero input.
// A body sent with any other media type is rejected with 415.
func decodeInput(w http.ResponseWriter, r *http.Request) (announcementInput, error) {
	var in announcementInput
	if r.ContentLength != 0 && !isJSON(r) {
		return in, apierr.New(http.StatusUnsupportedMediaType, apierr.DetailUnsupportedMedia)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAnnouncementBody)

	err := json.NewDecoder(r.Body).Decode(&in)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return in, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return in, apierr.Validation(fmt.Sprintf("%s: invalid type, expected %s", typeErr.Field, typeErr.Type))
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return in, apierr.New(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	if errors.Is(err, errBadTimestamp) {
		return in, apierr.Validation("invalid datetime format")
	}
	return in, apierr.Validation("body: invalid JSON")
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// announcement validates in as a new announcement.
func (in announcementInput) announcement() (models.Announcement, error) {
	if in.Message == nil {
		return models.Announcement{}, apierr.Validation("message: field required")
	}
	if !in.ExpirationDate.Set {
		return models.Announcement{}, apierr.Validation("expiration_date: field required")
	}
	return models.Announcement{
		Message:        *in.Message,
		StartDate:      in.StartDate.ptr(),
		ExpirationDate: in.ExpirationDate.Time,
	}, nil
}

// patch converts in into a partial update. Absent and null fields are left
// untouched.
func (in announcementInput) patch() models.AnnouncementPatch {
	return models.AnnouncementPatch{
		Message:        in.Message,
		StartDate:      in.StartDate.ptr(),
		ExpirationDate: in.ExpirationDate.ptr(),
	}
}
