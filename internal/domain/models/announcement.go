// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement is a message shown to visitors until its expiration date.
//
// An announcement is active while ExpirationDate >= now. StartDate is
// informational only; listing does not filter on it.
type Announcement struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Message        string             `bson:"message" json:"message"`
	StartDate      *time.Time         `bson:"start_date,omitempty" json:"start_date,omitempty"`
	ExpirationDate time.Time          `bson:"expiration_date" json:"expiration_date"`
}

// ActiveAt reports whether the announcement is still visible at t.
func (a Announcement) ActiveAt(t time.Time) bool {
	return !a.ExpirationDate.Before(t)
}

// AnnouncementPatch names the fields an update may replace.
// A nil field is left untouched.
type AnnouncementPatch struct {
	Message        *string
	StartDate      *time.Time
	ExpirationDate *time.Time
}

// IsEmpty reports whether the patch would change nothing.
func (p AnnouncementPatch) IsEmpty() bool {
	return p.Message == nil && p.StartDate == nil && p.ExpirationDate == nil
}
