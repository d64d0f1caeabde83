package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/passwords"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures inserts test documents into a test database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures bound to db.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTeacher inserts a teacher whose password is hashed with the
// default scheme. The username is used as the _id.
func (f *Fixtures) CreateTeacher(ctx context.Context, username, displayName, role, password string) models.Teacher {
	f.t.Helper()

	hash, err := passwords.Hash(password)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}
	tch := models.Teacher{
		ID:           username,
		Username:     username,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: hash,
	}
	if _, err := f.db.Collection("teachers").InsertOne(ctx, tch); err != nil {
		f.t.Fatalf("failed to create test teacher: %v", err)
	}
	return tch
}

// CreateAnnouncement inserts an announcement expiring at exp.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, message string, exp time.Time) models.Announcement {
	f.t.Helper()

	ann := models.Announcement{
		ID:             primitive.NewObjectID(),
		Message:        message,
		ExpirationDate: exp.UTC().Truncate(time.Millisecond),
	}
	if _, err := f.db.Collection("announcements").InsertOne(ctx, ann); err != nil {
		f.t.Fatalf("failed to create test announcement: %v", err)
	}
	return ann
}
