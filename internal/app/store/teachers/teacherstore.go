// internal/app/store/teachers/teacherstore.go
package teacherstore

import (
	"context"
	"errors"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection backing this store.
const CollectionName = "teachers"

// ErrNotFound is returned when no teacher has the given username.
var ErrNotFound = errors.New("teacher not found")

var errNoUsername = errors.New("teacher username is required")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// GetByUsername loads a teacher by username, which is the document _id.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.Teacher, error) {
	var t models.Teacher
	err := s.c.FindOne(ctx, bson.M{"_id": username}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Teacher{}, ErrNotFound
	}
	if err != nil {
		return models.Teacher{}, err
	}
	return t, nil
}

// Upsert writes t keyed by its username, replacing any existing record.
// It reports whether a new document was inserted. Only the seeding tool
// writes teachers.
func (s *Store) Upsert(ctx context.Context, t models.Teacher) (bool, error) {
	if t.Username == "" {
		return false, errNoUsername
	}
	t.ID = t.Username

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
