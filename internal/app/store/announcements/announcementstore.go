// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the MongoDB collection backing this store.
const CollectionName = "announcements"

// ErrNotFound is returned when no announcement matches the given ID.
var ErrNotFound = errors.New("announcement not found")

// Store provides access to the announcements collection.
type Store struct {
	c *mongo.Collection
}

// New creates an announcement store over db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// ListActive returns every announcement whose expiration_date is >= now,
// in the order the server returns them.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]models.Announcement, error) {
	cur, err := s.c.Find(ctx, bson.M{"expiration_date": bson.M{"$gte": now.UTC()}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.Announcement, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one announcement.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Announcement{}, ErrNotFound
	}
	if err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// Create inserts a and returns it with the ID assigned by the driver.
// Any ID already set on a is discarded. A nil StartDate is not written.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.ID = primitive.NilObjectID
	a.ExpirationDate = a.ExpirationDate.UTC()
	if a.StartDate != nil {
		sd := a.StartDate.UTC()
		a.StartDate = &sd
	}

	res, err := s.c.InsertOne(ctx, a)
	if err != nil {
		return models.Announcement{}, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.Announcement{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	a.ID = id
	return a, nil
}

// Update applies the non-nil fields of patch with $set and returns the
// document as stored afterwards. An empty patch writes nothing.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch models.AnnouncementPatch) (models.Announcement, error) {
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	set := bson.M{}
	if patch.Message != nil {
		set["message"] = *patch.Message
	}
	if patch.StartDate != nil {
		set["start_date"] = patch.StartDate.UTC()
	}
	if patch.ExpirationDate != nil {
		set["expiration_date"] = patch.ExpirationDate.UTC()
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return models.Announcement{}, err
	}
	if res.MatchedCount == 0 {
		return models.Announcement{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes one announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
