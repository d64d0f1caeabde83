// internal/app/features/announcements/handler.go
package announcements

import (
	"context"
	"time"

	"github.com/dalemusser/schoolhub/internal/app/system/auditlog"
	"github.com/dalemusser/schoolhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the persistence the announcement handlers need.
// *announcementstore.Store satisfies it.
type Store interface {
	ListActive(ctx context.Context, now time.Time) ([]models.Announcement, error)
	Create(ctx context.Context, a models.Announcement) (models.Announcement, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.AnnouncementPatch) (models.Announcement, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Handler owns all Announcements handlers.
type Handler struct {
	Store Store
	Audit *auditlog.Logger
	Log   *zap.Logger
	Now   func() time.Time
}

// NewHandler constructs an Announcements Handler.
func NewHandler(store Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Audit: audit,
		Log:   logger,
		Now:   time.Now,
	}
}
