package handlers

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// The handlers depend on these narrow store interfaces instead of the mongo
// repos directly, so tests can run against in-memory fakes. The repository
// package provides the production implementations.

type IdentityStore interface {
	ResolveIdentity(ctx context.Context, id bson.ObjectID) (*models.Identity, error)
}

type DisposisiStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Disposisi, error)
	FindForwardedToUser(ctx context.Context, id, userID bson.ObjectID) (*models.Disposisi, error)
	FindAddressedToJabatan(ctx context.Context, id bson.ObjectID, jabatan string) (*models.Disposisi, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Disposisi, error)
	UpdateStatus(ctx context.Context, id bson.ObjectID, status, roleField, roleStatus string, setHasFeedback bool) error
}

type FeedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	Delete(ctx context.Context, id bson.ObjectID) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Feedback, error)
	FindOwned(ctx context.Context, id, userID bson.ObjectID) (*models.Feedback, error)
	FindOwnedWithJabatan(ctx context.Context, id, userID bson.ObjectID, jabatan string) (*models.Feedback, error)
	FindByDisposisiAndUser(ctx context.Context, disposisiID, userID bson.ObjectID) (*models.Feedback, error)
	FindByDisposisi(ctx context.Context, disposisiID bson.ObjectID) (*models.Feedback, error)
	ListByUser(ctx context.Context, userID bson.ObjectID) ([]models.Feedback, error)
	ListAll(ctx context.Context) ([]models.Feedback, error)
	UpdateNotes(ctx context.Context, id bson.ObjectID, notes string) (*models.Feedback, error)
	UpdateNotesAndJabatan(ctx context.Context, id bson.ObjectID, notes, jabatan string) (*models.Feedback, error)
}

type FileStore interface {
	InsertMany(ctx context.Context, files []models.FeedbackFile) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.FeedbackFile, error)
	FindOwnedByUser(ctx context.Context, fileID, userID bson.ObjectID) (*models.FeedbackFile, error)
	ListByFeedback(ctx context.Context, feedbackID bson.ObjectID) ([]models.FeedbackFile, error)
	ListByFeedbackIDs(ctx context.Context, feedbackIDs []bson.ObjectID) (map[bson.ObjectID][]models.FeedbackFile, error)
	FindScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) ([]models.FeedbackFile, error)
	DeleteScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) error
	DeleteByID(ctx context.Context, id bson.ObjectID) error
	CountByFeedback(ctx context.Context, feedbackID bson.ObjectID) (int64, error)
}

type StatusLogStore interface {
	Append(ctx context.Context, entry *models.DisposisiStatusLog) error
}
