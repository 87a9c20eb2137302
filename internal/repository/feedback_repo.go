package repository

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FeedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepo() *FeedbackRepo {
	return &FeedbackRepo{
		collection: database.GetCollection("feedback_disposisi"),
	}
}

func (r *FeedbackRepo) Create(ctx context.Context, feedback *models.Feedback) error {
	feedback.CreatedAt = models.WIBNow()
	result, err := r.collection.InsertOne(ctx, feedback)
	if err != nil {
		return err
	}
	feedback.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// Delete removes a feedback entry. Only used as a compensating action when a
// later step of the same create request fails.
func (r *FeedbackRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *FeedbackRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Feedback, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindOwned checks ownership by user id only. The position label is left out
// on purpose: legacy rows carry a null/stale user_jabatan and must remain
// editable by their owner.
func (r *FeedbackRepo) FindOwned(ctx context.Context, id, userID bson.ObjectID) (*models.Feedback, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

// FindOwnedWithJabatan is the strict variant used on superior-role paths,
// where the denormalized label must also match the caller's current position.
func (r *FeedbackRepo) FindOwnedWithJabatan(ctx context.Context, id, userID bson.ObjectID, jabatan string) (*models.Feedback, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID, "user_jabatan": jabatan})
}

// FindByDisposisiAndUser backs the one-feedback-per-(disposition,user) check.
// Read-then-insert with no lock: two concurrent submissions can both pass.
func (r *FeedbackRepo) FindByDisposisiAndUser(ctx context.Context, disposisiID, userID bson.ObjectID) (*models.Feedback, error) {
	return r.findOne(ctx, bson.M{"disposisi_id": disposisiID, "user_id": userID})
}

// FindByDisposisi is the superior-side duplicate check, scoped to the
// disposition alone since routing-by-position admits a single submitter.
func (r *FeedbackRepo) FindByDisposisi(ctx context.Context, disposisiID bson.ObjectID) (*models.Feedback, error) {
	return r.findOne(ctx, bson.M{"disposisi_id": disposisiID})
}

func (r *FeedbackRepo) findOne(ctx context.Context, filter bson.M) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.collection.FindOne(ctx, filter).Decode(&feedback)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &feedback, nil
}

func (r *FeedbackRepo) ListByUser(ctx context.Context, userID bson.ObjectID) ([]models.Feedback, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *FeedbackRepo) ListAll(ctx context.Context) ([]models.Feedback, error) {
	return r.list(ctx, bson.M{})
}

func (r *FeedbackRepo) list(ctx context.Context, filter bson.M) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Feedback
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateNotes rewrites the notes and bumps updated_at, returning the updated
// document.
func (r *FeedbackRepo) UpdateNotes(ctx context.Context, id bson.ObjectID, notes string) (*models.Feedback, error) {
	return r.update(ctx, id, bson.M{"notes": notes, "updated_at": models.WIBNow()})
}

// UpdateNotesAndJabatan additionally refreshes the denormalized position
// label, repairing legacy rows where it was never written.
func (r *FeedbackRepo) UpdateNotesAndJabatan(ctx context.Context, id bson.ObjectID, notes, jabatan string) (*models.Feedback, error) {
	return r.update(ctx, id, bson.M{"notes": notes, "user_jabatan": jabatan, "updated_at": models.WIBNow()})
}

func (r *FeedbackRepo) update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Feedback, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Feedback
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

// EnsureIndexes creates the indexes backing the duplicate check and the
// per-user newest-first listing.
func (r *FeedbackRepo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "disposisi_id", Value: 1}, {Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
