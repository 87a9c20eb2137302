package repository

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type FeedbackFileRepo struct {
	files    *mongo.Collection
	feedback *mongo.Collection
}

func NewFeedbackFileRepo() *FeedbackFileRepo {
	return &FeedbackFileRepo{
		files:    database.GetCollection("feedback_files"),
		feedback: database.GetCollection("feedback_disposisi"),
	}
}

func (r *FeedbackFileRepo) InsertMany(ctx context.Context, files []models.FeedbackFile) error {
	if len(files) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(files))
	for i := range files {
		files[i].CreatedAt = models.WIBNow()
		docs = append(docs, files[i])
	}
	_, err := r.files.InsertMany(ctx, docs)
	return err
}

func (r *FeedbackFileRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.FeedbackFile, error) {
	var file models.FeedbackFile
	err := r.files.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &file, nil
}

// FindOwnedByUser follows the feedback reference and returns the file only if
// the owning feedback entry belongs to the given user.
func (r *FeedbackFileRepo) FindOwnedByUser(ctx context.Context, fileID, userID bson.ObjectID) (*models.FeedbackFile, error) {
	file, err := r.FindByID(ctx, fileID)
	if err != nil || file == nil {
		return nil, err
	}

	err = r.feedback.FindOne(ctx, bson.M{"_id": file.FeedbackID, "user_id": userID}).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return file, nil
}

func (r *FeedbackFileRepo) ListByFeedback(ctx context.Context, feedbackID bson.ObjectID) ([]models.FeedbackFile, error) {
	cursor, err := r.files.Find(ctx, bson.M{"feedback_id": feedbackID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.FeedbackFile
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByFeedbackIDs fetches the attachments of many feedback entries in one
// round trip, grouped by owning feedback id.
func (r *FeedbackFileRepo) ListByFeedbackIDs(ctx context.Context, feedbackIDs []bson.ObjectID) (map[bson.ObjectID][]models.FeedbackFile, error) {
	out := make(map[bson.ObjectID][]models.FeedbackFile, len(feedbackIDs))
	if len(feedbackIDs) == 0 {
		return out, nil
	}

	cursor, err := r.files.Find(ctx, bson.M{"feedback_id": bson.M{"$in": feedbackIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.FeedbackFile
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	for _, f := range items {
		out[f.FeedbackID] = append(out[f.FeedbackID], f)
	}
	return out, nil
}

// FindScoped returns file rows limited to one feedback entry, so callers can
// never reach another entry's attachments through a forged id list.
func (r *FeedbackFileRepo) FindScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) ([]models.FeedbackFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.files.Find(ctx, bson.M{"feedback_id": feedbackID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.FeedbackFile
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *FeedbackFileRepo) DeleteScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.files.DeleteMany(ctx, bson.M{"feedback_id": feedbackID, "_id": bson.M{"$in": ids}})
	return err
}

func (r *FeedbackFileRepo) DeleteByID(ctx context.Context, id bson.ObjectID) error {
	_, err := r.files.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *FeedbackFileRepo) CountByFeedback(ctx context.Context, feedbackID bson.ObjectID) (int64, error) {
	return r.files.CountDocuments(ctx, bson.M{"feedback_id": feedbackID})
}

// EnsureIndexes creates the index backing attachment lookups by entry.
func (r *FeedbackFileRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.files.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "feedback_id", Value: 1}},
	})
	return err
}
