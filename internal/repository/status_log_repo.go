package repository

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type StatusLogRepo struct {
	collection *mongo.Collection
}

func NewStatusLogRepo() *StatusLogRepo {
	return &StatusLogRepo{
		collection: database.GetCollection("disposisi_status_log"),
	}
}

// Append writes one audit row. The log is append-only: nothing in this
// service updates or deletes entries once written.
func (r *StatusLogRepo) Append(ctx context.Context, entry *models.DisposisiStatusLog) error {
	entry.CreatedAt = models.WIBNow()
	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return err
	}
	entry.ID = result.InsertedID.(bson.ObjectID)
	return nil
}

// EnsureIndexes creates the index backing per-disposition history reads.
func (r *StatusLogRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "disposisi_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
