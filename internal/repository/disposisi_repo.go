package repository

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type DisposisiRepo struct {
	collection *mongo.Collection
}

func NewDisposisiRepo() *DisposisiRepo {
	return &DisposisiRepo{
		collection: database.GetCollection("disposisi"),
	}
}

func (r *DisposisiRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Disposisi, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindForwardedToUser matches a disposition only when it was forwarded to the
// given user. This is the subordinate-side routing check.
func (r *DisposisiRepo) FindForwardedToUser(ctx context.Context, id, userID bson.ObjectID) (*models.Disposisi, error) {
	return r.findOne(ctx, bson.M{"_id": id, "diteruskan_kepada_user_id": userID})
}

// FindAddressedToJabatan matches a disposition only when it was addressed to
// the given position label. This is the superior-side routing check.
func (r *DisposisiRepo) FindAddressedToJabatan(ctx context.Context, id bson.ObjectID, jabatan string) (*models.Disposisi, error) {
	return r.findOne(ctx, bson.M{"_id": id, "disposisi_kepada_jabatan": jabatan})
}

func (r *DisposisiRepo) findOne(ctx context.Context, filter bson.M) (*models.Disposisi, error) {
	var disp models.Disposisi
	err := r.collection.FindOne(ctx, filter).Decode(&disp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &disp, nil
}

// FindByIDs fetches dispositions in one round trip, keyed by id, for joining
// into feedback list responses.
func (r *DisposisiRepo) FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Disposisi, error) {
	out := make(map[bson.ObjectID]*models.Disposisi, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.Disposisi
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

// UpdateStatus writes the generic status plus one role-specific status column
// (status_dari_bawahan / status_dari_kabid / status_dari_sekretaris), and
// optionally flips has_feedback on. Only the feedback workflow touches these
// fields; the rest of the document belongs to the disposition module.
func (r *DisposisiRepo) UpdateStatus(ctx context.Context, id bson.ObjectID, status, roleField, roleStatus string, setHasFeedback bool) error {
	set := bson.M{
		"status":  status,
		roleField: roleStatus,
	}
	if setHasFeedback {
		set["has_feedback"] = true
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}
