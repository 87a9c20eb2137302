package repository

import (
	"context"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/database"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type UserRepo struct {
	users   *mongo.Collection
	jabatan *mongo.Collection
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users:   database.GetCollection("users"),
		jabatan: database.GetCollection("jabatan"),
	}
}

func (r *UserRepo) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ResolveIdentity returns the user's display name and jabatan label by
// following the jabatan_id reference. A missing user yields (nil, nil) so
// handlers can answer unauthorized; a missing jabatan row leaves the label
// empty and routing checks decide whether that is acceptable.
func (r *UserRepo) ResolveIdentity(ctx context.Context, id bson.ObjectID) (*models.Identity, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	identity := &models.Identity{UserID: user.ID, Name: user.Name}
	if user.JabatanID.IsZero() {
		return identity, nil
	}

	var jab models.Jabatan
	err = r.jabatan.FindOne(ctx, bson.M{"_id": user.JabatanID}).Decode(&jab)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return identity, nil
		}
		return nil, err
	}
	identity.Jabatan = jab.Nama
	return identity, nil
}
