package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DisposisiStatusLog is one append-only audit row. Entries are never updated
// or deleted, and a failed append must never abort the action that caused it.
type DisposisiStatusLog struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	DisposisiID bson.ObjectID `bson:"disposisi_id" json:"disposisi_id"`
	Status      string        `bson:"status" json:"status"`
	OlehUserID  bson.ObjectID `bson:"oleh_user_id" json:"oleh_user_id"`
	Keterangan  string        `bson:"keterangan" json:"keterangan"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}
