package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Feedback is a status update filed against a disposition by its recipient.
// Name and jabatan are denormalized at submission time and can drift from the
// users table; read paths must not assume they match the current values.
type Feedback struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	DisposisiID  bson.ObjectID `bson:"disposisi_id" json:"disposisi_id"`
	SuratMasukID bson.ObjectID `bson:"surat_masuk_id,omitempty" json:"surat_masuk_id"`
	UserID       bson.ObjectID `bson:"user_id" json:"user_id"`
	UserJabatan  string        `bson:"user_jabatan" json:"user_jabatan"`
	UserName     string        `bson:"user_name" json:"user_name"`
	Notes        string        `bson:"notes" json:"notes"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
