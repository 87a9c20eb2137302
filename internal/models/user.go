package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is owned by the upstream identity module; this service only reads it.
type User struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string        `bson:"name" json:"name"`
	Email     string        `bson:"email" json:"email"`
	Role      string        `bson:"role" json:"role"`
	JabatanID bson.ObjectID `bson:"jabatan_id,omitempty" json:"jabatan_id"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
}

// Jabatan is an organizational position. Superior-role routing matches on the
// Nama string, so the label must always come from this collection and never
// from a fallback default.
type Jabatan struct {
	ID   bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Nama string        `bson:"nama" json:"nama"`
}

// Identity is the resolved (name, position label) pair for an acting user.
type Identity struct {
	UserID  bson.ObjectID `json:"user_id"`
	Name    string        `json:"name"`
	Jabatan string        `json:"jabatan"`
}
