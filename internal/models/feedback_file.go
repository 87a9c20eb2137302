package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FeedbackFile is one attachment row. FilePath may hold a full public URL;
// otherwise StoragePath is the bucket-relative key the URL is derived from.
type FeedbackFile struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"id"`
	FeedbackID       bson.ObjectID `bson:"feedback_id" json:"feedback_id"`
	DisposisiID      bson.ObjectID `bson:"disposisi_id" json:"disposisi_id"`
	FilePath         string        `bson:"file_path" json:"file_path"`
	FileFilename     string        `bson:"file_filename" json:"file_filename"`
	FileOriginalName string        `bson:"file_original_name" json:"file_original_name"`
	FileSize         int64         `bson:"file_size" json:"file_size"`
	FileType         string        `bson:"file_type" json:"file_type"`
	StoragePath      string        `bson:"storage_path" json:"storage_path"`
	CreatedAt        time.Time     `bson:"created_at" json:"created_at"`
}

// HasDirectURL reports whether FilePath already holds a usable URL.
func (f *FeedbackFile) HasDirectURL() bool {
	return strings.HasPrefix(f.FilePath, "http")
}
