package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Disposition status values a feedback submission may set.
const (
	StatusDiproses = "diproses"
	StatusSelesai  = "selesai"
)

// ValidStatus reports whether s is one of the two allowed feedback statuses.
func ValidStatus(s string) bool {
	return s == StatusDiproses || s == StatusSelesai
}

// Disposisi is a routed incoming-document record. It is owned by the upstream
// disposition module; the feedback workflow only updates its status fields and
// the has_feedback flag.
type Disposisi struct {
	ID                      bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Perihal                 string        `bson:"perihal" json:"perihal"`
	Sifat                   string        `bson:"sifat" json:"sifat"`
	DenganHormatHarap       string        `bson:"dengan_hormat_harap" json:"dengan_hormat_harap"`
	CreatedBy               bson.ObjectID `bson:"created_by,omitempty" json:"created_by"`
	SuratMasukID            bson.ObjectID `bson:"surat_masuk_id,omitempty" json:"surat_masuk_id"`
	DisposisiKepadaJabatan  string        `bson:"disposisi_kepada_jabatan" json:"disposisi_kepada_jabatan"`
	DiteruskanKepadaUserID  bson.ObjectID `bson:"diteruskan_kepada_user_id,omitempty" json:"diteruskan_kepada_user_id"`
	DiteruskanKepadaJabatan string        `bson:"diteruskan_kepada_jabatan" json:"diteruskan_kepada_jabatan"`
	DiteruskanKepadaNama    string        `bson:"diteruskan_kepada_nama" json:"diteruskan_kepada_nama"`
	Status                  string        `bson:"status" json:"status"`
	StatusDariBawahan       string        `bson:"status_dari_bawahan" json:"status_dari_bawahan"`
	StatusDariKabid         string        `bson:"status_dari_kabid" json:"status_dari_kabid"`
	StatusDariSekretaris    string        `bson:"status_dari_sekretaris" json:"status_dari_sekretaris"`
	CatatanAtasan           string        `bson:"catatan_atasan" json:"catatan_atasan"`
	HasFeedback             bool          `bson:"has_feedback" json:"has_feedback"`
	CreatedAt               time.Time     `bson:"created_at" json:"created_at"`
}
