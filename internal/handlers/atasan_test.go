package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const sekretarisJabatan = "Sekretaris Badan"

type atasanFixture struct {
	users     *fakeIdentities
	disposisi *fakeDisposisi
	feedback  *fakeFeedback
	files     *fakeFiles
	logs      *fakeLogs
	uploads   *fakeUploader
	router    chi.Router

	userID bson.ObjectID
	dispID bson.ObjectID
}

func newAtasanFixture() *atasanFixture {
	userID := bson.NewObjectID()
	dispID := bson.NewObjectID()

	feedback := newFakeFeedback()
	f := &atasanFixture{
		users: &fakeIdentities{byID: map[bson.ObjectID]*models.Identity{
			userID: {UserID: userID, Name: "Siti Rahma", Jabatan: sekretarisJabatan},
		}},
		disposisi: &fakeDisposisi{byID: map[bson.ObjectID]*models.Disposisi{
			dispID: {
				ID:                     dispID,
				Perihal:                "Permohonan data penelitian",
				SuratMasukID:           bson.NewObjectID(),
				DisposisiKepadaJabatan: sekretarisJabatan,
				Status:                 models.StatusDiproses,
			},
		}},
		feedback: feedback,
		files:    newFakeFiles(feedback),
		logs:     &fakeLogs{},
		uploads:  &fakeUploader{baseURL: "https://files.example.test"},
		userID:   userID,
		dispID:   dispID,
	}

	h := NewAtasanFeedbackHandler(f.users, f.disposisi, f.feedback, f.files, f.logs, f.uploads, noopNotifier{})
	r := chi.NewRouter()
	r.Get("/api/atasan/feedback/file/{fileId}", h.GetFile)
	r.Delete("/api/atasan/feedback/file/{fileId}", h.DeleteFile)
	r.Get("/api/atasan/{role}/feedback", h.List)
	r.Post("/api/atasan/{role}/disposisi/{disposisiId}/feedback", h.Create)
	r.Get("/api/atasan/{role}/disposisi/{disposisiId}/feedback-bawahan", h.FeedbackFromBawahan)
	r.Get("/api/atasan/{role}/feedback/{feedbackId}/edit", h.GetEdit)
	r.Put("/api/atasan/{role}/feedback/{feedbackId}", h.Edit)
	f.router = r
	return f
}

func (f *atasanFixture) post(t *testing.T, role string, fields map[string]string, attachments map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, nil, attachments)
	req := httptest.NewRequest(http.MethodPost, "/api/atasan/"+role+"/disposisi/"+f.dispID.Hex()+"/feedback", body)
	req.Header.Set("Content-Type", contentType)
	return serve(f.router, req, f.userID.Hex(), role)
}

func TestAtasanRejectsUnknownRoleSegment(t *testing.T) {
	f := newAtasanFixture()

	rec := f.post(t, "kabid", map[string]string{"notes": "tindak lanjut", "status": models.StatusDiproses}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Role tidak valid", decodeBody(t, rec)["error"])
	assert.Empty(t, f.feedback.items)
}

func TestAtasanCreateWritesRoleColumn(t *testing.T) {
	tests := []struct {
		role      string
		wantField string
	}{
		{"user", "status_dari_kabid"},
		{"sekretaris", "status_dari_sekretaris"},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			f := newAtasanFixture()

			rec := f.post(t, tc.role, map[string]string{"notes": "Mohon diproses segera", "status": models.StatusDiproses}, nil)

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			require.Len(t, f.disposisi.updates, 1)
			update := f.disposisi.updates[0]
			assert.Equal(t, tc.wantField, update.roleField)
			assert.Equal(t, models.StatusDiproses, update.roleStatus)
			assert.True(t, update.hasFeedback)

			require.Len(t, f.logs.entries, 1)
			assert.Contains(t, f.logs.entries[0].Keterangan, "melalui feedback oleh "+sekretarisJabatan)
		})
	}
}

func TestAtasanCreateRejectsJabatanMismatch(t *testing.T) {
	f := newAtasanFixture()
	f.disposisi.byID[f.dispID].DisposisiKepadaJabatan = "Kepala Badan"

	rec := f.post(t, "sekretaris", map[string]string{"notes": "coba", "status": models.StatusDiproses}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Disposisi tidak ditemukan atau tidak ditujukan untuk jabatan Anda", decodeBody(t, rec)["error"])
	assert.Empty(t, f.feedback.items)
}

func TestAtasanCreateRejectsMissingJabatan(t *testing.T) {
	f := newAtasanFixture()
	f.users.byID[f.userID].Jabatan = ""

	rec := f.post(t, "sekretaris", map[string]string{"notes": "coba", "status": models.StatusDiproses}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Data jabatan user tidak valid atau tidak ditemukan", decodeBody(t, rec)["error"])
}

// The duplicate check is scoped to the disposition alone: a submission by a
// different user still blocks a second one.
func TestAtasanCreateRejectsAnyExistingFeedback(t *testing.T) {
	f := newAtasanFixture()
	f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: bson.NewObjectID(), Notes: "dari user lain"})

	rec := f.post(t, "sekretaris", map[string]string{"notes": "kedua", "status": models.StatusSelesai}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Feedback untuk disposisi ini sudah dikirim sebelumnya", decodeBody(t, rec)["error"])
	assert.Len(t, f.feedback.items, 1)
}

func TestAtasanCreateRollsBackWhenUploadFails(t *testing.T) {
	f := newAtasanFixture()
	f.uploads.uploadErr = assert.AnError

	rec := f.post(t, "sekretaris",
		map[string]string{"notes": "dengan lampiran", "status": models.StatusSelesai},
		map[string]string{"lampiran.pdf": "isi"},
	)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.feedback.items)
	assert.Len(t, f.feedback.deleted, 1)
	assert.Empty(t, f.disposisi.updates)
}

func TestAtasanEditRequiresMatchingJabatan(t *testing.T) {
	f := newAtasanFixture()
	fb := f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: f.userID, UserJabatan: "Jabatan Lama", Notes: "lama"})

	body, contentType := formBody(map[string]string{"notes": "ubah", "status": models.StatusSelesai})
	req := httptest.NewRequest(http.MethodPut, "/api/atasan/sekretaris/feedback/"+fb.ID.Hex(), body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "lama", f.feedback.items[fb.ID].Notes)
}

func TestAtasanEditReportsFileChanges(t *testing.T) {
	f := newAtasanFixture()
	fb := f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: f.userID, UserJabatan: sekretarisJabatan, Notes: "lama"})
	drop := f.files.add(models.FeedbackFile{FeedbackID: fb.ID, DisposisiID: f.dispID, StoragePath: "feedback-disposisi/drop.pdf"})

	body, contentType := multipartBody(t,
		map[string]string{"notes": "revisi", "status": models.StatusSelesai},
		map[string][]string{"remove_file_ids": {drop.ID.Hex()}},
		map[string]string{"baru.pdf": "isi"},
	)
	req := httptest.NewRequest(http.MethodPut, "/api/atasan/sekretaris/feedback/"+fb.ID.Hex(), body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, decodeBody(t, rec))
	changes, ok := data["changes"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), changes["removed_files"])
	assert.Equal(t, float64(1), changes["added_files"])
	assert.Equal(t, float64(1), data["file_count"])

	assert.Equal(t, "revisi", f.feedback.items[fb.ID].Notes)
	assert.Equal(t, sekretarisJabatan, f.feedback.items[fb.ID].UserJabatan)
	require.Len(t, f.disposisi.updates, 1)
	assert.Equal(t, "status_dari_sekretaris", f.disposisi.updates[0].roleField)
	assert.False(t, f.disposisi.updates[0].hasFeedback)
	require.Len(t, f.logs.entries, 1)
	assert.Contains(t, f.logs.entries[0].Keterangan, "melalui update feedback oleh")
}

func TestFeedbackFromBawahanRoleGuard(t *testing.T) {
	f := newAtasanFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/atasan/sekretaris/disposisi/"+f.dispID.Hex()+"/feedback-bawahan", nil)
	rec := serve(f.router, req, f.userID.Hex(), "bawahan")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Hanya Sekretaris dan Kabid yang bisa mengakses feedback bawahan", decodeBody(t, rec)["error"])
}

func TestFeedbackFromBawahanNotForwarded(t *testing.T) {
	f := newAtasanFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/atasan/sekretaris/disposisi/"+f.dispID.Hex()+"/feedback-bawahan", nil)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Disposisi belum diteruskan ke bawahan", decodeBody(t, rec)["error"])
}

func TestFeedbackFromBawahanPending(t *testing.T) {
	f := newAtasanFixture()
	f.disposisi.byID[f.dispID].DiteruskanKepadaUserID = bson.NewObjectID()

	req := httptest.NewRequest(http.MethodGet, "/api/atasan/sekretaris/disposisi/"+f.dispID.Hex()+"/feedback-bawahan", nil)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Feedback dari bawahan belum diterima", decodeBody(t, rec)["error"])
}

func TestFeedbackFromBawahanReturnsView(t *testing.T) {
	f := newAtasanFixture()
	bawahanID := bson.NewObjectID()
	f.disposisi.byID[f.dispID].DiteruskanKepadaUserID = bawahanID
	fb := f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: bawahanID, UserName: "Andi", Notes: "sudah selesai"})
	f.files.add(models.FeedbackFile{FeedbackID: fb.ID, DisposisiID: f.dispID, StoragePath: "feedback-bawahan/x.pdf"})

	req := httptest.NewRequest(http.MethodGet, "/api/atasan/user/disposisi/"+f.dispID.Hex()+"/feedback-bawahan", nil)
	rec := serve(f.router, req, f.userID.Hex(), "user")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "sudah selesai", body["notes"])
	assert.Equal(t, float64(1), body["file_count"])
	disp, ok := body["disposisi"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Permohonan data penelitian", disp["perihal"])
}

func TestAtasanDeleteFile(t *testing.T) {
	f := newAtasanFixture()
	fb := f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: f.userID, UserJabatan: sekretarisJabatan})
	file := f.files.add(models.FeedbackFile{FeedbackID: fb.ID, DisposisiID: f.dispID, FileOriginalName: "lampiran.pdf", StoragePath: "feedback-disposisi/lampiran.pdf"})

	req := httptest.NewRequest(http.MethodDelete, "/api/atasan/feedback/file/"+file.ID.Hex(), nil)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := dataField(t, decodeBody(t, rec))
	assert.Equal(t, file.ID.Hex(), data["deleted_file_id"])
	assert.Equal(t, "lampiran.pdf", data["deleted_filename"])
	assert.Empty(t, f.files.rows)
	assert.Equal(t, []string{"feedback-disposisi/lampiran.pdf"}, f.uploads.removed)
}

func TestAtasanDeleteFileDeniesForeignFile(t *testing.T) {
	f := newAtasanFixture()
	other := f.feedback.add(models.Feedback{DisposisiID: f.dispID, UserID: bson.NewObjectID()})
	file := f.files.add(models.FeedbackFile{FeedbackID: other.ID, StoragePath: "feedback-disposisi/x.pdf"})

	req := httptest.NewRequest(http.MethodDelete, "/api/atasan/feedback/file/"+file.ID.Hex(), nil)
	rec := serve(f.router, req, f.userID.Hex(), "sekretaris")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, f.files.rows, 1)
	assert.Empty(t, f.uploads.removed)
}
