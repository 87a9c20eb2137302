package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/middleware"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/notify"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const atasanFileProxy = "/api/atasan/feedback/file"

// AtasanFeedbackHandler serves the superior-side feedback endpoints. The
// {role} path segment selects which per-role status column a submission
// writes: kabid submissions ("user") fill status_dari_kabid, sekretaris
// submissions fill status_dari_sekretaris. Routing is by position label, not
// user id.
type AtasanFeedbackHandler struct {
	users     IdentityStore
	disposisi DisposisiStore
	feedback  FeedbackStore
	files     FileStore
	logs      StatusLogStore
	uploads   storage.Uploader
	notifier  notify.Notifier
}

func NewAtasanFeedbackHandler(
	users IdentityStore,
	disposisi DisposisiStore,
	feedback FeedbackStore,
	files FileStore,
	logs StatusLogStore,
	uploads storage.Uploader,
	notifier notify.Notifier,
) *AtasanFeedbackHandler {
	return &AtasanFeedbackHandler{
		users:     users,
		disposisi: disposisi,
		feedback:  feedback,
		files:     files,
		logs:      logs,
		uploads:   uploads,
		notifier:  notifier,
	}
}

// roleStatusField maps the {role} path segment to its disposisi column.
func roleStatusField(role string) (string, bool) {
	switch role {
	case "user":
		return "status_dari_kabid", true
	case "sekretaris":
		return "status_dari_sekretaris", true
	default:
		return "", false
	}
}

type atasanFeedbackData struct {
	models.Feedback
	StatusDisposisi string `json:"status_disposisi"`
	FileCount       int    `json:"file_count"`
	HasFiles        bool   `json:"has_files"`
}

type atasanEditData struct {
	atasanFeedbackData
	Changes fileChanges `json:"changes"`
}

type fileChanges struct {
	RemovedFiles int `json:"removed_files"`
	AddedFiles   int `json:"added_files"`
}

// --- GET /api/atasan/{role}/feedback ---

func (h *AtasanFeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := roleStatusField(chi.URLParam(r, "role")); !ok {
		writeError(w, http.StatusBadRequest, "Role tidak valid")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	feedback, err := h.feedback.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching atasan feedback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.assembleViews(r.Context(), feedback)
	if err != nil {
		log.Printf("Error assembling feedback views: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Berhasil mengambil feedback %s", chi.URLParam(r, "role")),
		"data":    data,
		"total":   len(data),
	})
}

func (h *AtasanFeedbackHandler) assembleViews(ctx context.Context, feedback []models.Feedback) ([]FeedbackView, error) {
	feedbackIDs := make([]bson.ObjectID, 0, len(feedback))
	disposisiIDs := make([]bson.ObjectID, 0, len(feedback))
	for _, fb := range feedback {
		feedbackIDs = append(feedbackIDs, fb.ID)
		disposisiIDs = append(disposisiIDs, fb.DisposisiID)
	}

	filesByFeedback, err := h.files.ListByFeedbackIDs(ctx, feedbackIDs)
	if err != nil {
		return nil, err
	}
	disposisiByID, err := h.disposisi.FindByIDs(ctx, disposisiIDs)
	if err != nil {
		return nil, err
	}

	views := make([]FeedbackView, 0, len(feedback))
	for _, fb := range feedback {
		views = append(views, feedbackView(fb, disposisiByID[fb.DisposisiID], filesByFeedback[fb.ID], atasanFileProxy, h.uploads.PublicURL))
	}
	return views, nil
}

// --- POST /api/atasan/{role}/disposisi/{disposisiId}/feedback ---

func (h *AtasanFeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	statusField, ok := roleStatusField(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Role tidak valid")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	identity, err := h.users.ResolveIdentity(r.Context(), userID)
	if err != nil {
		log.Printf("Error resolving identity: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Data user tidak ditemukan")
		return
	}
	// Routing below matches on the label string, so an unresolved jabatan can
	// never silently fall through.
	if identity.Jabatan == "" {
		writeError(w, http.StatusBadRequest, "Data jabatan user tidak valid atau tidak ditemukan")
		return
	}

	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "Form data tidak valid")
		return
	}

	notes := strings.TrimSpace(r.FormValue("notes"))
	if notes == "" {
		writeError(w, http.StatusBadRequest, "Notes/catatan feedback wajib diisi")
		return
	}
	status := r.FormValue("status")
	if !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, `Status disposisi wajib dipilih dan harus berupa "diproses" atau "selesai"`)
		return
	}

	disposisiID, err := bson.ObjectIDFromHex(chi.URLParam(r, "disposisiId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan atau tidak ditujukan untuk jabatan Anda")
		return
	}
	disposisi, err := h.disposisi.FindAddressedToJabatan(r.Context(), disposisiID, identity.Jabatan)
	if err != nil {
		log.Printf("Error fetching disposisi: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if disposisi == nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan atau tidak ditujukan untuk jabatan Anda")
		return
	}

	// Duplicate check scoped to the disposition alone: position routing
	// admits one superior submission per disposition.
	existing, err := h.feedback.FindByDisposisi(r.Context(), disposisiID)
	if err != nil {
		log.Printf("Error checking existing feedback: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "Feedback untuk disposisi ini sudah dikirim sebelumnya")
		return
	}

	feedback := &models.Feedback{
		DisposisiID:  disposisiID,
		SuratMasukID: disposisi.SuratMasukID,
		UserID:       userID,
		UserJabatan:  identity.Jabatan,
		UserName:     identity.Name,
		Notes:        notes,
	}
	if err := h.feedback.Create(r.Context(), feedback); err != nil {
		log.Printf("Error creating feedback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileCount := 0
	if files := formFiles(r); len(files) > 0 {
		results, err := uploadBatch(h.uploads, files, "feedback-disposisi")
		if err != nil {
			log.Printf("Upload error: %v", err)
			h.rollbackFeedback(r.Context(), feedback.ID)
			writeError(w, http.StatusBadRequest, "Gagal upload file: "+err.Error())
			return
		}
		if err := h.files.InsertMany(r.Context(), fileRows(feedback.ID, disposisiID, results)); err != nil {
			log.Printf("Error saving files: %v", err)
			h.rollbackFeedback(r.Context(), feedback.ID)
			if rmErr := h.uploads.Remove(storageKeys(results)); rmErr != nil {
				log.Printf("Error removing uploaded files from storage: %v", rmErr)
			}
			writeError(w, http.StatusBadRequest, "Gagal menyimpan file: "+err.Error())
			return
		}
		fileCount = len(files)
	}

	if err := h.disposisi.UpdateStatus(r.Context(), disposisiID, status, statusField, status, true); err != nil {
		log.Printf("Error updating disposisi status: %v", err)
		writeError(w, http.StatusInternalServerError, "Gagal memperbarui status disposisi")
		return
	}

	h.appendLog(r.Context(), disposisiID, status, userID,
		fmt.Sprintf("Disposisi %s melalui feedback oleh %s", status, identity.Jabatan))

	go func() {
		msg := fmt.Sprintf("Feedback baru dari %s (%s) untuk disposisi %q: status %s",
			identity.Name, identity.Jabatan, disposisi.Perihal, status)
		if err := h.notifier.Publish(context.Background(), msg); err != nil {
			log.Printf("Error publishing notification: %v", err)
		}
	}()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Feedback berhasil dikirim dan status disposisi diupdate menjadi %q", status),
		"data": atasanFeedbackData{
			Feedback:        *feedback,
			StatusDisposisi: status,
			FileCount:       fileCount,
			HasFiles:        fileCount > 0,
		},
	})
}

func (h *AtasanFeedbackHandler) rollbackFeedback(ctx context.Context, id bson.ObjectID) {
	if err := h.feedback.Delete(ctx, id); err != nil {
		log.Printf("Error rolling back feedback %s: %v", id.Hex(), err)
	}
}

func (h *AtasanFeedbackHandler) appendLog(ctx context.Context, disposisiID bson.ObjectID, status string, userID bson.ObjectID, keterangan string) {
	entry := &models.DisposisiStatusLog{
		DisposisiID: disposisiID,
		Status:      status,
		OlehUserID:  userID,
		Keterangan:  keterangan,
	}
	if err := h.logs.Append(ctx, entry); err != nil {
		log.Printf("Error creating status log: %v", err)
	}
}

// --- GET /api/atasan/{role}/disposisi/{disposisiId}/feedback-bawahan ---

// FeedbackFromBawahan lets a superior read the subordinate's feedback on a
// disposition they forwarded down.
func (h *AtasanFeedbackHandler) FeedbackFromBawahan(w http.ResponseWriter, r *http.Request) {
	if _, ok := roleStatusField(chi.URLParam(r, "role")); !ok {
		writeError(w, http.StatusBadRequest, "Role tidak valid")
		return
	}
	sessionRole := middleware.GetUserRole(r.Context())
	if sessionRole != "user" && sessionRole != "sekretaris" {
		writeError(w, http.StatusForbidden, "Hanya Sekretaris dan Kabid yang bisa mengakses feedback bawahan")
		return
	}

	disposisiID, err := bson.ObjectIDFromHex(chi.URLParam(r, "disposisiId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan")
		return
	}
	disposisi, err := h.disposisi.FindByID(r.Context(), disposisiID)
	if err != nil {
		log.Printf("Error fetching disposisi: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if disposisi == nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan")
		return
	}
	if disposisi.DiteruskanKepadaUserID.IsZero() {
		writeError(w, http.StatusNotFound, "Disposisi belum diteruskan ke bawahan")
		return
	}

	feedback, err := h.feedback.FindByDisposisiAndUser(r.Context(), disposisiID, disposisi.DiteruskanKepadaUserID)
	if err != nil {
		log.Printf("Error fetching bawahan feedback: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if feedback == nil {
		writeError(w, http.StatusNotFound, "Feedback dari bawahan belum diterima")
		return
	}

	files, err := h.files.ListByFeedback(r.Context(), feedback.ID)
	if err != nil {
		log.Printf("Error fetching files: %v", err)
	}

	writeJSON(w, http.StatusOK, feedbackView(*feedback, disposisi, files, atasanFileProxy, h.uploads.PublicURL))
}

// --- GET /api/atasan/{role}/feedback/{feedbackId}/edit ---

func (h *AtasanFeedbackHandler) GetEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := roleStatusField(chi.URLParam(r, "role")); !ok {
		writeError(w, http.StatusBadRequest, "Role tidak valid")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	identity, err := h.users.ResolveIdentity(r.Context(), userID)
	if err != nil {
		log.Printf("Error resolving identity: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Data user tidak ditemukan")
		return
	}

	feedbackID, err := bson.ObjectIDFromHex(chi.URLParam(r, "feedbackId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}

	// Strict ownership on the superior path: user id plus current jabatan.
	feedback, err := h.feedback.FindOwnedWithJabatan(r.Context(), feedbackID, userID, identity.Jabatan)
	if err != nil {
		log.Printf("Error fetching feedback for edit: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if feedback == nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}

	disposisi, err := h.disposisi.FindByID(r.Context(), feedback.DisposisiID)
	if err != nil {
		log.Printf("Error fetching disposisi for edit view: %v", err)
	}
	files, err := h.files.ListByFeedback(r.Context(), feedbackID)
	if err != nil {
		log.Printf("Error fetching files for edit view: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Berhasil mengambil detail feedback untuk edit",
		"data":    feedbackView(*feedback, disposisi, files, atasanFileProxy, h.uploads.PublicURL),
	})
}

// --- PUT /api/atasan/{role}/feedback/{feedbackId} ---

func (h *AtasanFeedbackHandler) Edit(w http.ResponseWriter, r *http.Request) {
	statusField, ok := roleStatusField(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Role tidak valid")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	identity, err := h.users.ResolveIdentity(r.Context(), userID)
	if err != nil {
		log.Printf("Error resolving identity: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Data user tidak ditemukan")
		return
	}

	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "Form data tidak valid")
		return
	}

	notes := strings.TrimSpace(r.FormValue("notes"))
	if notes == "" {
		writeError(w, http.StatusBadRequest, "Notes/catatan feedback wajib diisi")
		return
	}
	status := r.FormValue("status")
	if !models.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, `Status disposisi wajib dipilih dan harus berupa "diproses" atau "selesai"`)
		return
	}

	feedbackID, err := bson.ObjectIDFromHex(chi.URLParam(r, "feedbackId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}
	existing, err := h.feedback.FindOwnedWithJabatan(r.Context(), feedbackID, userID, identity.Jabatan)
	if err != nil {
		log.Printf("Error fetching feedback: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}

	updated, err := h.feedback.UpdateNotes(r.Context(), feedbackID, notes)
	if err != nil {
		log.Printf("Error updating feedback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed := h.removeFiles(r.Context(), feedbackID, parseObjectIDs(r.Form["remove_file_ids"]))

	added := 0
	if files := formFiles(r); len(files) > 0 {
		results, err := uploadBatch(h.uploads, files, "feedback-disposisi")
		if err != nil {
			log.Printf("Upload error: %v", err)
			writeError(w, http.StatusBadRequest, "Gagal upload file baru: "+err.Error())
			return
		}
		if err := h.files.InsertMany(r.Context(), fileRows(feedbackID, existing.DisposisiID, results)); err != nil {
			log.Printf("Error saving new files: %v", err)
			if rmErr := h.uploads.Remove(storageKeys(results)); rmErr != nil {
				log.Printf("Error removing uploaded files from storage: %v", rmErr)
			}
			writeError(w, http.StatusBadRequest, "Gagal menyimpan file baru: "+err.Error())
			return
		}
		added = len(files)
	}

	if err := h.disposisi.UpdateStatus(r.Context(), existing.DisposisiID, status, statusField, status, false); err != nil {
		log.Printf("Error updating disposisi status: %v", err)
		writeError(w, http.StatusInternalServerError, "Gagal memperbarui status disposisi")
		return
	}

	h.appendLog(r.Context(), existing.DisposisiID, status, userID,
		fmt.Sprintf("Disposisi %s melalui update feedback oleh %s", status, identity.Jabatan))

	total, err := h.files.CountByFeedback(r.Context(), feedbackID)
	if err != nil {
		log.Printf("Error counting files: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Feedback berhasil diperbarui dan status disposisi diupdate menjadi %q", status),
		"data": atasanEditData{
			atasanFeedbackData: atasanFeedbackData{
				Feedback:        *updated,
				StatusDisposisi: status,
				FileCount:       int(total),
				HasFiles:        total > 0,
			},
			Changes: fileChanges{RemovedFiles: removed, AddedFiles: added},
		},
	})
}

func (h *AtasanFeedbackHandler) removeFiles(ctx context.Context, feedbackID bson.ObjectID, removeIDs []bson.ObjectID) int {
	if len(removeIDs) == 0 {
		return 0
	}

	toRemove, err := h.files.FindScoped(ctx, feedbackID, removeIDs)
	if err != nil {
		log.Printf("Error fetching files to remove: %v", err)
		return 0
	}
	if len(toRemove) == 0 {
		return 0
	}

	if paths := storagePaths(toRemove); len(paths) > 0 {
		if err := h.uploads.Remove(paths); err != nil {
			log.Printf("Error removing files from storage: %v", err)
		}
	}
	if err := h.files.DeleteScoped(ctx, feedbackID, removeIDs); err != nil {
		log.Printf("Error removing files from database: %v", err)
		return 0
	}
	return len(toRemove)
}

// --- GET /api/atasan/feedback/file/{fileId} ---

func (h *AtasanFeedbackHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	fileID, err := bson.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan")
		return
	}
	file, err := h.files.FindOwnedByUser(r.Context(), fileID, userID)
	if err != nil {
		log.Printf("Error fetching file: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan")
		return
	}

	redirectToFile(w, r, file, h.uploads.PublicURL)
}

// --- DELETE /api/atasan/feedback/file/{fileId} ---

func (h *AtasanFeedbackHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	fileID, err := bson.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan atau tidak ada akses untuk menghapus")
		return
	}
	file, err := h.files.FindOwnedByUser(r.Context(), fileID, userID)
	if err != nil {
		log.Printf("Error fetching file: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan atau tidak ada akses untuk menghapus")
		return
	}

	// Blob first, row second. A failed blob delete is logged and the row
	// still goes: an orphaned blob beats a dangling row pointing nowhere.
	if file.StoragePath != "" {
		if err := h.uploads.Remove([]string{file.StoragePath}); err != nil {
			log.Printf("Error removing file from storage: %v", err)
		}
	}
	if err := h.files.DeleteByID(r.Context(), fileID); err != nil {
		log.Printf("Error deleting file from database: %v", err)
		writeError(w, http.StatusInternalServerError, "Gagal menghapus file dari database")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "File feedback berhasil dihapus",
		"data": map[string]string{
			"deleted_file_id":  fileID.Hex(),
			"deleted_filename": file.FileOriginalName,
		},
	})
}
