package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/notify"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const bawahanFileProxy = "/api/bawahan/feedback/file"

// BawahanFeedbackHandler serves the subordinate-side feedback endpoints:
// dispositions routed to the caller by user id.
type BawahanFeedbackHandler struct {
	users     IdentityStore
	disposisi DisposisiStore
	feedback  FeedbackStore
	files     FileStore
	logs      StatusLogStore
	uploads   storage.Uploader
	notifier  notify.Notifier
}

func NewBawahanFeedbackHandler(
	users IdentityStore,
	disposisi DisposisiStore,
	feedback FeedbackStore,
	files FileStore,
	logs StatusLogStore,
	uploads storage.Uploader,
	notifier notify.Notifier,
) *BawahanFeedbackHandler {
	return &BawahanFeedbackHandler{
		users:     users,
		disposisi: disposisi,
		feedback:  feedback,
		files:     files,
		logs:      logs,
		uploads:   uploads,
		notifier:  notifier,
	}
}

type bawahanFeedbackData struct {
	models.Feedback
	StatusDariBawahan string `json:"status_dari_bawahan"`
	FileCount         int    `json:"file_count"`
	HasFiles          bool   `json:"has_files"`
}

// --- POST /api/bawahan/disposisi/{disposisiId}/feedback ---

func (h *BawahanFeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
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
	statusDariBawahan := r.FormValue("status_dari_bawahan")

	disposisiID, err := bson.ObjectIDFromHex(chi.URLParam(r, "disposisiId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan atau tidak diteruskan untuk Anda")
		return
	}
	disposisi, err := h.disposisi.FindForwardedToUser(r.Context(), disposisiID, userID)
	if err != nil {
		log.Printf("Error fetching disposisi: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if disposisi == nil {
		writeError(w, http.StatusNotFound, "Disposisi tidak ditemukan atau tidak diteruskan untuk Anda")
		return
	}

	// Read-then-insert duplicate check; racy under concurrent submission and
	// left that way on purpose (see DESIGN.md).
	existing, err := h.feedback.FindByDisposisiAndUser(r.Context(), disposisiID, userID)
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
		log.Printf("Error creating bawahan feedback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fileCount, ok := h.persistUploads(w, r, feedback, disposisiID)
	if !ok {
		return
	}

	if err := h.disposisi.UpdateStatus(r.Context(), disposisiID, status, "status_dari_bawahan", statusDariBawahan, true); err != nil {
		log.Printf("Error updating disposisi status: %v", err)
		writeError(w, http.StatusInternalServerError, "Gagal memperbarui status disposisi")
		return
	}

	h.appendLog(r.Context(), disposisiID, status, userID,
		fmt.Sprintf("Feedback dari bawahan: %s oleh %s", status, identity.Jabatan))

	// Best-effort notification, never blocks the response.
	go func() {
		msg := fmt.Sprintf("Feedback baru dari %s (%s) untuk disposisi %q: status %s",
			identity.Name, identity.Jabatan, disposisi.Perihal, status)
		if err := h.notifier.Publish(context.Background(), msg); err != nil {
			log.Printf("Error publishing notification: %v", err)
		}
	}()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Feedback berhasil dikirim dan status diupdate menjadi %q", status),
		"data": bawahanFeedbackData{
			Feedback:          *feedback,
			StatusDariBawahan: status,
			FileCount:         fileCount,
			HasFiles:          fileCount > 0,
		},
	})
}

// persistUploads uploads the request's attachments and stores their rows. On
// any failure it deletes whatever already landed, blobs and the just-created
// feedback entry both, so a failed create leaves no trace. Returns ok=false
// after writing the error response.
func (h *BawahanFeedbackHandler) persistUploads(w http.ResponseWriter, r *http.Request, feedback *models.Feedback, disposisiID bson.ObjectID) (int, bool) {
	files := formFiles(r)
	if len(files) == 0 {
		return 0, true
	}

	results, err := uploadBatch(h.uploads, files, "feedback-bawahan")
	if err != nil {
		log.Printf("Upload error: %v", err)
		h.rollbackFeedback(r.Context(), feedback.ID)
		writeError(w, http.StatusBadRequest, "Gagal upload file: "+err.Error())
		return 0, false
	}

	if err := h.files.InsertMany(r.Context(), fileRows(feedback.ID, disposisiID, results)); err != nil {
		log.Printf("Error saving files: %v", err)
		h.rollbackFeedback(r.Context(), feedback.ID)
		if rmErr := h.uploads.Remove(storageKeys(results)); rmErr != nil {
			log.Printf("Error removing uploaded files from storage: %v", rmErr)
		}
		writeError(w, http.StatusBadRequest, "Gagal menyimpan file: "+err.Error())
		return 0, false
	}
	return len(files), true
}

func (h *BawahanFeedbackHandler) rollbackFeedback(ctx context.Context, id bson.ObjectID) {
	if err := h.feedback.Delete(ctx, id); err != nil {
		log.Printf("Error rolling back feedback %s: %v", id.Hex(), err)
	}
}

func (h *BawahanFeedbackHandler) appendLog(ctx context.Context, disposisiID bson.ObjectID, status string, userID bson.ObjectID, keterangan string) {
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

// --- GET /api/bawahan/feedback ---

func (h *BawahanFeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	feedback, err := h.feedback.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching bawahan feedback: %v", err)
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
		"message": "Berhasil mengambil feedback bawahan",
		"data":    data,
		"total":   len(data),
	})
}

func (h *BawahanFeedbackHandler) assembleViews(ctx context.Context, feedback []models.Feedback) ([]FeedbackView, error) {
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
		views = append(views, feedbackView(fb, disposisiByID[fb.DisposisiID], filesByFeedback[fb.ID], bawahanFileProxy, h.uploads.PublicURL))
	}
	return views, nil
}

// --- GET /api/bawahan/feedback/file/{fileId} ---

func (h *BawahanFeedbackHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	fileID, err := bson.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan atau tidak ada akses")
		return
	}
	file, err := h.files.FindOwnedByUser(r.Context(), fileID, userID)
	if err != nil {
		log.Printf("Error fetching file: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan atau tidak ada akses")
		return
	}

	redirectToFile(w, r, file, h.uploads.PublicURL)
}

// --- GET /api/bawahan/feedback/{feedbackId}/edit ---

func (h *BawahanFeedbackHandler) GetEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	feedbackID, err := bson.ObjectIDFromHex(chi.URLParam(r, "feedbackId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau Anda tidak memiliki akses")
		return
	}

	// Ownership by user id only: legacy rows with a stale or empty
	// user_jabatan must stay editable.
	feedback, err := h.feedback.FindOwned(r.Context(), feedbackID, userID)
	if err != nil {
		log.Printf("Error fetching feedback for edit: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if feedback == nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau Anda tidak memiliki akses")
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
		"data":    feedbackView(*feedback, disposisi, files, bawahanFileProxy, h.uploads.PublicURL),
	})
}

// --- PUT /api/bawahan/feedback/{feedbackId} ---

func (h *BawahanFeedbackHandler) Edit(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusBadRequest, "Status disposisi wajib dipilih")
		return
	}
	statusDariBawahan := r.FormValue("status_dari_bawahan")

	feedbackID, err := bson.ObjectIDFromHex(chi.URLParam(r, "feedbackId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}
	existing, err := h.feedback.FindOwned(r.Context(), feedbackID, userID)
	if err != nil {
		log.Printf("Error fetching feedback: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan atau tidak ada akses untuk mengedit")
		return
	}

	// Also refresh the denormalized jabatan so legacy rows get repaired.
	updated, err := h.feedback.UpdateNotesAndJabatan(r.Context(), feedbackID, notes, identity.Jabatan)
	if err != nil {
		log.Printf("Error updating feedback: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.removeFiles(r.Context(), feedbackID, parseObjectIDs(r.Form["remove_file_ids"]))

	if files := formFiles(r); len(files) > 0 {
		results, err := uploadBatch(h.uploads, files, "feedback-bawahan")
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
	}

	if err := h.disposisi.UpdateStatus(r.Context(), existing.DisposisiID, status, "status_dari_bawahan", statusDariBawahan, false); err != nil {
		log.Printf("Error updating disposisi status: %v", err)
		writeError(w, http.StatusInternalServerError, "Gagal memperbarui status disposisi")
		return
	}

	h.appendLog(r.Context(), existing.DisposisiID, status, userID,
		fmt.Sprintf("Update feedback bawahan: %s oleh %s", status, identity.Jabatan))

	total, err := h.files.CountByFeedback(r.Context(), feedbackID)
	if err != nil {
		log.Printf("Error counting files: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Feedback berhasil diperbarui dan status diupdate menjadi %q", status),
		"data": bawahanFeedbackData{
			Feedback:          *updated,
			StatusDariBawahan: status,
			FileCount:         int(total),
			HasFiles:          total > 0,
		},
	})
}

// removeFiles deletes the requested attachments, blobs first. Failures are
// logged and skipped: removal is a courtesy step of the edit, not a
// precondition.
func (h *BawahanFeedbackHandler) removeFiles(ctx context.Context, feedbackID bson.ObjectID, removeIDs []bson.ObjectID) int {
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
