package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/middleware"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const kepalaFileProxy = "/api/kepala/feedback/file"

// KepalaFeedbackHandler serves the privileged aggregate views: every feedback
// entry in the system, readable by kepala and admin only.
type KepalaFeedbackHandler struct {
	disposisi DisposisiStore
	feedback  FeedbackStore
	files     FileStore
	uploads   storage.Uploader
}

func NewKepalaFeedbackHandler(
	disposisi DisposisiStore,
	feedback FeedbackStore,
	files FileStore,
	uploads storage.Uploader,
) *KepalaFeedbackHandler {
	return &KepalaFeedbackHandler{
		disposisi: disposisi,
		feedback:  feedback,
		files:     files,
		uploads:   uploads,
	}
}

// requireKepala rejects everyone but the two privileged roles.
func requireKepala(w http.ResponseWriter, r *http.Request) bool {
	role := middleware.GetUserRole(r.Context())
	if role != "kepala" && role != "admin" {
		writeError(w, http.StatusForbidden, "Akses ditolak")
		return false
	}
	return true
}

// --- GET /api/kepala/feedback ---

func (h *KepalaFeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireKepala(w, r) {
		return
	}

	feedback, err := h.feedback.ListAll(r.Context())
	if err != nil {
		log.Printf("Error fetching feedback for kepala: %v", err)
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
		"message": "Berhasil mengambil semua feedback",
		"data":    data,
		"total":   len(data),
	})
}

func (h *KepalaFeedbackHandler) assembleViews(ctx context.Context, feedback []models.Feedback) ([]FeedbackView, error) {
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
		views = append(views, feedbackView(fb, disposisiByID[fb.DisposisiID], filesByFeedback[fb.ID], kepalaFileProxy, h.uploads.PublicURL))
	}
	return views, nil
}

// --- GET /api/kepala/feedback/{id} ---

func (h *KepalaFeedbackHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if !requireKepala(w, r) {
		return
	}

	id, err := bson.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan")
		return
	}
	feedback, err := h.feedback.FindByID(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching feedback detail: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if feedback == nil {
		writeError(w, http.StatusNotFound, "Feedback tidak ditemukan")
		return
	}

	disposisi, err := h.disposisi.FindByID(r.Context(), feedback.DisposisiID)
	if err != nil {
		log.Printf("Error fetching disposisi: %v", err)
	}
	files, err := h.files.ListByFeedback(r.Context(), id)
	if err != nil {
		log.Printf("Error fetching files: %v", err)
	}

	writeJSON(w, http.StatusOK, feedbackView(*feedback, disposisi, files, kepalaFileProxy, h.uploads.PublicURL))
}

// --- GET /api/kepala/feedback/file/{fileId} ---

// GetFile redirects to the attachment with no ownership restriction; the
// role guard alone scopes access.
func (h *KepalaFeedbackHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	if !requireKepala(w, r) {
		return
	}

	fileID, err := bson.ObjectIDFromHex(chi.URLParam(r, "fileId"))
	if err != nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan")
		return
	}
	file, err := h.files.FindByID(r.Context(), fileID)
	if err != nil {
		log.Printf("Error fetching file: %v", err)
		writeError(w, http.StatusNotFound, "File tidak ditemukan: "+err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "File tidak ditemukan")
		return
	}

	redirectToFile(w, r, file, h.uploads.PublicURL)
}
