package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/middleware"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const maxUploadMemory = 32 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseForm accepts both multipart (with attachments) and urlencoded bodies,
// since clients send edits without files as plain forms.
func parseForm(r *http.Request) error {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadMemory)
	}
	return r.ParseForm()
}

// formFiles returns the uploaded attachments, if any.
func formFiles(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["files"]
}

// callerID extracts the authenticated user id from the request context and
// writes the error response itself when the caller is unusable.
func callerID(w http.ResponseWriter, r *http.Request) (bson.ObjectID, bool) {
	hex := middleware.GetUserID(r.Context())
	if hex == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return bson.ObjectID{}, false
	}
	return id, true
}

// redirectToFile sends the caller to the attachment's resolved location:
// stored direct URL first, then a URL derived from the storage path. With
// neither available the file is unreachable.
func redirectToFile(w http.ResponseWriter, r *http.Request, file *models.FeedbackFile, publicURL URLResolver) {
	if file.HasDirectURL() {
		http.Redirect(w, r, file.FilePath, http.StatusFound)
		return
	}
	if file.StoragePath != "" {
		if u := publicURL(file.StoragePath); u != "" {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
	}
	writeError(w, http.StatusNotFound, "File tidak dapat diakses")
}

// parseObjectIDs converts the submitted hex ids, silently dropping malformed
// ones. Clients send whatever ids they hold; a bad one skips that file only.
func parseObjectIDs(values []string) []bson.ObjectID {
	ids := make([]bson.ObjectID, 0, len(values))
	for _, v := range values {
		id, err := bson.ObjectIDFromHex(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
