package handlers

import (
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
)

// URLResolver derives a public URL from a bucket-relative storage path.
type URLResolver func(storagePath string) string

// FileView is the API shape of one attachment.
type FileView struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

// FeedbackView is a feedback entry joined with its disposition summary and
// transformed attachments. Building it never mutates the stored rows.
type FeedbackView struct {
	models.Feedback
	Disposisi *models.Disposisi `json:"disposisi,omitempty"`
	Files     []FileView        `json:"files"`
	FileCount int               `json:"file_count"`
	HasFiles  bool              `json:"has_files"`
}

// resolveFileURL picks the attachment URL in fixed precedence: a stored
// direct URL wins, then a URL derived from the storage path, then the
// id-addressed proxy endpoint as a last resort.
func resolveFileURL(f *models.FeedbackFile, proxyPrefix string, publicURL URLResolver) string {
	if f.HasDirectURL() {
		return f.FilePath
	}
	if f.StoragePath != "" {
		if u := publicURL(f.StoragePath); u != "" {
			return u
		}
	}
	return proxyPrefix + "/" + f.ID.Hex()
}

func fileViews(files []models.FeedbackFile, proxyPrefix string, publicURL URLResolver) []FileView {
	views := make([]FileView, 0, len(files))
	for i := range files {
		f := &files[i]
		views = append(views, FileView{
			ID:       f.ID.Hex(),
			Filename: f.FileOriginalName,
			Size:     f.FileSize,
			Type:     f.FileType,
			URL:      resolveFileURL(f, proxyPrefix, publicURL),
		})
	}
	return views
}

func feedbackView(fb models.Feedback, disp *models.Disposisi, files []models.FeedbackFile, proxyPrefix string, publicURL URLResolver) FeedbackView {
	views := fileViews(files, proxyPrefix, publicURL)
	return FeedbackView{
		Feedback:  fb,
		Disposisi: disp,
		Files:     views,
		FileCount: len(views),
		HasFiles:  len(views) > 0,
	}
}
