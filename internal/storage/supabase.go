package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

// UploadResult describes one persisted blob. FileName is the bucket-relative
// key; PublicURL is resolvable without authentication.
type UploadResult struct {
	FileName     string
	PublicURL    string
	OriginalName string
	Size         int64
	Mimetype     string
}

// Uploader is the object-storage collaborator as the handlers see it. The
// production implementation talks to a Supabase bucket; tests substitute an
// in-memory fake.
type Uploader interface {
	Upload(file *multipart.FileHeader, folder string) (*UploadResult, error)
	Remove(paths []string) error
	PublicURL(path string) string
}

// Supabase uploads feedback attachments to a single storage bucket.
type Supabase struct {
	client *storage_go.Client
	bucket string
}

// NewSupabase builds a client for the project's storage API. projectURL is
// the bare project URL (https://xyz.supabase.co); the service key must have
// write access to the bucket.
func NewSupabase(projectURL, serviceKey, bucket string) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(strings.TrimSuffix(projectURL, "/")+"/storage/v1", serviceKey, nil),
		bucket: bucket,
	}
}

func (s *Supabase) Upload(file *multipart.FileHeader, folder string) (*UploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Filename, err)
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(folder, file.Filename)
	_, err = s.client.UploadFile(s.bucket, key, src, storage_go.FileOptions{ContentType: &contentType})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", file.Filename, err)
	}

	return &UploadResult{
		FileName:     key,
		PublicURL:    s.PublicURL(key),
		OriginalName: file.Filename,
		Size:         file.Size,
		Mimetype:     contentType,
	}, nil
}

func (s *Supabase) Remove(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := s.client.RemoveFile(s.bucket, paths)
	return err
}

func (s *Supabase) PublicURL(path string) string {
	return s.client.GetPublicUrl(s.bucket, path).SignedURL
}

// ObjectKey builds a collision-free bucket key under a category prefix,
// keeping the original extension so content type survives downloads.
func ObjectKey(folder, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return folder + "/" + uuid.New().String() + ext
}
