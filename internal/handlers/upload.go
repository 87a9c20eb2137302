package handlers

import (
	"log"
	"mime/multipart"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

// uploadBatch persists all attachments concurrently and waits for the batch;
// one failed upload fails the whole batch. Blobs that did land before the
// failure are removed best-effort so the bucket doesn't accumulate orphans.
func uploadBatch(up storage.Uploader, files []*multipart.FileHeader, folder string) ([]*storage.UploadResult, error) {
	results := make([]*storage.UploadResult, len(files))

	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			res, err := up.Upload(file, folder)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var landed []string
		for _, res := range results {
			if res != nil {
				landed = append(landed, res.FileName)
			}
		}
		if len(landed) > 0 {
			if rmErr := up.Remove(landed); rmErr != nil {
				log.Printf("Error cleaning up partial uploads: %v", rmErr)
			}
		}
		return nil, err
	}
	return results, nil
}

func fileRows(feedbackID, disposisiID bson.ObjectID, results []*storage.UploadResult) []models.FeedbackFile {
	rows := make([]models.FeedbackFile, 0, len(results))
	for _, res := range results {
		rows = append(rows, models.FeedbackFile{
			FeedbackID:       feedbackID,
			DisposisiID:      disposisiID,
			FilePath:         res.PublicURL,
			FileFilename:     res.FileName,
			FileOriginalName: res.OriginalName,
			FileSize:         res.Size,
			FileType:         res.Mimetype,
			StoragePath:      res.FileName,
		})
	}
	return rows
}

func storageKeys(results []*storage.UploadResult) []string {
	keys := make([]string, 0, len(results))
	for _, res := range results {
		keys = append(keys, res.FileName)
	}
	return keys
}

func storagePaths(files []models.FeedbackFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.StoragePath != "" {
			paths = append(paths, f.StoragePath)
		}
	}
	return paths
}
