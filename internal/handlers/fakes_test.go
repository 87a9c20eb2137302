package handlers

import (
	"context"
	"mime/multipart"
	"sort"
	"sync"

	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/models"
	"github.com/farelkdhfi/magessa-bappelitbangda-be/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory fakes for the store interfaces. They mirror the filter semantics
// of the mongo repos closely enough for handler-level tests.

type fakeIdentities struct {
	byID map[bson.ObjectID]*models.Identity
	err  error
}

func (f *fakeIdentities) ResolveIdentity(ctx context.Context, id bson.ObjectID) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

type statusUpdate struct {
	id          bson.ObjectID
	status      string
	roleField   string
	roleStatus  string
	hasFeedback bool
}

type fakeDisposisi struct {
	byID      map[bson.ObjectID]*models.Disposisi
	updates   []statusUpdate
	updateErr error
}

func (f *fakeDisposisi) FindByID(ctx context.Context, id bson.ObjectID) (*models.Disposisi, error) {
	return f.byID[id], nil
}

func (f *fakeDisposisi) FindForwardedToUser(ctx context.Context, id, userID bson.ObjectID) (*models.Disposisi, error) {
	d := f.byID[id]
	if d == nil || d.DiteruskanKepadaUserID != userID {
		return nil, nil
	}
	return d, nil
}

func (f *fakeDisposisi) FindAddressedToJabatan(ctx context.Context, id bson.ObjectID, jabatan string) (*models.Disposisi, error) {
	d := f.byID[id]
	if d == nil || d.DisposisiKepadaJabatan != jabatan {
		return nil, nil
	}
	return d, nil
}

func (f *fakeDisposisi) FindByIDs(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Disposisi, error) {
	out := make(map[bson.ObjectID]*models.Disposisi)
	for _, id := range ids {
		if d := f.byID[id]; d != nil {
			out[id] = d
		}
	}
	return out, nil
}

func (f *fakeDisposisi) UpdateStatus(ctx context.Context, id bson.ObjectID, status, roleField, roleStatus string, setHasFeedback bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, statusUpdate{id: id, status: status, roleField: roleField, roleStatus: roleStatus, hasFeedback: setHasFeedback})
	if d := f.byID[id]; d != nil {
		d.Status = status
		if setHasFeedback {
			d.HasFeedback = true
		}
	}
	return nil
}

type fakeFeedback struct {
	items     map[bson.ObjectID]*models.Feedback
	createErr error
	deleted   []bson.ObjectID
}

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{items: make(map[bson.ObjectID]*models.Feedback)}
}

func (f *fakeFeedback) add(fb models.Feedback) *models.Feedback {
	if fb.ID.IsZero() {
		fb.ID = bson.NewObjectID()
	}
	f.items[fb.ID] = &fb
	return &fb
}

func (f *fakeFeedback) Create(ctx context.Context, feedback *models.Feedback) error {
	if f.createErr != nil {
		return f.createErr
	}
	feedback.ID = bson.NewObjectID()
	feedback.CreatedAt = models.WIBNow()
	stored := *feedback
	f.items[feedback.ID] = &stored
	return nil
}

func (f *fakeFeedback) Delete(ctx context.Context, id bson.ObjectID) error {
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeFeedback) FindByID(ctx context.Context, id bson.ObjectID) (*models.Feedback, error) {
	return f.items[id], nil
}

func (f *fakeFeedback) FindOwned(ctx context.Context, id, userID bson.ObjectID) (*models.Feedback, error) {
	fb := f.items[id]
	if fb == nil || fb.UserID != userID {
		return nil, nil
	}
	return fb, nil
}

func (f *fakeFeedback) FindOwnedWithJabatan(ctx context.Context, id, userID bson.ObjectID, jabatan string) (*models.Feedback, error) {
	fb := f.items[id]
	if fb == nil || fb.UserID != userID || fb.UserJabatan != jabatan {
		return nil, nil
	}
	return fb, nil
}

func (f *fakeFeedback) FindByDisposisiAndUser(ctx context.Context, disposisiID, userID bson.ObjectID) (*models.Feedback, error) {
	for _, fb := range f.items {
		if fb.DisposisiID == disposisiID && fb.UserID == userID {
			return fb, nil
		}
	}
	return nil, nil
}

func (f *fakeFeedback) FindByDisposisi(ctx context.Context, disposisiID bson.ObjectID) (*models.Feedback, error) {
	for _, fb := range f.items {
		if fb.DisposisiID == disposisiID {
			return fb, nil
		}
	}
	return nil, nil
}

func (f *fakeFeedback) ListByUser(ctx context.Context, userID bson.ObjectID) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range f.items {
		if fb.UserID == userID {
			out = append(out, *fb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeFeedback) ListAll(ctx context.Context) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range f.items {
		out = append(out, *fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeFeedback) UpdateNotes(ctx context.Context, id bson.ObjectID, notes string) (*models.Feedback, error) {
	fb := f.items[id]
	if fb == nil {
		return nil, nil
	}
	fb.Notes = notes
	fb.UpdatedAt = models.WIBNow()
	return fb, nil
}

func (f *fakeFeedback) UpdateNotesAndJabatan(ctx context.Context, id bson.ObjectID, notes, jabatan string) (*models.Feedback, error) {
	fb := f.items[id]
	if fb == nil {
		return nil, nil
	}
	fb.Notes = notes
	fb.UserJabatan = jabatan
	fb.UpdatedAt = models.WIBNow()
	return fb, nil
}

type fakeFiles struct {
	rows      map[bson.ObjectID]*models.FeedbackFile
	owners    *fakeFeedback
	insertErr error
}

func newFakeFiles(owners *fakeFeedback) *fakeFiles {
	return &fakeFiles{rows: make(map[bson.ObjectID]*models.FeedbackFile), owners: owners}
}

func (f *fakeFiles) add(file models.FeedbackFile) *models.FeedbackFile {
	if file.ID.IsZero() {
		file.ID = bson.NewObjectID()
	}
	f.rows[file.ID] = &file
	return &file
}

func (f *fakeFiles) InsertMany(ctx context.Context, files []models.FeedbackFile) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, file := range files {
		f.add(file)
	}
	return nil
}

func (f *fakeFiles) FindByID(ctx context.Context, id bson.ObjectID) (*models.FeedbackFile, error) {
	return f.rows[id], nil
}

func (f *fakeFiles) FindOwnedByUser(ctx context.Context, fileID, userID bson.ObjectID) (*models.FeedbackFile, error) {
	file := f.rows[fileID]
	if file == nil {
		return nil, nil
	}
	owner := f.owners.items[file.FeedbackID]
	if owner == nil || owner.UserID != userID {
		return nil, nil
	}
	return file, nil
}

func (f *fakeFiles) ListByFeedback(ctx context.Context, feedbackID bson.ObjectID) ([]models.FeedbackFile, error) {
	var out []models.FeedbackFile
	for _, file := range f.rows {
		if file.FeedbackID == feedbackID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFiles) ListByFeedbackIDs(ctx context.Context, feedbackIDs []bson.ObjectID) (map[bson.ObjectID][]models.FeedbackFile, error) {
	out := make(map[bson.ObjectID][]models.FeedbackFile)
	for _, id := range feedbackIDs {
		files, _ := f.ListByFeedback(ctx, id)
		if len(files) > 0 {
			out[id] = files
		}
	}
	return out, nil
}

func (f *fakeFiles) FindScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) ([]models.FeedbackFile, error) {
	var out []models.FeedbackFile
	for _, id := range ids {
		if file := f.rows[id]; file != nil && file.FeedbackID == feedbackID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFiles) DeleteScoped(ctx context.Context, feedbackID bson.ObjectID, ids []bson.ObjectID) error {
	for _, id := range ids {
		if file := f.rows[id]; file != nil && file.FeedbackID == feedbackID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeFiles) DeleteByID(ctx context.Context, id bson.ObjectID) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeFiles) CountByFeedback(ctx context.Context, feedbackID bson.ObjectID) (int64, error) {
	files, _ := f.ListByFeedback(ctx, feedbackID)
	return int64(len(files)), nil
}

type fakeLogs struct {
	entries []*models.DisposisiStatusLog
	err     error
}

func (f *fakeLogs) Append(ctx context.Context, entry *models.DisposisiStatusLog) error {
	if f.err != nil {
		return f.err
	}
	entry.CreatedAt = models.WIBNow()
	f.entries = append(f.entries, entry)
	return nil
}

// fakeUploader records uploads and removals. Upload is called concurrently
// from the batch, so access is guarded.
type fakeUploader struct {
	mu        sync.Mutex
	uploaded  []string
	removed   []string
	uploadErr error
	baseURL   string
}

func (f *fakeUploader) Upload(file *multipart.FileHeader, folder string) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := storage.ObjectKey(folder, file.Filename)
	f.mu.Lock()
	f.uploaded = append(f.uploaded, key)
	f.mu.Unlock()
	return &storage.UploadResult{
		FileName:     key,
		PublicURL:    f.PublicURL(key),
		OriginalName: file.Filename,
		Size:         file.Size,
		Mimetype:     file.Header.Get("Content-Type"),
	}, nil
}

func (f *fakeUploader) Remove(paths []string) error {
	f.mu.Lock()
	f.removed = append(f.removed, paths...)
	f.mu.Unlock()
	return nil
}

func (f *fakeUploader) PublicURL(path string) string {
	if f.baseURL == "" {
		return ""
	}
	return f.baseURL + "/" + path
}

type noopNotifier struct{}

func (noopNotifier) Publish(ctx context.Context, message string) error { return nil }
