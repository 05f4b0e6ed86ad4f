package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"bantayani/internal/models"
	"bantayani/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeDetectionStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*models.Detection
	owners    map[uuid.UUID]string
	created   int
	createErr error
}

func newFakeDetectionStore() *fakeDetectionStore {
	return &fakeDetectionStore{rows: map[uuid.UUID]*models.Detection{}, owners: map[uuid.UUID]string{}}
}

func (f *fakeDetectionStore) Create(_ context.Context, d *models.Detection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	f.rows[d.ID] = &cp
	f.created++
	return nil
}

func (f *fakeDetectionStore) view(d *models.Detection) models.DetectionView {
	v := models.DetectionView{Detection: *d}
	if name, ok := f.owners[d.FarmerID]; ok {
		email := name + "@example.com"
		v.FarmerName, v.FarmerEmail = &name, &email
	}
	return v
}

func (f *fakeDetectionStore) GetByID(_ context.Context, id uuid.UUID) (*models.DetectionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	v := f.view(d)
	return &v, nil
}

func (f *fakeDetectionStore) List(_ context.Context, farmerID *uuid.UUID, filter models.DetectionFilter) ([]models.DetectionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DetectionView
	for _, d := range f.rows {
		if farmerID != nil && d.FarmerID != *farmerID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.CropType != "" && d.CropType != filter.CropType {
			continue
		}
		out = append(out, f.view(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDetectionStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.DetectionStatus, reviewer uuid.UUID, note *string, at time.Time) (*models.Detection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	d.Status = status
	d.ReviewedBy = &reviewer
	d.ReviewedAt = &at
	d.ReviewerNotes = note
	d.UpdatedAt = at
	cp := *d
	return &cp, nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.New()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) ListIDsByRole(_ context.Context, role models.Role) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, u := range f.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

type fakeMessageStore struct {
	messages []models.Message
}

func (f *fakeMessageStore) Create(_ context.Context, m *models.Message) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageStore) Conversation(_ context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListForUser(_ context.Context, userID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(_ context.Context, id, recipientID uuid.UUID) error {
	for i := range f.messages {
		if f.messages[i].ID == id && f.messages[i].RecipientID == recipientID {
			f.messages[i].IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeMessageStore) UnreadCount(_ context.Context, recipientID uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.messages {
		if m.RecipientID == recipientID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeImageStore struct {
	err     error
	objects map[string][]byte
	deleted []string
}

func (f *fakeImageStore) PutImage(_ context.Context, objectName string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = data
	return "http://storage.local/detection-images/" + objectName, nil
}

func (f *fakeImageStore) DeleteImage(_ context.Context, objectName string) error {
	delete(f.objects, objectName)
	f.deleted = append(f.deleted, objectName)
	return nil
}

type recordingChanges struct {
	tables []string
	err    error
}

func (r *recordingChanges) Publish(_ context.Context, table string) error {
	r.tables = append(r.tables, table)
	return r.err
}

type recordingNotifier struct {
	submitted     int
	reviewed      []models.DetectionStatus
	infoRequested []string
	newMessages   []string
	advisories    [][]uuid.UUID
}

func (r *recordingNotifier) NotifyDetectionSubmitted(_ context.Context, _ []uuid.UUID, _ *models.Detection) {
	r.submitted++
}

func (r *recordingNotifier) NotifyDetectionReviewed(_ context.Context, d *models.Detection) {
	r.reviewed = append(r.reviewed, d.Status)
}

func (r *recordingNotifier) NotifyInfoRequested(_ context.Context, _, _ uuid.UUID, message string) {
	r.infoRequested = append(r.infoRequested, message)
}

func (r *recordingNotifier) NotifyNewMessage(_ context.Context, _ *models.Message, senderName string) {
	r.newMessages = append(r.newMessages, senderName)
}

func (r *recordingNotifier) NotifyAdvisory(_ context.Context, recipients []uuid.UUID, _ *models.Advisory) {
	r.advisories = append(r.advisories, recipients)
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		img.Set(x, x%24, color.RGBA{R: 40, G: 160, B: 60, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
