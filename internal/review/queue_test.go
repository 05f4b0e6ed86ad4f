package review

import (
	"context"
	"testing"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	id     uuid.UUID
	status models.DetectionStatus
	note   *string
}

type fakeReviewer struct {
	calls    []call
	messages []string
	err      error
}

func (f *fakeReviewer) Transition(_ context.Context, id uuid.UUID, status models.DetectionStatus, note *string) (*models.Detection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, call{id: id, status: status, note: note})
	return &models.Detection{ID: id, Status: status}, nil
}

func (f *fakeReviewer) RequestInfo(_ context.Context, _ uuid.UUID, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

var base = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func view(minutes int, status models.DetectionStatus) models.DetectionView {
	return models.DetectionView{Detection: models.Detection{
		ID:        uuid.New(),
		Status:    status,
		CreatedAt: base.Add(time.Duration(minutes) * time.Minute),
	}}
}

func TestQueue_RefreshKeepsPendingNewestFirst(t *testing.T) {
	old, mid, verified, newest := view(0, models.StatusPending), view(5, models.StatusPending), view(7, models.StatusVerified), view(10, models.StatusPending)
	q := NewQueue(&fakeReviewer{})

	q.Refresh([]models.DetectionView{old, mid, verified, newest})
	require.Equal(t, 3, q.Len())
	items := q.Items()
	assert.Equal(t, []uuid.UUID{newest.ID, mid.ID, old.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})
	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, newest.ID, cur.ID)
}

func TestQueue_VerifyAdvancesCursor(t *testing.T) {
	a, b, c := view(30, models.StatusPending), view(20, models.StatusPending), view(10, models.StatusPending)
	api := &fakeReviewer{}
	q := NewQueue(api)
	q.Refresh([]models.DetectionView{a, b, c})
	require.NoError(t, q.Select(b.ID))

	d, err := q.Verify(context.Background(), " looks right ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, d.Status)
	require.Len(t, api.calls, 1)
	assert.Equal(t, b.ID, api.calls[0].id)
	assert.Equal(t, "looks right", *api.calls[0].note)

	cur, _ := q.Current()
	assert.Equal(t, c.ID, cur.ID)

	_, err = q.Reject(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, api.calls[1].note)
	cur, _ = q.Current()
	assert.Equal(t, a.ID, cur.ID)

	_, err = q.Verify(context.Background(), "")
	require.NoError(t, err)
	_, ok := q.Current()
	assert.False(t, ok)
	_, err = q.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestQueue_FailedTransitionKeepsItem(t *testing.T) {
	a := view(0, models.StatusPending)
	q := NewQueue(&fakeReviewer{err: models.ErrForbidden})
	q.Refresh([]models.DetectionView{a})

	_, err := q.Reject(context.Background(), "blurry")
	assert.ErrorIs(t, err, models.ErrForbidden)
	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, a.ID, cur.ID)
}

func TestQueue_RefreshAfterChange(t *testing.T) {
	a, b, c := view(30, models.StatusPending), view(20, models.StatusPending), view(10, models.StatusPending)
	q := NewQueue(&fakeReviewer{})
	q.Refresh([]models.DetectionView{a, b, c})
	require.NoError(t, q.Select(b.ID))

	q.Refresh([]models.DetectionView{a, b, c, view(40, models.StatusPending)})
	cur, _ := q.Current()
	assert.Equal(t, b.ID, cur.ID, "cursor follows the same id")

	b.Status = models.StatusVerified
	q.Refresh([]models.DetectionView{a, b, c})
	cur, _ = q.Current()
	assert.Equal(t, a.ID, cur.ID, "falls back to the first pending")

	q.Refresh(nil)
	_, ok := q.Current()
	assert.False(t, ok)
}

func TestQueue_RequestInfoDoesNotMove(t *testing.T) {
	a, b := view(30, models.StatusPending), view(20, models.StatusPending)
	api := &fakeReviewer{}
	q := NewQueue(api)
	q.Refresh([]models.DetectionView{a, b})

	require.NoError(t, q.RequestInfo(context.Background(), "Please send a closer photo"))
	assert.ErrorIs(t, q.RequestInfo(context.Background(), "  "), models.ErrValidation)
	assert.Equal(t, []string{"Please send a closer photo"}, api.messages)
	cur, _ := q.Current()
	assert.Equal(t, a.ID, cur.ID)
	assert.Equal(t, 2, q.Len())
	assert.ErrorIs(t, q.Select(uuid.New()), models.ErrNotFound)
}
