// Package review holds a reviewer's queue of pending detections and a cursor
// over it.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"bantayani/internal/models"

	"github.com/google/uuid"
)

var ErrEmpty = errors.New("no pending detections")

type Reviewer interface {
	Transition(ctx context.Context, id uuid.UUID, status models.DetectionStatus, note *string) (*models.Detection, error)
	RequestInfo(ctx context.Context, id uuid.UUID, message string) error
}

// Queue is not safe for concurrent use.
type Queue struct {
	api     Reviewer
	items   []models.DetectionView
	current int
}

func NewQueue(api Reviewer) *Queue {
	return &Queue{api: api, current: -1}
}

func pendingNewestFirst(list []models.DetectionView) []models.DetectionView {
	out := make([]models.DetectionView, 0, len(list))
	for _, d := range list {
		if d.Status == models.StatusPending {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Refresh replaces the queue with the pending subset of list. The cursor
// stays on the same detection if it is still pending, otherwise it moves to
// the first item.
func (q *Queue) Refresh(list []models.DetectionView) {
	var keep uuid.UUID
	if d, ok := q.Current(); ok {
		keep = d.ID
	}

	q.items = pendingNewestFirst(list)
	q.current = -1
	if len(q.items) == 0 {
		return
	}
	q.current = 0
	for i, d := range q.items {
		if d.ID == keep {
			q.current = i
			return
		}
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Items() []models.DetectionView {
	return append([]models.DetectionView(nil), q.items...)
}

func (q *Queue) Current() (models.DetectionView, bool) {
	if q.current < 0 || q.current >= len(q.items) {
		return models.DetectionView{}, false
	}
	return q.items[q.current], true
}

// Select moves the cursor to the detection with the given id.
func (q *Queue) Select(id uuid.UUID) error {
	for i, d := range q.items {
		if d.ID == id {
			q.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: detection %s is not pending", models.ErrNotFound, id)
}

func (q *Queue) Verify(ctx context.Context, note string) (*models.Detection, error) {
	return q.decide(ctx, models.StatusVerified, note)
}

func (q *Queue) Reject(ctx context.Context, note string) (*models.Detection, error) {
	return q.decide(ctx, models.StatusRejected, note)
}

// decide transitions the current item. On success the item leaves the queue
// and the cursor lands on the next one, wrapping to the first.
func (q *Queue) decide(ctx context.Context, status models.DetectionStatus, note string) (*models.Detection, error) {
	cur, ok := q.Current()
	if !ok {
		return nil, ErrEmpty
	}

	var notePtr *string
	if note = strings.TrimSpace(note); note != "" {
		notePtr = &note
	}
	d, err := q.api.Transition(ctx, cur.ID, status, notePtr)
	if err != nil {
		return nil, err
	}

	q.items = append(q.items[:q.current], q.items[q.current+1:]...)
	switch {
	case len(q.items) == 0:
		q.current = -1
	case q.current >= len(q.items):
		q.current = 0
	}
	return d, nil
}

// RequestInfo asks the farmer for more detail. The item stays pending and
// the cursor does not move.
func (q *Queue) RequestInfo(ctx context.Context, message string) error {
	cur, ok := q.Current()
	if !ok {
		return ErrEmpty
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: message is required", models.ErrValidation)
	}
	return q.api.RequestInfo(ctx, cur.ID, message)
}
