// Package offline keeps reports that could not be submitted, in a JSON file,
// until a later sync succeeds.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bantayani/internal/models"

	"github.com/google/uuid"
)

type ReportImage struct {
	Data   []byte                `json:"data"`
	Result models.IdentifyResult `json:"result"`
}

// Report is one capture session: every image plus the shared metadata.
type Report struct {
	ID           uuid.UUID     `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	CropType     string        `json:"crop_type"`
	Latitude     *float64      `json:"latitude,omitempty"`
	Longitude    *float64      `json:"longitude,omitempty"`
	LocationName *string       `json:"location_name,omitempty"`
	FarmID       *int          `json:"farm_id,omitempty"`
	Note         *string       `json:"note,omitempty"`
	Images       []ReportImage `json:"images"`
}

// Inputs expands the report into one create request per image.
func (r Report) Inputs() []models.CreateDetectionInput {
	out := make([]models.CreateDetectionInput, 0, len(r.Images))
	for _, img := range r.Images {
		in := models.CreateDetectionInput{
			PestType:     img.Result.PestType,
			Confidence:   img.Result.Confidence,
			CropType:     r.CropType,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			LocationName: r.LocationName,
			FarmerNotes:  r.Note,
			FarmID:       r.FarmID,
			Image:        img.Data,
		}
		if img.Result.ScientificName != "" {
			name := img.Result.ScientificName
			in.ScientificName = &name
		}
		out = append(out, in)
	}
	return out
}

// SubmitFunc sends one queued report. A nil error removes it from the queue.
type SubmitFunc func(ctx context.Context, r Report) error

// Queue is an ordered, unbounded list of reports persisted at path.
type Queue struct {
	mu   sync.Mutex
	path string
}

// Open prepares a queue at path. The file is created on first append.
func Open(path string) (*Queue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}
	q := &Queue{path: path}
	if _, err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Queue) load() ([]Report, error) {
	raw, err := os.ReadFile(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read offline queue: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var reports []Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("offline queue is corrupt: %w", err)
	}
	return reports, nil
}

// save writes to a temp file and renames it over the queue.
func (q *Queue) save(reports []Report) error {
	if reports == nil {
		reports = []Report{}
	}
	raw, err := json.Marshal(reports)
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write offline queue: %w", err)
	}
	return os.Rename(tmp, q.path)
}

func (q *Queue) Append(r Report) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	reports, err := q.load()
	if err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return q.save(append(reports, r))
}

func (q *Queue) List() ([]Report, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) Len() (int, error) {
	reports, err := q.List()
	return len(reports), err
}

// Flush submits reports in order and stops at the first failure. Only the
// submitted prefix is removed. It returns how many reports were sent.
func (q *Queue) Flush(ctx context.Context, submit SubmitFunc) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	reports, err := q.load()
	if err != nil {
		return 0, err
	}

	sent := 0
	var submitErr error
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		if err := submit(ctx, r); err != nil {
			submitErr = fmt.Errorf("report %s: %w", r.ID, err)
			break
		}
		sent++
	}

	if sent > 0 {
		if err := q.save(reports[sent:]); err != nil {
			return sent, err
		}
	}
	return sent, submitErr
}
