// Package capture drives a single scan session: bind a location, take up to
// MaxImages photos, run inference on each, then submit or queue the report.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bantayani/internal/models"
	"bantayani/internal/offline"

	"github.com/google/uuid"
)

const MaxImages = 4

type State string

const (
	StateLocation   State = "location"
	StateCamera     State = "camera"
	StateProcessing State = "processing"
	StateReview     State = "review"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
)

type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeQueued    Outcome = "queued"
)

var (
	ErrNoImages      = errors.New("capture at least one image")
	ErrTooManyImages = fmt.Errorf("at most %d images per report", MaxImages)
	ErrWrongState    = errors.New("operation not allowed in current state")
)

type Identifier interface {
	Identify(ctx context.Context, image []byte, cropType string) (models.IdentifyResponse, error)
}

type Submitter interface {
	CreateDetection(ctx context.Context, in models.CreateDetectionInput) (*models.Detection, error)
}

type ReportQueue interface {
	Append(r offline.Report) error
}

// Flow is not safe for concurrent use.
type Flow struct {
	locator LocationProvider
	ai      Identifier
	api     Submitter
	queue   ReportQueue

	locationTimeout time.Duration

	state        State
	cropType     string
	latitude     *float64
	longitude    *float64
	locationName *string
	farmID       *int
	images       [][]byte
	results      []models.IdentifyResult
	note         *string
	outcome      Outcome
	lastErr      error
}

func NewFlow(cropType string, locator LocationProvider, ai Identifier, api Submitter, queue ReportQueue) *Flow {
	return &Flow{
		locator:         locator,
		ai:              ai,
		api:             api,
		queue:           queue,
		locationTimeout: LocationTimeout,
		state:           StateLocation,
		cropType:        cropType,
	}
}

func (f *Flow) State() State {
	return f.state
}

func (f *Flow) Outcome() Outcome {
	return f.outcome
}

// LastError is the submit error that sent the report to the offline queue.
func (f *Flow) LastError() error {
	return f.lastErr
}

func (f *Flow) CropType() string {
	return f.cropType
}

func (f *Flow) Coordinates() (lat, lon *float64) {
	return f.latitude, f.longitude
}

func (f *Flow) ImageCount() int {
	return len(f.images)
}

func (f *Flow) Results() []models.IdentifyResult {
	return append([]models.IdentifyResult(nil), f.results...)
}

func (f *Flow) expect(s State) error {
	if f.state != s {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongState, f.state, s)
	}
	return nil
}

// Locate binds the current GPS fix. On failure the flow stays in location.
func (f *Flow) Locate(ctx context.Context) error {
	if err := f.expect(StateLocation); err != nil {
		return err
	}
	if f.locator == nil {
		return ErrPositionUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, f.locationTimeout)
	defer cancel()

	pos, err := f.locator.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLocationTimeout
		}
		return err
	}
	if !models.ValidCoordinatePair(&pos.Latitude, &pos.Longitude) {
		return ErrPositionUnavailable
	}

	f.latitude, f.longitude = &pos.Latitude, &pos.Longitude
	f.state = StateCamera
	return nil
}

// UseFarm binds a saved farm's coordinates instead of a GPS fix.
func (f *Flow) UseFarm(farm models.Farm) error {
	if err := f.expect(StateLocation); err != nil {
		return err
	}
	if !models.ValidCoordinatePair(farm.Latitude, farm.Longitude) {
		return fmt.Errorf("%w: farm %d has no coordinates", ErrPositionUnavailable, farm.Slot)
	}
	lat, lon, slot := *farm.Latitude, *farm.Longitude, farm.Slot
	f.latitude, f.longitude, f.farmID = &lat, &lon, &slot
	if farm.Name != nil {
		name := *farm.Name
		f.locationName = &name
	}
	f.state = StateCamera
	return nil
}

func (f *Flow) SetCropType(crop string) error {
	if err := f.expect(StateCamera); err != nil {
		return err
	}
	f.cropType = strings.TrimSpace(crop)
	return nil
}

// Capture keeps a private copy of the frame.
func (f *Flow) Capture(frame []byte) error {
	if err := f.expect(StateCamera); err != nil {
		return err
	}
	if len(frame) == 0 {
		return fmt.Errorf("%w: empty image", models.ErrValidation)
	}
	if len(f.images) >= MaxImages {
		return ErrTooManyImages
	}
	f.images = append(f.images, append([]byte(nil), frame...))
	return nil
}

func (f *Flow) Remove(i int) error {
	if err := f.expect(StateCamera); err != nil {
		return err
	}
	if i < 0 || i >= len(f.images) {
		return fmt.Errorf("%w: no image at index %d", models.ErrValidation, i)
	}
	f.images = append(f.images[:i], f.images[i+1:]...)
	return nil
}

// Proceed runs inference on each image in order. A failed image gets the
// analysis-error result and the rest still run.
func (f *Flow) Proceed(ctx context.Context) error {
	if err := f.expect(StateCamera); err != nil {
		return err
	}
	if len(f.images) == 0 {
		return ErrNoImages
	}
	if f.cropType == "" {
		return fmt.Errorf("%w: crop type is required", models.ErrValidation)
	}

	f.state = StateProcessing
	f.results = make([]models.IdentifyResult, 0, len(f.images))
	for i, img := range f.images {
		f.results = append(f.results, f.identify(ctx, i, img))
	}
	f.state = StateReview
	return nil
}

func (f *Flow) identify(ctx context.Context, i int, img []byte) models.IdentifyResult {
	resp, err := f.ai.Identify(ctx, img, f.cropType)
	if err != nil {
		slog.Warn("inference failed", "image", i, "error", err)
		return models.AnalysisErrorResult()
	}
	if !resp.Success || resp.Detection == nil {
		slog.Warn("inference returned no result", "image", i, "error", resp.Error)
		return models.AnalysisErrorResult()
	}
	return *resp.Detection
}

func (f *Flow) SetNote(note string) error {
	if err := f.expect(StateReview); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		f.note = nil
		return nil
	}
	f.note = &note
	return nil
}

// Retake drops every image and result and returns to the camera.
func (f *Flow) Retake() error {
	if err := f.expect(StateReview); err != nil {
		return err
	}
	f.images, f.results, f.note = nil, nil, nil
	f.state = StateCamera
	return nil
}

func (f *Flow) report() offline.Report {
	r := offline.Report{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		CropType:     f.cropType,
		Latitude:     f.latitude,
		Longitude:    f.longitude,
		LocationName: f.locationName,
		FarmID:       f.farmID,
		Note:         f.note,
		Images:       make([]offline.ReportImage, len(f.images)),
	}
	for i := range f.images {
		r.Images[i] = offline.ReportImage{Data: f.images[i], Result: f.results[i]}
	}
	return r
}

// Submit creates one detection per image. If any create fails the whole
// report goes to the offline queue once and the flow still succeeds. Only a
// queue write failure keeps the flow in review.
func (f *Flow) Submit(ctx context.Context) (Outcome, error) {
	if err := f.expect(StateReview); err != nil {
		return "", err
	}
	f.state = StateSubmitting

	report := f.report()
	var submitErr error
	for _, in := range report.Inputs() {
		if _, err := f.api.CreateDetection(ctx, in); err != nil {
			submitErr = err
			break
		}
	}

	if submitErr == nil {
		f.outcome = OutcomeSubmitted
		f.state = StateSuccess
		return f.outcome, nil
	}

	slog.Warn("submit failed, queueing report", "report_id", report.ID, "error", submitErr)
	if err := f.queue.Append(report); err != nil {
		f.state = StateReview
		return "", fmt.Errorf("submit failed (%v) and report could not be queued: %w", submitErr, err)
	}
	f.lastErr = submitErr
	f.outcome = OutcomeQueued
	f.state = StateSuccess
	return f.outcome, nil
}

// Restart clears the session. The crop type carries over.
func (f *Flow) Restart() error {
	if err := f.expect(StateSuccess); err != nil {
		return err
	}
	*f = Flow{
		locator:         f.locator,
		ai:              f.ai,
		api:             f.api,
		queue:           f.queue,
		locationTimeout: f.locationTimeout,
		state:           StateLocation,
		cropType:        f.cropType,
	}
	return nil
}
