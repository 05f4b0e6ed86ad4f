package models

import (
	"time"

	"github.com/google/uuid"
)

type Detection struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	FarmerID       uuid.UUID       `json:"farmer_id" db:"farmer_id"`
	PestType       string          `json:"pest_type" db:"pest_type"`
	ScientificName *string         `json:"scientific_name,omitempty" db:"scientific_name"`
	Confidence     float64         `json:"confidence" db:"confidence"`
	CropType       string          `json:"crop_type" db:"crop_type"`
	ImageURL       string          `json:"image_url" db:"image_url"`
	Latitude       *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude      *float64        `json:"longitude,omitempty" db:"longitude"`
	LocationName   *string         `json:"location_name,omitempty" db:"location_name"`
	Status         DetectionStatus `json:"status" db:"status"`
	ReviewedBy     *uuid.UUID      `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewerNotes  *string         `json:"reviewer_notes,omitempty" db:"reviewer_notes"`
	FarmID         *int            `json:"farm_id,omitempty" db:"farm_id"`
	FarmerNotes    *string         `json:"farmer_notes,omitempty" db:"farmer_notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// DetectionView is a detection joined with its owner, as shown to reviewers.
type DetectionView struct {
	Detection
	FarmerName  *string `json:"farmer_name,omitempty" db:"farmer_name"`
	FarmerEmail *string `json:"farmer_email,omitempty" db:"farmer_email"`
}

// HasValidCoordinates reports whether the detection can be placed on a map.
func (d Detection) HasValidCoordinates() bool {
	return ValidCoordinatePair(d.Latitude, d.Longitude)
}

// ValidCoordinatePair requires both values, in range, and not the 0,0 placeholder.
func ValidCoordinatePair(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if !InRange(*lat, -90, 90) || !InRange(*lon, -180, 180) {
		return false
	}
	return !(*lat == 0 && *lon == 0)
}

// InRange reports whether v is a finite number within [lo, hi]. NaN fails.
func InRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

type DetectionFilter struct {
	Status   DetectionStatus
	CropType string
}

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
}

// ComputeStats counts detections by status.
func ComputeStats(list []Detection) Stats {
	s := Stats{Total: len(list)}
	for _, d := range list {
		switch d.Status {
		case StatusPending:
			s.Pending++
		case StatusVerified:
			s.Verified++
		case StatusRejected:
			s.Rejected++
		}
	}
	return s
}

// Detections strips the owner fields from a slice of views.
func Detections(views []DetectionView) []Detection {
	out := make([]Detection, len(views))
	for i, v := range views {
		out[i] = v.Detection
	}
	return out
}
