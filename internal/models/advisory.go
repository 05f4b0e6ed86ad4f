package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Advisory struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Body            string         `json:"body" db:"body"`
	Severity        Severity       `json:"severity" db:"severity"`
	AffectedCrops   pq.StringArray `json:"affected_crops" db:"affected_crops"`
	AffectedRegions pq.StringArray `json:"affected_regions" db:"affected_regions"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedBy       uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// ActiveAdvisories keeps only advisories with IsActive set, preserving order.
func ActiveAdvisories(list []Advisory) []Advisory {
	out := make([]Advisory, 0, len(list))
	for _, a := range list {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out
}
