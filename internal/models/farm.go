package models

import (
	"time"

	"github.com/google/uuid"
)

// Farm is a saved location shortcut. A farmer has at most MaxFarmSlots of them.
type Farm struct {
	FarmerID  uuid.UUID `json:"farmer_id" db:"farmer_id"`
	Slot      int       `json:"slot" db:"slot"`
	Name      *string   `json:"name,omitempty" db:"name"`
	Landmark  *string   `json:"landmark,omitempty" db:"landmark"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func ValidSlot(slot int) bool {
	return slot >= 1 && slot <= MaxFarmSlots
}
