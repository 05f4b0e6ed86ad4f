package models

import (
	"fmt"
	"strings"

	utils "bantayani/shared/utils"

	"github.com/google/uuid"
)

type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Role        Role   `json:"role" binding:"required"`
}

func (r *SignupRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if ok, _ := utils.ValidateEmail(r.Email); !ok {
		return fmt.Errorf("%w: email is invalid", ErrValidation)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if r.DisplayName == "" {
		return fmt.Errorf("%w: display_name is required", ErrValidation)
	}
	if !r.Role.IsValid() {
		return fmt.Errorf("%w: role must be farmer or lgu_admin", ErrValidation)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   int64     `json:"expires_at"`
	User        User      `json:"user"`
	SessionID   string    `json:"session_id"`
	UserID      uuid.UUID `json:"-"`
}

// CreateDetectionInput carries everything a farmer submits for one image.
type CreateDetectionInput struct {
	PestType       string
	ScientificName *string
	Confidence     float64
	CropType       string
	Latitude       *float64
	Longitude      *float64
	LocationName   *string
	FarmerNotes    *string
	FarmID         *int
	Image          []byte
}

func (in *CreateDetectionInput) Validate() error {
	in.PestType = strings.TrimSpace(in.PestType)
	in.CropType = strings.TrimSpace(in.CropType)
	if in.PestType == "" {
		return fmt.Errorf("%w: pest_type is required", ErrValidation)
	}
	if in.CropType == "" {
		return fmt.Errorf("%w: crop_type is required", ErrValidation)
	}
	if len(in.Image) == 0 {
		return fmt.Errorf("%w: image is required", ErrValidation)
	}
	if !InRange(in.Confidence, 0, 1) {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrValidation)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be provided together", ErrValidation)
	}
	if in.Latitude != nil {
		if !InRange(*in.Latitude, -90, 90) || !InRange(*in.Longitude, -180, 180) {
			return fmt.Errorf("%w: coordinates out of range", ErrValidation)
		}
	}
	if in.FarmID != nil && !ValidSlot(*in.FarmID) {
		return fmt.Errorf("%w: farm_id must be between 1 and %d", ErrValidation, MaxFarmSlots)
	}
	return nil
}

type TransitionRequest struct {
	Status DetectionStatus `json:"status" binding:"required"`
	Note   *string         `json:"note"`
}

type RequestInfoRequest struct {
	Message string `json:"message" binding:"required"`
}

type FarmUpsertRequest struct {
	Name      *string  `json:"name"`
	Landmark  *string  `json:"landmark"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type AdvisoryRequest struct {
	Title           string   `json:"title" binding:"required"`
	Body            string   `json:"body" binding:"required"`
	Severity        Severity `json:"severity" binding:"required"`
	AffectedCrops   []string `json:"affected_crops"`
	AffectedRegions []string `json:"affected_regions"`
	IsActive        *bool    `json:"is_active"`
}

func (r *AdvisoryRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	if r.Title == "" || r.Body == "" {
		return fmt.Errorf("%w: title and body are required", ErrValidation)
	}
	if !r.Severity.IsValid() {
		return fmt.Errorf("%w: severity must be one of low, medium, high, critical", ErrValidation)
	}
	return nil
}

type SendMessageRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" binding:"required"`
	DetectionID *uuid.UUID `json:"detection_id"`
	Body        string     `json:"body" binding:"required"`
}

type RegisterDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

type IdentifyRequest struct {
	Image    string `json:"image" binding:"required"`
	CropType string `json:"crop_type"`
}

// IdentifyResult is the AI's preliminary guess for one image.
type IdentifyResult struct {
	PestType        string   `json:"pest_type"`
	ScientificName  string   `json:"scientific_name,omitempty"`
	Confidence      float64  `json:"confidence"`
	Description     string   `json:"description,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type IdentifyResponse struct {
	Success   bool            `json:"success"`
	Detection *IdentifyResult `json:"detection,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// AnalysisErrorResult is recorded for an image whose inference call failed.
func AnalysisErrorResult() IdentifyResult {
	return IdentifyResult{PestType: AnalysisErrorLabel, Confidence: 0}
}
