package handlers

import (
	"context"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/twpayne/go-geom/encoding/geojson"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Caller, *models.Claims, error)
}

type AuthAPI interface {
	Authenticator
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest, userAgent, ip string) (*models.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, caller models.Caller) (*models.User, error)
}

type DetectionAPI interface {
	Create(ctx context.Context, caller models.Caller, in models.CreateDetectionInput) (*models.Detection, error)
	Transition(ctx context.Context, caller models.Caller, id uuid.UUID, status models.DetectionStatus, note *string) (*models.Detection, error)
	List(ctx context.Context, caller models.Caller, filter models.DetectionFilter) ([]models.DetectionView, error)
	Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.DetectionView, error)
	Stats(ctx context.Context, caller models.Caller, filter models.DetectionFilter) (models.Stats, error)
	Map(ctx context.Context, caller models.Caller, filter models.DetectionFilter) (*geojson.FeatureCollection, error)
	Export(ctx context.Context, caller models.Caller, filter models.DetectionFilter) ([]byte, error)
	RequestInfo(ctx context.Context, caller models.Caller, id uuid.UUID, message string) (*models.Message, error)
}

type FarmAPI interface {
	List(ctx context.Context, caller models.Caller) ([]models.Farm, error)
	Save(ctx context.Context, caller models.Caller, slot int, req models.FarmUpsertRequest) (*models.Farm, error)
	Delete(ctx context.Context, caller models.Caller, slot int) error
}

type AdvisoryAPI interface {
	Create(ctx context.Context, caller models.Caller, req models.AdvisoryRequest) (*models.Advisory, error)
	List(ctx context.Context, caller models.Caller) ([]models.Advisory, error)
	Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.AdvisoryRequest) (*models.Advisory, error)
}

type MessageAPI interface {
	Send(ctx context.Context, caller models.Caller, req models.SendMessageRequest) (*models.Message, error)
	List(ctx context.Context, caller models.Caller, with *uuid.UUID) ([]models.Message, error)
	MarkRead(ctx context.Context, caller models.Caller, id uuid.UUID) error
	UnreadCount(ctx context.Context, caller models.Caller) (int, error)
}

type DeviceAPI interface {
	Register(ctx context.Context, caller models.Caller, token string) error
}

type IdentifyAPI interface {
	Identify(ctx context.Context, req models.IdentifyRequest) models.IdentifyResponse
}
