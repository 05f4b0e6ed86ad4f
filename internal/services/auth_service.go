package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bantayani/internal/models"
	"bantayani/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users      UserStore
	sessions   SessionStore
	jwt        *JWTService
	sessionTTL time.Duration
}

func NewAuthService(users UserStore, sessions SessionStore, jwt *JWTService, sessionTTL time.Duration) *AuthService {
	return &AuthService{users: users, sessions: sessions, jwt: jwt, sessionTTL: sessionTTL}
}

// Signup registers a user. The role is fixed at this point and never changes.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: email already registered", models.ErrValidation)
		}
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, userAgent, ip string) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthenticated)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthenticated)
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.jwt.GenerateToken(user, sessionID, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	session := &models.UserSession{
		ID:        sessionID,
		UserID:    user.ID.String(),
		Role:      user.Role,
		UserAgent: userAgent,
		IPAddress: ip,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		User:        *user,
		SessionID:   sessionID,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Authenticate resolves a bearer token to its caller. The token must carry a
// live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Caller, *models.Claims, error) {
	claims, err := s.jwt.VerifyToken(token)
	if err != nil {
		return models.Caller{}, nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.Caller{}, nil, fmt.Errorf("%w: session expired", models.ErrUnauthenticated)
		}
		return models.Caller{}, nil, err
	}
	if session.UserID != claims.UserID {
		return models.Caller{}, nil, fmt.Errorf("%w: session mismatch", models.ErrUnauthenticated)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.Caller{}, nil, fmt.Errorf("%w: malformed subject", models.ErrUnauthenticated)
	}
	return models.Caller{UserID: userID, Role: claims.Role}, claims, nil
}

func (s *AuthService) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, caller.UserID)
}
