package repository

import (
	"context"
	"testing"
	"time"

	"bantayani/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client, time.Hour), mr
}

func TestSessionRepository_CreateGetDelete(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	s := &models.UserSession{ID: "s1", UserID: "u1", Role: models.RoleFarmer, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, s))
	assert.True(t, mr.Exists("session:s1"))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, models.RoleFarmer, got.Role)

	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, repo.Delete(ctx, "s1"))
}

func TestSessionRepository_Expires(t *testing.T) {
	repo, mr := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.UserSession{ID: "s2", UserID: "u2"}))
	mr.FastForward(2 * time.Hour)

	_, err := repo.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_DeleteUserSessions(t *testing.T) {
	repo, _ := newSessionRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.UserSession{ID: "a", UserID: "u3"}))
	require.NoError(t, repo.Create(ctx, &models.UserSession{ID: "b", UserID: "u3"}))

	require.NoError(t, repo.DeleteUserSessions(ctx, "u3"))

	_, err := repo.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
