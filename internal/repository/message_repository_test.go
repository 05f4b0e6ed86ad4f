package repository

import (
	"context"
	"testing"
	"time"

	"bantayani/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMessageRepository(db)

	sender, recipient, detection := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(sqlmock.AnyArg(), sender, recipient, &detection, "Please send a closer photo", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &models.Message{SenderID: sender, RecipientID: recipient, DetectionID: &detection, Body: "Please send a closer photo"}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_Conversation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMessageRepository(db)

	a, b := uuid.New(), uuid.New()
	cols := []string{"id", "sender_id", "recipient_id", "detection_id", "body", "is_read", "created_at"}
	t0 := time.Now().Add(-time.Minute)
	mock.ExpectQuery(`ORDER BY created_at ASC`).
		WithArgs(a, b).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.New().String(), a.String(), b.String(), nil, "hi", true, t0).
			AddRow(uuid.New().String(), b.String(), a.String(), nil, "hello", false, time.Now()))

	msgs, err := repo.Conversation(context.Background(), a, b)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.False(t, msgs[1].IsRead)
}

func TestMessageRepository_MarkRead_WrongRecipient(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMessageRepository(db)

	id, who := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE messages SET is_read = TRUE`).WithArgs(id, who).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkRead(context.Background(), id, who), models.ErrNotFound)
}

func TestMessageRepository_UnreadCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewMessageRepository(db)

	who := uuid.New()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM messages`).WithArgs(who).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.UnreadCount(context.Background(), who)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
