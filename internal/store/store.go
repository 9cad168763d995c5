package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/threadline-io/threadline/internal/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}

type ContactStore interface {
	UpsertContact(ctx context.Context, params models.ContactUpsertParams) (*models.Contact, error)
	GetContactByID(ctx context.Context, id int64) (*models.Contact, error)
}

type ThreadStore interface {
	// UpsertActiveThread atomically resolves the active thread for
	// (contactID, subject): it inserts a new thread, or, when the partial
	// unique index on active threads already holds a row, refreshes that
	// row's last_message_at and returns it. The returned bool is true when
	// a new thread was created.
	UpsertActiveThread(ctx context.Context, contactID int64, subject, fromEmail, fromName string, now time.Time) (*models.Thread, bool, error)
	// GetActiveThread fetches the active thread for (contactID, subject)
	// without creating one.
	GetActiveThread(ctx context.Context, contactID int64, subject string) (*models.Thread, error)
	GetThreadByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Thread, error)
	GetActiveThreads(ctx context.Context, limit, offset int) ([]models.Thread, error)
	CountActiveThreads(ctx context.Context) (int, error)
	TouchThread(ctx context.Context, id int64, lastMessageAt time.Time) error
	// DeactivateThreadsOlderThan flips active threads whose last message
	// predates cutoff and reports how many rows changed.
	DeactivateThreadsOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type MessageStore interface {
	// CreateMessage inserts the message and, in the same transaction, bumps
	// the owning thread's message_count and last_message_at.
	CreateMessage(ctx context.Context, params models.MessageCreateParams) (*models.Message, error)
	GetMessagesByThreadID(ctx context.Context, threadID int64) ([]models.Message, error)
	CountMessagesByThreadID(ctx context.Context, threadID int64) (int, error)
}
