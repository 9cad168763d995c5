// Package thread resolves outbound emails to conversation threads and owns
// the thread lifecycle: creation, message append, lookup, expiry.
package thread

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/threadline-io/threadline/internal/models"
	"github.com/threadline-io/threadline/internal/store"
	"github.com/threadline-io/threadline/internal/subject"
)

var (
	ErrInvalidContact = errors.New("contact is missing an id or email address")
	// ErrNoThread is returned by Resolve when auto-threading is off and the
	// contact has no active thread for the subject.
	ErrNoThread       = errors.New("no active thread for contact and subject")
	ErrThreadNotFound = errors.New("thread not found")
)

type Service struct {
	contacts store.ContactStore
	threads  store.ThreadStore
	messages store.MessageStore
}

func NewService(contacts store.ContactStore, threads store.ThreadStore, messages store.MessageStore) *Service {
	return &Service{
		contacts: contacts,
		threads:  threads,
		messages: messages,
	}
}

// Resolve finds the thread an outbound email belongs to. The subject is
// normalized before matching, so "Hello" and "Re: Hello" land on the same
// thread. When autoThread is set a missing thread is created atomically;
// otherwise ErrNoThread is returned and the email is left alone.
//
// The contact is upserted first so the thread's foreign key always has a row
// to point at. Returns the thread and whether it was newly created.
func (s *Service) Resolve(ctx context.Context, contact models.ContactUpsertParams, rawSubject, fromEmail, fromName string, autoThread bool, now time.Time) (*models.Thread, bool, error) {
	if contact.ID <= 0 || contact.Email == "" {
		return nil, false, ErrInvalidContact
	}

	if _, err := s.contacts.UpsertContact(ctx, contact); err != nil {
		return nil, false, fmt.Errorf("upsert contact: %w", err)
	}

	normalized := subject.Normalize(rawSubject)

	if !autoThread {
		t, err := s.threads.GetActiveThread(ctx, contact.ID, normalized)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNoThread
		}
		if err != nil {
			return nil, false, fmt.Errorf("get active thread: %w", err)
		}
		return t, false, nil
	}

	t, created, err := s.threads.UpsertActiveThread(ctx, contact.ID, normalized, fromEmail, fromName, now)
	if err != nil {
		return nil, false, fmt.Errorf("upsert thread: %w", err)
	}
	return t, created, nil
}

// AppendMessage records an outbound email against its thread. The store bumps
// the thread's message count and last_message_at in the same transaction.
func (s *Service) AppendMessage(ctx context.Context, params models.MessageCreateParams) (*models.Message, error) {
	msg, err := s.messages.CreateMessage(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Messages returns a thread's messages in send order, oldest first.
func (s *Service) Messages(ctx context.Context, threadID int64) ([]models.Message, error) {
	return s.messages.GetMessagesByThreadID(ctx, threadID)
}

// FindByPublicID looks up a thread by the UUID exposed in URLs, active or
// not. Callers decide whether an inactive thread is visible.
func (s *Service) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Thread, error) {
	t, err := s.threads.GetThreadByPublicID(ctx, publicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thread by public id: %w", err)
	}
	return t, nil
}

// Contact returns the contact a thread belongs to.
func (s *Service) Contact(ctx context.Context, contactID int64) (*models.Contact, error) {
	c, err := s.contacts.GetContactByID(ctx, contactID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %d not found", contactID)
	}
	return c, err
}

// List returns active threads, most recently touched first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Thread, error) {
	return s.threads.GetActiveThreads(ctx, limit, offset)
}

// CountActive returns the number of active threads.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.threads.CountActiveThreads(ctx)
}

// DeactivateExpired closes threads whose last message is older than daysOld
// days and reports how many were closed. Messages are kept; only the active
// flag flips, so expired threads stop matching new emails and drop off the
// public site.
func (s *Service) DeactivateExpired(ctx context.Context, daysOld int, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -daysOld)
	n, err := s.threads.DeactivateThreadsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deactivate threads: %w", err)
	}
	return n, nil
}
