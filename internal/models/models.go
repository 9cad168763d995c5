package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64
	PublicID     uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Contact is a recipient known to the host platform. The id is assigned
// externally; Threadline only mirrors the fields it needs for display.
type Contact struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the contact's name, falling back to the email address.
func (c *Contact) DisplayName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	if name == "" {
		return c.Email
	}
	return name
}

// Thread groups all outbound messages to one contact that share a normalized
// subject. PublicID is the only identifier ever exposed in URLs.
type Thread struct {
	ID             int64
	PublicID       uuid.UUID
	ContactID      int64
	Subject        string // normalized; the matching key, never shown to recipients
	FromEmail      string
	FromName       string
	FirstMessageAt time.Time
	LastMessageAt  time.Time
	MessageCount   int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmailType classifies how a message was sent.
type EmailType string

const (
	EmailTypeTemplate  EmailType = "template"
	EmailTypeCampaign  EmailType = "campaign"
	EmailTypeBroadcast EmailType = "broadcast"
)

// Message is one outbound email recorded against a thread. Messages are
// append-only: they are never mutated after creation and are removed only by
// cascade when their thread is removed.
type Message struct {
	ID        int64
	ThreadID  int64
	Subject   string // verbatim, not normalized
	Content   string // HTML as sent
	FromEmail string
	FromName  string
	SentAt    time.Time
	EmailType EmailType
	Metadata  MessageMetadata
	CreatedAt time.Time
}

// SenderName returns the sender's display name, falling back to the address.
func (m *Message) SenderName() string {
	if m.FromName != "" {
		return m.FromName
	}
	return m.FromEmail
}

// MessageMetadata is free-form audit/display data carried on a message.
// It is never consulted by thread-matching logic.
type MessageMetadata struct {
	CampaignID string  `json:"campaign_id,omitempty"`
	SegmentIDs []int64 `json:"segment_ids,omitempty"`
	Source     string  `json:"source,omitempty"`
}

type MessageCreateParams struct {
	ThreadID  int64
	Subject   string
	Content   string
	FromEmail string
	FromName  string
	SentAt    time.Time
	EmailType EmailType
	Metadata  MessageMetadata
}

type ContactUpsertParams struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
}
