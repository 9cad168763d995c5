package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/threadline-io/threadline/internal/models"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// CreateMessage appends a message to its thread. The insert and the thread's
// message_count/last_message_at maintenance run in one transaction so the
// denormalized count never drifts from the owned rows.
func (s *MessageStore) CreateMessage(ctx context.Context, params models.MessageCreateParams) (*models.Message, error) {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal message metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m := &models.Message{
		ThreadID:  params.ThreadID,
		Subject:   params.Subject,
		Content:   params.Content,
		FromEmail: params.FromEmail,
		FromName:  params.FromName,
		SentAt:    params.SentAt,
		EmailType: params.EmailType,
		Metadata:  params.Metadata,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (thread_id, subject, content, from_email, from_name, sent_at, email_type, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		m.ThreadID, m.Subject, m.Content, m.FromEmail, m.FromName, m.SentAt, string(m.EmailType), metadata,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE threads SET
			message_count = message_count + 1,
			last_message_at = GREATEST(last_message_at, $1),
			updated_at = NOW()
		 WHERE id = $2`,
		m.SentAt, m.ThreadID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageStore) GetMessagesByThreadID(ctx context.Context, threadID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, thread_id, subject, content, from_email, from_name, sent_at, email_type, metadata, created_at
		 FROM messages WHERE thread_id = $1
		 ORDER BY sent_at ASC, id ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var emailType string
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.Subject, &m.Content, &m.FromEmail, &m.FromName,
			&m.SentAt, &emailType, &metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.EmailType = models.EmailType(emailType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal message metadata: %w", err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *MessageStore) CountMessagesByThreadID(ctx context.Context, threadID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE thread_id = $1`, threadID).Scan(&count)
	return count, err
}
