package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/threadline-io/threadline/internal/models"
)

type ThreadStore struct {
	db *sql.DB
}

func NewThreadStore(db *sql.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

const threadColumns = `id, public_id, contact_id, subject, from_email, from_name,
	 first_message_at, last_message_at, message_count, is_active, created_at, updated_at`

func scanThread(row interface{ Scan(...interface{}) error }, t *models.Thread) error {
	return row.Scan(&t.ID, &t.PublicID, &t.ContactID, &t.Subject, &t.FromEmail, &t.FromName,
		&t.FirstMessageAt, &t.LastMessageAt, &t.MessageCount, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
}

// UpsertActiveThread resolves (contactID, subject) to the single active thread
// in one statement. The conflict target is the partial unique index
// threads_contact_subject_active_idx, which makes concurrent resolution for
// the same contact and subject race-free: one insert wins, the rest update.
func (s *ThreadStore) UpsertActiveThread(ctx context.Context, contactID int64, subject, fromEmail, fromName string, now time.Time) (*models.Thread, bool, error) {
	t := &models.Thread{}
	var created bool
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO threads (public_id, contact_id, subject, from_email, from_name,
			first_message_at, last_message_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (contact_id, subject) WHERE is_active DO UPDATE SET
			last_message_at = GREATEST(threads.last_message_at, EXCLUDED.last_message_at),
			updated_at = NOW()
		 RETURNING `+threadColumns+`, (xmax = 0)`,
		uuid.New(), contactID, subject, fromEmail, fromName, now,
	).Scan(&t.ID, &t.PublicID, &t.ContactID, &t.Subject, &t.FromEmail, &t.FromName,
		&t.FirstMessageAt, &t.LastMessageAt, &t.MessageCount, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt, &created)
	if err != nil {
		return nil, false, err
	}
	return t, created, nil
}

func (s *ThreadStore) GetActiveThread(ctx context.Context, contactID int64, subject string) (*models.Thread, error) {
	t := &models.Thread{}
	err := scanThread(s.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+`
		 FROM threads WHERE contact_id = $1 AND subject = $2 AND is_active`,
		contactID, subject), t)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ThreadStore) GetThreadByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Thread, error) {
	t := &models.Thread{}
	err := scanThread(s.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+`
		 FROM threads WHERE public_id = $1`, publicID), t)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *ThreadStore) GetActiveThreads(ctx context.Context, limit, offset int) ([]models.Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+threadColumns+`
		 FROM threads WHERE is_active
		 ORDER BY last_message_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := scanThread(rows, &t); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (s *ThreadStore) CountActiveThreads(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM threads WHERE is_active`).Scan(&count)
	return count, err
}

func (s *ThreadStore) TouchThread(ctx context.Context, id int64, lastMessageAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE threads SET
			last_message_at = GREATEST(last_message_at, $1),
			updated_at = NOW()
		 WHERE id = $2`,
		lastMessageAt, id)
	return err
}

// DeactivateThreadsOlderThan is idempotent: already-inactive threads never
// match the WHERE clause, so rerunning it reports zero.
func (s *ThreadStore) DeactivateThreadsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE threads SET is_active = FALSE, updated_at = NOW()
		 WHERE is_active AND last_message_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
