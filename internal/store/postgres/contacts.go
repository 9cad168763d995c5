package postgres

import (
	"context"
	"database/sql"

	"github.com/threadline-io/threadline/internal/models"
)

type ContactStore struct {
	db *sql.DB
}

func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db}
}

// UpsertContact mirrors the contact record carried on a send event. The id
// comes from the host platform, so inserts and updates share one statement.
func (s *ContactStore) UpsertContact(ctx context.Context, params models.ContactUpsertParams) (*models.Contact, error) {
	c := &models.Contact{
		ID:        params.ID,
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO contacts (id, email, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
		 RETURNING created_at, updated_at`,
		c.ID, c.Email, c.FirstName, c.LastName,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactStore) GetContactByID(ctx context.Context, id int64) (*models.Contact, error) {
	c := &models.Contact{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, created_at, updated_at
		 FROM contacts WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
