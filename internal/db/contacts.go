package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"concierge/internal/models"
)

// CreateContactSubmission stores a contact form submission and returns its id.
func (d *DB) CreateContactSubmission(ctx context.Context, req *models.ContactRequest) (uuid.UUID, error) {
	id := uuid.New()
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO contact_submissions (id, name, email, team_member, message)
		VALUES ($1, $2, $3, $4, $5)
	`, id, req.Name, req.Email, req.TeamMember, req.Message)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return id, nil
}

// MarkContactDelivered flags a submission as emailed.
func (d *DB) MarkContactDelivered(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `UPDATE contact_submissions SET delivered = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
