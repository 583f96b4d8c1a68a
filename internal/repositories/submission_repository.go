package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

type SubmissionRepository struct {
	DB *pgxpool.Pool
}

func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

const submissionColumns = `id::text, title, description, condition, category, asking_price, seller_id::text,
	seller_name, seller_email, seller_phone, images, location, specifications, status, admin_notes,
	submitted_at, reviewed_at, reviewed_by::text, version, updated_at`

func scanSubmission(row interface{ Scan(...interface{}) error }) (*models.ItemSubmission, error) {
	var s models.ItemSubmission
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Condition, &s.Category, &s.AskingPrice, &s.SellerID,
		&s.SellerName, &s.SellerEmail, &s.SellerPhone, &s.Images, &s.Location, &s.Specifications, &s.Status,
		&s.AdminNotes, &s.SubmittedAt, &s.ReviewedAt, &s.ReviewedBy, &s.Version, &s.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.Specifications == nil {
		s.Specifications = map[string]interface{}{}
	}
	return &s, nil
}

// List returns submissions, most recently submitted first.
func (r *SubmissionRepository) List(ctx context.Context, f models.SubmissionFilter) ([]*models.ItemSubmission, error) {
	var c conditions
	if f.Status != "" {
		c.add("status = ?", f.Status)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		c.add("(title ILIKE ? OR description ILIKE ? OR category ILIKE ? OR seller_name ILIKE ?)",
			pattern, pattern, pattern, pattern)
	}

	query := `SELECT ` + submissionColumns + ` FROM item_submissions` + c.where() + ` ORDER BY submitted_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + c.arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + c.arg(f.Offset)
	}

	rows, err := r.DB.Query(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.ItemSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *SubmissionRepository) Get(ctx context.Context, id string) (*models.ItemSubmission, error) {
	return scanSubmission(r.DB.QueryRow(ctx, `SELECT `+submissionColumns+` FROM item_submissions WHERE id=$1`, id))
}

// Review stores an approve, reject or reopen decision. Reopening clears
// the reviewer stamp; admin_notes is only written when notes were sent.
func (r *SubmissionRepository) Review(ctx context.Context, id string, rv *models.Review) (*models.ItemSubmission, error) {
	var s setList
	s.set("status", rv.Status)
	if rv.AdminNotes != nil {
		s.set("admin_notes", *rv.AdminNotes)
	}
	if rv.Status == models.SubmissionPending {
		s.parts = append(s.parts, "reviewed_at = NULL", "reviewed_by = NULL")
	} else {
		s.parts = append(s.parts, "reviewed_at = NOW()")
		s.set("reviewed_by", rv.ReviewedBy)
	}

	query := fmt.Sprintf(`UPDATE item_submissions SET %s, version = version + 1, updated_at = NOW() WHERE id = %s`,
		s.String(), s.arg(id))
	if rv.ExpectedVersion != nil {
		query += " AND version = " + s.arg(*rv.ExpectedVersion)
	}
	query += " RETURNING " + submissionColumns

	sub, err := scanSubmission(r.DB.QueryRow(ctx, query, s.args...))
	if errors.Is(err, ErrNotFound) && rv.ExpectedVersion != nil {
		if _, getErr := r.Get(ctx, id); getErr == nil {
			return nil, ErrVersionConflict
		}
	}
	return sub, err
}

func (r *SubmissionRepository) AppendImage(ctx context.Context, id, url string) (*models.ItemSubmission, error) {
	return scanSubmission(r.DB.QueryRow(ctx,
		`UPDATE item_submissions SET images = array_append(images, $2), version = version + 1, updated_at = NOW()
         WHERE id = $1 RETURNING `+submissionColumns, id, url))
}
