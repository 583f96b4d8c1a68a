package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

type SessionRepository struct {
	DB *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	return translate(r.DB.QueryRow(ctx,
		`INSERT INTO auth_sessions(id, user_id, expires_at) VALUES($1, $2, $3) RETURNING created_at`,
		s.ID, s.UserID, s.ExpiresAt,
	).Scan(&s.CreatedAt))
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := r.DB.QueryRow(ctx,
		`SELECT id::text, user_id::text, created_at, expires_at, revoked_at FROM auth_sessions WHERE id=$1`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Revoke marks a session signed out. Revoking twice is a no-op.
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE auth_sessions SET revoked_at = $2 WHERE id=$1 AND revoked_at IS NULL`, id, time.Now())
	return err
}

// DeleteExpired drops sessions that expired more than a day ago.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < NOW() - INTERVAL '24 hours'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
