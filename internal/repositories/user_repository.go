package repositories

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

// UserRepository stores auth service identities.
type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id::text, email, password_hash, email_confirmed, last_sign_in_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.AuthUser, error) {
	var u models.AuthUser
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.EmailConfirmed, &u.LastSignInAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.AuthUser) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.DB.QueryRow(ctx,
		`INSERT INTO auth_users(email, password_hash, email_confirmed)
         VALUES($1, $2, TRUE)
         RETURNING id::text, email_confirmed, created_at, updated_at`,
		u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.EmailConfirmed, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.AuthUser, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM auth_users WHERE id=$1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email))))
}

// TouchLastSignIn stamps a successful password sign-in.
func (r *UserRepository) TouchLastSignIn(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE auth_users SET last_sign_in_at = NOW() WHERE id=$1`, id)
	return err
}

// Delete removes an identity; used to roll back a half-created admin.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM auth_users WHERE id=$1`, id)
	return err
}
