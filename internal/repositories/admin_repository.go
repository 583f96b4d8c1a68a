package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"market-admin/internal/models"
)

// AdminRepository manages admin_users, the admin-membership table.
type AdminRepository struct {
	DB *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{DB: db}
}

const adminSelect = `
	SELECT a.id::text, a.user_id::text, u.email, a.role, a.permissions,
	       COALESCE(a.totp_secret, ''), a.totp_enabled, a.created_at, a.updated_at
	FROM admin_users a
	JOIN auth_users u ON u.id = a.user_id`

func scanAdmin(row interface{ Scan(...interface{}) error }) (*models.AdminUser, error) {
	var a models.AdminUser
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.Role, &a.Permissions,
		&a.TOTPSecret, &a.TOTPEnabled, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if a.Permissions == nil {
		a.Permissions = map[string]bool{}
	}
	return &a, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *models.AdminUser) error {
	if a.Role == "" {
		a.Role = models.RoleAdmin
	}
	if a.Permissions == nil {
		a.Permissions = models.DefaultPermissions()
	}
	return translate(r.DB.QueryRow(ctx,
		`INSERT INTO admin_users(user_id, role, permissions)
         VALUES($1, $2, $3)
         RETURNING id::text, created_at, updated_at`,
		a.UserID, a.Role, a.Permissions,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

// GetByUserID is the admin-membership lookup for an authenticated identity.
func (r *AdminRepository) GetByUserID(ctx context.Context, userID string) (*models.AdminUser, error) {
	return scanAdmin(r.DB.QueryRow(ctx, adminSelect+` WHERE a.user_id=$1`, userID))
}

func (r *AdminRepository) Get(ctx context.Context, id string) (*models.AdminUser, error) {
	return scanAdmin(r.DB.QueryRow(ctx, adminSelect+` WHERE a.id=$1`, id))
}

func (r *AdminRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	rows, err := r.DB.Query(ctx, adminSelect+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []*models.AdminUser{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *AdminRepository) Update(ctx context.Context, a *models.AdminUser) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE admin_users SET role=$2, permissions=$3, updated_at=NOW() WHERE id=$1`,
		a.ID, a.Role, a.Permissions)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes admin membership; the identity itself is kept.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM admin_users WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminRepository) SetTOTPSecret(ctx context.Context, id, secret string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE admin_users SET totp_secret=$2, totp_enabled=FALSE, updated_at=NOW() WHERE id=$1`, id, secret)
	return err
}

func (r *AdminRepository) EnableTOTP(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `UPDATE admin_users SET totp_enabled=TRUE, updated_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *AdminRepository) DisableTOTP(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE admin_users SET totp_enabled=FALSE, totp_secret=NULL, updated_at=NOW() WHERE id=$1`, id)
	return err
}
