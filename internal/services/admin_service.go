package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"market-admin/internal/cache"
	"market-admin/internal/models"
)

// AdminService manages admin membership rows.
type AdminService struct {
	Repo     AdminStore
	Activity *ActivityRecorder
	logger   *logrus.Logger
}

func NewAdminService(repo AdminStore, activity *ActivityRecorder, logger *logrus.Logger) *AdminService {
	return &AdminService{Repo: repo, Activity: activity, logger: logger}
}

func (s *AdminService) List(ctx context.Context) ([]*models.AdminUser, error) {
	return s.Repo.List(ctx)
}

func (s *AdminService) Get(ctx context.Context, id string) (*models.AdminUser, error) {
	return s.Repo.Get(ctx, id)
}

func (s *AdminService) Update(ctx context.Context, actor Actor, id string, req *models.UpdateAdminRequest) (*models.AdminUser, error) {
	admin, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{}
	if req.Role != nil && *req.Role != admin.Role {
		if !models.ValidRole(*req.Role) {
			return nil, ErrInvalidRole
		}
		if admin.Role == models.RoleSuperAdmin {
			if err := s.ensureAnotherSuperAdmin(ctx, admin.ID); err != nil {
				return nil, err
			}
		}
		details["from_role"] = admin.Role
		details["to_role"] = *req.Role
		admin.Role = *req.Role
	}
	if req.Permissions != nil {
		for k, v := range req.Permissions {
			admin.Permissions[k] = v
		}
		details["permissions"] = req.Permissions
	}

	if err := s.Repo.Update(ctx, admin); err != nil {
		return nil, err
	}
	cache.InvalidateTable(ctx, "admin_users")
	s.Activity.Record(ctx, actor, models.ActionUpdate, "admin_users", admin.ID, details)
	return admin, nil
}

// Delete removes admin membership. The identity itself is kept.
func (s *AdminService) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.AdminID {
		return fmt.Errorf("%w: admins cannot remove themselves", ErrInvalidTransition)
	}
	admin, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if admin.Role == models.RoleSuperAdmin {
		if err := s.ensureAnotherSuperAdmin(ctx, admin.ID); err != nil {
			return err
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	cache.InvalidateTable(ctx, "admin_users")
	s.Activity.Record(ctx, actor, models.ActionDelete, "admin_users", id, map[string]interface{}{"email": admin.Email})
	return nil
}

func (s *AdminService) ensureAnotherSuperAdmin(ctx context.Context, exceptID string) error {
	admins, err := s.Repo.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range admins {
		if a.ID != exceptID && a.Role == models.RoleSuperAdmin {
			return nil
		}
	}
	return ErrLastSuperAdmin
}
