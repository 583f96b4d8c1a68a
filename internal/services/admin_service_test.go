package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"market-admin/internal/models"
)

func newAdminService(admins ...*models.AdminUser) (*AdminService, *fakeAdmins, *fakeActivity) {
	repo := newFakeAdmins()
	for _, a := range admins {
		repo.admins[a.ID] = a
	}
	activity := &fakeActivity{}
	return NewAdminService(repo, NewActivityRecorder(activity, testLogger()), testLogger()), repo, activity
}

func TestAdminUpdateRoleAndPermissions(t *testing.T) {
	svc, _, activity := newAdminService(
		&models.AdminUser{ID: "a1", Role: models.RoleSuperAdmin, Permissions: models.DefaultPermissions()},
		&models.AdminUser{ID: "a2", Role: models.RoleAdmin, Permissions: models.DefaultPermissions()},
	)
	role := models.RoleModerator
	updated, err := svc.Update(context.Background(), Actor{AdminID: "a1"}, "a2", &models.UpdateAdminRequest{
		Role:        &role,
		Permissions: map[string]bool{models.PermViewAnalytics: false},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Role != models.RoleModerator || updated.Permissions[models.PermViewAnalytics] || !updated.Permissions[models.PermManageOrders] {
		t.Errorf("unexpected admin %+v", updated)
	}
	if activity.count() != 1 {
		t.Errorf("activity rows = %d", activity.count())
	}

	bad := "owner"
	if _, err := svc.Update(context.Background(), Actor{}, "a2", &models.UpdateAdminRequest{Role: &bad}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAdminKeepsLastSuperAdmin(t *testing.T) {
	svc, _, _ := newAdminService(
		&models.AdminUser{ID: "a1", Role: models.RoleSuperAdmin, Permissions: map[string]bool{}},
		&models.AdminUser{ID: "a2", Role: models.RoleAdmin, Permissions: map[string]bool{}},
	)
	ctx := context.Background()
	role := models.RoleAdmin
	if _, err := svc.Update(ctx, Actor{AdminID: "a2"}, "a1", &models.UpdateAdminRequest{Role: &role}); !errors.Is(err, ErrLastSuperAdmin) {
		t.Errorf("expected ErrLastSuperAdmin, got %v", err)
	}
	if err := svc.Delete(ctx, Actor{AdminID: "a2"}, "a1"); !errors.Is(err, ErrLastSuperAdmin) {
		t.Errorf("expected ErrLastSuperAdmin, got %v", err)
	}
	if err := svc.Delete(ctx, Actor{AdminID: "a2"}, "a2"); err == nil {
		t.Error("admins must not remove themselves")
	}
	if err := svc.Delete(ctx, Actor{AdminID: "a1"}, "a2"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestDashboardAggregates(t *testing.T) {
	orders := newFakeOrders(paidOrder("o1"), paidOrder("o2"))
	orders.orders["o2"].Status = models.OrderShipped
	svc := NewAnalyticsService(fakeStats{}, orders, newFakeProducts(), testLogger())

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.TotalProducts != 12 || stats.TotalOrders != 7 || stats.TotalUsers != 2 ||
		stats.PendingSubmissions != 3 || stats.LowStockProducts != 4 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if !stats.TotalRevenue.Equal(decimal.RequireFromString("1520.5")) {
		t.Errorf("revenue = %s", stats.TotalRevenue)
	}
	if stats.OrdersByStatus[models.OrderPending] != 1 || stats.OrdersByStatus[models.OrderShipped] != 1 {
		t.Errorf("orders by status = %v", stats.OrdersByStatus)
	}
}

type failingStats struct{ fakeStats }

func (failingStats) Revenue(context.Context) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("query failed")
}

func TestDashboardPropagatesErrors(t *testing.T) {
	svc := NewAnalyticsService(failingStats{}, newFakeOrders(), newFakeProducts(), testLogger())
	if _, err := svc.Dashboard(context.Background()); err == nil {
		t.Error("expected aggregate failure to surface")
	}
}
