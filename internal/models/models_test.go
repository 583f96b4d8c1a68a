package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderShipped, false},
		{OrderProcessing, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderProcessing, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAdminPermissions(t *testing.T) {
	admin := &AdminUser{Role: RoleModerator, Permissions: map[string]bool{PermManageSubmissions: true}}
	if !admin.HasPermission(PermManageSubmissions) {
		t.Error("moderator should hold granted permission")
	}
	if admin.HasPermission(PermManageProducts) {
		t.Error("moderator should not hold missing permission")
	}
	if !admin.HasRole(RoleAdmin, RoleModerator) {
		t.Error("HasRole should match any listed role")
	}

	super := &AdminUser{Role: RoleSuperAdmin}
	if !super.HasPermission(PermManageUsers) {
		t.Error("super admin holds every permission")
	}
}

func TestSessionActive(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	if !s.Active(now) {
		t.Error("unexpired session should be active")
	}
	revoked := now
	s.RevokedAt = &revoked
	if s.Active(now) {
		t.Error("revoked session should not be active")
	}
	if (&Session{ExpiresAt: now.Add(-time.Second)}).Active(now) {
		t.Error("expired session should not be active")
	}
}

func TestProductPatchEmpty(t *testing.T) {
	if !(&ProductPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	v := 2
	if !(&ProductPatch{ExpectedVersion: &v}).Empty() {
		t.Error("a version alone changes nothing")
	}
	name := "Lamp"
	if (&ProductPatch{Name: &name}).Empty() {
		t.Error("patch with name is not empty")
	}
}
