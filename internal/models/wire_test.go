package models_test

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"market-admin/internal/models"
	"market-admin/pkg/adminclient"
)

// jsonFields lists the JSON keys a struct writes, skipping "-" fields.
func jsonFields(v interface{}) []string {
	t := reflect.TypeOf(v)
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		keys = append(keys, tag)
	}
	sort.Strings(keys)
	return keys
}

func TestClientWireTypesMatchServer(t *testing.T) {
	tests := []struct {
		name           string
		server, client interface{}
	}{
		{"AdminUser", models.AdminUser{}, adminclient.AdminUser{}},
		{"AdminProfile", models.AdminProfile{}, adminclient.AdminProfile{}},
		{"AuthUser", models.AuthUser{}, adminclient.AuthUser{}},
		{"LoginRequest", models.LoginRequest{}, adminclient.LoginRequest{}},
		{"AuthResponse", models.AuthResponse{}, adminclient.AuthResponse{}},
		{"SessionResponse", models.SessionResponse{}, adminclient.SessionResponse{}},
		{"SignupRequest", models.SignupRequest{}, adminclient.SignupRequest{}},
		{"SignupResponse", models.SignupResponse{}, adminclient.SignupResponse{}},
		{"Product", models.Product{}, adminclient.Product{}},
		{"Order", models.Order{}, adminclient.Order{}},
		{"OrderItem", models.OrderItem{}, adminclient.OrderItem{}},
		{"Pagination", models.Pagination{}, adminclient.Pagination{}},
		{"OrderList", models.OrderList{}, adminclient.OrderList{}},
		{"ItemSubmission", models.ItemSubmission{}, adminclient.ItemSubmission{}},
		{"DashboardStats", models.DashboardStats{}, adminclient.DashboardStats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := jsonFields(tt.server), jsonFields(tt.client)
			if !reflect.DeepEqual(server, client) {
				t.Errorf("json fields differ\nserver: %v\nclient: %v", server, client)
			}
		})
	}
}

func TestClientConstantsMatchServer(t *testing.T) {
	pairs := map[string]string{
		models.RoleAdmin:             adminclient.RoleAdmin,
		models.RoleSuperAdmin:        adminclient.RoleSuperAdmin,
		models.RoleModerator:         adminclient.RoleModerator,
		models.PermManageProducts:    adminclient.PermManageProducts,
		models.PermManageOrders:      adminclient.PermManageOrders,
		models.PermManageUsers:       adminclient.PermManageUsers,
		models.PermManageCategories:  adminclient.PermManageCategories,
		models.PermManageSubmissions: adminclient.PermManageSubmissions,
		models.PermViewAnalytics:     adminclient.PermViewAnalytics,
	}
	for server, client := range pairs {
		if server != client {
			t.Errorf("constant mismatch: server %q, client %q", server, client)
		}
	}
}
