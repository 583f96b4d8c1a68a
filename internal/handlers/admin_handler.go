package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type AdminService interface {
	List(ctx context.Context) ([]*models.AdminUser, error)
	Get(ctx context.Context, id string) (*models.AdminUser, error)
	Update(ctx context.Context, actor services.Actor, id string, req *models.UpdateAdminRequest) (*models.AdminUser, error)
	Delete(ctx context.Context, actor services.Actor, id string) error
}

type ActivityLister interface {
	List(ctx context.Context, f models.ActivityFilter) ([]*models.ActivityLog, error)
}

// AdminHandler serves admin membership management and the activity log.
type AdminHandler struct {
	Service  AdminService
	Activity ActivityLister
	logger   *logrus.Logger
}

func NewAdminHandler(service AdminService, activity ActivityLister, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Service: service, Activity: activity, logger: logger}
}

const adminNotFound = "Admin not found"

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, adminNotFound, "Failed to fetch admins")
		return
	}
	if admins == nil {
		admins = []*models.AdminUser{}
	}
	utils.JSON(w, http.StatusOK, admins)
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	admin, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, adminNotFound, "Failed to fetch admin")
		return
	}
	utils.JSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAdminRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Role == nil && req.Permissions == nil {
		badRequest(w, "No fields to update")
		return
	}
	admin, err := h.Service.Update(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, h.logger, err, adminNotFound, "Failed to update admin")
		return
	}
	utils.JSON(w, http.StatusOK, admin)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), middleware.Actor(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err, adminNotFound, "Failed to remove admin")
		return
	}
	utils.Message(w, http.StatusOK, "Admin removed successfully")
}

func (h *AdminHandler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(r, "limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := h.Activity.List(r.Context(), models.ActivityFilter{
		TableName: q.Get("table"),
		RecordID:  q.Get("record_id"),
		AdminID:   q.Get("admin_id"),
		Limit:     limit,
	})
	if err != nil {
		writeError(w, h.logger, err, "Activity not found", "Failed to fetch activity log")
		return
	}
	if entries == nil {
		entries = []*models.ActivityLog{}
	}
	utils.JSON(w, http.StatusOK, entries)
}
