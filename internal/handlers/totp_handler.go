package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type TOTPService interface {
	GenerateSetup(ctx context.Context, admin *models.AdminUser) (*models.TOTPSetupResponse, error)
	Enable(ctx context.Context, adminID, code string) error
	Disable(ctx context.Context, adminID, code string) error
}

type TOTPHandler struct {
	Service TOTPService
	logger  *logrus.Logger
}

func NewTOTPHandler(service TOTPService, logger *logrus.Logger) *TOTPHandler {
	return &TOTPHandler{Service: service, logger: logger}
}

// Status reports whether the signed-in admin has 2FA enabled.
func (h *TOTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, models.TOTPStatus{Enabled: admin.TOTPEnabled})
}

// Setup issues a fresh secret and QR code. 2FA stays off until Verify.
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	if admin.TOTPEnabled {
		badRequest(w, "2FA is already enabled")
		return
	}
	resp, err := h.Service.GenerateSetup(r.Context(), admin)
	if err != nil {
		writeError(w, h.logger, err, adminNotFound, "Failed to generate 2FA setup")
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *TOTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.Service.Enable, "2FA enabled", "Failed to enable 2FA")
}

func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.Service.Disable, "2FA disabled", "Failed to disable 2FA")
}

func (h *TOTPHandler) withCode(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, adminID, code string) error, done, fallback string) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}
	var req models.TOTPCodeRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		badRequest(w, "Code is required")
		return
	}
	if err := fn(r.Context(), admin.ID, req.Code); err != nil {
		writeError(w, h.logger, err, adminNotFound, fallback)
		return
	}
	utils.Message(w, http.StatusOK, done)
}

func currentAdmin(w http.ResponseWriter, r *http.Request) (*models.AdminUser, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.Admin == nil {
		utils.Error(w, http.StatusUnauthorized, "Authorization header required")
		return nil, false
	}
	return p.Admin, true
}
