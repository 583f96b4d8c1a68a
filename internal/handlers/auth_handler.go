package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest, serviceRole bool) (*models.SignupResponse, error)
	Login(ctx context.Context, req *models.LoginRequest, ip string) (*models.AuthResponse, error)
	Session(ctx context.Context, token string) (*models.SessionResponse, error)
	AdminFor(ctx context.Context, token string) (*models.AdminUser, error)
	Logout(ctx context.Context, p *services.Principal, ip string) error
}

type AuthHandler struct {
	Service        AuthService
	serviceRoleKey string
	logger         *logrus.Logger
}

// NewAuthHandler serves /auth. serviceRoleKey unlocks admin creation on
// signup; an empty key disables it.
func NewAuthHandler(service AuthService, serviceRoleKey string, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Service: service, serviceRoleKey: serviceRoleKey, logger: logger}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	resp, err := h.Service.Signup(r.Context(), &req, h.isServiceRole(r))
	if err != nil {
		writeError(w, h.logger, err, "User not found", "Failed to create user")
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := validation.DecodeStrict(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		badRequest(w, "Email and password are required")
		return
	}

	resp, err := h.Service.Login(r.Context(), &req, middleware.ClientIP(r))
	if err != nil {
		h.logger.WithError(err).WithField("email", req.Email).Info("Login rejected")
		writeError(w, h.logger, err, "User not found", "Login failed")
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	if err := h.Service.Logout(r.Context(), p, middleware.ClientIP(r)); err != nil {
		writeError(w, h.logger, err, "Session not found", "Failed to sign out")
		return
	}
	utils.Message(w, http.StatusOK, "Signed out")
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.Error(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	resp, err := h.Service.Session(r.Context(), token)
	if err != nil {
		h.tokenError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Admin returns the admin membership row for the bearer's identity.
func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.Error(w, http.StatusUnauthorized, "Authorization header required")
		return
	}
	admin, err := h.Service.AdminFor(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrAccessDenied) {
			utils.Error(w, http.StatusNotFound, "Admin not found")
			return
		}
		h.tokenError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, admin)
}

func (h *AuthHandler) tokenError(w http.ResponseWriter, err error) {
	if !errors.Is(err, services.ErrSessionRevoked) {
		h.logger.WithError(err).Debug("Token rejected")
	}
	utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
}

func (h *AuthHandler) isServiceRole(r *http.Request) bool {
	if h.serviceRoleKey == "" {
		return false
	}
	got := r.Header.Get("X-Service-Role-Key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.serviceRoleKey)) == 1
}
