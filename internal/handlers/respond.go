package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"market-admin/internal/auth"
	"market-admin/internal/services"
	"market-admin/internal/storage"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

const conflictMessage = "Record was changed by someone else. Reload and try again."

// writeError maps service errors to responses. notFound is the message used
// for a missing record and fallback the one used for unexpected failures,
// which are logged.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error, notFound, fallback string) {
	var verr *validation.Errors
	switch {
	case errors.As(err, &verr):
		utils.JSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrConflict):
		utils.Error(w, http.StatusConflict, conflictMessage)
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrLastSuperAdmin),
		errors.Is(err, services.ErrEmailTaken):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidRefund), errors.Is(err, services.ErrNotesRequired),
		errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, storage.ErrUnsupportedImage), errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword), errors.Is(err, services.ErrNoTOTPSecret),
		errors.Is(err, services.ErrTOTPNotEnabled):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrImageTooLarge):
		utils.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrSessionRevoked):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrTOTPRequired):
		utils.JSON(w, http.StatusUnauthorized, map[string]interface{}{"error": err.Error(), "totp_required": true})
	case errors.Is(err, services.ErrAccessDenied):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.WithError(err).Error(fallback)
		utils.Error(w, http.StatusInternalServerError, fallback)
	}
}

// badRequest writes a plain {"error": msg} 400.
func badRequest(w http.ResponseWriter, msg string) {
	utils.Error(w, http.StatusBadRequest, msg)
}

// expectedVersion reads the optimistic-lock precondition from If-Match,
// falling back to a version supplied in the body.
func expectedVersion(r *http.Request, body *int) (*int, bool) {
	h := strings.TrimSpace(r.Header.Get("If-Match"))
	if h == "" || h == "*" {
		return body, true
	}
	h = strings.TrimPrefix(h, "W/")
	n, err := strconv.Atoi(strings.Trim(h, `"`))
	if err != nil {
		return nil, false
	}
	return &n, true
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func setETag(w http.ResponseWriter, version int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(version)))
}
