package services

import (
	"errors"

	"market-admin/internal/repositories"
)

var (
	ErrNotFound = repositories.ErrNotFound
	ErrConflict = repositories.ErrVersionConflict

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccessDenied       = errors.New("Access denied. Admin privileges required.")
	ErrSessionRevoked     = errors.New("session has been signed out")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidTransition  = errors.New("status change not allowed")
	ErrInvalidRefund      = errors.New("refund amount is not valid for this order")
	ErrPaymentsDisabled   = errors.New("online payments are not configured")
	ErrNotesRequired      = errors.New("admin notes are required when rejecting a submission")
	ErrInvalidStatus      = errors.New("unknown status")
	ErrInvalidRole        = errors.New("role must be admin, super_admin or moderator")
	ErrLastSuperAdmin     = errors.New("cannot remove the last super admin")

	ErrTOTPRequired    = errors.New("two-factor code required")
	ErrInvalidTOTPCode = errors.New("invalid two-factor code")
	ErrNoTOTPSecret    = errors.New("two-factor setup has not been started")
	ErrTOTPNotEnabled  = errors.New("two-factor authentication is not enabled")
)
