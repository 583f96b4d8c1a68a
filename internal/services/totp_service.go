package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"market-admin/internal/models"
)

// TOTPStore is the slice of the admin repository that two-factor setup needs.
type TOTPStore interface {
	Get(ctx context.Context, id string) (*models.AdminUser, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
	EnableTOTP(ctx context.Context, id string) error
	DisableTOTP(ctx context.Context, id string) error
}

type TOTPService struct {
	admins TOTPStore
	issuer string
}

func NewTOTPService(admins TOTPStore, issuer string) *TOTPService {
	return &TOTPService{admins: admins, issuer: issuer}
}

// GenerateSetup creates a new secret for the admin and returns it with a
// QR code. The secret is stored but not enabled until a code is confirmed.
func (s *TOTPService) GenerateSetup(ctx context.Context, admin *models.AdminUser) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: admin.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}
	if err := s.admins.SetTOTPSecret(ctx, admin.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		URL:         key.URL(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      s.issuer,
		AccountName: admin.Email,
	}, nil
}

// Enable confirms a pending secret with a valid code.
func (s *TOTPService) Enable(ctx context.Context, adminID, code string) error {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.TOTPSecret == "" {
		return ErrNoTOTPSecret
	}
	if !ValidTOTP(admin.TOTPSecret, code) {
		return ErrInvalidTOTPCode
	}
	return s.admins.EnableTOTP(ctx, adminID)
}

func (s *TOTPService) Disable(ctx context.Context, adminID, code string) error {
	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !ValidTOTP(admin.TOTPSecret, code) {
		return ErrInvalidTOTPCode
	}
	return s.admins.DisableTOTP(ctx, adminID)
}

// Check enforces the second factor at login for admins that enabled it.
func (s *TOTPService) Check(admin *models.AdminUser, code string) error {
	if !admin.TOTPEnabled {
		return nil
	}
	if strings.TrimSpace(code) == "" {
		return ErrTOTPRequired
	}
	if !ValidTOTP(admin.TOTPSecret, code) {
		return ErrInvalidTOTPCode
	}
	return nil
}

func ValidTOTP(secret, code string) bool {
	return secret != "" && totp.Validate(strings.TrimSpace(code), secret)
}
