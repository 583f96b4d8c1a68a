package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"market-admin/internal/auth"
	"market-admin/internal/cache"
	"market-admin/internal/models"
	"market-admin/internal/repositories"
)

type UserStore interface {
	Create(ctx context.Context, u *models.AuthUser) error
	Get(ctx context.Context, id string) (*models.AuthUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	TouchLastSignIn(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
}

type AdminStore interface {
	TOTPStore
	Create(ctx context.Context, a *models.AdminUser) error
	GetByUserID(ctx context.Context, userID string) (*models.AdminUser, error)
	List(ctx context.Context) ([]*models.AdminUser, error)
	Update(ctx context.Context, a *models.AdminUser) error
	Delete(ctx context.Context, id string) error
}

// Principal is the verified caller behind a bearer token.
type Principal struct {
	Claims  *auth.Claims
	Session *models.Session
	Admin   *models.AdminUser
}

// Actor converts the principal into an audit actor.
func (p *Principal) Actor(ip string) Actor {
	a := Actor{UserID: p.Claims.UserID(), IP: ip}
	if p.Admin != nil {
		a.AdminID = p.Admin.ID
	}
	return a
}

// AuthService issues and validates admin sessions. Every token check goes
// back to the session and admin tables; a cached client profile is never
// trusted on its own.
type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	Admins   AdminStore
	JWT      *auth.JWTManager
	TOTP     *TOTPService
	Activity *ActivityRecorder
	logger   *logrus.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, admins AdminStore, jwt *auth.JWTManager,
	totpSvc *TOTPService, activity *ActivityRecorder, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:    users,
		Sessions: sessions,
		Admins:   admins,
		JWT:      jwt,
		TOTP:     totpSvc,
		Activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup creates an identity. Only service-role callers may attach an admin
// row; a failed admin insert removes the identity again.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest, serviceRole bool) (*models.SignupResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := auth.ValidateCredentials(email, req.Password); err != nil {
		return nil, err
	}
	if serviceRole && req.Role != "" && !models.ValidRole(req.Role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.AuthUser{Email: email, PasswordHash: hash}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	resp := &models.SignupResponse{User: user}
	if !serviceRole {
		return resp, nil
	}

	admin := &models.AdminUser{UserID: user.ID, Email: email, Role: req.Role, Permissions: req.Permissions}
	if err := s.Admins.Create(ctx, admin); err != nil {
		if delErr := s.Users.Delete(ctx, user.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("user_id", user.ID).Error("Failed to roll back identity after admin insert failure")
		}
		return nil, err
	}
	resp.Admin = admin
	return resp, nil
}

// Login verifies credentials, admin membership and the second factor, in
// that order. Non-admin identities never receive a token.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, ip string) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.Admins.GetByUserID(ctx, user.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		s.logger.WithField("email", email).Warn("Login rejected: identity is not an admin")
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	if err := s.TOTP.Check(admin, req.TOTPCode); err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.JWT.TTL()),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.JWT.GenerateToken(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Users.TouchLastSignIn(ctx, user.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to update last sign-in")
	}

	s.Activity.Record(ctx, Actor{AdminID: admin.ID, UserID: user.ID, IP: ip},
		models.ActionLogin, "admin_users", admin.ID, map[string]interface{}{"email": email})

	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Admin: admin.Profile()}, nil
}

// ValidateSession checks the token signature and that its session is live.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.Claims, *models.Session, error) {
	claims, err := s.JWT.ValidateToken(token)
	if err != nil {
		return nil, nil, err
	}
	if revoked, known := cache.IsTokenRevoked(ctx, claims.SessionID()); known && revoked {
		return nil, nil, ErrSessionRevoked
	}
	session, err := s.Sessions.Get(ctx, claims.SessionID())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrSessionRevoked
	}
	if err != nil {
		return nil, nil, err
	}
	if !session.Active(s.now()) {
		return nil, nil, ErrSessionRevoked
	}
	return claims, session, nil
}

// Authenticate is ValidateSession followed by the admin-membership check.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	admin, err := s.Admins.GetByUserID(ctx, claims.UserID())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}
	return &Principal{Claims: claims, Session: session, Admin: admin}, nil
}

// Session describes the live session behind token without requiring
// admin membership.
func (s *AuthService) Session(ctx context.Context, token string) (*models.SessionResponse, error) {
	claims, session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.Get(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	return &models.SessionResponse{User: user, SessionID: session.ID, ExpiresAt: session.ExpiresAt}, nil
}

// AdminFor returns the admin row for the identity behind token.
func (s *AuthService) AdminFor(ctx context.Context, token string) (*models.AdminUser, error) {
	p, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return p.Admin, nil
}

// Logout revokes the session. Revoking an already revoked session is not an error.
func (s *AuthService) Logout(ctx context.Context, p *Principal, ip string) error {
	if err := s.Sessions.Revoke(ctx, p.Session.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if ttl := p.Session.ExpiresAt.Sub(s.now()); ttl > 0 {
		cache.RevokeToken(ctx, p.Session.ID, ttl)
	}
	if p.Admin != nil {
		s.Activity.Record(ctx, p.Actor(ip), models.ActionLogout, "admin_users", p.Admin.ID, nil)
	}
	return nil
}
