package models

import "time"

// AuthUser is an identity known to the auth service. Admin membership is
// a separate row in admin_users.
type AuthUser struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	EmailConfirmed bool       `json:"email_confirmed"`
	LastSignInAt   *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Session is one issued bearer token. RevokedAt is set on sign-out.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// SignupRequest represents the request body for signup. Role and
// Permissions are honoured only for service-role callers.
type SignupRequest struct {
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	Role        string          `json:"role,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// AuthResponse is returned after a successful admin login.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *AdminProfile `json:"admin"`
}

// SessionResponse describes the session behind a bearer token.
type SessionResponse struct {
	User      *AuthUser `json:"user"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupResponse is returned by /auth/signup.
type SignupResponse struct {
	User  *AuthUser  `json:"user"`
	Admin *AdminUser `json:"admin,omitempty"`
}
