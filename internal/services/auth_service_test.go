package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"market-admin/internal/auth"
	"market-admin/internal/config"
	"market-admin/internal/models"
)

type authFixture struct {
	svc      *AuthService
	users    *fakeUsers
	sessions *fakeSessions
	admins   *fakeAdmins
	activity *fakeActivity
}

func newAuthFixture() *authFixture {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-that-is-long-enough"
	cfg.JWT.Issuer = "market-admin"
	cfg.JWT.ExpirationHours = 1

	f := &authFixture{
		users:    newFakeUsers(),
		sessions: newFakeSessions(),
		admins:   newFakeAdmins(),
		activity: &fakeActivity{},
	}
	f.svc = NewAuthService(f.users, f.sessions, f.admins, auth.NewJWTManager(cfg),
		NewTOTPService(f.admins, "market-admin"), NewActivityRecorder(f.activity, testLogger()), testLogger())
	return f
}

func (f *authFixture) signupAdmin(t *testing.T, email string) *models.SignupResponse {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: email, Password: "correct-horse"}, true)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	return resp
}

func TestSignupServiceRoleCreatesAdmin(t *testing.T) {
	f := newAuthFixture()
	resp := f.signupAdmin(t, " Admin@Example.com ")
	if resp.User.Email != "admin@example.com" {
		t.Errorf("email should be normalised, got %q", resp.User.Email)
	}
	if resp.Admin == nil || resp.Admin.Role != models.RoleAdmin || !resp.Admin.Permissions[models.PermManageProducts] {
		t.Errorf("unexpected admin row %+v", resp.Admin)
	}

	_, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: "admin@example.com", Password: "another-pass"}, true)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupPublicCreatesIdentityOnly(t *testing.T) {
	f := newAuthFixture()
	resp, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: "shopper@example.com", Password: "long-enough", Role: models.RoleSuperAdmin}, false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Admin != nil {
		t.Error("public signup must not create an admin")
	}
}

func TestSignupRollsBackIdentity(t *testing.T) {
	f := newAuthFixture()
	f.admins.createErr = errors.New("insert failed")
	if _, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: "a@example.com", Password: "long-enough"}, true); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.users.GetByEmail(context.Background(), "a@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("identity should have been removed, got %v", err)
	}
}

func TestSignupRejectsBadInput(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	if _, err := f.svc.Signup(ctx, &models.SignupRequest{Email: "nope", Password: "long-enough"}, true); !errors.Is(err, auth.ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := f.svc.Signup(ctx, &models.SignupRequest{Email: "a@example.com", Password: "short"}, true); !errors.Is(err, auth.ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := f.svc.Signup(ctx, &models.SignupRequest{Email: "a@example.com", Password: "long-enough", Role: "owner"}, true); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestLoginIssuesTokenForAdmins(t *testing.T) {
	f := newAuthFixture()
	f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" || resp.Admin == nil || resp.Admin.Email != "admin@example.com" {
		t.Errorf("unexpected response %+v", resp)
	}

	p, err := f.svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Admin.Email != "admin@example.com" {
		t.Errorf("principal admin = %+v", p.Admin)
	}
	if log := f.activity.last(); log == nil || log.Action != models.ActionLogin {
		t.Errorf("login should be logged, got %+v", log)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	f := newAuthFixture()
	f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "wrong-pass"}, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Login(ctx, &models.LoginRequest{Email: "ghost@example.com", Password: "whatever1"}, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email should look like a bad password, got %v", err)
	}
}

func TestLoginDeniesNonAdmin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	f.svc.Signup(ctx, &models.SignupRequest{Email: "shopper@example.com", Password: "long-enough"}, false)

	resp, err := f.svc.Login(ctx, &models.LoginRequest{Email: "shopper@example.com", Password: "long-enough"}, "")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if resp != nil {
		t.Error("no token may be returned to a non-admin")
	}
	if len(f.sessions.sessions) != 0 {
		t.Error("no session may be created for a non-admin")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture()
	f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()
	resp, _ := f.svc.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "")
	p, err := f.svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Logout(ctx, p, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("token must stop working after logout, got %v", err)
	}
	if err := f.svc.Logout(ctx, p, ""); err != nil {
		t.Errorf("second logout should be a no-op, got %v", err)
	}
}

func TestAuthenticateAfterAdminRemoved(t *testing.T) {
	f := newAuthFixture()
	signup := f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()
	resp, _ := f.svc.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "")

	f.admins.Delete(ctx, signup.Admin.ID)
	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := f.svc.Session(ctx, resp.Token); err != nil {
		t.Errorf("session lookup does not require admin membership: %v", err)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	f := newAuthFixture()
	f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()
	resp, _ := f.svc.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}, "")

	for _, s := range f.sessions.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
	}
	if _, err := f.svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestLoginWithTOTP(t *testing.T) {
	f := newAuthFixture()
	signup := f.signupAdmin(t, "admin@example.com")
	ctx := context.Background()

	setup, err := f.svc.TOTP.GenerateSetup(ctx, signup.Admin)
	if err != nil {
		t.Fatalf("GenerateSetup: %v", err)
	}
	if setup.QRCode == "" || setup.URL == "" {
		t.Errorf("setup response incomplete: %+v", setup)
	}
	if err := f.svc.TOTP.Enable(ctx, signup.Admin.ID, "000000"); !errors.Is(err, ErrInvalidTOTPCode) {
		t.Fatalf("expected ErrInvalidTOTPCode, got %v", err)
	}
	code, _ := totp.GenerateCode(setup.Secret, time.Now())
	if err := f.svc.TOTP.Enable(ctx, signup.Admin.ID, code); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	login := &models.LoginRequest{Email: "admin@example.com", Password: "correct-horse"}
	if _, err := f.svc.Login(ctx, login, ""); !errors.Is(err, ErrTOTPRequired) {
		t.Fatalf("expected ErrTOTPRequired, got %v", err)
	}
	login.TOTPCode = code
	if _, err := f.svc.Login(ctx, login, ""); err != nil {
		t.Fatalf("Login with code: %v", err)
	}
}

func TestTOTPEnableWithoutSetup(t *testing.T) {
	f := newAuthFixture()
	signup := f.signupAdmin(t, "admin@example.com")
	if err := f.svc.TOTP.Enable(context.Background(), signup.Admin.ID, "123456"); !errors.Is(err, ErrNoTOTPSecret) {
		t.Errorf("expected ErrNoTOTPSecret, got %v", err)
	}
	if err := f.svc.TOTP.Disable(context.Background(), signup.Admin.ID, "123456"); !errors.Is(err, ErrTOTPNotEnabled) {
		t.Errorf("expected ErrTOTPNotEnabled, got %v", err)
	}
}
