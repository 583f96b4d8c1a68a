package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrLoginRequired means the caller should send the user to the login screen.
	ErrLoginRequired = errors.New("login required")
	ErrAccessDenied  = errors.New("Access denied. Admin privileges required.")
)

type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

type Options struct {
	// DisableCachedFallback stops a persisted token+admin pair from counting
	// as authenticated when the live check has not succeeded.
	DisableCachedFallback bool
	Logger                *logrus.Logger
}

// Gate decides whether the current user is a signed-in admin. It caches
// the admin in memory and in the Store, and follows the client's
// sign-in and sign-out events.
type Gate struct {
	client *Client
	store  Store
	opts   Options
	logger *logrus.Logger

	mu          sync.RWMutex
	state       State
	admin       *AdminUser
	unsubscribe func()
}

// NewGate restores a persisted token into client when it has none.
func NewGate(client *Client, store Store, opts Options) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = client.logger
	}
	g := &Gate{client: client, store: store, opts: opts, logger: logger}

	if client.Token() == "" {
		for _, key := range []string{KeyAuthToken, KeyAdminToken} {
			if token, ok := store.Get(key); ok && token != "" {
				client.SetToken(token)
				break
			}
		}
	}
	g.unsubscribe = client.OnAuthStateChange(g.onAuthStateChange)
	return g
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Admin is the admin confirmed by the last successful check, or nil.
func (g *Gate) Admin() *AdminUser {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admin
}

func (g *Gate) IsLoading() bool {
	s := g.State()
	return s == StateUnknown || s == StateChecking
}

// IsAuthenticated is true after a successful check, or when the store
// still holds a token+admin pair and the fallback is enabled. The server
// re-validates the token on every call either way.
func (g *Gate) IsAuthenticated() bool {
	if g.Admin() != nil {
		return true
	}
	return !g.opts.DisableCachedFallback && g.HasValidSession()
}

// HasValidSession reports whether the store holds a token and an admin.
func (g *Gate) HasValidSession() bool {
	token, ok := g.store.Get(KeyAdminToken)
	if !ok || token == "" {
		return false
	}
	user, ok := g.store.Get(KeyAdminUser)
	return ok && user != ""
}

// CachedAdmin decodes the persisted admin, if any.
func (g *Gate) CachedAdmin() *AdminUser {
	raw, ok := g.store.Get(KeyAdminUser)
	if !ok || raw == "" {
		return nil
	}
	var admin AdminUser
	if err := json.Unmarshal([]byte(raw), &admin); err != nil {
		return nil
	}
	return &admin
}

// Check runs the session lookup followed by the admin-membership lookup.
// Any failure leaves the gate unauthenticated and returns ErrLoginRequired.
func (g *Gate) Check(ctx context.Context) error {
	g.setState(StateChecking)

	session, err := g.client.GetSession(ctx)
	if err != nil {
		g.logger.WithError(err).Warn("Session check failed")
		g.reset()
		return ErrLoginRequired
	}
	if session == nil {
		g.reset()
		return ErrLoginRequired
	}
	return g.lookupAdmin(ctx)
}

// Login signs in and confirms admin membership. A non-admin is signed
// out again and nothing is persisted.
func (g *Gate) Login(ctx context.Context, email, password, totpCode string) (*AdminUser, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	_, err := g.client.SignIn(ctx, email, password, totpCode)
	if IsStatus(err, http.StatusForbidden) {
		if signOutErr := g.client.SignOut(ctx); signOutErr != nil {
			g.logger.WithError(signOutErr).Debug("Sign-out after denied login failed")
		}
		g.clear()
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}

	// SignIn fired SIGNED_IN, which already ran the admin lookup.
	if admin := g.Admin(); admin != nil {
		return admin, nil
	}
	return nil, ErrLoginRequired
}

// Logout signs out and clears memory and the store, even when the
// server call fails.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.client.SignOut(ctx)
	g.clear()
	if err != nil {
		g.logger.WithError(err).Warn("Sign-out request failed")
	}
	return err
}

// Close stops following auth-state events.
func (g *Gate) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Gate) onAuthStateChange(event AuthEvent, _ *SessionResponse) {
	switch event {
	case EventSignedIn:
		g.setState(StateChecking)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g.lookupAdmin(ctx)
	case EventSignedOut:
		g.clear()
	}
}

func (g *Gate) lookupAdmin(ctx context.Context) error {
	admin, err := g.client.GetAdmin(ctx)
	if err != nil {
		g.logger.WithError(err).Warn("Admin lookup failed")
		g.reset()
		return ErrLoginRequired
	}
	if admin == nil {
		g.reset()
		return ErrLoginRequired
	}

	g.mu.Lock()
	g.admin = admin
	g.state = StateAuthenticated
	g.mu.Unlock()

	g.persist(admin)
	return nil
}

func (g *Gate) persist(admin *AdminUser) {
	token := g.client.Token()
	data, err := json.Marshal(admin)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to encode admin for local store")
		return
	}
	for key, value := range map[string]string{
		KeyAuthToken:  token,
		KeyAdminToken: token,
		KeyAdminUser:  string(data),
	} {
		if err := g.store.Set(key, value); err != nil {
			g.logger.WithError(err).WithField("key", key).Warn("Failed to persist session")
		}
	}
}

// reset drops in-memory state only; the store is left for the fallback.
func (g *Gate) reset() {
	g.mu.Lock()
	g.admin = nil
	g.state = StateUnauthenticated
	g.mu.Unlock()
}

func (g *Gate) clear() {
	g.reset()
	if err := g.store.Delete(KeyAuthToken, KeyAdminToken, KeyAdminUser); err != nil {
		g.logger.WithError(err).Warn("Failed to clear local store")
	}
}

func (g *Gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}
