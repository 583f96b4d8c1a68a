package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"market-admin/internal/services"
	"market-admin/pkg/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticator is the slice of the auth service the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
}

type AuthMiddleware struct {
	auth   Authenticator
	logger *logrus.Logger
}

func NewAuthMiddleware(auth Authenticator, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, logger: logger}
}

// Authenticate re-validates the bearer token, its session and the admin
// membership on every request.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			utils.Error(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		p, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrAccessDenied) {
				utils.Error(w, http.StatusForbidden, services.ErrAccessDenied.Error())
				return
			}
			if !errors.Is(err, services.ErrSessionRevoked) {
				m.logger.WithError(err).Debug("Token rejected")
			}
			utils.Error(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

// RequirePermission allows the request only when the admin holds perm.
func (m *AuthMiddleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok || p.Admin == nil || !p.Admin.HasPermission(perm) {
				utils.Error(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken reads the Authorization header, falling back to the
// access_token query parameter used by websocket clients.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func PrincipalFromContext(ctx context.Context) (*services.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*services.Principal)
	return p, ok
}

// WithPrincipal is used by tests and by handlers that authenticate inline.
func WithPrincipal(ctx context.Context, p *services.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Actor returns the audit actor for the request.
func Actor(r *http.Request) services.Actor {
	ip := ClientIP(r)
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p.Actor(ip)
	}
	return services.Actor{IP: ip}
}

func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
