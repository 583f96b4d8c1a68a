package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"market-admin/internal/config"
)

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"ETag", "Content-Disposition", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}

// OriginChecker applies the CORS origin list to websocket upgrades, which
// the CORS handler does not cover.
func OriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(cfg.Server.CorsAllowedOrigins))
	for _, o := range cfg.Server.CorsAllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] {
			return true
		}
		return allowed[strings.TrimRight(origin, "/")]
	}
}
