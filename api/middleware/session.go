package middleware

import (
	"net/http"
	"strings"

	"github.com/demoforge/demoforge-backend/pkg/config"
)

// SessionCookie refreshes the cross-subdomain session cookie whenever a
// request addresses a cart by session_id. The cookie mirrors the client's
// identifier so subdomains that never ran the resolver still observe the
// same anonymous identity.
func SessionCookie(cfg config.SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
			if sessionID != "" {
				current, err := r.Cookie(cfg.CookieName)
				if err != nil || current.Value != sessionID {
					http.SetCookie(w, &http.Cookie{
						Name:     cfg.CookieName,
						Value:    sessionID,
						Domain:   cfg.CookieDomain,
						Path:     "/",
						MaxAge:   int(cfg.TTL().Seconds()),
						SameSite: http.SameSiteLaxMode,
					})
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
