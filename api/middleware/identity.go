package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/demoforge/demoforge-backend/api/responses"
	pkgauth "github.com/demoforge/demoforge-backend/pkg/auth"
	"github.com/demoforge/demoforge-backend/pkg/config"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

type identityCtxKey struct{}

// VerifiedUserID returns the user id carried by a validated bearer token,
// or "" when the request was anonymous.
func VerifiedUserID(ctx context.Context) string {
	if v, ok := ctx.Value(identityCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// Identity validates an optional bearer token and guards user-scoped cart
// addressing. Anonymous session_id access always passes; addressing by
// user_id requires a token whose claims carry that same user. When no JWT
// secret is configured the middleware is a no-op, which keeps local
// development workable without an accounts system.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.Secret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			verified := ""
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				claims, err := pkgauth.ParseIdentityToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				verified = claims.UserID
				ctx = context.WithValue(ctx, identityCtxKey{}, verified)
				if logg != nil {
					ctx = logg.WithField(ctx, "user_id", verified)
				}
			}

			claimed := strings.TrimSpace(r.URL.Query().Get("user_id"))
			if claimed == "" {
				claimed = userIDFromBody(r)
			}
			if claimed != "" {
				if verified == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user addressing requires credentials"))
					return
				}
				if claimed != verified {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "user id does not match credentials"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userIDFromBody peeks at the JSON payload for a user_id field, rewrapping
// the body so downstream decoding still sees the full payload.
func userIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return ""
	}
	payload, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(payload))
	if err != nil {
		return ""
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.UserID)
}
