package quote

import (
	"net/http"

	"github.com/demoforge/demoforge-backend/api/responses"
	"github.com/demoforge/demoforge-backend/api/validators"
	quotesvc "github.com/demoforge/demoforge-backend/internal/quote"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

type submitRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Company     string   `json:"company"`
	Industry    string   `json:"industry"`
	ColorScheme string   `json:"color_scheme"`
	PortalKind  string   `json:"portal_kind" validate:"required"`
	UserTier    string   `json:"user_tier"`
	Modules     []string `json:"modules"`
	SessionID   string   `json:"session_id"`
}

// Submit prices and records a quote request from the questionnaire.
func Submit(svc quotesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Submit(r.Context(), quotesvc.Submission{
			Email:       payload.Email,
			Company:     payload.Company,
			Industry:    payload.Industry,
			ColorScheme: payload.ColorScheme,
			PortalKind:  payload.PortalKind,
			UserTier:    payload.UserTier,
			Modules:     payload.Modules,
			SessionID:   payload.SessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, estimate)
	}
}
