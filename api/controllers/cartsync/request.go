package cartsync

import (
	"net/http"

	"github.com/demoforge/demoforge-backend/api/validators"
	cartsvc "github.com/demoforge/demoforge-backend/internal/cartsync"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
)

type saveRequest struct {
	Items []cartsvc.ItemInput `json:"items" validate:"required,dive"`
}

type mergeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

// keyFromQuery reads the addressing parameters. At least one of session_id
// and user_id must be present.
func keyFromQuery(r *http.Request) (cartsvc.Key, error) {
	values, err := validators.RequireOneOf(r, "session_id", "user_id")
	if err != nil {
		return cartsvc.Key{}, err
	}
	return cartsvc.Key{SessionID: values[0], UserID: values[1]}, nil
}

// saveKeyFromQuery requires session_id; user_id rides along when known.
func saveKeyFromQuery(r *http.Request) (cartsvc.Key, error) {
	sessionID := validators.QueryString(r, "session_id")
	if sessionID == "" {
		return cartsvc.Key{}, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required").
			WithDetails(map[string]any{"field": "session_id"})
	}
	return cartsvc.Key{
		SessionID: sessionID,
		UserID:    validators.QueryString(r, "user_id"),
	}, nil
}
