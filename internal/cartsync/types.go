package cartsync

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
)

// Key addresses a cart by exactly one of the two identity spaces. Save
// requests may carry both so the server can attach the user id to an
// anonymous record opportunistically.
type Key struct {
	SessionID string
	UserID    string
}

// Validate ensures at least one addressing component is present.
func (k Key) Validate() error {
	if strings.TrimSpace(k.SessionID) == "" && strings.TrimSpace(k.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session_id or user_id is required")
	}
	return nil
}

// ItemInput is one cart line as supplied by the client. Meta is passthrough
// display payload the server stores but never interprets.
type ItemInput struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity int            `json:"quantity"`
	Image    string         `json:"image,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// ItemDTO mirrors ItemInput on responses and feed events.
type ItemDTO struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity int            `json:"quantity"`
	Image    string         `json:"image,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// CartDTO is the wire representation of a cart record.
type CartDTO struct {
	ID        uuid.UUID `json:"id"`
	Items     []ItemDTO `json:"items"`
	SessionID *string   `json:"session_id,omitempty"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
