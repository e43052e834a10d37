package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Submission is a quote request as it arrives from the questionnaire.
// Fields are sanitized before any pricing or persistence happens.
type Submission struct {
	Email       string   `json:"email"`
	Company     string   `json:"company"`
	Industry    string   `json:"industry"`
	ColorScheme string   `json:"color_scheme"`
	PortalKind  string   `json:"portal_kind"`
	UserTier    string   `json:"user_tier"`
	Modules     []string `json:"modules"`
	SessionID   string   `json:"-"`
}

// ModuleLine is one priced add-on in a quote breakdown.
type ModuleLine struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Breakdown is the output of the price calculator: the base price for the
// portal kind, each selected module priced out, and the tier-adjusted total.
type Breakdown struct {
	Base         decimal.Decimal `json:"base"`
	Modules      []ModuleLine    `json:"modules"`
	ModulesTotal decimal.Decimal `json:"modules_total"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	Total        decimal.Decimal `json:"total"`
}

// Estimate is the persisted quote plus its breakdown, returned to the caller.
type Estimate struct {
	ID        uuid.UUID `json:"id"`
	Breakdown Breakdown `json:"breakdown"`
	CreatedAt time.Time `json:"created_at"`
}
