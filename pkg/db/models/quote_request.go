package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// QuoteRequest stores a submitted quote form together with the computed
// price breakdown at submission time.
type QuoteRequest struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SessionID   string         `gorm:"column:session_id;not null"`
	Email       string         `gorm:"column:email;not null"`
	Company     string         `gorm:"column:company"`
	Industry    string         `gorm:"column:industry;not null"`
	ColorScheme string         `gorm:"column:color_scheme;not null"`
	PortalKind  string         `gorm:"column:portal_kind;not null"`
	UserTier    string         `gorm:"column:user_tier;not null"`
	Modules     pq.StringArray `gorm:"column:modules;type:text[]"`
	BaseCents   int64          `gorm:"column:base_cents;not null"`
	ModuleCents int64          `gorm:"column:module_cents;not null"`
	TotalCents  int64          `gorm:"column:total_cents;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
