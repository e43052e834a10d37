package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the server-side cart record. Exactly one of SessionID/UserID is
// required at write time; a merged record may carry both.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	SessionID *string    `gorm:"column:session_id;type:text"`
	UserID    *string    `gorm:"column:user_id;type:text"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
