package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists one line of a cart. LineID is the caller-supplied product
// identifier, unique within a cart; Meta carries passthrough display fields
// the server never interprets.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	CartID    uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;index"`
	LineID    string         `gorm:"column:line_id;not null"`
	Name      string         `gorm:"column:name;not null"`
	Price     float64        `gorm:"column:price;not null"`
	Quantity  int            `gorm:"column:quantity;not null"`
	Image     string         `gorm:"column:image"`
	Meta      map[string]any `gorm:"column:meta;type:jsonb;serializer:json"`
	Position  int            `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
