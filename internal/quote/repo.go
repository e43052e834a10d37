package quote

import (
	"context"

	"gorm.io/gorm"

	"github.com/demoforge/demoforge-backend/pkg/db/models"
)

// Repository persists submitted quote requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a quote request record.
func (r *Repository) Create(ctx context.Context, record *models.QuoteRequest) error {
	return r.db.WithContext(ctx).Create(record).Error
}
