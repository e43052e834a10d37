package cartsync

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/demoforge/demoforge-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// FindByKey resolves the cart for the active key, preferring user_id.
// Returns nil without error when no cart exists.
func (r *Repository) FindByKey(ctx context.Context, key Key) (*models.Cart, error) {
	if userID := strings.TrimSpace(key.UserID); userID != "" {
		return r.findBy(ctx, "user_id = ?", userID)
	}
	return r.findBy(ctx, "session_id = ?", strings.TrimSpace(key.SessionID))
}

// FindBySessionID loads the anonymous cart regardless of the user key.
func (r *Repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Cart, error) {
	return r.findBy(ctx, "session_id = ?", strings.TrimSpace(sessionID))
}

func (r *Repository) findBy(ctx context.Context, cond string, value string) (*models.Cart, error) {
	if value == "" {
		return nil, nil
	}

	var record models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(cond, value).
		First(&record).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Create inserts a new cart record with its items.
func (r *Repository) Create(ctx context.Context, record *models.Cart) (*models.Cart, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	for i := range record.Items {
		if record.Items[i].ID == uuid.Nil {
			record.Items[i].ID = uuid.New()
		}
		record.Items[i].CartID = record.ID
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// ReplaceItems swaps the full item list of an existing cart.
func (r *Repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].CartID = cartID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// AttachUser sets user_id on a record that does not carry one yet.
func (r *Repository) AttachUser(ctx context.Context, cartID uuid.UUID, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND user_id IS NULL", cartID).
		Update("user_id", strings.TrimSpace(userID)).
		Error
}

// Touch bumps updated_at so feed subscribers observe item-only changes.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).
		Error
}

// Delete removes the cart (and, via cascade, its items) for the active key.
func (r *Repository) Delete(ctx context.Context, key Key) error {
	query := r.db.WithContext(ctx)
	if userID := strings.TrimSpace(key.UserID); userID != "" {
		query = query.Where("user_id = ?", userID)
	} else {
		query = query.Where("session_id = ?", strings.TrimSpace(key.SessionID))
	}
	return query.Delete(&models.Cart{}).Error
}

// DeleteByID removes a specific record, used when folding merged carts.
func (r *Repository) DeleteByID(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{}).
		Error
}
