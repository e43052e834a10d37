package cartsync

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/demoforge/demoforge-backend/pkg/db/models"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
	"github.com/demoforge/demoforge-backend/pkg/metrics"
)

const (
	opFetch = "fetch"
	opSave  = "save"
	opMerge = "merge"
	opClear = "clear"
)

// CartRepository is the persistence surface the service depends on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByKey(ctx context.Context, key Key) (*models.Cart, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	AttachUser(ctx context.Context, cartID uuid.UUID, userID string) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	Delete(ctx context.Context, key Key) error
	DeleteByID(ctx context.Context, cartID uuid.UUID) error
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the cart synchronization semantics: upsert-on-save, fold-on-
// merge, delete-on-clear, and a feed publish after every mutation.
type Service interface {
	Fetch(ctx context.Context, key Key) (*CartDTO, error)
	Save(ctx context.Context, key Key, items []ItemInput) (*CartDTO, error)
	Merge(ctx context.Context, sessionID, userID string) (*CartDTO, error)
	Clear(ctx context.Context, key Key) error
}

// ServiceParams groups dependencies for the cart sync service.
type ServiceParams struct {
	Repo    CartRepository
	Tx      TxRunner
	Feed    *Feed
	Logger  *logger.Logger
	Metrics *metrics.CartSyncMetrics
}

type service struct {
	repo    CartRepository
	tx      TxRunner
	feed    *Feed
	logg    *logger.Logger
	metrics *metrics.CartSyncMetrics
}

// NewService builds a cart sync service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		feed:    params.Feed,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Fetch returns the cart for the active key, or nil when none exists.
// Absence is not an error; callers render it as an empty cart.
func (s *service) Fetch(ctx context.Context, key Key) (*CartDTO, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	s.metrics.IncOperation(opFetch)

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		s.metrics.IncFailure(opFetch)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record == nil {
		return nil, nil
	}
	dto := toDTO(record)
	return &dto, nil
}

// Save upserts the cart for the key with a full item replacement. A user id
// supplied alongside the session id is attached opportunistically so the
// record ends up addressable by both keys without a separate merge.
func (s *service) Save(ctx context.Context, key Key, items []ItemInput) (*CartDTO, error) {
	if strings.TrimSpace(key.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required")
	}
	s.metrics.IncOperation(opSave)

	normalized := normalizeItems(items)

	var saved *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindBySessionID(ctx, key.SessionID)
		if err != nil {
			return err
		}
		if record == nil && strings.TrimSpace(key.UserID) != "" {
			// The anonymous record may already have been folded into the
			// authenticated one.
			record, err = repo.FindByKey(ctx, Key{UserID: key.UserID})
			if err != nil {
				return err
			}
		}

		if record == nil {
			record = &models.Cart{
				SessionID: strPtr(key.SessionID),
				UserID:    optionalStrPtr(key.UserID),
				Items:     toModels(normalized),
			}
			saved, err = repo.Create(ctx, record)
			return err
		}

		if err := repo.ReplaceItems(ctx, record.ID, toModels(normalized)); err != nil {
			return err
		}
		if strings.TrimSpace(key.UserID) != "" && record.UserID == nil {
			if err := repo.AttachUser(ctx, record.ID, key.UserID); err != nil {
				return err
			}
		}
		if err := repo.Touch(ctx, record.ID); err != nil {
			return err
		}
		saved = record
		return nil
	})
	if err != nil {
		s.metrics.IncFailure(opSave)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	record, err := s.repo.FindByKey(ctx, Key{SessionID: key.SessionID, UserID: key.UserID})
	if err != nil || record == nil {
		// The write committed; fall back to what we know.
		record = saved
	}

	dto := toDTO(record)
	s.feed.PublishCart(ctx, dto)
	return &dto, nil
}

// Merge folds the anonymous cart into the authenticated cart: union of
// items, quantities summed for shared ids, anonymous record removed.
func (s *service) Merge(ctx context.Context, sessionID, userID string) (*CartDTO, error) {
	sessionID = strings.TrimSpace(sessionID)
	userID = strings.TrimSpace(userID)
	if sessionID == "" || userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id and user_id are required")
	}
	s.metrics.IncOperation(opMerge)

	var merged *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		anon, err := repo.FindBySessionID(ctx, sessionID)
		if err != nil {
			return err
		}
		authed, err := repo.FindByKey(ctx, Key{UserID: userID})
		if err != nil {
			return err
		}

		switch {
		case anon == nil && authed == nil:
			return nil
		case authed == nil:
			// Adopt the anonymous record wholesale; it now carries both keys.
			if err := repo.AttachUser(ctx, anon.ID, userID); err != nil {
				return err
			}
			anon.UserID = &userID
			merged = anon
			return nil
		case anon == nil:
			merged = authed
			return nil
		}

		union := mergeModels(authed.Items, anon.Items)
		if err := repo.DeleteByID(ctx, anon.ID); err != nil {
			return err
		}
		if err := repo.ReplaceItems(ctx, authed.ID, union); err != nil {
			return err
		}
		if err := repo.Touch(ctx, authed.ID); err != nil {
			return err
		}
		authed.Items = union
		merged = authed
		return nil
	})
	if err != nil {
		s.metrics.IncFailure(opMerge)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}
	if merged == nil {
		return nil, nil
	}

	dto := toDTO(merged)
	// Notify the session channel too so a tab that has not switched keys
	// yet still converges.
	if dto.SessionID == nil {
		dto.SessionID = &sessionID
	}
	s.feed.PublishCart(ctx, dto)
	return &dto, nil
}

// Clear deletes the record for the active key and pushes an empty cart to
// the feed so other tabs drop their local state.
func (s *service) Clear(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	s.metrics.IncOperation(opClear)

	record, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		s.metrics.IncFailure(opClear)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record == nil {
		return nil
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		s.metrics.IncFailure(opClear)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}

	dto := toDTO(record)
	dto.Items = []ItemDTO{}
	s.feed.PublishCart(ctx, dto)
	return nil
}

// normalizeItems enforces the merge-by-id invariant on a client-supplied
// list: shared ids collapse into one entry with summed quantities, and
// non-positive quantities drop the line.
func normalizeItems(items []ItemInput) []ItemInput {
	out := make([]ItemInput, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		if pos, ok := index[id]; ok {
			out[pos].Quantity += qty
			continue
		}
		item.ID = id
		item.Quantity = qty
		index[id] = len(out)
		out = append(out, item)
	}

	filtered := out[:0]
	for _, item := range out {
		if item.Quantity > 0 {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func mergeModels(base, extra []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(base)+len(extra))
	index := make(map[string]int, len(base))

	for _, item := range base {
		item.ID = uuid.Nil
		index[item.LineID] = len(out)
		out = append(out, item)
	}
	for _, item := range extra {
		if pos, ok := index[item.LineID]; ok {
			out[pos].Quantity += item.Quantity
			continue
		}
		item.ID = uuid.Nil
		index[item.LineID] = len(out)
		out = append(out, item)
	}
	for i := range out {
		out[i].Position = i
	}
	return out
}

func toModels(items []ItemInput) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for i, item := range items {
		out = append(out, models.CartItem{
			LineID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
			Meta:     item.Meta,
			Position: i,
		})
	}
	return out
}

func toDTO(record *models.Cart) CartDTO {
	items := make([]ItemDTO, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, ItemDTO{
			ID:       item.LineID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
			Meta:     item.Meta,
		})
	}
	return CartDTO{
		ID:        record.ID,
		Items:     items,
		SessionID: record.SessionID,
		UserID:    record.UserID,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func strPtr(value string) *string {
	v := strings.TrimSpace(value)
	return &v
}

func optionalStrPtr(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
