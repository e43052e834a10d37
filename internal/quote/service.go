package quote

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/demoforge/demoforge-backend/pkg/db/models"
	pkgerrors "github.com/demoforge/demoforge-backend/pkg/errors"
	"github.com/demoforge/demoforge-backend/pkg/logger"
)

const leadPublishTimeout = 10 * time.Second

type quoteRepository interface {
	Create(ctx context.Context, record *models.QuoteRequest) error
}

type leadPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// Service prices and records quote submissions and emits a lead event for
// the downstream marketing pipeline.
type Service interface {
	Submit(ctx context.Context, sub Submission) (*Estimate, error)
}

// ServiceParams groups dependencies for the quote service.
type ServiceParams struct {
	Repo      quoteRepository
	Publisher *gcppubsub.Publisher
	Logger    *logger.Logger

	// leadPub overrides the GCP publisher in tests.
	leadPub leadPublisher
}

type service struct {
	repo quoteRepository
	pub  leadPublisher
	logg *logger.Logger
}

// NewService builds a quote service. The publisher is optional; without one
// submissions are persisted but no lead event is emitted.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote repo is required")
	}
	pub := params.leadPub
	if pub == nil && params.Publisher != nil {
		pub = newGCPLeadPublisher(params.Publisher)
	}
	return &service{
		repo: params.Repo,
		pub:  pub,
		logg: params.Logger,
	}, nil
}

// Submit sanitizes the submission, prices it, persists the request, and
// publishes a lead event. A failed publish is logged, not surfaced; the
// persisted record is the source of truth.
func (s *service) Submit(ctx context.Context, sub Submission) (*Estimate, error) {
	clean := Sanitize(sub)

	if clean.Email == "" || !strings.Contains(clean.Email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}

	breakdown, err := Calculate(clean.PortalKind, clean.UserTier, clean.Modules)
	if err != nil {
		return nil, err
	}

	record := &models.QuoteRequest{
		ID:          uuid.New(),
		SessionID:   clean.SessionID,
		Email:       clean.Email,
		Company:     clean.Company,
		Industry:    clean.Industry,
		ColorScheme: clean.ColorScheme,
		PortalKind:  clean.PortalKind,
		UserTier:    clean.UserTier,
		Modules:     pq.StringArray(clean.Modules),
		BaseCents:   toCents(breakdown.Base),
		ModuleCents: toCents(breakdown.ModulesTotal),
		TotalCents:  toCents(breakdown.Total),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist quote request")
	}

	s.publishLead(ctx, record, breakdown)

	return &Estimate{
		ID:        record.ID,
		Breakdown: breakdown,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (s *service) publishLead(ctx context.Context, record *models.QuoteRequest, breakdown Breakdown) {
	if s.pub == nil {
		return
	}

	payload, err := json.Marshal(leadEvent{
		QuoteID:    record.ID.String(),
		Email:      record.Email,
		Company:    record.Company,
		Industry:   record.Industry,
		PortalKind: record.PortalKind,
		UserTier:   record.UserTier,
		Modules:    []string(record.Modules),
		TotalCents: record.TotalCents,
		Breakdown:  breakdown,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "quote.lead.marshal", err)
		}
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, leadPublishTimeout)
	defer cancel()

	result := s.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "quote.submitted",
			"quote_id":   record.ID.String(),
		},
	})
	if result == nil {
		return
	}
	if _, err := result.Get(publishCtx); err != nil && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "quote_id", record.ID.String())
		s.logg.Error(logCtx, "quote.lead.publish", err)
	}
}

type leadEvent struct {
	QuoteID    string    `json:"quote_id"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Industry   string    `json:"industry,omitempty"`
	PortalKind string    `json:"portal_kind"`
	UserTier   string    `json:"user_tier"`
	Modules    []string  `json:"modules"`
	TotalCents int64     `json:"total_cents"`
	Breakdown  Breakdown `json:"breakdown"`
}

func newGCPLeadPublisher(p *gcppubsub.Publisher) leadPublisher {
	if p == nil {
		return nil
	}
	return &gcpLeadPublisher{p: p}
}

type gcpLeadPublisher struct {
	p *gcppubsub.Publisher
}

func (g *gcpLeadPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.p.Publish(ctx, msg)
}
