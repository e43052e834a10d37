package cartsync

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/demoforge/demoforge-backend/pkg/logger"
	"github.com/demoforge/demoforge-backend/pkg/metrics"
	redisclient "github.com/demoforge/demoforge-backend/pkg/redis"
)

// Feed pushes updated cart records onto the Redis change feed so every
// subscribed client converges on the server state. Publish failures are
// logged and swallowed; the next mutation or fetch re-converges.
type Feed struct {
	pub     redisclient.FeedPublisher
	prefix  string
	logg    *logger.Logger
	metrics *metrics.CartSyncMetrics
}

// NewFeed builds a change feed publisher with the configured channel prefix.
func NewFeed(pub redisclient.FeedPublisher, prefix string, logg *logger.Logger, m *metrics.CartSyncMetrics) *Feed {
	return &Feed{pub: pub, prefix: prefix, logg: logg, metrics: m}
}

// PublishCart broadcasts dto to every channel its keys subscribe on.
func (f *Feed) PublishCart(ctx context.Context, dto CartDTO) {
	if f == nil || f.pub == nil {
		return
	}

	payload, err := json.Marshal(dto)
	if err != nil {
		if f.logg != nil {
			f.logg.Error(ctx, "cartfeed.marshal", err)
		}
		return
	}

	if dto.SessionID != nil {
		f.publish(ctx, redisclient.ScopeSession, *dto.SessionID, payload)
	}
	if dto.UserID != nil {
		f.publish(ctx, redisclient.ScopeUser, *dto.UserID, payload)
	}
}

func (f *Feed) publish(ctx context.Context, scope, id string, payload []byte) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	channel := f.pub.FeedChannel(f.prefix, scope, id)
	if err := f.pub.Publish(ctx, channel, payload); err != nil {
		if f.logg != nil {
			logCtx := f.logg.WithField(ctx, "channel", channel)
			f.logg.Error(logCtx, "cartfeed.publish", err)
		}
		return
	}
	f.metrics.IncFeedPublish()
}
