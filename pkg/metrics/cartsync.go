package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records cart synchronization operation counters.
type CartSyncMetrics struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	feedPushes prometheus.Counter
}

// NewCartSyncMetrics registers the cart sync metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_operations_total",
		Help: "Cart sync operations by type.",
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failures_total",
		Help: "Failed cart sync operations by type.",
	}, []string{"op"})
	feedPushes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_feed_publishes_total",
		Help: "Change feed events published after cart mutations.",
	})
	reg.MustRegister(operations, failures, feedPushes)
	return &CartSyncMetrics{
		operations: operations,
		failures:   failures,
		feedPushes: feedPushes,
	}
}

// IncOperation increments the operation counter for the named op.
func (c *CartSyncMetrics) IncOperation(op string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named op.
func (c *CartSyncMetrics) IncFailure(op string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFeedPublish increments the feed publish counter.
func (c *CartSyncMetrics) IncFeedPublish() {
	if c == nil || c.feedPushes == nil {
		return
	}
	c.feedPushes.Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
