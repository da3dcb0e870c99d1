package analytics

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/cache"
	"github.com/jerilmartin/infini8graph/internal/models"
	"github.com/jerilmartin/infini8graph/pkg/logging"
)

// ViewStore is the durable cache persistence the MetricCache writes through
type ViewStore interface {
	GetEntry(ctx context.Context, accountID, metricType, dateRange string) (*models.MetricCacheEntry, error)
	Upsert(ctx context.Context, entry *models.MetricCacheEntry) error
}

// MetricCache is a TTL-bounded store of serialized computed views keyed by
// (account, metric type, date range). Reads fail open: any storage error is
// treated as a miss, never propagated. Writes are best-effort: an error is
// logged and swallowed so caching can never fail the request that produced
// the value.
type MetricCache struct {
	store ViewStore
	hot   *cache.Cache // optional Redis layer, nil-safe
	ttls  map[string]time.Duration
	now   func() time.Time

	logger *zap.Logger
}

// NewMetricCache creates a metric cache over the durable store with an
// optional Redis hot layer
func NewMetricCache(store ViewStore, hot *cache.Cache, ttls map[string]time.Duration) *MetricCache {
	return &MetricCache{
		store:  store,
		hot:    hot,
		ttls:   ttls,
		now:    time.Now,
		logger: logging.GetLogger().With(zap.String("component", "metric-cache")),
	}
}

// TTL returns the configured TTL for a metric type, zero when unknown
func (c *MetricCache) TTL(metricType string) time.Duration {
	return c.ttls[metricType]
}

// Get loads a fresh cached view into out and reports whether it was found.
// An entry older than its metric's TTL is a miss.
func (c *MetricCache) Get(ctx context.Context, accountID, metricType, dateRange string, out interface{}) bool {
	ttl, ok := c.ttls[metricType]
	if !ok {
		return false
	}

	if c.hot != nil {
		// Redis TTL enforces freshness for the hot layer
		key := cache.HashKey("view", accountID, metricType, dateRange)
		if err := c.hot.GetJSON(key, out); err == nil {
			return true
		}
	}

	entry, err := c.store.GetEntry(ctx, accountID, metricType, dateRange)
	if err != nil {
		// Fail open: a storage error on read is a miss
		c.logger.Warn("Cache read failed, recomputing",
			zap.String("account_id", accountID),
			zap.String("metric_type", metricType),
			zap.Error(err))
		return false
	}
	if entry == nil {
		return false
	}
	if entry.AgeAt(c.now()) > ttl {
		return false
	}

	if err := json.Unmarshal(entry.Payload, out); err != nil {
		c.logger.Warn("Cached payload unreadable, recomputing",
			zap.String("account_id", accountID),
			zap.String("metric_type", metricType),
			zap.Error(err))
		return false
	}

	return true
}

// Put upserts a computed view for the key triple, stamping fetched-at now
func (c *MetricCache) Put(ctx context.Context, accountID, metricType, dateRange string, view interface{}) {
	payload, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("Failed to serialize view for caching",
			zap.String("metric_type", metricType),
			zap.Error(err))
		return
	}

	entry := &models.MetricCacheEntry{
		AccountID:  accountID,
		MetricType: metricType,
		DateRange:  dateRange,
		Payload:    payload,
		FetchedAt:  c.now(),
	}

	if err := c.store.Upsert(ctx, entry); err != nil {
		c.logger.Warn("Cache write failed",
			zap.String("account_id", accountID),
			zap.String("metric_type", metricType),
			zap.Error(err))
	}

	if c.hot != nil {
		key := cache.HashKey("view", accountID, metricType, dateRange)
		if err := c.hot.SetJSON(key, view, c.ttls[metricType]); err != nil && err != cache.ErrCacheDisabled {
			c.logger.Warn("Hot cache write failed",
				zap.String("metric_type", metricType),
				zap.Error(err))
		}
	}
}
