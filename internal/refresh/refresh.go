package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/analytics"
	"github.com/jerilmartin/infini8graph/internal/auth"
	"github.com/jerilmartin/infini8graph/internal/cache"
	"github.com/jerilmartin/infini8graph/internal/db"
	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/config"
	"github.com/jerilmartin/infini8graph/pkg/logging"
)

// Refresher periodically recomputes the headline views for every connected
// account so dashboard reads hit a warm cache. Each account is warmed at most
// once per interval across all running instances, coordinated through the
// cooldown store.
type Refresher struct {
	config      *config.Config
	accounts    *db.AccountRepository
	tokens      *auth.TokenSource
	metricCache *analytics.MetricCache
	cooldowns   *cache.CooldownStore
	logger      *zap.Logger
}

// NewRefresher creates a refresher over the database and the optional Redis cache
func NewRefresher(cfg *config.Config, database *db.DB, redisCache *cache.Cache) *Refresher {
	repo := db.NewRepository(database.DB)
	accounts := db.NewAccountRepository(repo)
	views := db.NewMetricCacheRepository(repo)

	return &Refresher{
		config:      cfg,
		accounts:    accounts,
		tokens:      auth.NewTokenSource(accounts),
		metricCache: analytics.NewMetricCache(views, redisCache, cfg.Cache.TTLs()),
		cooldowns:   cache.NewCooldownStore(redisCache),
		logger:      logging.GetLogger().With(zap.String("component", "refresher")),
	}
}

// Run starts the refresh loop and blocks until the context is cancelled
func (r *Refresher) Run(ctx context.Context) error {
	interval := time.Duration(r.config.Refresher.IntervalSeconds) * time.Second
	r.logger.Info("Starting cache refresher", zap.Duration("interval", interval))

	for {
		r.refreshAll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// refreshAll warms the cache for every connected account. A per-account
// failure is logged and skipped; the sweep always completes.
func (r *Refresher) refreshAll(ctx context.Context) {
	accounts, err := r.accounts.ListConnected(ctx)
	if err != nil {
		r.logger.Error("Failed to list connected accounts", zap.Error(err))
		return
	}

	interval := time.Duration(r.config.Refresher.IntervalSeconds) * time.Second
	warmed := 0
	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}

		allowed, err := r.cooldowns.Allow("refresh", account.ID, interval)
		if err != nil {
			r.logger.Warn("Cooldown check failed, refreshing anyway",
				zap.String("account_id", account.ID),
				zap.Error(err))
		} else if !allowed {
			continue
		}

		if err := r.refreshAccount(ctx, account.UserID, account.ID); err != nil {
			r.logger.Warn("Account refresh failed",
				zap.String("account_id", account.ID),
				zap.Error(err))
			continue
		}
		warmed++
	}

	r.logger.Info("Refresh sweep complete",
		zap.Int("accounts", len(accounts)),
		zap.Int("warmed", warmed))

	r.warnExpiringTokens(ctx)
}

const tokenExpiryWarning = 7 * 24 * time.Hour

// warnExpiringTokens surfaces accounts whose stored token is about to lapse,
// so operators can prompt users to re-authenticate before reads start failing
func (r *Refresher) warnExpiringTokens(ctx context.Context) {
	expiring, err := r.tokens.ExpiringWithin(ctx, tokenExpiryWarning)
	if err != nil {
		r.logger.Warn("Failed to list expiring tokens", zap.Error(err))
		return
	}
	for _, account := range expiring {
		r.logger.Warn("Access token expiring soon",
			zap.String("account_id", account.ID),
			zap.Time("expires_at", account.TokenExpiresAt))
	}
}

// refreshAccount recomputes the dashboard's first-paint views for one account
func (r *Refresher) refreshAccount(ctx context.Context, userID, accountID string) error {
	svc := analytics.NewService(userID, accountID, r.tokens,
		func(token string) (analytics.MediaFetcher, error) {
			client, err := instagram.New(&r.config.Instagram, token)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		r.metricCache)
	if err := svc.Initialize(ctx); err != nil {
		return err
	}

	if _, err := svc.GetOverview(ctx); err != nil {
		return err
	}
	if _, err := svc.GetGrowth(ctx, ""); err != nil {
		return err
	}
	if _, err := svc.GetPostsAnalytics(ctx, 0); err != nil {
		return err
	}
	return nil
}
