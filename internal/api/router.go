package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/analytics"
	"github.com/jerilmartin/infini8graph/internal/auth"
	"github.com/jerilmartin/infini8graph/internal/cache"
	"github.com/jerilmartin/infini8graph/internal/db"
	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/internal/models"
	"github.com/jerilmartin/infini8graph/pkg/config"
	"github.com/jerilmartin/infini8graph/pkg/logging"
)

// accountStore is the account persistence surface the router needs
type accountStore interface {
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	GetByUser(ctx context.Context, userID string) ([]*models.SocialAccount, error)
}

// Router sets up API routes
type Router struct {
	accounts    accountStore
	tokens      analytics.CredentialResolver
	newFetcher  analytics.FetcherFactory
	metricCache *analytics.MetricCache
	logger      *zap.Logger
}

// NewRouter wires the API over the database and the optional Redis hot cache
func NewRouter(cfg *config.Config, database *db.DB, redisCache *cache.Cache) *Router {
	repo := db.NewRepository(database.DB)
	accounts := db.NewAccountRepository(repo)
	views := db.NewMetricCacheRepository(repo)

	return &Router{
		accounts:    accounts,
		tokens:      auth.NewTokenSource(accounts),
		metricCache: analytics.NewMetricCache(views, redisCache, cfg.Cache.TTLs()),
		newFetcher: func(token string) (analytics.MediaFetcher, error) {
			client, err := instagram.New(&cfg.Instagram, token)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		logger: logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	api := engine.Group("/api")
	api.GET("/accounts/:id/analytics/:view", r.getAnalytics)
	api.GET("/users/:id/unified-overview", r.getUnifiedOverview)
	api.POST("/accounts/:id/export", r.exportAnalytics)
}

// serviceFor builds an initialized aggregation service for one account
func (r *Router) serviceFor(ctx context.Context, account *models.SocialAccount) (*analytics.Service, error) {
	svc := analytics.NewService(account.UserID, account.ID, r.tokens, r.newFetcher, r.metricCache)
	if err := svc.Initialize(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "infini8graph-api",
	})
}
