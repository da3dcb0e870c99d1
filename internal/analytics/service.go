package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/logging"
)

// ErrNotInitialized is returned when a view method is called before
// Initialize resolved the account credential. This is a programming error,
// not an expected runtime condition.
var ErrNotInitialized = errors.New("aggregation service not initialized")

// MediaFetcher is the remote data surface the service aggregates over
type MediaFetcher interface {
	GetProfile(ctx context.Context) (*instagram.Profile, error)
	GetAllMediaWithInsights(ctx context.Context, count int) ([]instagram.MediaItem, error)
	GetFollowerDemographics(ctx context.Context) (*instagram.Demographics, error)
}

// CredentialResolver resolves a currently-valid bearer token for an account
type CredentialResolver interface {
	Resolve(ctx context.Context, accountID string) (string, error)
}

// FetcherFactory builds a MediaFetcher bound to a resolved access token
type FetcherFactory func(accessToken string) (MediaFetcher, error)

// Service orchestrates the remote client and the metric cache into named
// views for one (user, account) pair. Initialize must run before any view
// method; the service holds no view state across calls beyond the cache.
type Service struct {
	userID    string
	accountID string

	tokens     CredentialResolver
	newFetcher FetcherFactory
	cache      *MetricCache
	fetcher    MediaFetcher

	now      func() time.Time
	location *time.Location

	logger *zap.Logger
}

// NewService creates an aggregation service scoped to one account
func NewService(userID, accountID string, tokens CredentialResolver, factory FetcherFactory, metricCache *MetricCache) *Service {
	return &Service{
		userID:     userID,
		accountID:  accountID,
		tokens:     tokens,
		newFetcher: factory,
		cache:      metricCache,
		now:        time.Now,
		location:   time.Local,
		logger: logging.GetLogger().With(
			zap.String("component", "aggregation-service"),
			zap.String("account_id", accountID),
		),
	}
}

// AccountID returns the account this service is scoped to
func (s *Service) AccountID() string {
	return s.accountID
}

// Initialize resolves the account credential and builds the remote client
func (s *Service) Initialize(ctx context.Context) error {
	token, err := s.tokens.Resolve(ctx, s.accountID)
	if err != nil {
		return err
	}

	fetcher, err := s.newFetcher(token)
	if err != nil {
		return fmt.Errorf("failed to build graph client: %w", err)
	}

	s.fetcher = fetcher
	return nil
}

// ensureInitialized guards every view method
func (s *Service) ensureInitialized() error {
	if s.fetcher == nil {
		return ErrNotInitialized
	}
	return nil
}

// round2 rounds to 2 decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds to 1 decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// roundInt rounds to the nearest integer
func roundInt(v float64) int {
	return int(math.Round(v))
}

// sumEngagement totals engagement over a batch
func sumEngagement(media []instagram.MediaItem) int {
	total := 0
	for _, m := range media {
		total += m.Engagement
	}
	return total
}

// engagementRate computes (mean per-post engagement / followers) * 100,
// rounded to 2 decimals, 0 when followers or the batch is empty
func engagementRate(media []instagram.MediaItem, followers int) float64 {
	if followers == 0 || len(media) == 0 {
		return 0
	}
	avg := float64(sumEngagement(media)) / float64(len(media))
	return round2(avg / float64(followers) * 100)
}
