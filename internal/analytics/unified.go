package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jerilmartin/infini8graph/pkg/logging"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

// AccountMetrics is one account's contribution to the unified overview
type AccountMetrics struct {
	AccountID      string  `json:"account_id"`
	Username       string  `json:"username"`
	Followers      int     `json:"followers"`
	MediaCount     int     `json:"media_count"`
	EngagementRate float64 `json:"engagement_rate"`
	TotalReach     int     `json:"total_reach"`
	TotalSaved     int     `json:"total_saved"`
}

// UnifiedOverview aggregates overview metrics across a user's accounts
type UnifiedOverview struct {
	Accounts          []AccountMetrics `json:"accounts"`
	TotalFollowers    int              `json:"total_followers"`
	TotalMedia        int              `json:"total_media"`
	TotalReach        int              `json:"total_reach"`
	AvgEngagementRate float64          `json:"avg_engagement_rate"`
	AccountsIncluded  int              `json:"accounts_included"`
	AccountsFailed    int              `json:"accounts_failed"`
	LastUpdated       time.Time        `json:"last_updated"`
}

// ComputeUnifiedOverview fans out one overview fetch per account and collects
// with a partial-failure policy: an account whose fetch fails is excluded from
// the aggregate, never fatal. No concurrency limit is imposed; the number of
// accounts per user is small.
func ComputeUnifiedOverview(ctx context.Context, services []*Service) *UnifiedOverview {
	ctx, span := telemetry.StartSpan(ctx, "analytics.unified_overview")
	defer span.End()

	logger := logging.GetLogger().With(zap.String("component", "unified-overview"))

	type result struct {
		metrics *AccountMetrics
		err     error
	}

	results := make([]result, len(services))
	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(i int, svc *Service) {
			defer wg.Done()
			overview, err := svc.GetOverview(ctx)
			if err != nil {
				results[i] = result{err: err}
				return
			}
			results[i] = result{metrics: &AccountMetrics{
				AccountID:      svc.AccountID(),
				Username:       overview.Username,
				Followers:      overview.Followers,
				MediaCount:     overview.MediaCount,
				EngagementRate: overview.EngagementRate,
				TotalReach:     overview.TotalReach,
				TotalSaved:     overview.TotalSaved,
			}}
		}(i, svc)
	}
	wg.Wait()

	unified := &UnifiedOverview{
		Accounts:    []AccountMetrics{},
		LastUpdated: time.Now(),
	}

	rateSum := 0.0
	for i, r := range results {
		if r.err != nil {
			logger.Warn("Excluding account from unified overview",
				zap.String("account_id", services[i].AccountID()),
				zap.Error(r.err))
			unified.AccountsFailed++
			continue
		}
		unified.Accounts = append(unified.Accounts, *r.metrics)
		unified.TotalFollowers += r.metrics.Followers
		unified.TotalMedia += r.metrics.MediaCount
		unified.TotalReach += r.metrics.TotalReach
		rateSum += r.metrics.EngagementRate
	}
	unified.AccountsIncluded = len(unified.Accounts)
	if unified.AccountsIncluded > 0 {
		unified.AvgEngagementRate = round2(rateSum / float64(unified.AccountsIncluded))
	}

	sort.SliceStable(unified.Accounts, func(i, j int) bool {
		return unified.Accounts[i].Followers > unified.Accounts[j].Followers
	})

	return unified
}
