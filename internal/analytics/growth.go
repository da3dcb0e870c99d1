package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const growthMediaCount = 100

// GetGrowth computes per-date activity and the week-over-week engagement
// comparison. The period label keys the cache and is echoed in the view; it
// does not yet bound the media query.
func (s *Service) GetGrowth(ctx context.Context, period string) (*Growth, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.growth")
	defer span.End()

	if period == "" {
		period = "month"
	}

	var cached Growth
	if s.cache.Get(ctx, s.accountID, MetricGrowth, period, &cached) {
		return &cached, nil
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, growthMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	now := s.now()
	view := &Growth{
		Period:      period,
		Daily:       []DailyActivity{},
		LastUpdated: now,
	}

	// Bucket by UTC calendar date
	byDate := make(map[string]*DailyActivity)
	for _, m := range media {
		date := m.Timestamp.UTC().Format("2006-01-02")
		bucket, ok := byDate[date]
		if !ok {
			bucket = &DailyActivity{Date: date}
			byDate[date] = bucket
		}
		bucket.Posts++
		bucket.Engagement += m.Engagement
	}
	for _, bucket := range byDate {
		view.Daily = append(view.Daily, *bucket)
	}
	sort.Slice(view.Daily, func(i, j int) bool {
		return view.Daily[i].Date < view.Daily[j].Date
	})

	// Two independent now-relative 7-day windows
	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)
	for _, m := range media {
		switch {
		case m.Timestamp.After(weekAgo):
			view.ThisWeekPosts++
			view.ThisWeekEngagement += m.Engagement
		case m.Timestamp.After(twoWeeksAgo):
			view.LastWeekPosts++
			view.LastWeekEngagement += m.Engagement
		}
	}

	if view.LastWeekEngagement > 0 {
		change := float64(view.ThisWeekEngagement-view.LastWeekEngagement) / float64(view.LastWeekEngagement) * 100
		view.EngagementChangePct = round1(change)
	}

	s.cache.Put(ctx, s.accountID, MetricGrowth, period, view)

	return view, nil
}
