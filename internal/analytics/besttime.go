package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const bestTimeMediaCount = 100

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GetBestTimeToPost buckets engagement by posting hour and weekday and ranks
// the buckets by average engagement.
func (s *Service) GetBestTimeToPost(ctx context.Context) (*BestTime, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.best_time")
	defer span.End()

	var cached BestTime
	if s.cache.Get(ctx, s.accountID, MetricBestTime, defaultRange, &cached) {
		return &cached, nil
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, bestTimeMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	var hourEngagement, hourPosts [24]int
	var dayEngagement, dayPosts [7]int
	for _, m := range media {
		local := m.Timestamp.In(s.location)
		hourEngagement[local.Hour()] += m.Engagement
		hourPosts[local.Hour()]++
		dayEngagement[int(local.Weekday())] += m.Engagement
		dayPosts[int(local.Weekday())]++
	}

	view := &BestTime{
		Hours:       make([]HourBucket, 24),
		Days:        make([]DayBucket, 7),
		TopHours:    []HourBucket{},
		TopDays:     []DayBucket{},
		LastUpdated: s.now(),
	}

	for h := 0; h < 24; h++ {
		bucket := HourBucket{Hour: h, Posts: hourPosts[h]}
		if hourPosts[h] > 0 {
			bucket.AvgEngagement = round1(float64(hourEngagement[h]) / float64(hourPosts[h]))
		}
		view.Hours[h] = bucket
	}
	for d := 0; d < 7; d++ {
		bucket := DayBucket{Weekday: d, Day: weekdayNames[d], Posts: dayPosts[d]}
		if dayPosts[d] > 0 {
			bucket.AvgEngagement = round1(float64(dayEngagement[d]) / float64(dayPosts[d]))
		}
		view.Days[d] = bucket
	}

	// Rank buckets that saw posts, descending by average engagement
	rankedHours := make([]HourBucket, 0, 24)
	for _, b := range view.Hours {
		if b.Posts > 0 {
			rankedHours = append(rankedHours, b)
		}
	}
	sort.SliceStable(rankedHours, func(i, j int) bool {
		return rankedHours[i].AvgEngagement > rankedHours[j].AvgEngagement
	})
	if len(rankedHours) > 3 {
		rankedHours = rankedHours[:3]
	}
	view.TopHours = rankedHours

	rankedDays := make([]DayBucket, 0, 7)
	for _, b := range view.Days {
		if b.Posts > 0 {
			rankedDays = append(rankedDays, b)
		}
	}
	sort.SliceStable(rankedDays, func(i, j int) bool {
		return rankedDays[i].AvgEngagement > rankedDays[j].AvgEngagement
	})
	if len(rankedDays) > 3 {
		rankedDays = rankedDays[:3]
	}
	view.TopDays = rankedDays

	s.cache.Put(ctx, s.accountID, MetricBestTime, defaultRange, view)

	return view, nil
}
