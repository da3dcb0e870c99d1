package analytics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const hashtagMediaCount = 100

var hashtagPattern = regexp.MustCompile(`#\w+`)

// GetHashtagAnalysis aggregates per-tag performance from captions and ranks
// tags by engagement, usage and reach expansion.
func (s *Service) GetHashtagAnalysis(ctx context.Context) (*HashtagAnalysis, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.hashtags")
	defer span.End()

	var cached HashtagAnalysis
	if s.cache.Get(ctx, s.accountID, MetricHashtags, defaultRange, &cached) {
		return &cached, nil
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, hashtagMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	type tagAccum struct {
		stats      HashtagStats
		totalReach int
	}

	tags := make(map[string]*tagAccum)
	totalReach := 0
	for _, m := range media {
		totalReach += m.Reach

		// Dedupe within one caption so a repeated tag counts the post once
		seen := make(map[string]bool)
		for _, match := range hashtagPattern.FindAllString(m.Caption, -1) {
			tag := strings.ToLower(match)
			if seen[tag] {
				continue
			}
			seen[tag] = true

			accum, ok := tags[tag]
			if !ok {
				accum = &tagAccum{stats: HashtagStats{Tag: tag}}
				tags[tag] = accum
			}
			accum.stats.UsageCount++
			accum.stats.TotalEngagement += m.Engagement
			accum.stats.TotalLikes += m.LikeCount
			accum.stats.TotalComments += m.CommentsCount
			accum.totalReach += m.Reach
		}
	}

	overallAvgReach := 0.0
	if len(media) > 0 {
		overallAvgReach = float64(totalReach) / float64(len(media))
	}

	all := make([]HashtagStats, 0, len(tags))
	for _, accum := range tags {
		st := accum.stats
		st.AvgEngagement = round1(float64(st.TotalEngagement) / float64(st.UsageCount))
		st.AvgReach = round1(float64(accum.totalReach) / float64(st.UsageCount))
		if overallAvgReach > 0 {
			st.ReachMultiplier = round2(st.AvgReach / overallAvgReach)
		}
		all = append(all, st)
	}

	view := &HashtagAnalysis{
		TopByEngagement: topHashtags(all, 20, func(a, b HashtagStats) bool {
			if a.AvgEngagement != b.AvgEngagement {
				return a.AvgEngagement > b.AvgEngagement
			}
			return a.Tag < b.Tag
		}),
		TopByUsage: topHashtags(all, 20, func(a, b HashtagStats) bool {
			if a.UsageCount != b.UsageCount {
				return a.UsageCount > b.UsageCount
			}
			return a.Tag < b.Tag
		}),
		TotalUnique: len(all),
		LastUpdated: s.now(),
	}

	expanders := make([]HashtagStats, 0, len(all))
	for _, st := range all {
		if st.ReachMultiplier > 1 {
			expanders = append(expanders, st)
		}
	}
	view.ReachExpanders = topHashtags(expanders, 10, func(a, b HashtagStats) bool {
		if a.ReachMultiplier != b.ReachMultiplier {
			return a.ReachMultiplier > b.ReachMultiplier
		}
		return a.Tag < b.Tag
	})

	s.cache.Put(ctx, s.accountID, MetricHashtags, defaultRange, view)

	return view, nil
}

// topHashtags returns up to limit entries sorted by less
func topHashtags(stats []HashtagStats, limit int, less func(a, b HashtagStats) bool) []HashtagStats {
	sorted := make([]HashtagStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
