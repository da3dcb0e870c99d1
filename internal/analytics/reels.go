package analytics

import (
	"context"
	"fmt"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const reelsMediaCount = 100

// GetReelsAnalytics compares reels and videos against every other format
func (s *Service) GetReelsAnalytics(ctx context.Context) (*ReelsAnalytics, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.reels")
	defer span.End()

	var cached ReelsAnalytics
	if s.cache.Get(ctx, s.accountID, MetricReels, defaultRange, &cached) {
		return &cached, nil
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, reelsMediaCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	var reels, others []instagram.MediaItem
	for _, m := range media {
		if m.MediaType == instagram.MediaTypeReel || m.MediaType == instagram.MediaTypeVideo {
			reels = append(reels, m)
		} else {
			others = append(others, m)
		}
	}

	view := &ReelsAnalytics{
		Reels:       partitionStats(reels),
		Others:      partitionStats(others),
		LastUpdated: s.now(),
	}
	if view.Others.AvgEngagement > 0 {
		view.ReelMultiplier = round2(view.Reels.AvgEngagement / view.Others.AvgEngagement)
	}

	s.cache.Put(ctx, s.accountID, MetricReels, defaultRange, view)

	return view, nil
}

// partitionStats sums and averages the core metrics over one partition
func partitionStats(media []instagram.MediaItem) PartitionStats {
	st := PartitionStats{Posts: len(media)}
	if len(media) == 0 {
		return st
	}

	for _, m := range media {
		st.TotalEngagement += m.Engagement
		st.TotalLikes += m.LikeCount
		st.TotalComments += m.CommentsCount
		st.TotalImpressions += m.Impressions
		st.TotalReach += m.Reach
	}

	n := float64(len(media))
	st.AvgEngagement = round1(float64(st.TotalEngagement) / n)
	st.AvgLikes = round1(float64(st.TotalLikes) / n)
	st.AvgComments = round1(float64(st.TotalComments) / n)
	st.AvgImpressions = round1(float64(st.TotalImpressions) / n)
	st.AvgReach = round1(float64(st.TotalReach) / n)

	return st
}
