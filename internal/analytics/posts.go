package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/jerilmartin/infini8graph/internal/instagram"
	"github.com/jerilmartin/infini8graph/pkg/telemetry"
)

const (
	defaultPostsLimit = 50
	maxPostsLimit     = 100
	rankingSize       = 10
)

// GetPostsAnalytics produces four independently-ranked ID lists plus summary
// totals over up to limit posts. A non-positive limit falls back to the
// default; limits above the maximum are clamped.
func (s *Service) GetPostsAnalytics(ctx context.Context, limit int) (*PostsAnalytics, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "analytics.posts")
	defer span.End()

	if limit <= 0 {
		limit = defaultPostsLimit
	}
	if limit > maxPostsLimit {
		limit = maxPostsLimit
	}

	dateRange := fmt.Sprintf("limit_%d", limit)

	var cached PostsAnalytics
	if s.cache.Get(ctx, s.accountID, MetricPosts, dateRange, &cached) {
		return &cached, nil
	}

	media, err := s.fetcher.GetAllMediaWithInsights(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media: %w", err)
	}

	view := &PostsAnalytics{
		Limit:           limit,
		TotalPosts:      len(media),
		TopByEngagement: rankIDs(media, func(m instagram.MediaItem) int { return m.Engagement }),
		TopByLikes:      rankIDs(media, func(m instagram.MediaItem) int { return m.LikeCount }),
		TopByComments:   rankIDs(media, func(m instagram.MediaItem) int { return m.CommentsCount }),
		TopByReach:      rankIDs(media, func(m instagram.MediaItem) int { return m.Reach }),
		Posts:           []PostSummary{},
		LastUpdated:     s.now(),
	}

	for _, m := range media {
		view.TotalEngagement += m.Engagement
		view.TotalLikes += m.LikeCount
		view.TotalComments += m.CommentsCount
		view.TotalReach += m.Reach
		view.Posts = append(view.Posts, toPostSummary(m))
	}
	if len(media) > 0 {
		view.AvgEngagement = round1(float64(view.TotalEngagement) / float64(len(media)))
	}

	s.cache.Put(ctx, s.accountID, MetricPosts, dateRange, view)

	return view, nil
}

// rankIDs returns the IDs of the top posts by the given metric, descending
func rankIDs(media []instagram.MediaItem, metric func(instagram.MediaItem) int) []string {
	sorted := make([]instagram.MediaItem, len(media))
	copy(sorted, media)
	sort.SliceStable(sorted, func(i, j int) bool {
		return metric(sorted[i]) > metric(sorted[j])
	})

	n := len(sorted)
	if n > rankingSize {
		n = rankingSize
	}
	ids := make([]string, 0, n)
	for _, m := range sorted[:n] {
		ids = append(ids, m.ID)
	}
	return ids
}
